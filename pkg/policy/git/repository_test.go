package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"htem/fanc/pkg/config"
)

func TestNewRepository(t *testing.T) {
	valid := config.GitConfig{Repository: "https://github.com/fanc/vocab.git", Branch: "main", LocalPath: "/tmp/vocab"}

	tests := []struct {
		name    string
		modify  func(*config.GitConfig)
		subPath string
		wantErr bool
	}{
		{name: "valid", modify: func(*config.GitConfig) {}},
		{name: "no repository", modify: func(c *config.GitConfig) { c.Repository = "" }, wantErr: true},
		{name: "no branch", modify: func(c *config.GitConfig) { c.Branch = "" }, wantErr: true},
		{name: "no local path", modify: func(c *config.GitConfig) { c.LocalPath = "" }, wantErr: true},
		{name: "absolute vocabulary path", modify: func(*config.GitConfig) {}, subPath: "/etc/vocab", wantErr: true},
		{name: "bad auth", modify: func(c *config.GitConfig) { c.Auth.Type = "token" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			_, err := NewRepository(cfg, tt.subPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepository_NotCloned(t *testing.T) {
	repo, err := NewRepository(config.GitConfig{Repository: "/srv/vocab", Branch: "main", LocalPath: t.TempDir()}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Fetch(context.Background()); !errors.Is(err, ErrNotCloned) {
		t.Errorf("Fetch() error = %v, want ErrNotCloned", err)
	}
	if _, err := repo.Head(); !errors.Is(err, ErrNotCloned) {
		t.Errorf("Head() error = %v, want ErrNotCloned", err)
	}
	if err := repo.Rollback("abc"); !errors.Is(err, ErrNotCloned) {
		t.Errorf("Rollback() error = %v, want ErrNotCloned", err)
	}
}

func TestRepository_CloneAndPull(t *testing.T) {
	up := newUpstream(t)
	repo, err := NewRepository(up.gitConfig(t), "vocab")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := repo.Clone(ctx); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo.VocabularyPath(), "notes.yaml")); err != nil {
		t.Fatalf("vocabulary file not cloned: %v", err)
	}
	first, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if first.Message != "initial vocabulary" || first.Author != "Test User" {
		t.Errorf("Head() = %+v", first)
	}

	result, err := repo.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.Changed() {
		t.Errorf("Pull() without upstream commits moved %s -> %s", result.FromSHA, result.ToSHA)
	}

	sha := up.commit("add readme and tags", map[string]string{
		"README.md":       "vocabularies\n",
		"vocab/tags.yaml": "tables:\n  tags:\n    kind: flat\n    values: [x]\n",
	})
	result, err = repo.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.FromSHA != first.SHA || result.ToSHA != sha {
		t.Errorf("Pull() = %s -> %s, want %s -> %s", result.FromSHA, result.ToSHA, first.SHA, sha)
	}
	want := []string{"README.md", "vocab/tags.yaml"}
	sort.Strings(result.ChangedFiles)
	if !reflect.DeepEqual(result.ChangedFiles, want) {
		t.Errorf("ChangedFiles = %v, want %v", result.ChangedFiles, want)
	}
	if _, err := os.Stat(filepath.Join(repo.VocabularyPath(), "tags.yaml")); err != nil {
		t.Errorf("pulled file missing from working tree: %v", err)
	}

	history, err := repo.History(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].SHA != sha {
		t.Errorf("History() = %d commits, newest %v", len(history), history)
	}
	if stats := repo.Stats(); stats.Fetches != 2 || stats.FailedFetches != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestRepository_CloneOpensExisting(t *testing.T) {
	up := newUpstream(t)
	cfg := up.gitConfig(t)

	first, err := NewRepository(cfg, "vocab")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Clone(context.Background()); err != nil {
		t.Fatal(err)
	}

	cfg.Repository = filepath.Join(t.TempDir(), "unreachable")
	second, err := NewRepository(cfg, "vocab")
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() over an existing clone error = %v", err)
	}
	if _, err := second.Head(); err != nil {
		t.Errorf("Head() error = %v", err)
	}
}

func TestRepository_CloneMissingRemote(t *testing.T) {
	cfg := config.GitConfig{
		Repository: filepath.Join(t.TempDir(), "missing"),
		Branch:     "master",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
		Timeout:    config.DefaultGitTimeout,
	}
	repo, err := NewRepository(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Clone(context.Background()); err == nil {
		t.Error("Clone() of a missing repository succeeded")
	}
}

func TestRepository_Rollback(t *testing.T) {
	up := newUpstream(t)
	repo, err := NewRepository(up.gitConfig(t), "vocab")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := repo.Clone(ctx); err != nil {
		t.Fatal(err)
	}
	first, _ := repo.Head()

	up.commit("break notes", map[string]string{"vocab/notes.yaml": "tables: [\n"})
	if _, err := repo.Pull(ctx); err != nil {
		t.Fatal(err)
	}

	if err := repo.Rollback(first.SHA); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	head, _ := repo.Head()
	if head.SHA != first.SHA {
		t.Errorf("Head() after rollback = %s, want %s", head.SHA, first.SHA)
	}
	data, err := os.ReadFile(filepath.Join(repo.VocabularyPath(), "notes.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != notesVocabulary {
		t.Errorf("notes.yaml after rollback = %q", data)
	}
	if repo.Stats().Rollbacks != 1 {
		t.Errorf("Rollbacks = %d", repo.Stats().Rollbacks)
	}

	if err := repo.Rollback("0123456789abcdef0123456789abcdef01234567"); err == nil {
		t.Error("Rollback() to an unknown commit succeeded")
	}
}

func TestRepository_Relevant(t *testing.T) {
	exts := []string{".yaml", ".yml"}
	tests := []struct {
		subPath string
		path    string
		want    bool
	}{
		{"", "notes.yaml", true},
		{"", "docs/readme.md", false},
		{"vocab", "vocab/notes.yaml", true},
		{"vocab", "vocab/nested/tags.yml", true},
		{"vocab", "other/notes.yaml", false},
		{"vocab/notes.yaml", "vocab/notes.yaml", true},
		{"vocab/notes.yaml", "vocab/tags.yaml", false},
	}
	for _, tt := range tests {
		repo := &Repository{subPath: tt.subPath}
		if got := repo.Relevant(tt.path, exts); got != tt.want {
			t.Errorf("Relevant(%q) with path %q = %v, want %v", tt.path, tt.subPath, got, tt.want)
		}
	}
}
