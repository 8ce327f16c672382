package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"htem/fanc/pkg/config"
)

const notesVocabulary = `
tables:
  notes:
    kind: flat
    values: [backbone proofread, orphan]
`

// upstream is a repository the tests clone from.
type upstream struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	u := &upstream{t: t, dir: dir, repo: repo}
	u.commit("initial vocabulary", map[string]string{"vocab/notes.yaml": notesVocabulary})
	return u
}

// commit writes files and commits them, returning the new SHA.
func (u *upstream) commit(msg string, files map[string]string) string {
	u.t.Helper()
	wt, err := u.repo.Worktree()
	if err != nil {
		u.t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(u.dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			u.t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			u.t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			u.t.Fatalf("failed to add %s: %v", name, err)
		}
	}
	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		u.t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

// gitConfig clones u into a fresh directory. go-git initializes "master".
func (u *upstream) gitConfig(t *testing.T) config.GitConfig {
	return config.GitConfig{
		Repository: u.dir,
		Branch:     "master",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
		Timeout:    10 * time.Second,
		Auth:       config.GitAuthConfig{Type: "none"},
	}
}
