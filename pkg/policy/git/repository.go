package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"htem/fanc/pkg/config"
)

const remoteName = "origin"

// ErrNotCloned is returned by operations that need a local clone.
var ErrNotCloned = errors.New("repository not cloned, call Clone first")

// Repository is a local clone of a vocabulary repository.
type Repository struct {
	config  config.GitConfig
	subPath string
	auth    transport.AuthMethod

	mu    sync.RWMutex
	repo  *gogit.Repository
	stats Stats
}

// NewRepository prepares a clone of cfg.Repository. subPath is the
// vocabulary file or directory relative to the repository root; empty
// means the whole repository.
func NewRepository(cfg config.GitConfig, subPath string) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	if cfg.LocalPath == "" {
		return nil, errors.New("local path cannot be empty")
	}
	if filepath.IsAbs(subPath) {
		return nil, fmt.Errorf("vocabulary path %q must be relative to the repository", subPath)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultGitTimeout
	}

	auth, err := AuthMethod(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create git auth: %w", err)
	}
	return &Repository{config: cfg, subPath: subPath, auth: auth}, nil
}

// Clone clones the branch into LocalPath, or opens LocalPath when it
// already holds a repository.
func (r *Repository) Clone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	defer func() { r.stats.CloneDuration = time.Since(start) }()

	if _, err := os.Stat(filepath.Join(r.config.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.config.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.config.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.config.LocalPath, false, &gogit.CloneOptions{
		URL:           r.config.Repository,
		Auth:          r.auth,
		RemoteName:    remoteName,
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Depth:         r.config.Depth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", r.config.Repository, err)
	}
	r.repo = repo
	return nil
}

// Fetch updates the remote-tracking branch and returns its head SHA. The
// working tree is not touched.
func (r *Repository) Fetch(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return "", ErrNotCloned
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	r.stats.LastFetch = time.Now()
	err := r.repo.FetchContext(fetchCtx, &gogit.FetchOptions{
		RemoteName: remoteName,
		Auth:       r.auth,
		Depth:      r.config.Depth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		r.stats.FailedFetches++
		return "", fmt.Errorf("failed to fetch: %w", err)
	}
	r.stats.Fetches++

	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, r.config.Branch), true)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s/%s: %w", remoteName, r.config.Branch, err)
	}
	return ref.Hash().String(), nil
}

// Advance hard-resets the local branch and working tree to sha and
// reports which files changed.
func (r *Repository) Advance(sha string) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	result := &PullResult{FromSHA: head.Hash().String(), ToSHA: sha}
	if !result.Changed() {
		return result, nil
	}

	if err := r.reset(sha); err != nil {
		return nil, err
	}
	result.ChangedFiles, err = r.changedFiles(result.FromSHA, result.ToSHA)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Pull fetches and fast-forwards to the remote branch head.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	sha, err := r.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return r.Advance(sha)
}

// Rollback hard-resets the local branch to sha, which must already be in
// the clone.
func (r *Repository) Rollback(sha string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return ErrNotCloned
	}
	if err := r.reset(sha); err != nil {
		return err
	}
	r.stats.Rollbacks++
	return nil
}

func (r *Repository) reset(sha string) error {
	hash := plumbing.NewHash(sha)
	if _, err := r.repo.CommitObject(hash); err != nil {
		return fmt.Errorf("commit %s not found: %w", sha, err)
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: hash, Mode: gogit.HardReset}); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", sha, err)
	}
	return nil
}

func (r *Repository) changedFiles(fromSHA, toSHA string) ([]string, error) {
	from, err := r.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", fromSHA, err)
	}
	to, err := r.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", toSHA, err)
	}
	fromTree, err := from.Tree()
	if err != nil {
		return nil, err
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, err
	}
	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, c := range changes {
		// Deleted files only have a From side.
		if c.To.Name != "" {
			files = append(files, c.To.Name)
		} else {
			files = append(files, c.From.Name)
		}
	}
	return files, nil
}

// Head returns the commit the working tree is on.
func (r *Repository) Head() (*Commit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	c, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	return toCommit(c), nil
}

// History returns up to limit commits reachable from HEAD, newest first.
func (r *Repository) History(limit int) ([]*Commit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	iter, err := r.repo.Log(&gogit.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var history []*Commit
	for limit <= 0 || len(history) < limit {
		c, err := iter.Next()
		if err != nil {
			break
		}
		history = append(history, toCommit(c))
	}
	return history, nil
}

func toCommit(c *object.Commit) *Commit {
	return &Commit{
		SHA:     c.Hash.String(),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		When:    c.Author.When,
		Message: c.Message,
	}
}

// Stats returns a copy of the operation counters.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// LocalPath is the clone directory.
func (r *Repository) LocalPath() string {
	return r.config.LocalPath
}

// VocabularyPath is the vocabulary file or directory inside the clone.
func (r *Repository) VocabularyPath() string {
	return filepath.Join(r.config.LocalPath, r.subPath)
}

// Relevant reports whether a repository-relative path is a vocabulary
// file under the configured vocabulary path with one of exts.
func (r *Repository) Relevant(path string, exts []string) bool {
	if r.subPath != "" && r.subPath != "." {
		rel, err := filepath.Rel(filepath.Clean(r.subPath), filepath.FromSlash(path))
		if err != nil || strings.HasPrefix(rel, "..") {
			return false
		}
	}
	ext := filepath.Ext(path)
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
