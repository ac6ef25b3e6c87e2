package git

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/kovyrin/pdfish/internal/security"
)

// ErrOffline is returned when a repository would have to be cloned while
// offline mode is on.
var ErrOffline = errors.New("offline mode: repository not cached")

// Options configures a Fetcher instance.
type Options struct {
	ReposDir string           // Base directory for cached clones (default: $HOME/.pdfish/repos)
	Offline  bool             // If true, only use cached repos (no network access)
	Grants   *security.Grants // Repositories that may be read (nil: all)
	Logger   *zap.Logger      // Receives refresh failures (nil: discarded)
}

// Fetcher keeps bare clones of document repositories and resolves commits
// in them.
type Fetcher struct {
	options Options
	mu      sync.Mutex
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(options ...Option) *Fetcher {
	opts := Options{}
	for _, opt := range options {
		opt(&opts)
	}
	opts.ReposDir = ResolveReposDir(opts.ReposDir)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Fetcher{options: opts}
}

// repoPath generates a deterministic local path for a repo URL.
func (f *Fetcher) repoPath(repoURL string) string {
	// Create a hash of the URL for the directory name
	h := sha256.Sum256([]byte(repoURL))
	hash := hex.EncodeToString(h[:])[:12]

	// Extract a human-readable name from the URL
	name := strings.TrimSuffix(strings.TrimRight(repoURL, "/"), ".git")
	parts := strings.Split(filepath.ToSlash(name), "/")
	if len(parts) >= 2 {
		name = parts[len(parts)-2] + "-" + parts[len(parts)-1]
	}

	// Clean up the name
	name = strings.NewReplacer(":", "-", "@", "-", `\`, "-", "/", "-").Replace(name)

	return filepath.Join(f.options.ReposDir, name+"-"+hash)
}

// CachedPath returns the local path for a cached repository, if it exists.
func (f *Fetcher) CachedPath(repoURL string) (string, bool) {
	repoPath := f.repoPath(repoURL)
	if _, err := git.PlainOpen(repoPath); err != nil {
		return "", false
	}
	return repoPath, true
}

// Open returns the repository for repoURL, cloning it on first use and
// refreshing it on later ones unless offline.
func (f *Fetcher) Open(repoURL string) (*git.Repository, error) {
	if err := f.options.Grants.Check(repoURL); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	repoPath := f.repoPath(repoURL)

	// Check if already cloned
	if repo, err := git.PlainOpen(repoPath); err == nil {
		if !f.options.Offline {
			// Stale refs still serve documents; a failed refresh is not fatal.
			if err := fetchAll(repo); err != nil {
				f.options.Logger.Warn("error refreshing cached repository",
					zap.String("repo", repoURL),
					zap.String("path", repoPath),
					zap.Error(err),
				)
			}
		}
		return repo, nil
	}

	// In offline mode, we can't clone new repos
	if f.options.Offline {
		return nil, ErrOffline
	}

	// Ensure cache directory exists
	if err := os.MkdirAll(f.options.ReposDir, 0755); err != nil {
		return nil, fmt.Errorf("create repos dir: %w", err)
	}

	repo, err := git.PlainClone(repoPath, true, &git.CloneOptions{
		URL:  repoURL,
		Tags: git.AllTags,
	})
	if err != nil {
		// Clean up partial clone
		os.RemoveAll(repoPath)
		return nil, fmt.Errorf("clone repository: %w", err)
	}

	// Make every branch resolvable, not only the remote HEAD.
	if err := fetchAll(repo); err != nil {
		os.RemoveAll(repoPath)
		return nil, fmt.Errorf("fetch refs: %w", err)
	}
	return repo, nil
}

// fetchAll refreshes branches and tags from origin.
func fetchAll(repo *git.Repository) error {
	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("get remote: %w", err)
	}
	err = remote.Fetch(&git.FetchOptions{
		RefSpecs: []config.RefSpec{
			config.RefSpec("+refs/heads/*:refs/remotes/origin/*"),
			config.RefSpec("+refs/tags/*:refs/tags/*"),
		},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

// ResolveCommit finds the commit ref names: a branch, a tag, a commit hash,
// or HEAD when ref is empty.
func ResolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	candidates := []string{"HEAD"}
	if ref != "" {
		candidates = []string{ref, "origin/" + ref}
	}

	for _, rev := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			continue
		}
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			// Annotated tags resolve to the tag object.
			tag, terr := repo.TagObject(*hash)
			if terr != nil {
				return nil, fmt.Errorf("read commit %s: %w", hash, err)
			}
			if commit, err = tag.Commit(); err != nil {
				return nil, fmt.Errorf("peel tag %s: %w", ref, err)
			}
		}
		return commit, nil
	}

	return nil, fmt.Errorf("ref not found: %s", ref)
}
