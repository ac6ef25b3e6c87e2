package git

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kovyrin/pdfish/internal/security"
)

// Option configures a Fetcher or Provider.
type Option func(*Options)

// WithReposDir sets the directory clones are cached in.
func WithReposDir(dir string) Option {
	return func(o *Options) { o.ReposDir = dir }
}

// WithOfflineMode restricts access to repositories already cloned.
func WithOfflineMode() Option {
	return func(o *Options) { o.Offline = true }
}

// WithGrants scopes which repositories may be read.
func WithGrants(g *security.Grants) Option {
	return func(o *Options) { o.Grants = g }
}

// WithLogger sets the logger non-fatal refresh failures are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// ResolveReposDir determines the clone cache directory to use based on:
// 1. Explicit reposDir parameter (highest priority)
// 2. PDFISH_REPOS_DIR environment variable
// 3. Default: $HOME/.pdfish/repos
func ResolveReposDir(reposDir string) string {
	if reposDir != "" {
		return reposDir
	}

	if envDir := os.Getenv("PDFISH_REPOS_DIR"); envDir != "" {
		return envDir
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pdfish", "repos")
}
