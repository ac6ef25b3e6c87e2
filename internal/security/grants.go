package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotGranted is returned when a reference falls outside every grant.
var ErrNotGranted = errors.New("access not granted")

// Grants is the permission scope handles are resolved under. A pattern
// matches a reference exactly, or by prefix when it ends in "*" (e.g.
// "/home/me/Documents/*" or "github.com:acme/*"). An empty Grants value
// permits everything.
type Grants struct {
	patterns []string
}

// NewGrants builds a Grants value from configured patterns. Blank patterns
// are dropped.
func NewGrants(patterns ...string) *Grants {
	g := &Grants{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		g.patterns = append(g.patterns, canonical(p))
	}
	return g
}

// Patterns returns the canonical patterns in configuration order.
func (g *Grants) Patterns() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.patterns...)
}

// Allows reports whether ref (a file path or a repository URL) is granted.
func (g *Grants) Allows(ref string) bool {
	if g == nil || len(g.patterns) == 0 {
		return true
	}
	canon := canonical(ref)
	for _, allowed := range g.patterns {
		if matchRef(canon, allowed) {
			return true
		}
	}
	return false
}

// Check returns ErrNotGranted unless ref is granted.
func (g *Grants) Check(ref string) error {
	if g.Allows(ref) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotGranted, ref)
}

func matchRef(ref, allowed string) bool {
	if strings.HasSuffix(allowed, "*") {
		prefix := strings.TrimSuffix(allowed, "*")
		return strings.HasPrefix(ref, prefix)
	}
	return ref == allowed
}

// canonical applies a simple normalisation so that semantically identical
// references compare equal. Local paths (and file:// URLs) become absolute
// and cleaned, with symlinks resolved where they exist; Git URLs lose their
// transport prefix and ".git" suffix and take the scp-like "host:owner/repo"
// form.
func canonical(u string) string {
	wildcard := strings.HasSuffix(u, "*")
	u = strings.TrimSuffix(u, "*")

	var out string
	switch {
	case strings.HasPrefix(u, "file://"):
		out = canonicalPath(strings.TrimPrefix(u, "file://"), wildcard)
	case isRemote(u):
		out = canonicalRepo(u)
	default:
		out = canonicalPath(u, wildcard)
	}

	if wildcard {
		out += "*"
	}
	return out
}

func isRemote(u string) bool {
	for _, p := range []string{"git@", "https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	// scp-like host:path, but not a Windows volume
	if i := strings.Index(u, ":"); i > 1 && !strings.ContainsAny(u[:i], `/\`) {
		return true
	}
	return false
}

func canonicalRepo(u string) string {
	u = strings.TrimPrefix(u, "git@")
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "ssh://")
	u = strings.TrimPrefix(u, "git://")

	// Replace the first "/" after the host with ":" to normalise to scp-like form.
	if i := strings.Index(u, "/"); i > 0 && !strings.Contains(u[:i], ":") {
		u = u[:i] + ":" + u[i+1:]
	}
	return strings.TrimSuffix(u, ".git")
}

func canonicalPath(p string, wildcard bool) string {
	if p == "" {
		return p
	}
	keepSep := wildcard && (strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)))
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = resolveLinks(filepath.Clean(p))
	if keepSep && !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return p
}

// resolveLinks follows symlinks in p. Missing trailing elements are kept
// as written below the deepest existing ancestor.
func resolveLinks(p string) string {
	rest := ""
	for dir := p; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return p
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
