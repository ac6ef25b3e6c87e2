package resource

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Resolver maps URI schemes to providers.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
	exact     map[string]Provider
	fallback  Provider
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{providers: make(map[string]Provider), exact: make(map[string]Provider)}
}

// Register binds scheme (without "://" or ":") to p. Later registrations
// replace earlier ones.
func (r *Resolver) Register(scheme string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(scheme)] = p
}

// RegisterURI binds one literal URI, such as "-" for standard input, to p.
// Literal bindings take precedence over schemes.
func (r *Resolver) RegisterURI(uri string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[uri] = p
}

// RegisterDefault sets the provider used for URIs that carry no scheme,
// i.e. plain paths.
func (r *Resolver) RegisterDefault(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// Resolve returns a handle for uri.
func (r *Resolver) Resolve(uri string) (Handle, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("resolve: empty uri")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.exact[uri]; ok {
		return p.Open(uri)
	}

	scheme := Scheme(uri)
	if scheme == "" {
		if r.fallback == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri)
		}
		return r.fallback.Open(uri)
	}

	p, ok := r.providers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	return p.Open(uri)
}

// Scheme extracts the lower-cased scheme of uri. Compound schemes such as
// "git+https" report their first component ("git"). Windows volume names
// and plain paths report "".
func Scheme(uri string) string {
	i := strings.Index(uri, ":")
	if i <= 1 {
		// "" or a single letter, which is a drive letter rather than a scheme
		return ""
	}
	s := uri[:i]
	for j, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return ""
		}
	}
	if plus := strings.Index(s, "+"); plus > 0 {
		s = s[:plus]
	}
	return strings.ToLower(s)
}
