package git

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kovyrin/pdfish/internal/resource"
)

// Scheme is the resolver scheme documents in Git repositories use:
//
//	git+<repo-url>#<ref>:<path>
//
// e.g. git+https://github.com/acme/docs.git#v1.2.0:manuals/setup.pdf. The
// ref may be empty ("#:manuals/setup.pdf") to read HEAD.
const Scheme = "git"

// Ref is a parsed git+ URI.
type Ref struct {
	RepoURL string
	Rev     string
	Path    string
}

// ParseURI splits a git+ URI into its parts.
func ParseURI(uri string) (Ref, error) {
	rest, ok := strings.CutPrefix(uri, Scheme+"+")
	if !ok {
		return Ref{}, fmt.Errorf("parse git uri %q: missing %s+ prefix", uri, Scheme)
	}
	hash := strings.LastIndex(rest, "#")
	if hash < 0 {
		return Ref{}, fmt.Errorf("parse git uri %q: missing #<ref>:<path>", uri)
	}
	repoURL, selector := rest[:hash], rest[hash+1:]
	rev, file, ok := strings.Cut(selector, ":")
	if !ok {
		return Ref{}, fmt.Errorf("parse git uri %q: missing :<path>", uri)
	}
	file = strings.TrimPrefix(path.Clean("/"+file), "/")
	if repoURL == "" || file == "" {
		return Ref{}, fmt.Errorf("parse git uri %q: empty repository or path", uri)
	}
	// file:// URLs and plain paths are both accepted by go-git.
	repoURL = strings.TrimPrefix(repoURL, "file://")
	return Ref{RepoURL: repoURL, Rev: rev, Path: file}, nil
}

// Provider resolves git+ URIs to handles reading a file out of a commit.
type Provider struct {
	fetcher *Fetcher
}

// NewProvider creates a Provider backed by a Fetcher built from options.
func NewProvider(options ...Option) *Provider {
	return &Provider{fetcher: NewFetcher(options...)}
}

// Open implements resource.Provider. The repository is not touched until
// the handle is read.
func (p *Provider) Open(uri string) (resource.Handle, error) {
	ref, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return &handle{fetcher: p.fetcher, ref: ref}, nil
}

type handle struct {
	fetcher *Fetcher
	ref     Ref
}

func (h *handle) OpenRead() (io.ReadCloser, error) {
	repo, err := h.fetcher.Open(h.ref.RepoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resource.ErrUnavailable, err)
	}
	commit, err := ResolveCommit(repo, h.ref.Rev)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resource.ErrUnavailable, err)
	}
	file, err := commit.File(h.ref.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %s: %v", resource.ErrUnavailable, h.ref.Path, commit.Hash, err)
	}
	r, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: open blob %s: %v", resource.ErrUnavailable, file.Hash, err)
	}
	return r, nil
}

func (h *handle) DisplayName() (string, bool) {
	name := path.Base(h.ref.Path)
	if name == "." || name == "/" {
		return "", false
	}
	return name, true
}
