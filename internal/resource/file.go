package resource

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kovyrin/pdfish/internal/security"
)

// FileProvider resolves "file://" URIs and plain paths to handles on the
// local filesystem, scoped by grants.
type FileProvider struct {
	grants *security.Grants
}

// NewFileProvider creates a FileProvider. A nil grants value permits every
// path.
func NewFileProvider(grants *security.Grants) *FileProvider {
	return &FileProvider{grants: grants}
}

// Open implements Provider. It never touches the filesystem; missing or
// unreadable files surface from OpenRead.
func (p *FileProvider) Open(uri string) (Handle, error) {
	path, err := filePath(uri)
	if err != nil {
		return nil, err
	}
	return &fileHandle{path: path, grants: p.grants}, nil
}

func filePath(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file:") {
		return filepath.Clean(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse file uri: %w", err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote file host %q", ErrUnsupportedScheme, u.Host)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", fmt.Errorf("parse file uri: no path in %q", uri)
	}
	return filepath.FromSlash(path), nil
}

type fileHandle struct {
	path   string
	grants *security.Grants
}

func (h *fileHandle) OpenRead() (io.ReadCloser, error) {
	// Grants apply to the file a link points at, not to the link.
	target, err := filepath.EvalSymlinks(h.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := h.grants.Check(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnavailable, h.path)
	}
	return f, nil
}

func (h *fileHandle) DisplayName() (string, bool) {
	name := filepath.Base(h.path)
	if name == "." || name == string(filepath.Separator) {
		return "", false
	}
	return name, true
}
