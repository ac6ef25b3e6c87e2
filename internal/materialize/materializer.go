// Package materialize copies the content behind a resource handle into a
// plain file in the cache directory.
package materialize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kovyrin/pdfish/internal/resource"
)

// DefaultBufferSize is the copy chunk size.
const DefaultBufferSize = 4 * 1024

// Options configures a Materializer.
type Options struct {
	CacheDir   string      // existing directory files are written into (required)
	BufferSize int         // copy chunk size; <= 0 uses DefaultBufferSize
	Prefix     string      // fallback name prefix; "" uses DefaultPrefix
	Suffix     string      // fallback name suffix; "" uses DefaultSuffix
	FileMode   os.FileMode // destination permissions; 0 uses 0o644
	Fs         afero.Fs    // destination filesystem; nil uses the OS
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Result describes a materialized file.
type Result struct {
	Path   string // absolute destination path
	Name   string // file name within the cache directory
	Size   int64
	SHA256 string
}

// Materializer writes resource content into the cache directory. It does
// not create, list or clean that directory.
type Materializer struct {
	cacheDir string
	bufSize  int
	prefix   string
	suffix   string
	perm     os.FileMode
	fs       afero.Fs
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a Materializer.
func New(opts Options) (*Materializer, error) {
	if opts.CacheDir == "" {
		return nil, errors.New("materialize: cache dir is required")
	}
	dir, err := filepath.Abs(opts.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	m := &Materializer{
		cacheDir: dir,
		bufSize:  opts.BufferSize,
		prefix:   opts.Prefix,
		suffix:   opts.Suffix,
		perm:     opts.FileMode,
		fs:       opts.Fs,
		now:      opts.Clock,
		logger:   opts.Logger,
	}
	if m.bufSize <= 0 {
		m.bufSize = DefaultBufferSize
	}
	if m.prefix == "" {
		m.prefix = DefaultPrefix
	}
	if m.suffix == "" {
		m.suffix = DefaultSuffix
	}
	if m.perm == 0 {
		m.perm = 0o644
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m, nil
}

// CacheDir returns the absolute cache directory.
func (m *Materializer) CacheDir() string {
	return m.cacheDir
}

// Materialize copies the content behind h into the cache directory.
//
// When h cannot be opened for reading it returns ok == false and a nil
// error: there is nothing to ingest. Failures after the source is open are
// returned as *IOError. A destination with the same name is overwritten; a
// destination left behind by a failed copy is not removed.
func (m *Materializer) Materialize(h resource.Handle) (res Result, ok bool, err error) {
	src, err := h.OpenRead()
	if err != nil {
		m.logger.Debug("resource not readable", zap.Error(err))
		return Result{}, false, nil
	}
	defer src.Close()

	display, named := h.DisplayName()
	name := fileName(display, named, m.prefix, m.suffix, m.now())
	dest := filepath.Join(m.cacheDir, name)

	dst, err := m.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, m.perm)
	if err != nil {
		return Result{}, false, &IOError{Op: "create", Path: dest, Err: err}
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: dest, Err: cerr}
		}
		if err != nil {
			res, ok = Result{}, false
		}
	}()

	sum := sha256.New()
	n, err := m.copy(dst, src, sum, dest)
	if err != nil {
		return Result{}, false, err
	}
	if err := dst.Sync(); err != nil {
		return Result{}, false, &IOError{Op: "sync", Path: dest, Err: err}
	}

	return Result{
		Path:   dest,
		Name:   name,
		Size:   n,
		SHA256: hex.EncodeToString(sum.Sum(nil)),
	}, true, nil
}

// copy moves src into dst in bufSize chunks until src reports io.EOF.
func (m *Materializer) copy(dst io.Writer, src io.Reader, sum hash.Hash, dest string) (int64, error) {
	buf := make([]byte, m.bufSize)
	var written int64

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			if werr == nil && w != n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, &IOError{Op: "write", Path: dest, Err: werr}
			}
			sum.Write(buf[:n])
			written += int64(n)
		}

		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, &IOError{Op: "read", Path: dest, Err: rerr}
		}
	}
}
