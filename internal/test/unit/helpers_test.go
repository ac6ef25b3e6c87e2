package unit

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
)

// fakeHandle is an in-memory resource.Handle.
type fakeHandle struct {
	data    []byte
	name    string
	named   bool
	openErr error
	readErr error // returned once data is consumed, instead of io.EOF
	opened  atomic.Int32
	closed  atomic.Int32
}

func newHandle(data []byte, name string) *fakeHandle {
	return &fakeHandle{data: data, name: name, named: name != ""}
}

func (h *fakeHandle) OpenRead() (io.ReadCloser, error) {
	if h.openErr != nil {
		return nil, h.openErr
	}
	h.opened.Add(1)
	var r io.Reader = bytes.NewReader(h.data)
	if h.readErr != nil {
		r = io.MultiReader(r, errReader{h.readErr})
	}
	return &trackedReader{Reader: r, closed: &h.closed}, nil
}

func (h *fakeHandle) DisplayName() (string, bool) { return h.name, h.named }

type trackedReader struct {
	io.Reader
	closed *atomic.Int32
}

func (r *trackedReader) Close() error {
	r.closed.Add(1)
	return nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

var errDiskFull = errors.New("no space left on device")

// failingFs hands out files that stop accepting writes after limit bytes.
type failingFs struct {
	afero.Fs
	limit int
}

func (fs failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &failingFile{File: f, remaining: fs.limit}, nil
}

type failingFile struct {
	afero.File
	remaining int
}

func (f *failingFile) Write(p []byte) (int, error) {
	if len(p) > f.remaining {
		n, _ := f.File.Write(p[:f.remaining])
		f.remaining = 0
		return n, errDiskFull
	}
	f.remaining -= len(p)
	return f.File.Write(p)
}

// patterned returns n deterministic bytes.
func patterned(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + i/251)
	}
	return b
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
