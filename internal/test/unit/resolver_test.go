package unit

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovyrin/pdfish/internal/resource"
	"github.com/kovyrin/pdfish/internal/security"
)

func TestScheme(t *testing.T) {
	tests := map[string]string{
		"file:///tmp/a.pdf":                   "file",
		"FILE:///tmp/a.pdf":                   "file",
		"git+https://github.com/a/b#v1:x.pdf": "git",
		"git+file:///repo#:x.pdf":             "git",
		"/tmp/a.pdf":                          "",
		"relative/a.pdf":                      "",
		`C:\docs\a.pdf`:                       "",
		"-":                                   "",
		"1abc:thing":                          "",
	}
	for uri, want := range tests {
		assert.Equal(t, want, resource.Scheme(uri), uri)
	}
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	writeFile(t, path, "%PDF-1.4 body")

	files := resource.NewFileProvider(nil)
	r := resource.NewResolver()
	r.RegisterDefault(files)
	r.Register("file", files)
	r.RegisterURI("-", resource.NewStreamProvider(strings.NewReader("from stdin")))

	t.Run("plain path", func(t *testing.T) {
		h, err := r.Resolve(path)
		require.NoError(t, err)
		name, ok := h.DisplayName()
		assert.True(t, ok)
		assert.Equal(t, "report.pdf", name)
		assert.Equal(t, "%PDF-1.4 body", readAll(t, h))
	})

	t.Run("file url", func(t *testing.T) {
		h, err := r.Resolve("file://" + filepath.ToSlash(path))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 body", readAll(t, h))
	})

	t.Run("stdin is a nameless one-shot handle", func(t *testing.T) {
		h, err := r.Resolve("-")
		require.NoError(t, err)
		_, ok := h.DisplayName()
		assert.False(t, ok)
		assert.Equal(t, "from stdin", readAll(t, h))

		_, err = h.OpenRead()
		assert.ErrorIs(t, err, resource.ErrUnavailable)
	})

	t.Run("stdin without a reader never opens", func(t *testing.T) {
		h, err := resource.NewStreamProvider(nil).Open("-")
		require.NoError(t, err)
		_, err = h.OpenRead()
		assert.ErrorIs(t, err, resource.ErrUnavailable)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := r.Resolve("content://media/external/42")
		assert.ErrorIs(t, err, resource.ErrUnsupportedScheme)
	})

	t.Run("empty uri", func(t *testing.T) {
		_, err := r.Resolve("  ")
		assert.Error(t, err)
	})

	t.Run("remote file host", func(t *testing.T) {
		_, err := r.Resolve("file://example.com/a.pdf")
		assert.ErrorIs(t, err, resource.ErrUnsupportedScheme)
	})
}

func TestResolver_NoDefault(t *testing.T) {
	r := resource.NewResolver()
	_, err := r.Resolve("/tmp/a.pdf")
	assert.ErrorIs(t, err, resource.ErrUnsupportedScheme)
}

func TestFileProvider_Unavailable(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		h, err := resource.NewFileProvider(nil).Open(filepath.Join(dir, "missing.pdf"))
		require.NoError(t, err, "Open must not touch the filesystem")
		_, err = h.OpenRead()
		assert.ErrorIs(t, err, resource.ErrUnavailable)
	})

	t.Run("directory", func(t *testing.T) {
		h, err := resource.NewFileProvider(nil).Open(dir)
		require.NoError(t, err)
		_, err = h.OpenRead()
		assert.ErrorIs(t, err, resource.ErrUnavailable)
	})

	t.Run("not granted", func(t *testing.T) {
		path := filepath.Join(dir, "secret.pdf")
		writeFile(t, path, "secret")
		grants := security.NewGrants(filepath.Join(dir, "public") + string(os.PathSeparator) + "*")

		h, err := resource.NewFileProvider(grants).Open(path)
		require.NoError(t, err)
		_, err = h.OpenRead()
		assert.ErrorIs(t, err, resource.ErrUnavailable)
		assert.ErrorContains(t, err, security.ErrNotGranted.Error())
	})

	t.Run("granted", func(t *testing.T) {
		path := filepath.Join(dir, "public", "ok.pdf")
		writeFile(t, path, "ok")
		grants := security.NewGrants(filepath.Join(dir, "public") + string(os.PathSeparator) + "*")

		h, err := resource.NewFileProvider(grants).Open(path)
		require.NoError(t, err)
		assert.Equal(t, "ok", readAll(t, h))
	})
}

func TestFileProvider_SymlinksFollowGrants(t *testing.T) {
	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	secret := filepath.Join(dir, "secret.pdf")
	shared := filepath.Join(public, "shared.pdf")
	writeFile(t, secret, "secret")
	writeFile(t, shared, "shared")

	escape := filepath.Join(public, "escape.pdf")
	alias := filepath.Join(public, "alias.pdf")
	if err := os.Symlink(secret, escape); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(shared, alias))

	grants := security.NewGrants(public + string(os.PathSeparator) + "*")
	files := resource.NewFileProvider(grants)

	t.Run("link leaving the granted directory", func(t *testing.T) {
		h, err := files.Open(escape)
		require.NoError(t, err)
		_, err = h.OpenRead()
		assert.ErrorIs(t, err, resource.ErrUnavailable)
		assert.ErrorContains(t, err, security.ErrNotGranted.Error())
	})

	t.Run("link staying inside the granted directory", func(t *testing.T) {
		h, err := files.Open(alias)
		require.NoError(t, err)
		assert.Equal(t, "shared", readAll(t, h))

		name, ok := h.DisplayName()
		assert.True(t, ok)
		assert.Equal(t, "alias.pdf", name)
	})
}

func readAll(t *testing.T, h resource.Handle) string {
	t.Helper()
	rc, err := h.OpenRead()
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}
