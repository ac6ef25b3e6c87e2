package system

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles pdfish into a temporary directory.
func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "pdfish-test-bin")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pdfish")
	buildCmd.Dir = filepath.Join("..", "..", "..") // project root relative to internal/test/system
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build pdfish binary: %v\n%s", err, output)
	}
	return binaryPath
}

// pdfish runs the binary isolated from the user's configuration.
func pdfish(t *testing.T, bin, workDir, stdin string, args ...string) (string, error) {
	t.Helper()
	return pdfishWithEnv(t, bin, workDir, stdin, nil, args...)
}

func pdfishWithEnv(t *testing.T, bin, workDir, stdin string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"PDFISH_USER_CONFIG="+filepath.Join(workDir, "no-user-config.yaml"),
		"PDFISH_CACHE_DIR=",
	)
	cmd.Env = append(cmd.Env, env...)
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

func TestOpenCopiesIntoCache(t *testing.T) {
	bin := buildBinary(t)
	workDir := t.TempDir()
	cacheDir := filepath.Join(workDir, "cache")

	src := filepath.Join(workDir, "inbox", "invoice.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 invoice"), 0o644))

	t.Run("named document", func(t *testing.T) {
		out, err := pdfish(t, bin, workDir, "", "open", "--cache-dir", cacheDir, src)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cacheDir, "invoice.pdf"), out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 invoice", string(data))
	})

	t.Run("stdin gets a fallback name", func(t *testing.T) {
		out, err := pdfish(t, bin, workDir, "%PDF-1.4 piped", "open", "--cache-dir", cacheDir, "-")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`pdf_\d+\.pdf$`), out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 piped", string(data))
	})

	t.Run("non-pdf type is ignored", func(t *testing.T) {
		out, err := pdfish(t, bin, workDir, "", "open", "--cache-dir", cacheDir, "--type", "text/plain", src)
		require.NoError(t, err)
		assert.Equal(t, "no document", out)
	})

	t.Run("failure keeps the earlier success", func(t *testing.T) {
		missing := filepath.Join(workDir, "inbox", "missing.pdf")
		out, err := pdfish(t, bin, workDir, "", "open", "--cache-dir", cacheDir, src, missing)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cacheDir, "invoice.pdf"), out)
	})

	t.Run("cache dir flag expands home", func(t *testing.T) {
		home := t.TempDir()
		out, err := pdfishWithEnv(t, bin, workDir, "", []string{"HOME=" + home}, "open", "--cache-dir", "~/pdfs", src)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "pdfs", "invoice.pdf"), out)

		_, err = os.Stat(filepath.Join(workDir, "~"))
		assert.True(t, os.IsNotExist(err), "no literal ~ directory in the working directory")
	})

	t.Run("config file grants", func(t *testing.T) {
		projectDir := t.TempDir()
		cfg := "cache_dir: " + cacheDir + "\ngrants:\n  - " + filepath.Join(workDir, "public") + "/*\n"
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, "pdfish.yaml"), []byte(cfg), 0o644))

		out, err := pdfish(t, bin, projectDir, "", "open", src)
		require.NoError(t, err)
		assert.Equal(t, "no document", out, "documents outside the grants are not readable")
	})
}

func TestSessionProtocol(t *testing.T) {
	bin := buildBinary(t)
	workDir := t.TempDir()
	cacheDir := filepath.Join(workDir, "cache")

	a := filepath.Join(workDir, "a.pdf")
	b := filepath.Join(workDir, "b.pdf")
	require.NoError(t, os.WriteFile(a, []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("B"), 0o644))

	input := strings.Join([]string{
		"# query before anything arrives",
		"call getInitialFilePath",
		"view application/pdf -",
		"call getInitialFilePath",
		"view application/pdf " + a,
		"call getInitialFilePath",
		"view application/pdf -",
		"call getInitialFilePath",
		"",
		"view application/pdf " + filepath.Join(workDir, "gone.pdf"),
		"call getInitialFilePath",
		"view image/png " + b,
		"view application/pdf " + b,
		"call getInitialFilePath",
		"call getAllFiles",
		"launch",
	}, "\n")

	out, err := pdfish(t, bin, workDir, input, "session", "--cache-dir", cacheDir)
	require.NoError(t, err)

	want := []string{
		"ok null",
		"ok false",
		"ok null",
		"ok true",
		"ok " + filepath.Join(cacheDir, "a.pdf"),
		"ok false",
		"ok " + filepath.Join(cacheDir, "a.pdf"),
		"ok false",
		"ok " + filepath.Join(cacheDir, "a.pdf"),
		"ok false",
		"ok true",
		"ok " + filepath.Join(cacheDir, "b.pdf"),
		"error not implemented",
		`error unknown command "launch"`,
	}
	assert.Equal(t, want, strings.Split(out, "\n"))

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, names, "standard input must not be materialized in a session")
}
