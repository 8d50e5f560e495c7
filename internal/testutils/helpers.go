package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile creates path (and its parents) under dir with the given content.
// It returns the absolute path of the file and fails the test immediately on error.
func WriteFile(t *testing.T, dir, path, content string) string {
	t.Helper()

	full := filepath.Join(dir, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755), "Failed to create parent dirs")
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644), "Failed to write %s", path)

	abs, err := filepath.Abs(full)
	require.NoError(t, err)
	return abs
}

// TempDir returns an absolute temporary directory for the test.
func TempDir(t *testing.T) string {
	t.Helper()

	abs, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")
	return abs
}
