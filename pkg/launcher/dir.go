package launcher

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDir returns the directory containing the running executable,
// with symlinks resolved.
func ResolveDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
