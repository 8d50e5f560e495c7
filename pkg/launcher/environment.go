package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// Environment is the handle on the virtual environment rooted next to the launcher.
type Environment struct {
	root   string
	layout Layout
}

// NewEnvironment returns the handle for the environment of layout under root.
func NewEnvironment(root string, layout Layout) *Environment {
	return &Environment{root: root, layout: layout}
}

// Dir is the absolute environment directory.
func (e *Environment) Dir() string {
	return filepath.Join(e.root, e.layout.EnvDir)
}

// Marker is the absolute path of the environment marker.
func (e *Environment) Marker() string {
	return filepath.Join(e.root, e.layout.Marker())
}

// Interpreter is the absolute path of the environment's Python.
func (e *Environment) Interpreter() string {
	return filepath.Join(e.root, e.layout.Interpreter())
}

// Exists reports whether the marker is present.
func (e *Environment) Exists() bool {
	info, err := os.Stat(e.Marker())
	return err == nil && !info.IsDir()
}

// Activate returns base with the environment activated: VIRTUAL_ENV and
// VIRTUAL_ENV_PROMPT set, the environment bin directory first on PATH and
// PYTHONHOME removed. It confirms the result before returning it.
func (e *Environment) Activate(base []string) ([]string, error) {
	windows := e.layout.GOOS() == "windows"
	binDir := filepath.Join(e.root, e.layout.BinDir())

	env := make([]string, 0, len(base)+2)
	path := ""
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case keyEqual(key, "PATH", windows):
			path = value
		case keyEqual(key, "PYTHONHOME", windows),
			keyEqual(key, "VIRTUAL_ENV", windows),
			keyEqual(key, "VIRTUAL_ENV_PROMPT", windows):
		default:
			env = append(env, kv)
		}
	}

	if path == "" {
		path = binDir
	} else {
		path = binDir + string(os.PathListSeparator) + path
	}
	env = append(env,
		"PATH="+path,
		"VIRTUAL_ENV="+e.Dir(),
		"VIRTUAL_ENV_PROMPT="+filepath.Base(e.Dir()),
	)

	if err := e.confirm(env); err != nil {
		return nil, err
	}
	return env, nil
}

// confirm checks that env names this environment and that its interpreter exists.
func (e *Environment) confirm(env []string) error {
	if got := Lookup(env, "VIRTUAL_ENV", e.layout.GOOS() == "windows"); got != e.Dir() {
		return fmt.Errorf("%w: VIRTUAL_ENV is %q, want %q", domain.ErrEnvironmentActivate, got, e.Dir())
	}
	if info, err := os.Stat(e.Interpreter()); err != nil || info.IsDir() {
		return fmt.Errorf("%w: interpreter %s not found", domain.ErrEnvironmentActivate, e.Interpreter())
	}
	return nil
}

// Lookup returns the value of key in env. Keys compare case-insensitively when fold is set.
func Lookup(env []string, key string, fold bool) string {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(env[i], "=")
		if ok && keyEqual(k, key, fold) {
			return v
		}
	}
	return ""
}

func keyEqual(a, b string, fold bool) bool {
	if fold {
		return strings.EqualFold(a, b)
	}
	return a == b
}
