package testutils

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// Call records one command seen by a FakeExecutor.
type Call struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// Line returns the call as a single space-joined string, handy for assertions.
func (c Call) Line() string {
	return strings.TrimSpace(Program(c.Name) + " " + strings.Join(c.Args, " "))
}

// Handler fakes one program.
type Handler func(ctx context.Context, cmd ports.Command) error

// FakeExecutor is a scripted ports.Executor. Handlers are keyed by program
// base name without extension, so "venv/bin/python" and "python.exe" both hit "python".
type FakeExecutor struct {
	mu       sync.Mutex
	handlers map[string]Handler
	paths    map[string]string
	calls    []Call
}

var _ ports.Executor = (*FakeExecutor)(nil)

// NewFakeExecutor returns an executor with no programs installed.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		handlers: make(map[string]Handler),
		paths:    make(map[string]string),
	}
}

// Program normalizes a command name to its handler key.
func Program(name string) string {
	base := filepath.Base(filepath.ToSlash(name))
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".exe")
}

// Handle registers the fake for a program.
func (f *FakeExecutor) Handle(program string, h Handler) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[program] = h
	return f
}

// Install makes LookPath resolve file to path.
func (f *FakeExecutor) Install(file, path string) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[file] = path
	return f
}

// LookPath implements ports.Executor.
func (f *FakeExecutor) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.paths[file]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrToolNotFound, file)
}

// Run implements ports.Executor.
func (f *FakeExecutor) Run(ctx context.Context, cmd ports.Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{
		Name: cmd.Name,
		Args: append([]string(nil), cmd.Args...),
		Dir:  cmd.Dir,
		Env:  append([]string(nil), cmd.Env...),
	})
	h := f.handlers[Program(cmd.Name)]
	f.mu.Unlock()

	if h == nil {
		return fmt.Errorf("failed to run %s: %w", cmd.Name, exec.ErrNotFound)
	}
	return h(ctx, cmd)
}

// Calls returns every recorded call.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of one program.
func (f *FakeExecutor) CallsTo(program string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if Program(c.Name) == program {
			out = append(out, c)
		}
	}
	return out
}

// Respond returns a handler that writes fixed output and exits with code.
func Respond(stdout, stderr string, code int) Handler {
	return func(_ context.Context, cmd ports.Command) error {
		if cmd.Stdout != nil && stdout != "" {
			_, _ = io.WriteString(cmd.Stdout, stdout)
		}
		if cmd.Stderr != nil && stderr != "" {
			_, _ = io.WriteString(cmd.Stderr, stderr)
		}
		if code != 0 {
			return &domain.ExitError{Command: cmd.Name, Code: code, Stderr: strings.TrimSpace(stderr)}
		}
		return nil
	}
}

// HasArg reports whether args contains value.
func HasArg(args []string, value string) bool {
	for _, a := range args {
		if a == value {
			return true
		}
	}
	return false
}

// ArgAfter returns the argument following flag, or "".
func ArgAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
