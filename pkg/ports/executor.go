package ports

import (
	"context"
	"io"
	"strings"
	"time"
)

// Command describes one external process invocation.
// A nil Stdout or Stderr discards that stream.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // nil inherits the current environment
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration // zero means no limit beyond ctx
}

// String renders the command line for logs, quoting arguments with spaces.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Name}, c.Args...) {
		if strings.ContainsAny(p, " []") {
			p = `"` + p + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// Executor runs external processes.
//
// Run blocks until the process exits. A process that ran and exited with a
// non-zero code is reported as *domain.ExitError; failures to start are
// returned as-is.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
	LookPath(file string) (string, error)
}
