package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// DefaultGracePeriod is how long a canceled process may take to exit after
// the interrupt before it is killed.
const DefaultGracePeriod = 5 * time.Second

const stderrTailSize = 4096

// Runner implements ports.Executor on top of os/exec.
type Runner struct {
	baseDir string
	grace   time.Duration
	logger  *slog.Logger
}

var _ ports.Executor = (*Runner)(nil)

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for commands that do not set one.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod sets the delay between interrupt and kill on cancellation.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger logs every command line at debug level.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{grace: DefaultGracePeriod}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookPath resolves an executable in PATH.
func (r *Runner) LookPath(file string) (string, error) {
	path, err := exec.LookPath(file)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrToolNotFound, file)
	}
	return path, nil
}

// Run executes the command and waits for it.
//
// On context cancellation the child first receives an interrupt (a kill on
// Windows) and is killed if it is still alive after the grace period.
func (r *Runner) Run(ctx context.Context, c ports.Command) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if cmd.Dir == "" {
		cmd.Dir = r.baseDir
	}
	if c.Env != nil {
		cmd.Env = c.Env
	}
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout

	tail := newTailBuffer(stderrTailSize)
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = r.grace

	if r.logger != nil {
		r.logger.Debug("exec", "cmd", c.String(), "dir", cmd.Dir)
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &domain.ExitError{
			Command: c.Name,
			Code:    exitErr.ExitCode(),
			Stderr:  lastLine(tail.String()),
		}
	}
	return fmt.Errorf("failed to run %s: %w", c.Name, err)
}
