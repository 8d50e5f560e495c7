package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Exit codes returned by Main.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// MainOptions configures Main.
type MainOptions struct {
	Dir     string // empty means the executable's directory
	Logger  *slog.Logger
	Pauser  *Pauser // nil never pauses
	Stderr  io.Writer
	Options []Option
}

// Main runs the launcher for an executable and returns its process exit code.
// A failure is reported once, through Logger when set and on Stderr
// otherwise, and held on screen until acknowledged when a Pauser is
// interactive.
func Main(ctx context.Context, opts MainOptions) int {
	fail := func(err error) int {
		switch {
		case opts.Logger != nil:
			opts.Logger.Error("Launcher failed", "error", err)
		case opts.Stderr != nil:
			fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
		}
		opts.Pauser.Pause()
		return ExitFailure
	}

	dir := opts.Dir
	if dir == "" {
		resolved, err := ResolveDir()
		if err != nil {
			return fail(err)
		}
		dir = resolved
	}

	launcherOpts := opts.Options
	if opts.Logger != nil {
		launcherOpts = append([]Option{WithLogger(opts.Logger)}, launcherOpts...)
	}
	l, err := New(dir, launcherOpts...)
	if err != nil {
		return fail(err)
	}

	if _, err := l.Run(ctx); err != nil {
		return fail(err)
	}
	return ExitOK
}
