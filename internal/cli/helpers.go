package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger on w: the colored
// console handler on terminals, the plain text handler otherwise.
func createLogger(w io.Writer, level slog.Level, debug bool) *slog.Logger {
	if debug {
		level = slog.LevelDebug
	}
	if isTerminal(w) {
		return logging.NewConsole(w, level)
	}
	return logging.NewText(w, level)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFileStart: func(ctx context.Context, e *domain.FileEvent) {
			logger.Debug("File Start", "batch", e.BatchID, "index", e.Index, "total", e.Total, "file", filepath.Base(e.Input))
		},
		OnFileFinish: func(ctx context.Context, e *domain.FileEvent) {
			if e.Result == nil {
				return
			}
			logger.Debug("File Finish", "id", e.Result.ID, "status", e.Result.Status, "elapsed", e.Result.Elapsed)
		},
		OnBatchFinish: func(ctx context.Context, e *domain.BatchEvent) {
			logger.Debug("Batch Finish", "batch", e.BatchID, "files", len(e.Results), "canceled", e.Canceled)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrCanceled)
}

func logCompletion(w io.Writer, processed, total int, canceled bool, sig os.Signal) {
	switch {
	case !canceled:
		printSystemMessage(w, "Finished %d of %d files.", processed, total)
	case sig == os.Interrupt:
		fmt.Fprintln(w, "[CTRL+C]")
		printSystemMessage(w, "Interrupted after %d of %d files.", processed, total)
	case sig != nil:
		printSystemMessage(w, "Terminated after %d of %d files.", processed, total)
	default:
		printSystemMessage(w, "Stopped after %d of %d files.", processed, total)
	}
}
