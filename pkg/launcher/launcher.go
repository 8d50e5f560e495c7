package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/adapters/process"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// Report summarizes what a run did.
type Report struct {
	Created       bool // the environment was created by this run
	Activated     bool
	DepsInstalled bool // false when the manifest is absent or the step never ran
	EntryStarted  bool
	EntryExitCode int
	FailedStep    string
}

// Launcher runs the bootstrap sequence for one directory.
type Launcher struct {
	dir    string
	layout Layout
	env    *Environment
	exec   ports.Executor
	logger *slog.Logger

	baseEnv []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	activated []string
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithExecutor replaces the process executor.
func WithExecutor(e ports.Executor) Option {
	return func(l *Launcher) {
		l.exec = e
	}
}

// WithLogger sets the logger used for step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithLayout overrides the layout loaded from the directory.
func WithLayout(layout Layout) Option {
	return func(l *Launcher) {
		l.layout = layout
	}
}

// WithBaseEnv sets the environment activation starts from. Defaults to os.Environ().
func WithBaseEnv(env []string) Option {
	return func(l *Launcher) {
		l.baseEnv = env
	}
}

// WithStdio sets the streams handed to the entry point.
func WithStdio(in io.Reader, out, errOut io.Writer) Option {
	return func(l *Launcher) {
		l.stdin, l.stdout, l.stderr = in, out, errOut
	}
}

// New creates a launcher for dir, reading optional layout overrides from it.
func New(dir string, opts ...Option) (*Launcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve launcher directory: %w", err)
	}
	layout, err := LoadLayout(abs, DefaultLayout().GOOS())
	if err != nil {
		return nil, err
	}

	l := &Launcher{
		dir:    abs,
		layout: layout,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.exec == nil {
		l.exec = process.NewRunner(process.WithBaseDir(abs), process.WithLogger(l.logger))
	}
	if l.logger == nil {
		l.logger = logging.NewNop()
	}
	if l.baseEnv == nil {
		l.baseEnv = os.Environ()
	}
	l.env = NewEnvironment(abs, l.layout)
	return l, nil
}

// Dir returns the launcher directory.
func (l *Launcher) Dir() string { return l.dir }

// Environment returns the environment handle.
func (l *Launcher) Environment() *Environment { return l.env }

// Run executes the four steps in order and stops at the first failure.
// A missing entry point is reported before any process is spawned.
func (l *Launcher) Run(ctx context.Context) (Report, error) {
	var report Report

	if _, err := l.entryPath(); err != nil {
		report.FailedStep = "entry"
		return report, err
	}

	created, err := l.EnsureEnvironment(ctx)
	report.Created = created
	if err != nil {
		report.FailedStep = "create"
		return report, err
	}

	if _, err := l.Activate(); err != nil {
		report.FailedStep = "activate"
		return report, err
	}
	report.Activated = true

	installed, err := l.SyncDependencies(ctx)
	report.DepsInstalled = installed
	if err != nil {
		report.FailedStep = "dependencies"
		return report, err
	}

	started, err := l.RunEntry(ctx)
	report.EntryStarted = started
	if err != nil {
		report.FailedStep = "entry"
		report.EntryExitCode = domain.ExitCode(err)
		return report, err
	}
	return report, nil
}

// EnsureEnvironment creates the environment unless its marker exists.
// It reports whether a creation happened.
func (l *Launcher) EnsureEnvironment(ctx context.Context) (bool, error) {
	if l.env.Exists() {
		l.logger.Info("Environment found", "dir", l.env.Dir())
		return false, nil
	}

	bootstrap, err := l.bootstrapInterpreter()
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrEnvironmentCreate, err)
	}

	l.logger.Info("Creating environment", "dir", l.env.Dir(), "python", bootstrap)
	err = l.exec.Run(ctx, ports.Command{
		Name:   bootstrap,
		Args:   []string{"-m", "venv", l.env.Dir()},
		Dir:    l.dir,
		Stdout: l.stdout,
		Stderr: l.stderr,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrEnvironmentCreate, err)
	}
	if !l.env.Exists() {
		return true, fmt.Errorf("%w: marker %s missing after creation", domain.ErrEnvironmentCreate, l.env.Marker())
	}
	return true, nil
}

func (l *Launcher) bootstrapInterpreter() (string, error) {
	var errs []error
	for _, candidate := range l.layout.Bootstrap {
		path, err := l.exec.LookPath(candidate)
		if err == nil {
			return path, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no bootstrap interpreter configured", domain.ErrToolNotFound)
	}
	return "", errors.Join(errs...)
}

// Activate computes and confirms the activated environment. Later steps run with it.
func (l *Launcher) Activate() ([]string, error) {
	env, err := l.env.Activate(l.baseEnv)
	if err != nil {
		return nil, err
	}
	l.activated = env
	l.logger.Debug("Environment activated", "virtual_env", l.env.Dir())
	return env, nil
}

// SyncDependencies installs the manifest into the environment when it exists.
// It reports whether an installation ran.
func (l *Launcher) SyncDependencies(ctx context.Context) (bool, error) {
	if l.activated == nil {
		return false, fmt.Errorf("%w: environment not activated", domain.ErrDependencyInstall)
	}

	manifest := filepath.Join(l.dir, l.layout.Manifest)
	if _, err := os.Stat(manifest); err != nil {
		if os.IsNotExist(err) {
			l.logger.Info("No dependency manifest, skipping install", "manifest", l.layout.Manifest)
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", domain.ErrDependencyInstall, err)
	}

	l.logger.Info("Installing dependencies", "manifest", l.layout.Manifest)
	err := l.exec.Run(ctx, ports.Command{
		Name:   l.env.Interpreter(),
		Args:   []string{"-m", "pip", "install", "-r", manifest},
		Dir:    l.dir,
		Env:    l.activated,
		Stdout: l.stdout,
		Stderr: l.stderr,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrDependencyInstall, err)
	}
	return true, nil
}

// RunEntry starts the entry point with the activated environment and waits for it.
// A missing entry point fails without spawning anything. It reports whether a process was started.
func (l *Launcher) RunEntry(ctx context.Context) (bool, error) {
	entry, err := l.entryPath()
	if err != nil {
		return false, err
	}
	if l.activated == nil {
		return false, fmt.Errorf("%w: environment not activated", domain.ErrEnvironmentActivate)
	}

	l.logger.Info("Starting entry point", "entry", l.layout.Entry)
	err = l.exec.Run(ctx, ports.Command{
		Name:   l.env.Interpreter(),
		Args:   []string{entry},
		Dir:    l.dir,
		Env:    l.activated,
		Stdin:  l.stdin,
		Stdout: l.stdout,
		Stderr: l.stderr,
	})
	if err != nil {
		return true, fmt.Errorf("%w: %w", domain.ErrEntryFailed, err)
	}
	return true, nil
}

// entryPath returns the entry point file, or ErrEntryMissing.
func (l *Launcher) entryPath() (string, error) {
	entry := filepath.Join(l.dir, l.layout.Entry)
	if info, err := os.Stat(entry); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrEntryMissing, entry)
	}
	return entry, nil
}
