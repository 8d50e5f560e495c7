package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/adapters/process"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// DefaultSubtitleKeyword selects the preferred subtitle track by title ("Signs").
const DefaultSubtitleKeyword = "Надписи"

// FontsSubdir is the static fonts directory next to the application, used
// for burned-in subtitles when a file carries no fonts of its own.
const FontsSubdir = "fonts"

// Toolchain is a located ffmpeg/ffprobe pair.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
	AppDir  string

	exec    ports.Executor
	logger  *slog.Logger
	goos    string
	keyword string
}

// Option configures a Toolchain.
type Option func(*Toolchain)

// WithExecutor sets the process executor.
func WithExecutor(e ports.Executor) Option {
	return func(t *Toolchain) {
		t.exec = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolchain) {
		t.logger = logger
	}
}

// WithSubtitleKeyword changes the title keyword that marks the preferred subtitle track.
func WithSubtitleKeyword(keyword string) Option {
	return func(t *Toolchain) {
		if keyword != "" {
			t.keyword = keyword
		}
	}
}

// WithGOOS overrides the target platform, which decides executable names
// and filter path escaping.
func WithGOOS(goos string) Option {
	return func(t *Toolchain) {
		t.goos = goos
	}
}

// WithPaths pins ffmpeg and ffprobe instead of searching for them.
func WithPaths(ffmpeg, ffprobe string) Option {
	return func(t *Toolchain) {
		t.FFmpeg, t.FFprobe = ffmpeg, ffprobe
	}
}

// Locate finds ffmpeg and ffprobe: first in PATH, then next to the application in appDir.
func Locate(appDir string, opts ...Option) (*Toolchain, error) {
	t := &Toolchain{
		AppDir:  appDir,
		goos:    runtime.GOOS,
		keyword: DefaultSubtitleKeyword,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}
	if t.exec == nil {
		t.exec = process.NewRunner(process.WithLogger(t.logger))
	}

	var err error
	if t.FFmpeg == "" {
		if t.FFmpeg, err = t.find("ffmpeg"); err != nil {
			return nil, err
		}
	}
	if t.FFprobe == "" {
		if t.FFprobe, err = t.find("ffprobe"); err != nil {
			return nil, err
		}
	}
	t.logger.Debug("Toolchain located", "ffmpeg", t.FFmpeg, "ffprobe", t.FFprobe)
	return t, nil
}

func (t *Toolchain) find(name string) (string, error) {
	if path, err := t.exec.LookPath(name); err == nil {
		return path, nil
	}
	local := filepath.Join(t.AppDir, t.exeName(name))
	if err := CheckExecutable(name, local); err != nil {
		return "", err
	}
	return local, nil
}

func (t *Toolchain) exeName(name string) string {
	if t.goos == "windows" {
		return name + ".exe"
	}
	return name
}

// GOOS returns the platform the toolchain builds commands for.
func (t *Toolchain) GOOS() string { return t.goos }

// SubtitleKeyword returns the keyword used to pick the preferred subtitle track.
func (t *Toolchain) SubtitleKeyword() string { return t.keyword }

// Executor returns the executor the toolchain runs processes with.
func (t *Toolchain) Executor() ports.Executor { return t.exec }

// CheckExecutable reports whether path is an existing regular file.
func CheckExecutable(name, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s not found at %s", domain.ErrToolNotFound, name, path)
	}
	return nil
}

// output runs a command and returns its stdout.
func (t *Toolchain) output(ctx context.Context, cmd ports.Command) ([]byte, error) {
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := t.exec.Run(ctx, cmd)
	return stdout.Bytes(), err
}

// stderr runs a command and returns its stderr, which is where ffmpeg reports.
func (t *Toolchain) stderr(ctx context.Context, cmd ports.Command) (string, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := t.exec.Run(ctx, cmd)
	return stderr.String(), err
}
