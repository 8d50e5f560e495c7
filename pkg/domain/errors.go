package domain

import (
	"errors"
	"fmt"
)

// Launcher failures. Each one is terminal for the current invocation.
var (
	// ErrEnvironmentCreate is returned when the runtime environment could not be created.
	ErrEnvironmentCreate = errors.New("environment creation failed")

	// ErrEnvironmentActivate is returned when the activated environment could not be confirmed.
	ErrEnvironmentActivate = errors.New("environment activation failed")

	// ErrDependencyInstall is returned when the dependency manifest failed to install.
	ErrDependencyInstall = errors.New("dependency installation failed")

	// ErrEntryMissing is returned when the entry point file does not exist.
	ErrEntryMissing = errors.New("entry point not found")

	// ErrEntryFailed is returned when the entry point process exited unsuccessfully.
	ErrEntryFailed = errors.New("entry point failed")
)

// Toolchain and encoding failures.
var (
	// ErrToolNotFound is returned when ffmpeg, ffprobe or nvidia-smi cannot be located.
	ErrToolNotFound = errors.New("executable not found")

	// ErrNoGPU is returned when nvidia-smi is missing or reports an error.
	ErrNoGPU = errors.New("nvidia gpu not available")

	// ErrEncoderUnavailable is returned when ffmpeg was built without hevc_nvenc.
	ErrEncoderUnavailable = errors.New("hevc_nvenc encoder not available")

	// ErrNoVideoStream is returned when a probed file has no video stream.
	ErrNoVideoStream = errors.New("no video stream")

	// ErrNoDuration is returned when a probed file reports no usable duration.
	ErrNoDuration = errors.New("duration unavailable")

	// ErrNoResolution is returned when neither stream metadata nor the fallback probe yield a size.
	ErrNoResolution = errors.New("resolution unavailable")

	// ErrSubtitleTrackNotFound is returned when a subtitle stream index is not among the file's subtitle streams.
	ErrSubtitleTrackNotFound = errors.New("subtitle track not found")

	// ErrEmptyOutput is returned when a tool exited cleanly but produced no file.
	ErrEmptyOutput = errors.New("output file missing or empty")

	// ErrCanceled is returned when a batch is stopped by the operator.
	ErrCanceled = errors.New("encoding canceled")
)

// ErrResultNotFound is returned when a result ID cannot be found in the store.
var ErrResultNotFound = errors.New("result not found")

// ExitError reports a child process that ran but exited with a non-zero code.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.Code, e.Stderr)
}

// ExitCode extracts the child exit code from err, or -1 when err is not an ExitError.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
