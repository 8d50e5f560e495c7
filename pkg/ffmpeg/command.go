package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// CommandRequest is everything BuildCommand needs for one encode.
type CommandRequest struct {
	Input    string
	Output   string
	Hardware domain.HardwareInfo
	Codec    string // input video codec as probed
	PixFmt   string // input pixel format as probed
	Settings domain.EncodeSettings

	SubtitleFile string            // extracted .ass file; burned in when the subtitles filter exists
	FontsDir     string            // fonts extracted from the input
	Target       domain.Resolution // zero keeps the (cropped) source size
	Crop         domain.Crop
}

// Invocation is a built ffmpeg command line plus the names shown to the operator.
type Invocation struct {
	Program string
	Args    []string
	Decoder string
	Encoder string
}

// Command returns the invocation as a ports.Command.
func (i Invocation) Command() ports.Command {
	return ports.Command{Name: i.Program, Args: append([]string(nil), i.Args...)}
}

// Decoder labels for software decoding.
const (
	DecoderCPU         = "cpu (default)"
	DecoderCPUFallback = "cpu (fallback for 10-bit H.264)"
)

var errNoEncoder = errors.New("hardware info carries no encoder")

// BuildCommand assembles the hevc_nvenc command line for req.
//
// Filters run crop, scale, subtitles and a final format conversion to
// nv12 (p010le for 10-bit output). A hardware decoder is used when one is
// known for the input codec, except for 10-bit H.264 which NVDEC cannot
// decode.
func (t *Toolchain) BuildCommand(req CommandRequest) (Invocation, error) {
	if req.Hardware.Encoder == "" {
		return Invocation{}, errNoEncoder
	}
	s := req.Settings

	gpuFmt, profile := "nv12", "main"
	if s.Force10Bit {
		gpuFmt, profile = "p010le", "main10"
	}

	inv := Invocation{
		Program: t.FFmpeg,
		Decoder: DecoderCPU,
		Encoder: fmt.Sprintf("%s (%s)", domain.HardwareNvidia, req.Hardware.Encoder),
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "info"}

	if dec, ok := req.Hardware.DecoderFor(req.Codec); ok {
		if req.Codec == "h264" && strings.Contains(req.PixFmt, "10") {
			inv.Decoder = DecoderCPUFallback
		} else {
			args = append(args, "-c:v", dec)
			inv.Decoder = dec
		}
	}
	args = append(args, "-i", req.Input)

	var filters []string
	if c := req.Crop; c.Width > 0 && c.Height > 0 {
		filters = append(filters, "crop="+c.String())
	}
	if tr := req.Target; !tr.IsZero() {
		filters = append(filters, fmt.Sprintf("scale=w=%d:h=%d:flags=lanczos", tr.Width, tr.Height))
	}
	if req.SubtitleFile != "" && req.Hardware.SubtitlesFilter {
		sub := fmt.Sprintf("subtitles=filename='%s'", t.filterPath(req.SubtitleFile))
		if dir := t.fontsDir(req.FontsDir); dir != "" {
			sub += fmt.Sprintf(":fontsdir='%s'", t.filterPath(dir))
		}
		filters = append(filters, sub)
	}
	filters = append(filters, "format="+gpuFmt)
	args = append(args, "-vf", strings.Join(filters, ","))

	args = append(args,
		"-c:v", req.Hardware.Encoder,
		"-preset", s.Preset,
		"-tune", s.Tuning,
		"-profile:v", profile,
	)
	switch {
	case s.Lossless():
		args = append(args, "-rc", string(domain.RateControlConstQP), "-qp", strconv.Itoa(s.QP))
	case s.TargetBitrate != "":
		args = append(args,
			"-rc", string(s.RateControl),
			"-b:v", s.TargetBitrate,
			"-minrate", s.MinBitrate,
			"-maxrate", s.MaxBitrate,
			"-bufsize", s.BufSize,
		)
		if s.Preset != domain.PresetLossless {
			if s.Lookahead != "" {
				args = append(args, "-rc-lookahead", s.Lookahead)
			}
			if s.SpatialAQ != "" {
				args = append(args, "-spatial-aq", s.SpatialAQ)
				if s.SpatialAQ == "1" && s.AQStrength != "" {
					args = append(args, "-aq-strength", s.AQStrength)
				}
			}
		}
	}
	args = append(args, "-multipass", "0")

	args = append(args,
		"-c:a", s.AudioCodec,
		"-b:a", s.AudioBitrate,
		"-ac", s.AudioChannels,
		"-map", "0:v:0",
		"-map", "0:a:0?",
	)
	if s.AudioTitle != "" {
		args = append(args, "-metadata:s:a:0", "title="+s.AudioTitle)
	}
	if s.AudioLanguage != "" {
		args = append(args, "-metadata:s:a:0", "language="+s.AudioLanguage)
	}
	args = append(args,
		"-map_metadata", "-1",
		"-movflags", "+faststart",
		"-tag:v", "hvc1",
		req.Output,
	)

	inv.Args = args
	return inv, nil
}

// fontsDir picks the extracted fonts when there are any, else the static
// fonts directory next to the application, else nothing.
func (t *Toolchain) fontsDir(extracted string) string {
	if extracted != "" && nonEmptyDir(extracted) {
		return extracted
	}
	if t.AppDir == "" {
		return ""
	}
	static := filepath.Join(t.AppDir, FontsSubdir)
	if nonEmptyDir(static) {
		if abs, err := filepath.Abs(static); err == nil {
			return abs
		}
		return static
	}
	return ""
}

// filterPath renders a path for use inside a filter argument. Windows
// drive colons must be escaped there.
func (t *Toolchain) filterPath(p string) string {
	if t.goos == "windows" {
		p = strings.ReplaceAll(p, `\`, "/")
		return strings.ReplaceAll(p, ":", `\:`)
	}
	return filepath.ToSlash(p)
}

func nonEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
