package ffmpeg

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// NvencEncoder is the only encoder the pipeline drives.
const NvencEncoder = "hevc_nvenc"

// decoderPreference lists, per input codec, the NVIDIA decoders to look for
// in order. _nvdec is preferred over _cuvid when a build ships both.
var decoderPreference = []struct {
	codec      string
	candidates []string
}{
	{"h264", []string{"h264_nvdec", "h264_cuvid"}},
	{"hevc", []string{"hevc_nvdec", "hevc_cuvid"}},
	{"vp9", []string{"vp9_nvdec", "vp9_cuvid"}},
	{"av1", []string{"av1_nvdec", "av1_cuvid"}},
	{"mpeg1", []string{"mpeg1_cuvid"}},
	{"mpeg2", []string{"mpeg2_nvdec", "mpeg2_cuvid"}},
	{"mpeg4", []string{"mpeg4_cuvid"}},
	{"vc1", []string{"vc1_nvdec", "vc1_cuvid"}},
	{"vp8", []string{"vp8_nvdec", "vp8_cuvid"}},
}

// DetectHardware checks for a working NVIDIA GPU and for the NVENC encoder,
// NVDEC/CUVID decoders and the subtitles filter in the local ffmpeg build.
// The returned messages describe each check, also on failure.
func (t *Toolchain) DetectHardware(ctx context.Context) (domain.HardwareInfo, []string, error) {
	var msgs []string

	smi, err := t.exec.LookPath("nvidia-smi")
	if err != nil {
		return domain.HardwareInfo{}, append(msgs, "nvidia-smi not found in PATH"), fmt.Errorf("%w: %w", domain.ErrNoGPU, err)
	}
	if err := t.exec.Run(ctx, ports.Command{Name: smi}); err != nil {
		msg := fmt.Sprintf("nvidia-smi failed: %v", err)
		return domain.HardwareInfo{}, append(msgs, msg), fmt.Errorf("%w: %w", domain.ErrNoGPU, err)
	}
	msgs = append(msgs, fmt.Sprintf("nvidia-smi (%s) ok", smi))

	listings := make(map[string]map[string]bool, 3)
	for _, kind := range []string{"encoders", "decoders", "filters"} {
		out, err := t.output(ctx, ports.Command{Name: t.FFmpeg, Args: []string{"-hide_banner", "-" + kind}})
		if err != nil {
			msg := fmt.Sprintf("ffmpeg -%s failed: %v", kind, err)
			return domain.HardwareInfo{}, append(msgs, msg), fmt.Errorf("failed to list ffmpeg %s: %w", kind, err)
		}
		listings[kind] = listingNames(string(out))
	}

	info := domain.HardwareInfo{Decoders: make(map[string]string)}

	if listings["filters"]["subtitles"] {
		info.SubtitlesFilter = true
		msgs = append(msgs, "ffmpeg filter 'subtitles' (libass) found")
	} else {
		msgs = append(msgs, "ffmpeg filter 'subtitles' (libass) not found; subtitles cannot be burned in")
	}

	for _, pref := range decoderPreference {
		for _, dec := range pref.candidates {
			if listings["decoders"][dec] {
				info.Decoders[pref.codec] = dec
				break
			}
		}
	}
	if len(info.Decoders) > 0 {
		msgs = append(msgs, "NVIDIA hardware decoders: "+formatDecoders(info.Decoders))
	} else {
		msgs = append(msgs, "no NVIDIA hardware decoders (cuvid/nvdec) found; decoding runs on the CPU")
	}

	if !listings["encoders"][NvencEncoder] {
		msgs = append(msgs, fmt.Sprintf("ffmpeg encoder '%s' not found; check the ffmpeg build", NvencEncoder))
		return domain.HardwareInfo{}, msgs, domain.ErrEncoderUnavailable
	}
	info.Kind = domain.HardwareNvidia
	info.Encoder = NvencEncoder
	msgs = append(msgs, fmt.Sprintf("ffmpeg encoder '%s' found", NvencEncoder))

	return info, msgs, nil
}

// listingNames collects the name column of "ffmpeg -encoders/-decoders/-filters"
// output: the second field of each line, lowercased.
func listingNames(out string) map[string]bool {
	names := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			names[strings.ToLower(fields[1])] = true
		}
	}
	return names
}

func formatDecoders(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, codec := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, codec+"="+m[codec])
	}
	return strings.Join(parts, ", ")
}
