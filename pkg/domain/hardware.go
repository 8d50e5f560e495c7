package domain

// HardwareKind identifies the acceleration family in use.
type HardwareKind string

const (
	HardwareNone   HardwareKind = ""
	HardwareNvidia HardwareKind = "nvidia"
)

// HardwareInfo describes what the local ffmpeg build can do on the GPU.
type HardwareInfo struct {
	Kind            HardwareKind      `json:"kind"`
	Encoder         string            `json:"encoder"`
	Decoders        map[string]string `json:"decoders,omitempty"` // input codec -> hardware decoder
	SubtitlesFilter bool              `json:"subtitles_filter"`
}

// Ready reports whether a hardware encode can be attempted at all.
func (h HardwareInfo) Ready() bool {
	return h.Kind == HardwareNvidia && h.Encoder != ""
}

// DecoderFor returns the hardware decoder registered for an input codec.
func (h HardwareInfo) DecoderFor(codec string) (string, bool) {
	dec, ok := h.Decoders[codec]
	return dec, ok && dec != ""
}
