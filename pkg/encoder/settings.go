package encoder

import (
	"fmt"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// Defaults of a batch.
const (
	DefaultBitrateMbps = 4
	LosslessQP         = 0
	OutputSubdir       = "ENCODED_HEVC_NVIDIA_GUI"
)

// DefaultSettings returns the NVENC and audio parameters used unless
// configured otherwise. Bitrate fields are filled by DeriveSettings.
func DefaultSettings() domain.EncodeSettings {
	return domain.EncodeSettings{
		Preset:        "p7",
		Tuning:        "hq",
		RateControl:   domain.RateControlVBR,
		Lookahead:     "32",
		SpatialAQ:     "1",
		AQStrength:    "15",
		AudioCodec:    "aac",
		AudioBitrate:  "256k",
		AudioChannels: "2",
		AudioTitle:    "Русский [Дубляжная]",
		AudioLanguage: "rus",
	}
}

// DeriveSettings completes base for one batch. A target of B Mbps yields B
// target and minimum, 2B maximum and a 4B buffer. Lossless switches to the
// lossless preset with constant QP and no bitrate fields.
func DeriveSettings(base domain.EncodeSettings, bitrateMbps int, lossless, force10Bit bool) domain.EncodeSettings {
	s := base
	s.Force10Bit = force10Bit

	if lossless {
		s.Preset = domain.PresetLossless
		s.RateControl = domain.RateControlConstQP
		s.QP = LosslessQP
		s.TargetBitrate, s.MinBitrate, s.MaxBitrate, s.BufSize = "", "", "", ""
		return s
	}

	if bitrateMbps <= 0 {
		bitrateMbps = DefaultBitrateMbps
	}
	if s.RateControl == "" || s.RateControl == domain.RateControlConstQP {
		s.RateControl = domain.RateControlVBR
	}
	s.TargetBitrate = fmt.Sprintf("%dM", bitrateMbps)
	s.MinBitrate = s.TargetBitrate
	s.MaxBitrate = fmt.Sprintf("%dM", 2*bitrateMbps)
	s.BufSize = fmt.Sprintf("%dM", 4*bitrateMbps)
	return s
}

// Describe summarizes the mode for the log.
func Describe(s domain.EncodeSettings) string {
	depth := "8-bit"
	if s.Force10Bit {
		depth = "10-bit"
	}
	if s.Lossless() {
		return fmt.Sprintf("lossless (preset %s, rc %s, qp %d), %s", s.Preset, s.RateControl, s.QP, depth)
	}
	return fmt.Sprintf("bitrate (preset %s, rc %s, target %s, max %s, buffer %s), %s",
		s.Preset, s.RateControl, s.TargetBitrate, s.MaxBitrate, s.BufSize, depth)
}

// TargetSize decides the scale target. Without a forced size the (cropped)
// source is kept. After a crop the forced height is kept and the width
// follows the cropped aspect ratio; both are made even.
func TargetSize(forced domain.Resolution, crop domain.Crop) domain.Resolution {
	if forced.IsZero() {
		return domain.Resolution{}
	}
	if crop.Width <= 0 || crop.Height <= 0 {
		return forced
	}
	h := forced.Height
	w := (2*h*crop.Width + crop.Height) / (2 * crop.Height) // round(h * cw / ch)
	return domain.Resolution{Width: w - w%2, Height: h - h%2}
}
