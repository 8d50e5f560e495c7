package domain

// RateControl names an NVENC rate control mode.
type RateControl string

const (
	RateControlVBR     RateControl = "vbr"
	RateControlCBR     RateControl = "cbr"
	RateControlConstQP RateControl = "constqp"
)

// PresetLossless is the NVENC preset used together with constqp.
const PresetLossless = "lossless"

// EncodeSettings carries every encoder and audio option of one encode.
// Bitrate fields use ffmpeg notation ("4M"); they are empty in lossless mode.
type EncodeSettings struct {
	Preset      string      `json:"preset" yaml:"preset" mapstructure:"preset"`
	Tuning      string      `json:"tuning" yaml:"tuning" mapstructure:"tuning"`
	RateControl RateControl `json:"rc" yaml:"rc" mapstructure:"rc"`
	QP          int         `json:"qp" yaml:"qp" mapstructure:"qp"`

	TargetBitrate string `json:"target_bitrate,omitempty" yaml:"target_bitrate,omitempty" mapstructure:"target_bitrate"`
	MinBitrate    string `json:"min_bitrate,omitempty" yaml:"min_bitrate,omitempty" mapstructure:"min_bitrate"`
	MaxBitrate    string `json:"max_bitrate,omitempty" yaml:"max_bitrate,omitempty" mapstructure:"max_bitrate"`
	BufSize       string `json:"bufsize,omitempty" yaml:"bufsize,omitempty" mapstructure:"bufsize"`

	Lookahead  string `json:"lookahead,omitempty" yaml:"lookahead,omitempty" mapstructure:"lookahead"`
	SpatialAQ  string `json:"spatial_aq,omitempty" yaml:"spatial_aq,omitempty" mapstructure:"spatial_aq"`
	AQStrength string `json:"aq_strength,omitempty" yaml:"aq_strength,omitempty" mapstructure:"aq_strength"`

	AudioCodec    string `json:"audio_codec" yaml:"audio_codec" mapstructure:"audio_codec"`
	AudioBitrate  string `json:"audio_bitrate" yaml:"audio_bitrate" mapstructure:"audio_bitrate"`
	AudioChannels string `json:"audio_channels" yaml:"audio_channels" mapstructure:"audio_channels"`
	AudioTitle    string `json:"audio_title,omitempty" yaml:"audio_title,omitempty" mapstructure:"audio_title"`
	AudioLanguage string `json:"audio_language,omitempty" yaml:"audio_language,omitempty" mapstructure:"audio_language"`

	Force10Bit bool `json:"force_10bit" yaml:"force_10bit" mapstructure:"force_10bit"`
}

// Lossless reports whether the settings select constant-QP lossless encoding.
func (s EncodeSettings) Lossless() bool {
	return s.RateControl == RateControlConstQP
}
