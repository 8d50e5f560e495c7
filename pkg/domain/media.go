package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubtitleTrack is a subtitle stream as reported by ffprobe.
// Index is the global stream index, not the position among subtitle streams.
type SubtitleTrack struct {
	Index    int    `json:"index" yaml:"index"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Language string `json:"language" yaml:"language"`
}

// FontAttachment is an embedded font stream (typically in Matroska files).
type FontAttachment struct {
	Index    int    `json:"index" yaml:"index"`
	Filename string `json:"filename" yaml:"filename"`
}

// MediaInfo is the subset of ffprobe output the encoder relies on.
// Width and Height are already rounded down to even values.
type MediaInfo struct {
	Path       string           `json:"path"`
	Duration   time.Duration    `json:"duration"`
	VideoCodec string           `json:"video_codec"`
	PixFmt     string           `json:"pix_fmt"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Subtitles  []SubtitleTrack  `json:"subtitles,omitempty"`
	Preferred  *SubtitleTrack   `json:"preferred_subtitle,omitempty"`
	Fonts      []FontAttachment `json:"fonts,omitempty"`
}

// Is10Bit reports whether the source pixel format carries 10-bit samples.
func (m MediaInfo) Is10Bit() bool {
	return strings.Contains(m.PixFmt, "10")
}

// Crop is a cropdetect rectangle, rendered as "w:h:x:y".
type Crop struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// IsZero reports whether no crop is set.
func (c Crop) IsZero() bool {
	return c == Crop{}
}

func (c Crop) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", c.Width, c.Height, c.X, c.Y)
}

// Resolution is an output frame size.
type Resolution struct {
	Width  int `json:"width" yaml:"width" mapstructure:"width"`
	Height int `json:"height" yaml:"height" mapstructure:"height"`
}

// IsZero reports whether the resolution is unset.
func (r Resolution) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
