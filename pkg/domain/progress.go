package domain

import "time"

// Progress is one parsed ffmpeg status line.
// Percent is -1 whenever it cannot be computed (no time= field or no known duration).
type Progress struct {
	Timed    bool          `json:"timed"`
	Position time.Duration `json:"position"`
	Percent  int           `json:"percent"`
	Speed    string        `json:"speed"`
	FPS      string        `json:"fps"`
	Bitrate  string        `json:"bitrate"`
	ETA      string        `json:"eta,omitempty"`
	Elapsed  string        `json:"elapsed,omitempty"`
}

// HasPercent reports whether the line yielded a completion percentage.
func (p Progress) HasPercent() bool {
	return p.Percent >= 0
}
