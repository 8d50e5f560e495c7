package ffmpeg

import (
	"fmt"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// Scaling limits.
const (
	MinDimension = 240
	MaxWidth     = 7680
	MaxHeight    = 4320
)

// ScaleOption is one selectable output size.
type ScaleOption struct {
	Label string
	domain.Resolution
}

func (o ScaleOption) String() string {
	return fmt.Sprintf("%s (%dx%d)", o.Label, o.Width, o.Height)
}

// multipliers scale the source by num/den.
var multipliers = []struct {
	label    string
	num, den int
}{
	{"x2.0", 2, 1},
	{"x1.33", 4, 3},
	{"Source", 1, 1},
	{"x0.66", 2, 3},
	{"x0.5", 1, 2},
}

var fixedSizes = []ScaleOption{
	{Label: "1080p", Resolution: domain.Resolution{Width: 1920, Height: 1080}},
	{Label: "720p", Resolution: domain.Resolution{Width: 1280, Height: 720}},
}

// ScaleOptions lists output sizes for a source: multiples of the source
// with even dimensions, then the fixed sizes strictly smaller than it.
// Sizes below MinDimension and upscales past MaxWidth x MaxHeight are left
// out, and each size appears once. The source size is the fallback when
// nothing else qualifies.
func ScaleOptions(src domain.Resolution) []ScaleOption {
	if src.IsZero() {
		return nil
	}
	var opts []ScaleOption
	seen := make(map[domain.Resolution]bool)
	add := func(o ScaleOption) {
		if !seen[o.Resolution] {
			seen[o.Resolution] = true
			opts = append(opts, o)
		}
	}

	for _, m := range multipliers {
		r := domain.Resolution{
			Width:  even(src.Width * m.num / m.den),
			Height: even(src.Height * m.num / m.den),
		}
		if r.Width < MinDimension || r.Height < MinDimension {
			continue
		}
		if m.num > m.den && (r.Width > MaxWidth || r.Height > MaxHeight) {
			continue
		}
		add(ScaleOption{Label: m.label, Resolution: r})
	}
	for _, f := range fixedSizes {
		if f.Width < src.Width && f.Height < src.Height {
			add(f)
		}
	}

	if len(opts) == 0 {
		add(ScaleOption{Label: "Source", Resolution: domain.Resolution{Width: even(src.Width), Height: even(src.Height)}})
	}
	return opts
}
