package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

var (
	sourceSizeRe = regexp.MustCompile(`\s(\d+)x(\d+)[,\s]`)
	cropRe       = regexp.MustCompile(`crop=(\d+):(\d+):(\d+):(\d+)`)
)

// CropOptions tunes cropdetect.
type CropOptions struct {
	Seconds int // analysed duration
	Limit   int // black threshold, 0-255
}

// DefaultCropOptions analyses 20 seconds with limit 24.
func DefaultCropOptions() CropOptions {
	return CropOptions{Seconds: 20, Limit: 24}
}

// CropDetection is the outcome of DetectCrop. Crop is zero when no crop applies.
type CropDetection struct {
	Source    domain.Resolution
	Suggested string // last crop= value reported, if any
	Crop      domain.Crop
	Reason    string
}

// MinCropArea is the smallest share of the source area a crop may keep.
const MinCropArea = 0.70

// DetectCrop runs cropdetect over the start of file and returns the last
// rectangle it settled on. Rectangles outside the source and rectangles equal
// to the source yield no crop.
func (t *Toolchain) DetectCrop(ctx context.Context, file string, opts CropOptions) (CropDetection, error) {
	def := DefaultCropOptions()
	if opts.Seconds <= 0 {
		opts.Seconds = def.Seconds
	}
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}

	var det CropDetection

	// "ffmpeg -i" without an output always exits non-zero; only its report matters.
	info, err := t.stderr(ctx, ports.Command{Name: t.FFmpeg, Args: []string{"-hide_banner", "-i", file}})
	if err != nil && domain.ExitCode(err) < 0 {
		return det, fmt.Errorf("failed to read source size: %w", err)
	}
	m := sourceSizeRe.FindStringSubmatch(info)
	if m == nil {
		return det, fmt.Errorf("%w: no size in ffmpeg report", domain.ErrNoResolution)
	}
	det.Source.Width, _ = strconv.Atoi(m[1])
	det.Source.Height, _ = strconv.Atoi(m[2])

	seconds := strconv.Itoa(opts.Seconds)
	report, err := t.stderr(ctx, ports.Command{
		Name: t.FFmpeg,
		Args: []string{
			"-hide_banner", "-loglevel", "info",
			"-i", file,
			"-t", seconds,
			"-vf", fmt.Sprintf("cropdetect=limit=%d:round=2:reset=0", opts.Limit),
			"-f", "null", "-",
		},
		Timeout: time.Duration(opts.Seconds+5) * time.Second,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return det, fmt.Errorf("cropdetect timed out after %ss: %w", seconds, err)
		}
		return det, fmt.Errorf("cropdetect failed: %w", err)
	}

	all := cropRe.FindAllStringSubmatch(report, -1)
	if len(all) == 0 {
		det.Reason = "cropdetect reported no crop"
		return det, nil
	}
	last := all[len(all)-1]
	var c domain.Crop
	c.Width, _ = strconv.Atoi(last[1])
	c.Height, _ = strconv.Atoi(last[2])
	c.X, _ = strconv.Atoi(last[3])
	c.Y, _ = strconv.Atoi(last[4])
	det.Suggested = c.String()

	switch {
	case c.Width > det.Source.Width || c.Height > det.Source.Height:
		det.Reason = fmt.Sprintf("invalid crop %s for %dx%d", c, det.Source.Width, det.Source.Height)
	case c.Width == det.Source.Width && c.Height == det.Source.Height && c.X == 0 && c.Y == 0:
		det.Reason = "no black bars"
	default:
		det.Crop = c
	}
	return det, nil
}

// CropDecision tells whether a detected crop should be applied to a source
// of the given size, and why not when it should not. Crops that change
// nothing are declined, and so are crops keeping less than MinCropArea of a
// source larger than 240x240.
func CropDecision(c domain.Crop, src domain.Resolution) (bool, string) {
	if c.IsZero() || c.Width <= 0 || c.Height <= 0 {
		return false, "no crop"
	}
	if c.Width >= src.Width && c.Height >= src.Height && c.X == 0 && c.Y == 0 {
		return false, "crop matches the source"
	}
	srcArea := src.Width * src.Height
	if srcArea > 240*240 && float64(c.Width*c.Height)/float64(srcArea) < MinCropArea {
		return false, fmt.Sprintf("crop %s removes too much of %dx%d", c, src.Width, src.Height)
	}
	return true, ""
}
