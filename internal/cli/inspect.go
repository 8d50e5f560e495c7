package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
)

// Detect locates the toolchain and prints the hardware checks.
func Detect(ctx context.Context, opts Options) (domain.HardwareInfo, error) {
	logger := opts.logger()
	tc, err := opts.toolchain(logger)
	if err != nil {
		return domain.HardwareInfo{}, err
	}
	for _, tool := range []struct{ name, path string }{{"ffmpeg", tc.FFmpeg}, {"ffprobe", tc.FFprobe}} {
		state := "ok"
		if err := ffmpeg.CheckExecutable(tool.name, tool.path); err != nil {
			state = "not a regular file"
		}
		fmt.Fprintf(opts.Stdout, "%-8s %s (%s)\n", tool.name, tool.path, state)
	}

	hw, messages, err := tc.DetectHardware(ctx)
	for _, m := range messages {
		fmt.Fprintln(opts.Stdout, m)
	}
	if err != nil {
		return hw, err
	}
	printSystemMessage(opts.Stdout, "NVENC ready: encoder %s, %d hardware decoder(s), subtitles filter %t",
		hw.Encoder, len(hw.Decoders), hw.SubtitlesFilter)
	return hw, nil
}

// probeReport is the YAML document printed by Probe.
type probeReport struct {
	File       string                  `yaml:"file"`
	Duration   string                  `yaml:"duration"`
	Codec      string                  `yaml:"codec"`
	PixFmt     string                  `yaml:"pix_fmt"`
	Size       string                  `yaml:"size"`
	TenBit     bool                    `yaml:"ten_bit"`
	Subtitles  []domain.SubtitleTrack  `yaml:"subtitles,omitempty"`
	Preferred  *domain.SubtitleTrack   `yaml:"preferred_subtitle,omitempty"`
	Fonts      []domain.FontAttachment `yaml:"fonts,omitempty"`
	Crop       string                  `yaml:"crop,omitempty"`
	CropReason string                  `yaml:"crop_reason,omitempty"`
	Scales     []string                `yaml:"scale_options"`
}

// Probe prints the media info of each file as YAML documents. With crop
// set, black bar detection runs too.
func Probe(ctx context.Context, opts Options, files []string, crop bool) error {
	logger := opts.logger()
	tc, err := opts.toolchain(logger)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(opts.Stdout)
	enc.SetIndent(2)
	defer enc.Close()

	for _, f := range files {
		info, err := tc.Probe(ctx, f)
		if err != nil {
			return err
		}
		src := domain.Resolution{Width: info.Width, Height: info.Height}
		rep := probeReport{
			File:      filepath.Base(f),
			Duration:  info.Duration.Round(10 * time.Millisecond).String(),
			Codec:     info.VideoCodec,
			PixFmt:    info.PixFmt,
			Size:      fmt.Sprintf("%dx%d", info.Width, info.Height),
			TenBit:    info.Is10Bit(),
			Subtitles: info.Subtitles,
			Preferred: info.Preferred,
			Fonts:     info.Fonts,
		}
		for _, s := range ffmpeg.ScaleOptions(src) {
			rep.Scales = append(rep.Scales, s.String())
		}
		if crop {
			det, err := tc.DetectCrop(ctx, f, opts.Config.CropOptions())
			switch {
			case err != nil:
				rep.CropReason = err.Error()
			case det.Crop.IsZero():
				rep.CropReason = det.Reason
			default:
				ok, reason := ffmpeg.CropDecision(det.Crop, src)
				rep.Crop = det.Crop.String()
				if !ok {
					rep.CropReason = reason
				}
			}
		}
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("failed to print probe report: %w", err)
		}
	}
	return nil
}

// History prints stored results, one report per batch, newest batch last.
// An empty batchID lists every batch.
func History(ctx context.Context, opts Options, batchID string) error {
	persist, err := OpenPersistence(ctx, opts.Config.Store, opts.Dir)
	if err != nil {
		return err
	}
	defer persist.Close()

	results, err := persist.Store.List(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	if len(results) == 0 {
		printSystemMessage(opts.Stdout, "No results recorded.")
		return nil
	}

	batches := map[string][]domain.FileResult{}
	var order []string
	for _, r := range results {
		if _, ok := batches[r.BatchID]; !ok {
			order = append(order, r.BatchID)
		}
		batches[r.BatchID] = append(batches[r.BatchID], r)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return batches[order[i]][0].StartedAt.Before(batches[order[j]][0].StartedAt)
	})

	for _, id := range order {
		rs := batches[id]
		elapsed := rs[len(rs)-1].FinishedAt.Sub(rs[0].StartedAt)
		printReport(opts.Stdout, id, rs, false, elapsed)
		fmt.Fprintln(opts.Stdout)
	}
	return nil
}
