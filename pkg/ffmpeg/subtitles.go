package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// SubtitleOrder returns the position of the stream with global index among
// the file's subtitle streams, which is what "-map 0:s:N" expects.
func (t *Toolchain) SubtitleOrder(ctx context.Context, file string, index int) (int, error) {
	out, err := t.output(ctx, ports.Command{
		Name: t.FFprobe,
		Args: []string{"-v", "error", "-select_streams", "s", "-show_entries", "stream=index", "-of", "csv=p=0", file},
	})
	if err != nil {
		return -1, fmt.Errorf("failed to list subtitle streams: %w", err)
	}

	var seen []int
	for _, field := range strings.Fields(string(out)) {
		n, err := strconv.Atoi(strings.Trim(field, ","))
		if err != nil {
			t.logger.Warn("Ignoring malformed subtitle stream index", "value", field)
			continue
		}
		if n == index {
			return len(seen), nil
		}
		seen = append(seen, n)
	}
	return -1, fmt.Errorf("%w: stream %d not among %v", domain.ErrSubtitleTrackNotFound, index, seen)
}

// ExtractSubtitle converts one subtitle track to ASS inside dir and returns
// the file path. The file name is unique per process and instant.
func (t *Toolchain) ExtractSubtitle(ctx context.Context, file string, track domain.SubtitleTrack, dir string) (string, error) {
	order, err := t.SubtitleOrder(ctx, file, track.Index)
	if err != nil {
		return "", err
	}

	title := track.Title
	if title == "" {
		title = "untitled_subs"
	}
	name := fmt.Sprintf("temp_%s_%d_%d.ass", SanitizeFilenamePart(title, 30), os.Getpid(), time.Now().UnixMilli())
	out := filepath.Join(dir, name)

	t.logger.Info("Extracting subtitles",
		"stream", track.Index, "order", order, "title", title, "file", name)

	report, err := t.stderr(ctx, ports.Command{
		Name: t.FFmpeg,
		Args: []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", file,
			"-map", fmt.Sprintf("0:s:%d", order),
			"-c:s", "ass",
			out,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract subtitle stream %d: %w", track.Index, err)
	}
	if !nonEmptyFile(out) {
		if report = strings.TrimSpace(report); report != "" {
			t.logger.Debug("ffmpeg stderr", "stderr", report)
		}
		return "", fmt.Errorf("%w: subtitle stream %d", domain.ErrEmptyOutput, track.Index)
	}
	return out, nil
}

func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
