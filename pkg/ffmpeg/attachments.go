package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// FontTimeout bounds a single attachment dump.
const FontTimeout = 15 * time.Second

// ExtractFonts dumps each font attachment into dir under its original base
// name and returns how many landed. ffmpeg exits non-zero after dumping
// attachments when no output is given, so a font counts as extracted when
// its file exists and is not empty; empty leftovers are removed.
func (t *Toolchain) ExtractFonts(ctx context.Context, file string, fonts []domain.FontAttachment, dir string) (int, error) {
	if len(fonts) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create fonts directory: %w", err)
	}

	count := 0
	for _, f := range fonts {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if f.Filename == "" {
			t.logger.Warn("Skipping attachment without a filename", "stream", f.Index)
			continue
		}
		out := filepath.Join(dir, filepath.Base(f.Filename))
		cmd := ports.Command{
			Name: t.FFmpeg,
			Args: []string{
				"-y", "-hide_banner", "-loglevel", "error",
				fmt.Sprintf("-dump_attachment:%d", f.Index), out,
				"-i", file,
			},
			Timeout: FontTimeout,
		}
		t.logger.Debug("Extracting font", "font", f.Filename, "stream", f.Index, "cmd", cmd.String())

		report, runErr := t.stderr(ctx, cmd)
		if nonEmptyFile(out) {
			count++
			continue
		}
		_ = os.Remove(out)
		t.logger.Error("Font extraction failed",
			"font", f.Filename,
			"stream", f.Index,
			"code", domain.ExitCode(runErr),
			"stderr", shorten(strings.TrimSpace(report), 200),
		)
	}

	if count == 0 {
		t.logger.Warn("No fonts extracted", "attachments", len(fonts))
	} else {
		t.logger.Info("Fonts extracted", "count", count, "attachments", len(fonts))
	}
	return count, nil
}

// shorten keeps the head and tail of s when it is longer than max bytes.
func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	half := max / 2
	return s[:half] + "..." + s[len(s)-half:]
}
