package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
)

var fontMimetypes = map[string]bool{
	"application/x-truetype-font": true,
	"application/vnd.ms-opentype": true,
	"application/font-sfnt":       true,
	"font/ttf":                    true,
	"font/otf":                    true,
	"application/font-woff":       true,
	"application/font-woff2":      true,
	"font/woff":                   true,
	"font/woff2":                  true,
}

const probeEntries = "format=duration:stream=index,codec_name,codec_type,pix_fmt,width,height:stream_tags=title,language,filename,mimetype"

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index     *int              `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	PixFmt    string            `json:"pix_fmt"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Tags      map[string]string `json:"tags"`
}

// Probe reads duration, the first video stream, subtitle tracks and font
// attachments of file. When the video stream carries no size, ProbeResolution
// is tried. On ErrNoResolution and ErrNoDuration the returned info holds
// everything else that was read.
func (t *Toolchain) Probe(ctx context.Context, file string) (domain.MediaInfo, error) {
	info := domain.MediaInfo{Path: file}
	name := filepath.Base(file)

	out, err := t.output(ctx, ports.Command{
		Name: t.FFprobe,
		Args: []string{"-v", "error", "-show_entries", probeEntries, "-of", "json", file},
	})
	if err != nil {
		return info, fmt.Errorf("ffprobe failed for %s: %w", name, err)
	}

	var data probeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return info, fmt.Errorf("failed to decode ffprobe output for %s: %w", name, err)
	}

	foundVideo := false
	for _, s := range data.Streams {
		if s.Index == nil {
			continue
		}
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.VideoCodec = strings.ToLower(orDefault(s.CodecName, "unknown_video"))
			info.PixFmt = orDefault(s.PixFmt, "unknown_pix_fmt")
			if s.Width > 0 && s.Height > 0 {
				info.Width, info.Height = even(s.Width), even(s.Height)
			}
		case "subtitle":
			track := domain.SubtitleTrack{
				Index:    *s.Index,
				Title:    s.Tags["title"],
				Language: orDefault(s.Tags["language"], "und"),
			}
			info.Subtitles = append(info.Subtitles, track)
			if info.Preferred == nil && containsFold(track.Title, t.keyword) {
				preferred := track
				info.Preferred = &preferred
			}
		case "attachment":
			filename := s.Tags["filename"]
			if filename != "" && fontMimetypes[strings.ToLower(s.Tags["mimetype"])] {
				info.Fonts = append(info.Fonts, domain.FontAttachment{Index: *s.Index, Filename: filename})
			}
		}
	}

	if !foundVideo {
		return domain.MediaInfo{Path: file}, fmt.Errorf("%w in %s", domain.ErrNoVideoStream, name)
	}

	if info.Width == 0 || info.Height == 0 {
		res, err := t.ProbeResolution(ctx, file)
		if err != nil {
			return info, fmt.Errorf("%w for %s: %w", domain.ErrNoResolution, name, err)
		}
		info.Width, info.Height = res.Width, res.Height
	}

	if d, ok := parseSeconds(data.Format.Duration); ok && d > 0 {
		info.Duration = d
	} else {
		return info, fmt.Errorf("%w for %s", domain.ErrNoDuration, name)
	}
	return info, nil
}

// ProbeResolution reads the size of the first video stream, rounded down to even values.
func (t *Toolchain) ProbeResolution(ctx context.Context, file string) (domain.Resolution, error) {
	out, err := t.output(ctx, ports.Command{
		Name: t.FFprobe,
		Args: []string{"-v", "error", "-select_streams", "v:0", "-show_entries", "stream=width,height", "-of", "csv=s=x:p=0", file},
	})
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	ws, hs, ok := strings.Cut(raw, "x")
	if !ok {
		return domain.Resolution{}, fmt.Errorf("unrecognized resolution %q", raw)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(ws))
	h, errH := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(hs, "x")))
	if err := errors.Join(errW, errH); err != nil || w <= 0 || h <= 0 {
		return domain.Resolution{}, fmt.Errorf("unrecognized resolution %q", raw)
	}
	return domain.Resolution{Width: even(w), Height: even(h)}, nil
}

func parseSeconds(s string) (time.Duration, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}

func even(n int) int {
	return n - n%2
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
