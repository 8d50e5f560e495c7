package encoder

import (
	"log/slog"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// Option configures a Worker.
type Option func(*Worker)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithStore records every file result.
func WithStore(store ports.ResultStore) Option {
	return func(w *Worker) {
		w.store = store
	}
}

// WithLocker guards the output directory for the duration of a batch.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(w *Worker) {
		w.locker = locker
		if ttl > 0 {
			w.lockTTL = ttl
		}
	}
}

// WithHooks registers lifecycle callbacks. Repeated calls merge.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Worker) {
		w.hooks = domain.MergeHooks(w.hooks, hooks)
	}
}

// WithProgressInterval limits OnProgress to one call per interval.
// Zero or less reports every parsed line.
func WithProgressInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.progressEvery = d
	}
}

// WithSettings replaces the base encode settings bitrates are derived into.
func WithSettings(s domain.EncodeSettings) Option {
	return func(w *Worker) {
		w.base = s
	}
}

// WithCropOptions tunes black bar detection.
func WithCropOptions(opts ffmpeg.CropOptions) Option {
	return func(w *Worker) {
		w.cropOpts = opts
	}
}

// WithTempDir sets where per-file working directories are created.
func WithTempDir(dir string) Option {
	return func(w *Worker) {
		w.tempDir = dir
	}
}

// WithSubtitleChooser picks a subtitle track for files without a preferred one.
func WithSubtitleChooser(choose SubtitleChooser) Option {
	return func(w *Worker) {
		w.chooser = choose
	}
}

// WithBatchID fixes the batch ID instead of deriving it from the start time.
func WithBatchID(id string) Option {
	return func(w *Worker) {
		w.batchID = id
	}
}

// SubtitleChooser is consulted when a file has subtitle tracks but none whose
// title carries the keyword. Returning nil burns no subtitles.
type SubtitleChooser func(info domain.MediaInfo) *domain.SubtitleTrack

// TrackByIndex chooses the subtitle stream with the given global index when
// the file has it.
func TrackByIndex(index int) SubtitleChooser {
	return func(info domain.MediaInfo) *domain.SubtitleTrack {
		for _, t := range info.Subtitles {
			if t.Index == index {
				track := t
				return &track
			}
		}
		return nil
	}
}
