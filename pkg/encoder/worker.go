package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// Defaults of a Worker.
const (
	DefaultProgressInterval = 250 * time.Millisecond
	DefaultLockTTL          = 12 * time.Hour
	FontsDirName            = "extracted_fonts"
)

// Request describes one batch.
type Request struct {
	Files       []string
	OutputDir   string
	BitrateMbps int
	Lossless    bool
	Force10Bit  bool
	AutoCrop    bool
	Resolution  domain.Resolution // zero keeps the source size
}

// Summary is the outcome of Run.
type Summary struct {
	BatchID  string
	Results  []domain.FileResult
	Canceled bool
	Elapsed  time.Duration
}

// Count returns how many results have status s.
func (s Summary) Count(status domain.FileStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed.
func (s Summary) Failed() bool {
	return s.Count(domain.StatusFailed) > 0
}

// Worker encodes batches sequentially on one toolchain.
type Worker struct {
	tc       *ffmpeg.Toolchain
	hw       domain.HardwareInfo
	logger   *slog.Logger
	store    ports.ResultStore
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	base     domain.EncodeSettings
	cropOpts ffmpeg.CropOptions
	tempDir  string
	chooser  SubtitleChooser
	batchID  string

	progressEvery time.Duration
}

// NewWorker creates a worker for a toolchain whose hardware was detected.
func NewWorker(tc *ffmpeg.Toolchain, hw domain.HardwareInfo, opts ...Option) *Worker {
	w := &Worker{
		tc:            tc,
		hw:            hw,
		lockTTL:       DefaultLockTTL,
		base:          DefaultSettings(),
		cropOpts:      ffmpeg.CropOptions{Seconds: 30, Limit: 24},
		progressEvery: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	return w
}

// Run encodes req.Files one after another. Per-file failures are recorded
// in the results and do not stop the batch; a canceled ctx does. The error
// is reserved for failures that prevent the batch from running at all.
func (w *Worker) Run(ctx context.Context, req Request) (Summary, error) {
	started := time.Now()
	sum := Summary{BatchID: w.batchID}
	if sum.BatchID == "" {
		sum.BatchID = started.Format("20060102-150405.000")
	}

	if !w.hw.Ready() {
		return sum, domain.ErrEncoderUnavailable
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("failed to create output directory %s: %w", req.OutputDir, err)
	}

	if w.locker != nil {
		key, err := filepath.Abs(req.OutputDir)
		if err != nil {
			key = req.OutputDir
		}
		unlock, err := w.locker.Lock(ctx, key, w.lockTTL)
		if err != nil {
			return sum, fmt.Errorf("failed to lock output directory: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				w.logger.Warn("Failed to release output lock", "err", err)
			}
		}()
	}

	settings := DeriveSettings(w.base, req.BitrateMbps, req.Lossless, req.Force10Bit)
	total := len(req.Files)

	for i, input := range req.Files {
		if ctx.Err() != nil {
			w.logger.Warn("Batch stopped before file", "file", filepath.Base(input))
			sum.Canceled = true
			break
		}

		ev := &domain.FileEvent{
			EventBase: w.event(domain.EventFileStart, sum.BatchID),
			Index:     i + 1,
			Total:     total,
			Input:     input,
		}
		w.logger.Info(fmt.Sprintf("[%d/%d] Processing", i+1, total), "file", filepath.Base(input))
		if w.hooks.OnFileStart != nil {
			w.hooks.OnFileStart(ctx, ev)
		}

		res := w.processFile(ctx, sum.BatchID, i, ev, req, settings)
		sum.Results = append(sum.Results, res)
		w.record(ctx, res)

		if w.hooks.OnFileFinish != nil {
			done := *ev
			done.EventBase = w.event(domain.EventFileFinish, sum.BatchID)
			done.Result = &res
			w.hooks.OnFileFinish(ctx, &done)
		}
		if res.Status == domain.StatusCanceled {
			sum.Canceled = true
			break
		}
	}

	sum.Elapsed = time.Since(started)
	if sum.Canceled {
		w.logger.Warn("Batch canceled", "batch", sum.BatchID)
	} else {
		w.logger.Info("All files processed", "batch", sum.BatchID, "elapsed", sum.Elapsed.Round(time.Second))
	}
	if w.hooks.OnBatchFinish != nil {
		w.hooks.OnBatchFinish(ctx, &domain.BatchEvent{
			EventBase: w.event(domain.EventBatchFinish, sum.BatchID),
			Results:   sum.Results,
			Canceled:  sum.Canceled,
			Elapsed:   sum.Elapsed,
		})
	}
	return sum, nil
}

func (w *Worker) event(t domain.EventType, batchID string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, BatchID: batchID}
}

// record saves a result. Store failures are logged; they never fail the file.
func (w *Worker) record(ctx context.Context, res domain.FileResult) {
	if w.store == nil {
		return
	}
	if err := w.store.Save(context.WithoutCancel(ctx), res); err != nil {
		w.logger.Warn("Failed to record result", "id", res.ID, "err", err)
	}
}

func (w *Worker) processFile(ctx context.Context, batchID string, i int, ev *domain.FileEvent, req Request, settings domain.EncodeSettings) (res domain.FileResult) {
	input := ev.Input
	name := filepath.Base(input)
	log := w.logger.With("file", name)

	res = domain.FileResult{
		ID:        fmt.Sprintf("%s-%03d", batchID, i+1),
		BatchID:   batchID,
		Input:     input,
		StartedAt: time.Now(),
	}
	defer func() {
		res.FinishedAt = time.Now()
		res.Elapsed = res.FinishedAt.Sub(res.StartedAt)
	}()
	finish := func(status domain.FileStatus, format string, args ...any) domain.FileResult {
		res.Status = status
		res.Message = fmt.Sprintf(format, args...)
		return res
	}

	output := OutputPath(req.OutputDir, input)
	if _, err := os.Stat(output); err == nil {
		log.Warn("Output already exists, skipping", "output", filepath.Base(output))
		res.Output = output
		return finish(domain.StatusSkipped, "output already exists")
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	tmp, err := os.MkdirTemp(w.tempDir, "enc_"+ffmpeg.SanitizeFilenamePart(stem, 40)+"_")
	if err != nil {
		return finish(domain.StatusFailed, "failed to create temp directory: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			log.Error("Failed to remove temp directory", "dir", tmp, "err", err)
		}
	}()

	info, err := w.tc.Probe(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return finish(domain.StatusCanceled, "encoding canceled")
		}
		log.Error("Probe failed", "err", err)
		return finish(domain.StatusFailed, "%v", err)
	}
	log.Info("Media info",
		"duration", info.Duration.Round(10*time.Millisecond),
		"codec", info.VideoCodec,
		"size", fmt.Sprintf("%dx%d", info.Width, info.Height),
	)

	track := info.Preferred
	if track == nil && len(info.Subtitles) > 0 && w.chooser != nil {
		track = w.chooser(info)
	}
	if track != nil {
		log.Info("Subtitle track", "stream", track.Index, "title", track.Title)
	} else {
		log.Info("No subtitle track to burn", "keyword", w.tc.SubtitleKeyword())
	}

	var crop domain.Crop
	if req.AutoCrop {
		crop = w.detectCrop(ctx, log, input, domain.Resolution{Width: info.Width, Height: info.Height})
	}

	var fontsDir string
	if len(info.Fonts) > 0 {
		dir := filepath.Join(tmp, FontsDirName)
		n, err := w.tc.ExtractFonts(ctx, input, info.Fonts, dir)
		switch {
		case err != nil:
			log.Error("Font extraction failed", "err", err)
		case n > 0:
			fontsDir = dir
		}
	}

	var subtitleFile string
	if track != nil && w.hw.SubtitlesFilter {
		subtitleFile, err = w.tc.ExtractSubtitle(ctx, input, *track, tmp)
		if err != nil {
			log.Error("Subtitle extraction failed", "err", err)
			subtitleFile = ""
		}
	}
	if ctx.Err() != nil {
		return finish(domain.StatusCanceled, "encoding canceled")
	}

	target := TargetSize(req.Resolution, crop)
	if !target.IsZero() {
		log.Info("Scaling", "target", target.String())
	}
	log.Info("Encoding mode", "mode", Describe(settings))

	inv, err := w.tc.BuildCommand(ffmpeg.CommandRequest{
		Input:        input,
		Output:       output,
		Hardware:     w.hw,
		Codec:        info.VideoCodec,
		PixFmt:       info.PixFmt,
		Settings:     settings,
		SubtitleFile: subtitleFile,
		FontsDir:     fontsDir,
		Target:       target,
		Crop:         crop,
	})
	if err != nil {
		return finish(domain.StatusFailed, "%v", err)
	}
	res.Decoder, res.Encoder = inv.Decoder, inv.Encoder
	log.Info("Codecs", "decoder", inv.Decoder, "encoder", inv.Encoder)

	lines := ffmpeg.NewLineWriter(w.progressSink(ctx, ev, info.Duration))
	cmd := inv.Command()
	cmd.Stderr = lines
	runErr := w.tc.Executor().Run(ctx, cmd)
	lines.Flush()

	switch {
	case runErr == nil:
		res.Output = output
		if w.hooks.OnProgress != nil {
			p := domain.Progress{Timed: true, Position: info.Duration, Percent: 100}
			w.emitProgress(ctx, ev, p)
		}
		log.Info("Encoded", "output", filepath.Base(output))
		return finish(domain.StatusEncoded, "encoded")

	case ctx.Err() != nil || errors.Is(runErr, context.Canceled):
		removePartial(log, output)
		log.Warn("Encoding canceled", "code", domain.ExitCode(runErr))
		return finish(domain.StatusCanceled, "encoding canceled")

	default:
		cause := runErr.Error()
		if code := domain.ExitCode(runErr); code >= 0 {
			cause = fmt.Sprintf("ffmpeg exited with code %d: %s", code, ffmpeg.Diagnose(lines.String(), w.staticFonts()))
		}
		log.Error("Encoding failed", "cause", cause)
		removePartial(log, output)
		return finish(domain.StatusFailed, "%s", cause)
	}
}

func (w *Worker) detectCrop(ctx context.Context, log *slog.Logger, input string, src domain.Resolution) domain.Crop {
	det, err := w.tc.DetectCrop(ctx, input, w.cropOpts)
	if err != nil {
		log.Warn("Crop detection failed", "err", err)
		return domain.Crop{}
	}
	if det.Crop.IsZero() {
		log.Info("No crop needed", "reason", det.Reason)
		return domain.Crop{}
	}
	if ok, reason := ffmpeg.CropDecision(det.Crop, src); !ok {
		log.Warn("Crop skipped", "crop", det.Crop.String(), "reason", reason)
		return domain.Crop{}
	}
	log.Info("Applying crop", "crop", det.Crop.String())
	return det.Crop
}

// progressSink parses ffmpeg lines and forwards at most one progress event
// per interval.
func (w *Worker) progressSink(ctx context.Context, ev *domain.FileEvent, total time.Duration) func(string) {
	if w.hooks.OnProgress == nil {
		return nil
	}
	limit := rate.Inf
	if w.progressEvery > 0 {
		limit = rate.Every(w.progressEvery)
	}
	limiter := rate.NewLimiter(limit, 1)
	return func(line string) {
		p, ok := ffmpeg.ParseProgress(line, total)
		if !ok || !p.HasPercent() || !limiter.Allow() {
			return
		}
		w.emitProgress(ctx, ev, p)
	}
}

func (w *Worker) emitProgress(ctx context.Context, ev *domain.FileEvent, p domain.Progress) {
	pe := *ev
	pe.EventBase = w.event(domain.EventProgress, ev.BatchID)
	pe.Progress = &p
	w.hooks.OnProgress(ctx, &pe)
}

func (w *Worker) staticFonts() string {
	return filepath.Join(w.tc.AppDir, ffmpeg.FontsSubdir)
}

func removePartial(log *slog.Logger, output string) {
	err := os.Remove(output)
	switch {
	case err == nil:
		log.Info("Removed partial output", "output", filepath.Base(output))
	case !os.IsNotExist(err):
		log.Error("Failed to remove partial output", "output", output, "err", err)
	}
}
