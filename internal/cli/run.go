package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/aretw0/nvencoder/internal/config"
	"github.com/aretw0/nvencoder/internal/metrics"
	"github.com/aretw0/nvencoder/internal/presentation/tui"
	httpadapter "github.com/aretw0/nvencoder/pkg/adapters/http"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/encoder"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// ErrNoInputs is returned when the given paths contain no video files.
var ErrNoInputs = errors.New("no video files to encode")

// Options are shared by every command that touches ffmpeg.
type Options struct {
	Config   config.Config
	Dir      string // base directory for relative store paths
	AppDir   string // ffmpeg fallback location and static fonts
	Debug    bool
	Stdout   io.Writer
	Stderr   io.Writer
	Executor ports.Executor // nil runs real processes
}

func (o Options) logger() *slog.Logger {
	level, err := o.Config.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return createLogger(o.Stderr, level, o.Debug)
}

func (o Options) toolchain(logger *slog.Logger) (*ffmpeg.Toolchain, error) {
	opts := []ffmpeg.Option{
		ffmpeg.WithLogger(logger),
		ffmpeg.WithSubtitleKeyword(o.Config.SubtitleKeyword),
	}
	if o.Executor != nil {
		opts = append(opts, ffmpeg.WithExecutor(o.Executor))
	}
	return ffmpeg.Locate(o.AppDir, opts...)
}

// EncodeOptions configures Execute.
type EncodeOptions struct {
	Options
	Inputs []string
	// SubtitleTrack burns this stream index when no track matches the
	// keyword. Negative disables the fallback.
	SubtitleTrack int
	Quiet         bool
	Version       string
	Signal        func() os.Signal
	// MetricsReady, when set, receives the address the status server bound.
	MetricsReady func(net.Addr)
}

// Execute encodes every video found in opts.Inputs and prints a report.
// A batch with failed files still returns a nil error; callers inspect the
// summary.
func Execute(ctx context.Context, opts EncodeOptions) (encoder.Summary, error) {
	logger := opts.logger()
	cfg := opts.Config

	files, err := encoder.CollectInputs(opts.Inputs)
	if err != nil {
		return encoder.Summary{}, err
	}
	if len(files) == 0 {
		return encoder.Summary{}, ErrNoInputs
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(files[0]), encoder.OutputSubdir)
	}

	tc, err := opts.toolchain(logger)
	if err != nil {
		return encoder.Summary{}, err
	}
	hw, messages, err := tc.DetectHardware(ctx)
	for _, m := range messages {
		logger.Info(m)
	}
	if err != nil {
		return encoder.Summary{}, fmt.Errorf("hardware check failed: %w", err)
	}

	persist, err := OpenPersistence(ctx, cfg.Store, opts.Dir)
	if err != nil {
		return encoder.Summary{}, err
	}
	defer func() {
		if err := persist.Close(); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}()

	workerOpts := []encoder.Option{
		encoder.WithLogger(logger),
		encoder.WithStore(persist.Store),
		encoder.WithLocker(persist.Locker, encoder.DefaultLockTTL),
		encoder.WithSettings(cfg.Settings),
		encoder.WithCropOptions(cfg.CropOptions()),
		encoder.WithProgressInterval(cfg.ProgressInterval),
		encoder.WithTempDir(cfg.TempDir),
	}
	if opts.SubtitleTrack >= 0 {
		workerOpts = append(workerOpts, encoder.WithSubtitleChooser(encoder.TrackByIndex(opts.SubtitleTrack)))
	}
	if opts.Debug {
		workerOpts = append(workerOpts, encoder.WithHooks(createDebugHooks(logger)))
	}
	if !opts.Quiet {
		printer := NewProgressPrinter(opts.Stdout, isTerminal(opts.Stdout))
		workerOpts = append(workerOpts, encoder.WithHooks(printer.Hooks()))
	}

	var wg sync.WaitGroup
	serveCtx, stopServer := context.WithCancel(context.WithoutCancel(ctx))
	defer func() {
		stopServer()
		wg.Wait()
	}()
	if cfg.MetricsAddr != "" {
		collector := metrics.New()
		status := httpadapter.NewStatus()
		workerOpts = append(workerOpts, encoder.WithHooks(collector.Hooks()), encoder.WithHooks(status.Hooks()))

		handler := httpadapter.NewHandler(httpadapter.Config{
			Status:  status,
			Store:   persist.Store,
			Metrics: collector.Handler(),
			Version: opts.Version,
		})
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return encoder.Summary{}, fmt.Errorf("failed to listen on %s: %w", cfg.MetricsAddr, err)
		}
		logger.Info("Status server listening", "addr", ln.Addr().String())
		if opts.MetricsReady != nil {
			opts.MetricsReady(ln.Addr())
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpadapter.Serve(serveCtx, ln, handler); err != nil {
				logger.Error("Status server failed", "err", err)
			}
		}()
	}

	if !opts.Quiet {
		printSystemMessage(opts.Stdout, "Encoding %d file(s) into %s", len(files), outDir)
	}

	worker := encoder.NewWorker(tc, hw, workerOpts...)
	sum, err := worker.Run(ctx, encoder.Request{
		Files:       files,
		OutputDir:   outDir,
		BitrateMbps: cfg.BitrateMbps,
		Lossless:    cfg.Lossless,
		Force10Bit:  cfg.Force10Bit,
		AutoCrop:    cfg.AutoCrop,
		Resolution:  cfg.Resolution,
	})
	if err != nil {
		return sum, err
	}

	if !opts.Quiet {
		var sig os.Signal
		if opts.Signal != nil {
			sig = opts.Signal()
		}
		logCompletion(opts.Stdout, len(sum.Results)-sum.Count(domain.StatusCanceled), len(files), sum.Canceled, sig)
		printReport(opts.Stdout, sum.BatchID, sum.Results, sum.Canceled, sum.Elapsed)
	}
	return sum, nil
}

func printReport(w io.Writer, batchID string, results []domain.FileResult, canceled bool, elapsed time.Duration) {
	md := tui.ReportMarkdown(batchID, results, canceled, elapsed)
	if !isTerminal(w) {
		fmt.Fprint(w, md)
		return
	}
	out, err := tui.NewRenderer(0)(md)
	if err != nil {
		out = md
	}
	fmt.Fprint(w, out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
