package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nvencoder"
	"github.com/aretw0/nvencoder/internal/cli"
	"github.com/aretw0/nvencoder/internal/config"
	"github.com/aretw0/nvencoder/internal/presentation/tui"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [files or directories...]",
	Short: "Encode video files with hevc_nvenc",
	Long: `Encodes each video file given, and each video file directly inside each
directory given, into <output>/<name>.mp4. Existing outputs are skipped.
Ctrl+C stops the running ffmpeg, removes its partial output and ends the batch.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := applyEncodeFlags(cmd, &opts.Config); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		track, _ := cmd.Flags().GetInt("subtitle-track")
		quiet, _ := cmd.Flags().GetBool("quiet")

		if !quiet {
			tui.PrintBanner(os.Stdout, nvencoder.CurrentVersion())
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		sum, err := cli.Execute(sigCtx, cli.EncodeOptions{
			Options:       opts,
			Inputs:        args,
			SubtitleTrack: track,
			Quiet:         quiet,
			Version:       nvencoder.CurrentVersion(),
			Signal:        sigCtx.Signal,
		})
		if err != nil {
			if errors.Is(err, cli.ErrNoInputs) {
				fmt.Fprintln(os.Stderr, "Error: no video files found in the given paths")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		if sum.Failed() || sum.Canceled {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	f := encodeCmd.Flags()
	f.StringP("output", "o", "", "Output directory (default <first input dir>/ENCODED_HEVC_NVIDIA_GUI)")
	f.IntP("bitrate", "b", 0, "Target bitrate in Mbps (max 2x, buffer 4x)")
	f.Bool("lossless", false, "Constant QP 0 with the lossless preset; ignores --bitrate")
	f.Bool("10bit", false, "Force 10-bit (p010le) output")
	f.Bool("crop", false, "Detect and crop black bars")
	f.String("resolution", "", "Output size WxH; height is kept and width follows the cropped aspect")
	f.String("keyword", "", "Subtitle title keyword of the preferred track")
	f.Int("subtitle-track", -1, "Stream index to burn when no track matches the keyword")
	f.String("metrics-addr", "", "Serve /metrics, /status and /events on this address while encoding")
	f.String("store", "", "Result store backend: memory, file or redis")
	f.BoolP("quiet", "q", false, "Only log; no banner, progress or report")
}

// applyEncodeFlags overrides config values with the flags that were set.
func applyEncodeFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("bitrate") {
		cfg.BitrateMbps, _ = f.GetInt("bitrate")
	}
	if f.Changed("lossless") {
		cfg.Lossless, _ = f.GetBool("lossless")
	}
	if f.Changed("10bit") {
		cfg.Force10Bit, _ = f.GetBool("10bit")
	}
	if f.Changed("crop") {
		cfg.AutoCrop, _ = f.GetBool("crop")
	}
	if f.Changed("resolution") {
		raw, _ := f.GetString("resolution")
		res, err := config.ParseResolution(raw)
		if err != nil {
			return err
		}
		cfg.Resolution = res
	}
	if f.Changed("keyword") {
		cfg.SubtitleKeyword, _ = f.GetString("keyword")
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("store") {
		cfg.Store.Backend, _ = f.GetString("store")
	}
	return cfg.Validate()
}
