package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nvencoder/internal/cli"
	"github.com/aretw0/nvencoder/internal/config"
	"github.com/aretw0/nvencoder/pkg/launcher"
)

var rootCmd = &cobra.Command{
	Use:   "nvencoder",
	Short: "nvencoder re-encodes videos to HEVC on NVIDIA GPUs",
	Long: `nvencoder probes video files, burns in the preferred subtitle track with its
embedded fonts, optionally crops black bars and rescales, and encodes them
with ffmpeg's hevc_nvenc encoder. It also ships the Python application launcher
and the dark theme of the desktop front end.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory holding nvencoder.yaml and the result store")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadOptions resolves the shared command options from the persistent flags
// and the config file in --dir.
func loadOptions(cmd *cobra.Command) (cli.Options, error) {
	dir, _ := cmd.Flags().GetString("dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(dir)
	if err != nil {
		return cli.Options{}, err
	}
	appDir, err := launcher.ResolveDir()
	if err != nil {
		return cli.Options{}, err
	}
	return cli.Options{
		Config: cfg,
		Dir:    dir,
		AppDir: appDir,
		Debug:  debug,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}
