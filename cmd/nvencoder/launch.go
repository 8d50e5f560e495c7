package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nvencoder/internal/cli"
	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/launcher"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Prepare the Python environment and start the desktop application",
	Long: `Creates venv/ next to the application when missing, installs requirements.txt
into it and runs main.py with the environment activated. Names can be changed
in launcher.yaml. Without --dir the executable's own directory is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		noPause, _ := cmd.Flags().GetBool("no-pause")

		opts := launcher.MainOptions{
			Logger: logging.NewConsole(os.Stderr, logging.LevelSuccess),
			Stderr: os.Stderr,
		}
		if debug {
			opts.Logger = logging.NewConsole(os.Stderr, slog.LevelDebug)
		}
		if cmd.Flags().Changed("dir") {
			opts.Dir, _ = cmd.Flags().GetString("dir")
		}
		if !noPause {
			opts.Pauser = launcher.NewPauser(os.Stdin, os.Stderr)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		code := launcher.Main(sigCtx, opts)
		sigCtx.Cancel()
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().Bool("no-pause", false, "Do not wait for Enter after a failure")
}
