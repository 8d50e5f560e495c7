package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nvencoder/internal/cli"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Check the GPU and the ffmpeg build for NVENC support",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if _, err := cli.Detect(cmd.Context(), opts); err != nil {
			fmt.Fprintf(os.Stderr, "Hardware check failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <file>...",
	Short: "Print what the encoder sees in video files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		crop, _ := cmd.Flags().GetBool("crop")
		if err := cli.Probe(cmd.Context(), opts, args, crop); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [batch-id]",
	Short: "Show recorded batch results",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if store, _ := cmd.Flags().GetString("store"); store != "" {
			opts.Config.Store.Backend = store
		}
		batch := ""
		if len(args) > 0 {
			batch = args[0]
		}
		if err := cli.History(cmd.Context(), opts, batch); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd, probeCmd, historyCmd)

	probeCmd.Flags().Bool("crop", false, "Also run black bar detection")
	historyCmd.Flags().String("store", "", "Result store backend: file or redis")
}
