package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nvencoder"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nvencoder",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nvencoder version %s\n", nvencoder.CurrentVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
