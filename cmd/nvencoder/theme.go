package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nvencoder/pkg/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Inspect the dark stylesheet of the desktop application",
}

var themeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the stylesheet",
	Run: func(cmd *cobra.Command, args []string) {
		normalized, _ := cmd.Flags().GetBool("normalized")
		if normalized {
			fmt.Println(theme.Dark().String())
			return
		}
		fmt.Print(theme.DarkSource())
	},
}

var themePreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the resolved colors of the common widgets",
	Run: func(cmd *cobra.Command, args []string) {
		if err := theme.Preview(os.Stdout, theme.Dark(), theme.PreviewWidgets()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var themeResolveCmd = &cobra.Command{
	Use:   "resolve <widget>",
	Short: "Resolve the properties a widget gets, e.g. 'QGroupBox > QPushButton:hover'",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w, err := theme.ParseWidget(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sheet := theme.Dark()

		explain, _ := cmd.Flags().GetBool("explain")
		if !explain {
			props := sheet.Resolve(w)
			for _, name := range props.Names() {
				fmt.Printf("%s: %s\n", name, props[name])
			}
			return
		}
		for _, a := range sheet.Explain(w) {
			important := ""
			if a.Important {
				important = " !important"
			}
			fmt.Printf("%-24s %s%s\t(%s, %s)\n", a.Property, a.Value, important, a.Selector, a.Specificity)
		}
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeExportCmd, themePreviewCmd, themeResolveCmd)

	themeExportCmd.Flags().Bool("normalized", false, "Print the parsed rules instead of the original source")
	themeResolveCmd.Flags().Bool("explain", false, "List every applied declaration in cascade order")
}
