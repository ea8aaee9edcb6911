package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rotor-modal/client/internal/clilog"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for modalctl.
var rootCmd = &cobra.Command{
	Use:   "modalctl",
	Short: "Submit rotor files for modal analysis from the terminal",
	Long: `modalctl sends a displacement (.dat) and position (.inp) file pair to the
modal analysis backend and prints the classified report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		clilog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}
