package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flint/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "flint",
	Short: "Rule-based static analyzer for syntax tree bundles",
	Long:  `Flint runs a configurable rule set over pre-parsed syntax tree bundles, reports findings in pretty, JSON, or SARIF form, and applies automated fixes`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("config", "", "path to flint.toml (default: nearest ancestor of the target)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
