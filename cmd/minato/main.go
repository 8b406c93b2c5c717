// Package main implements the minato CLI.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"minato/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "minato",
	Short: "Minato language compiler",
	Long:  "Minato compiles handoff units (.mnast) into monomorphized MIR.",
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("jobs", 0, "decode/check parallelism, 0 picks the CPU count")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "diagnostic cap, 0 uses the manifest or the default")
	rootCmd.PersistentFlags().String("format", "pretty", "diagnostic output (pretty|json)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tristate against the terminal.
func useColor(mode string, out *os.File) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return !color.NoColor && isTerminal(out)
	}
}
