package main

import "github.com/spf13/cobra"

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path|unit.mnast]",
	Short: "Type-check a project without lowering",
	Long: "Check builds the class table and type-checks every method body. " +
		"With a manifest and an exports cache, unchanged input is a no-op.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args, true)
	},
}

func init() {
	checkCmd.Flags().Bool("no-cache", false, "ignore the exports cache")
}
