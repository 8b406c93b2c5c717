package main

import (
	"os"

	"github.com/spf13/cobra"

	"minato/internal/driver"
	"minato/internal/mir"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path|unit.mnast]",
	Short: "Compile a project to monomorphized MIR",
	Long: "Build runs the whole pipeline: decode units, build the class " +
		"table, check bodies, then monomorphize generics and closures.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         buildExecution,
}

func init() {
	buildCmd.Flags().Bool("emit-mir", false, "print the lowered program to stdout")
	buildCmd.Flags().Bool("no-cache", false, "skip writing the exports cache")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	flags, err := readPipelineFlags(cmd)
	if err != nil {
		return err
	}
	emitMIR, err := cmd.Flags().GetBool("emit-mir")
	if err != nil {
		return err
	}
	opts, err := resolveInputs(args, flags)
	if err != nil {
		return err
	}

	res, err := driver.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if err := emitDiagnostics(res, flags); err != nil {
		return err
	}
	if !res.OK() {
		return errBuildFailed
	}
	if emitMIR && res.MIR != nil {
		mir.Dump(os.Stdout, res.MIR, res.Table.FormatType)
	}
	return nil
}
