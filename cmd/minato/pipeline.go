package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"minato/internal/diagfmt"
	"minato/internal/driver"
	"minato/internal/project"
)

// errBuildFailed keeps cobra from re-printing diagnostics as an error
// line; the formatter already did the talking.
var errBuildFailed = errors.New("build failed")

type pipelineFlags struct {
	jobs     int
	maxDiags int
	format   string
	color    string
	noCache  bool
}

func readPipelineFlags(cmd *cobra.Command) (pipelineFlags, error) {
	var f pipelineFlags
	var err error
	if f.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return f, err
	}
	if f.maxDiags, err = cmd.Flags().GetInt("max-diagnostics"); err != nil {
		return f, err
	}
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, err
	}
	if f.color, err = cmd.Flags().GetString("color"); err != nil {
		return f, err
	}
	if cmd.Flags().Lookup("no-cache") != nil {
		if f.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
			return f, err
		}
	}
	if f.format != "pretty" && f.format != "json" {
		return f, fmt.Errorf("unknown format %q (pretty|json)", f.format)
	}
	return f, nil
}

// resolveInputs turns the positional argument into driver options.
// A .mnast path compiles that single unit; a directory (or nothing)
// goes through the manifest.
func resolveInputs(args []string, flags pipelineFlags) (driver.Options, error) {
	opts := driver.Options{Jobs: flags.jobs, MaxDiagnostics: flags.maxDiags}

	start := "."
	if len(args) == 1 {
		if filepath.Ext(args[0]) == ".mnast" {
			opts.Units = []string{args[0]}
			return opts, nil
		}
		start = args[0]
	}

	manifest, found, err := project.Discover(start)
	if err != nil {
		return opts, err
	}
	if !found {
		return opts, fmt.Errorf("no %s found from %s upward", project.ManifestName, start)
	}
	opts.Manifest = manifest
	if manifest.CacheEnabled() && !flags.noCache {
		cache, err := driver.OpenDiskCache(manifest.CacheDir())
		if err == nil {
			opts.Cache = cache
		}
	}
	return opts, nil
}

func runPipeline(cmd *cobra.Command, args []string, checkOnly bool) error {
	flags, err := readPipelineFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := resolveInputs(args, flags)
	if err != nil {
		return err
	}
	opts.CheckOnly = checkOnly

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
	return nil
}

func emitDiagnostics(res *driver.Result, flags pipelineFlags) error {
	if res.Bag.Len() == 0 {
		return nil
	}
	res.Bag.Sort()
	if flags.format == "json" {
		return diagfmt.JSON(os.Stdout, res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
		})
	}
	diagfmt.Pretty(os.Stderr, res.Bag, res.Files, diagfmt.PrettyOpts{
		Color:     useColor(flags.color, os.Stderr),
		ShowNotes: true,
	})
	return nil
}

