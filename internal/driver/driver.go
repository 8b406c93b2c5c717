// Package driver glues the pipeline together: load the parser handoff
// units, build the class table, check bodies (in parallel), then
// monomorphize. Every phase boundary fails fast; a later artifact is
// never produced from an earlier phase with errors.
package driver

import (
	"context"
	"errors"
	"runtime"

	"minato/internal/check"
	"minato/internal/classtable"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/mir"
	"minato/internal/mono"
	"minato/internal/project"
	"minato/internal/source"
)

// DefaultMaxDiagnostics caps the bag when the manifest does not say.
const DefaultMaxDiagnostics = 100

// Options configures one pipeline run.
type Options struct {
	// Manifest supplies units and defaults; Units overrides it.
	Manifest *project.Manifest
	// Units are parser handoff (.mnast) paths, compiled in order.
	Units []string
	// Jobs bounds decode/check parallelism; <=0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the bag; <=0 falls back to the manifest,
	// then to DefaultMaxDiagnostics.
	MaxDiagnostics int
	// CheckOnly stops after body checking; no MIR is produced.
	CheckOnly bool
	// Cache is the optional exports cache. Nil disables it.
	Cache *DiskCache
}

// Result is everything a run produced. HIR and MIR are nil past the
// first failing phase; Bag always holds whatever was reported.
type Result struct {
	Files  *source.FileSet
	Bag    *diag.Bag
	Digest project.Digest

	Table *classtable.Table
	HIR   *hir.Program
	MIR   *mir.Program

	// CacheHit reports that the exports cache already knew this exact
	// input as clean, letting a check-only run skip the pipeline.
	CacheHit bool
}

// OK reports whether the run finished without errors.
func (r *Result) OK() bool {
	return r.Bag != nil && !r.Bag.HasErrors()
}

// ErrNoUnits means neither the options nor the manifest named input.
var ErrNoUnits = errors.New("no source units to compile")

// Run executes the pipeline.
func Run(ctx context.Context, opts Options) (*Result, error) {
	units := opts.Units
	if len(units) == 0 && opts.Manifest != nil {
		var err error
		units, err = opts.Manifest.SourceUnits()
		if err != nil {
			return nil, err
		}
	}
	if len(units) == 0 {
		return nil, ErrNoUnits
	}

	res := &Result{
		Files: source.NewFileSet(),
		Bag:   diag.NewBag(maxDiagnostics(opts)),
	}

	prog, err := loadUnits(ctx, res.Files, units, jobs(opts))
	if err != nil {
		return nil, err
	}
	res.Digest = inputDigest(res.Files)

	if opts.CheckOnly && opts.Cache.IsClean(res.Digest) {
		res.CacheHit = true
		return res, nil
	}

	table, ok := classtable.Build(prog, classtable.Options{
		Reporter: diag.BagReporter{Bag: res.Bag},
	})
	res.Table = table
	if !ok {
		return res, nil
	}

	checked, rec, ok := checkParallel(ctx, table, opts, res.Bag)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !ok {
		return res, nil
	}
	res.HIR = checked

	if opts.CheckOnly {
		storeExports(opts.Cache, res)
		return res, nil
	}

	lowered, ok := mono.Lower(mono.Options{
		Program:  checked,
		Reporter: diag.BagReporter{Bag: res.Bag},
		Recorder: rec,
	})
	if !ok {
		return res, nil
	}
	if !mir.Validate(lowered, table.Types, diag.BagReporter{Bag: res.Bag}) {
		return res, nil
	}
	res.MIR = lowered
	storeExports(opts.Cache, res)
	return res, nil
}

func jobs(opts Options) int {
	if opts.Jobs > 0 {
		return opts.Jobs
	}
	if opts.Manifest != nil && opts.Manifest.Build.Jobs > 0 {
		return opts.Manifest.Build.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

func maxDiagnostics(opts Options) int {
	if opts.MaxDiagnostics > 0 {
		return opts.MaxDiagnostics
	}
	if opts.Manifest != nil && opts.Manifest.Build.MaxDiagnostics > 0 {
		return opts.Manifest.Build.MaxDiagnostics
	}
	return DefaultMaxDiagnostics
}

// inputDigest combines the unit hashes in load order.
func inputDigest(fs *source.FileSet) project.Digest {
	if fs.Len() == 0 {
		return project.Digest{}
	}
	first := project.Digest(fs.Get(0).Hash)
	rest := make([]project.Digest, 0, fs.Len()-1)
	for i := 1; i < fs.Len(); i++ {
		rest = append(rest, project.Digest(fs.Get(source.FileID(i)).Hash))
	}
	return project.Combine(first, rest...)
}

// checkParallel runs the body checker over every user class, Jobs
// classes at a time. Each class gets a private bag and recorder; the
// merge happens in table order so output stays deterministic.
func checkParallel(ctx context.Context, table *classtable.Table, opts Options, bag *diag.Bag) (*hir.Program, *mono.Recorder, bool) {
	var classes []*classtable.ClassEntry
	table.All(func(c *classtable.ClassEntry) {
		if !c.Builtin {
			classes = append(classes, c)
		}
	})

	type classResult struct {
		methods []*hir.Method
		bag     *diag.Bag
		rec     *mono.Recorder
		ok      bool
	}
	results := make([]classResult, len(classes))

	runClass := func(i int) {
		c := classes[i]
		r := &results[i]
		r.bag = diag.NewBag(int(bag.Cap()))
		r.rec = mono.NewRecorder()
		r.methods, r.ok = check.CheckClass(c, check.Options{
			Table:    table,
			Reporter: diag.BagReporter{Bag: r.bag},
			Recorder: r.rec,
		})
	}
	runParallel(ctx, len(classes), jobs(opts), runClass)
	if ctx.Err() != nil {
		return nil, nil, false
	}

	prog := &hir.Program{Table: table}
	rec := mono.NewRecorder()
	allOK := true
	for i := range results {
		r := &results[i]
		if r.bag == nil {
			// Cancelled before this class ran.
			allOK = false
			continue
		}
		bag.Merge(r.bag)
		rec.Merge(r.rec)
		prog.Methods = append(prog.Methods, r.methods...)
		if !r.ok {
			allOK = false
		}
	}
	return prog, rec, allOK
}

func storeExports(cache *DiskCache, res *Result) {
	if cache == nil || res.Table == nil || res.Bag.HasErrors() {
		return
	}
	// A broken cache must never fail the build.
	_ = cache.Put(res.Digest, BuildExports(res))
}
