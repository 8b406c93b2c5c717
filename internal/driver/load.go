package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"minato/internal/ast"
	"minato/internal/source"
)

// loadUnits reads and decodes every handoff unit, limit workers at a
// time, then merges the forests in input order. Each unit is rebased
// onto its own file ID so spans stay attributable after the merge.
func loadUnits(ctx context.Context, fs *source.FileSet, units []string, limit int) (*ast.Program, error) {
	type unit struct {
		raw  []byte
		prog *ast.Program
	}
	loaded := make([]unit, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range units {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			prog, err := ast.DecodeProgram(bytes.NewReader(raw))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			loaded[i] = unit{raw: raw, prog: prog}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The file set is not safe for concurrent writes, so registration
	// and span rebasing stay on this goroutine.
	merged := &ast.Program{}
	for i, u := range loaded {
		id := fs.Add(units[i], u.raw, 0)
		ast.RebaseFiles(u.prog, id)
		merged.Classes = append(merged.Classes, u.prog.Classes...)
	}
	return merged, nil
}

// runParallel invokes fn for every index in [0, n), limit at a time.
// It stops launching new work once ctx is cancelled.
func runParallel(ctx context.Context, n, limit int, fn func(i int)) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
