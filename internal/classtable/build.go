package classtable

import (
	"fmt"

	"minato/internal/ast"
	"minato/internal/diag"
	"minato/internal/source"
	"minato/internal/types"
)

// Options configure a class table build.
type Options struct {
	Reporter diag.Reporter
	Names    *source.Interner
	Types    *types.Interner
}

// Build runs both table passes over the whole program: the signature
// pass (every class indexed before any reference is resolved, so
// forward references work across the program) and the well-formedness
// pass. The returned bool is false when any error was reported; such a
// table must not be handed to the checker.
func Build(prog *ast.Program, opts Options) (*Table, bool) {
	names := opts.Names
	if names == nil {
		names = source.NewInterner()
	}
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}

	b := &builder{
		t:        NewTable(names, in),
		reporter: reporter,
	}
	b.indexProgram(prog)
	b.resolveSupers()
	b.detectCycles()
	b.wellFormedness()
	b.t.Seal()
	return b.t, !b.failed
}

type builder struct {
	t        *Table
	reporter diag.Reporter
	failed   bool
}

func (b *builder) errorf(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	b.failed = true
	return diag.ReportError(b.reporter, code, span, fmt.Sprintf(format, args...))
}

// indexProgram is the first sweep of the signature pass: allocate an
// entry for every class and enum variant so later resolution can see
// the whole program at once.
func (b *builder) indexProgram(prog *ast.Program) {
	for _, def := range prog.Classes {
		b.indexClass(def)
	}
}

func (b *builder) indexClass(def *ast.ClassDef) {
	name := b.t.Names.Intern(def.Name)
	if prev, exists := b.t.GetByName(name); exists {
		b.errorf(diag.TableDuplicateClass, def.Span, "class %s is already defined", def.Name).
			WithNote(prev.Span, "previous definition here").Emit()
		return
	}
	entry := &ClassEntry{
		Name:   name,
		IsEnum: def.IsEnum,
		Span:   def.Span,
		def:    def,
	}
	for _, tp := range def.TypeParams {
		tpID := b.t.Names.Intern(tp)
		if indexOfName(entry.TypeParams, tpID) >= 0 {
			b.errorf(diag.TableDuplicateTyparam, def.Span, "duplicate type parameter %s in class %s", tp, def.Name).Emit()
			continue
		}
		entry.TypeParams = append(entry.TypeParams, tpID)
	}
	id := b.t.addClass(entry)

	if def.IsEnum {
		if len(def.Cases) == 0 {
			b.errorf(diag.TableEnumEmptyCases, def.Span, "enum %s declares no cases", def.Name).Emit()
		}
		for i := range def.Cases {
			b.indexVariant(entry, id, &def.Cases[i])
		}
	}
}

// indexVariant registers one enum case as a class of its own inheriting
// the enum: the case is a distinct constructible shape, the closed case
// list stays on the enum entry for exhaustiveness checks.
func (b *builder) indexVariant(enum *ClassEntry, enumID types.ClassID, caseDef *ast.CaseDef) {
	name := b.t.Names.Intern(caseDef.Name)
	if prev, exists := b.t.GetByName(name); exists {
		b.errorf(diag.TableDuplicateClass, caseDef.Span, "enum case %s collides with an existing class", caseDef.Name).
			WithNote(prev.Span, "previous definition here").Emit()
		return
	}
	variant := &ClassEntry{
		Name:       name,
		TypeParams: enum.TypeParams, // case fields may mention the enum's parameters
		EnumOwner:  enumID,
		Span:       caseDef.Span,
	}
	vid := b.t.addClass(variant)
	enum.Cases = append(enum.Cases, vid)
}

// resolveSupers is the second sweep of the signature pass.
func (b *builder) resolveSupers() {
	b.t.All(func(c *ClassEntry) {
		switch {
		case c.Builtin:
			return
		case c.IsVariant():
			// A case inherits its enum, instantiated with the enum's
			// own parameters.
			enum := b.t.Get(c.EnumOwner)
			c.Superclass = b.t.InstanceType(enum)
			return
		case c.def == nil || c.def.Superclass == nil:
			c.Superclass = b.t.builtins.ObjectType
			return
		}
		superTy, ok := b.t.ResolveTypeExpr(c.def.Superclass, c, nil, b.reporterChecked())
		if !ok {
			c.Superclass = b.t.builtins.ObjectType
			return
		}
		st := b.t.Types.MustLookup(superTy)
		if st.Kind != types.KindClass {
			b.errorf(diag.TableUnknownClass, c.def.Superclass.Span,
				"%s cannot be used as a superclass", c.def.Superclass.Name).Emit()
			c.Superclass = b.t.builtins.ObjectType
			return
		}
		c.Superclass = superTy
	})
}

// detectCycles walks every superclass chain once; revisiting a class
// already on the current chain is a cycle. The offending link is cut to
// Object so later chain walks terminate.
func (b *builder) detectCycles() {
	b.t.All(func(c *ClassEntry) {
		onChain := map[types.ClassID]bool{c.ID: true}
		cur := c
		for cur.Superclass != types.NoTypeID {
			st, ok := b.t.Types.Lookup(cur.Superclass)
			if !ok {
				break
			}
			next := b.t.Get(st.Class)
			if next == nil {
				break
			}
			if onChain[next.ID] {
				b.errorf(diag.TableCyclicInherit, c.Span,
					"cyclic inheritance involving class %s", b.t.ClassName(c.ID)).
					WithNote(cur.Span, "cycle closed here").Emit()
				cur.Superclass = b.t.builtins.ObjectType
				return
			}
			onChain[next.ID] = true
			cur = next
		}
	})
}

// reporterChecked wraps the reporter so a resolution failure marks the
// build as failed even when the emit happens inside ResolveTypeExpr.
func (b *builder) reporterChecked() diag.Reporter {
	return failTracker{b: b}
}

type failTracker struct {
	b *builder
}

func (f failTracker) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev >= diag.SevError {
		f.b.failed = true
	}
	f.b.reporter.Report(code, sev, primary, msg, notes)
}
