package mir

import (
	"fmt"

	"minato/internal/diag"
	"minato/internal/source"
	"minato/internal/types"
)

// Validate checks the invariants the backend relies on: no type
// parameter survives anywhere, and every index (parameter, local,
// field, vtable slot, variant tag) points inside its frame. Violations
// are compiler defects and come out under ICE codes.
func Validate(p *Program, in *types.Interner, r diag.Reporter) bool {
	v := &validator{p: p, in: in, reporter: r}
	v.index()
	for _, c := range p.Classes {
		v.validateClass(c)
	}
	return !v.failed
}

type validator struct {
	p        *Program
	in       *types.Interner
	reporter diag.Reporter
	failed   bool

	// byType maps a source-backed instantiation's instance type back to
	// its class; closure classes all share FnN types and stay out.
	byType map[types.TypeID]*Class

	method *Method
}

func (v *validator) index() {
	v.byType = make(map[types.TypeID]*Class, len(v.p.Classes))
	for _, c := range v.p.Classes {
		if c.Source != types.NoClassID {
			v.byType[v.in.Class(c.Source, c.Args)] = c
		}
	}
}

func (v *validator) validateClass(c *Class) {
	for _, f := range c.Fields {
		v.checkConcrete(f.Type, source.Span{}, c.Name+"."+f.Name)
	}
	for _, a := range c.Args {
		v.checkConcrete(a, source.Span{}, c.Name)
	}
	for slot, m := range c.VTable {
		if m == nil {
			v.reportf(diag.InternalDanglingIndex, source.Span{},
				"%s vtable slot %d is empty", c.Name, slot)
			continue
		}
		if m.Slot != slot {
			v.reportf(diag.InternalDanglingIndex, m.Span,
				"%s vtable slot %d holds %s which claims slot %d", c.Name, slot, m.Name, m.Slot)
		}
		if c.Super != nil && slot < len(c.Super.VTable) && c.Super.VTable[slot].Name != m.Name {
			v.reportf(diag.InternalDanglingIndex, m.Span,
				"%s vtable slot %d (%s) does not line up with %s's %s",
				c.Name, slot, m.Name, c.Super.Name, c.Super.VTable[slot].Name)
		}
		if m.Class == c {
			v.validateMethod(m)
		}
	}
	for _, m := range c.Statics {
		v.validateMethod(m)
	}
	if c.IsEnum {
		for tag, variant := range c.Variants {
			if variant.Tag != tag {
				v.reportf(diag.InternalDanglingIndex, source.Span{},
					"variant %s of %s has tag %d, listed at %d", variant.Name, c.Name, variant.Tag, tag)
			}
		}
	}
}

func (v *validator) validateMethod(m *Method) {
	v.method = m
	at := m.Class.Name + "." + m.Name
	for _, p := range m.Params {
		v.checkConcrete(p.Type, m.Span, at)
	}
	v.checkConcrete(m.Return, m.Span, at)
	for _, l := range m.Locals {
		v.checkConcrete(l, m.Span, at)
	}
	for _, e := range m.Body {
		v.validateExpr(e)
	}
	v.method = nil
}

func (v *validator) validateExpr(e *Expr) {
	if e == nil {
		return
	}
	at := v.method.Class.Name + "." + v.method.Name
	v.checkConcrete(e.Type, e.Span, at)
	switch data := e.Data.(type) {
	case ParamRefData:
		if data.Index < 0 || data.Index >= len(v.method.Params) {
			v.reportf(diag.InternalDanglingIndex, e.Span,
				"%s reads parameter %d of %d", at, data.Index, len(v.method.Params))
		}
	case LocalRefData:
		v.checkLocal(data.Slot, e.Span)
	case LocalSetData:
		v.checkLocal(data.Slot, e.Span)
		v.validateExpr(data.Value)
	case FieldGetData:
		v.checkField(data.Object, data.Field, e.Span)
		v.validateExpr(data.Object)
	case FieldSetData:
		v.checkField(data.Object, data.Field, e.Span)
		v.validateExpr(data.Object)
		v.validateExpr(data.Value)
	case CallVirtualData:
		v.validateExpr(data.Receiver)
		if c, ok := v.byType[data.Receiver.Type]; ok && (data.Slot < 0 || data.Slot >= len(c.VTable)) {
			v.reportf(diag.InternalDanglingIndex, e.Span,
				"%s dispatches slot %d on %s, vtable has %d", at, data.Slot, c.Name, len(c.VTable))
		}
		for _, a := range data.Args {
			v.validateExpr(a)
		}
	case CallDirectData:
		if data.Target == nil {
			v.reportf(diag.InternalDanglingIndex, e.Span, "%s has a direct call without target", at)
		}
		v.validateExpr(data.Receiver)
		for _, a := range data.Args {
			v.validateExpr(a)
		}
	case NewData:
		for _, a := range data.Args {
			v.validateExpr(a)
		}
	case MakeClosureData:
		if len(data.Captures) != len(data.Class.Fields) {
			v.reportf(diag.InternalDanglingIndex, e.Span,
				"closure %s captures %d value(s) into %d field(s)",
				data.Class.Name, len(data.Captures), len(data.Class.Fields))
		}
		for _, a := range data.Captures {
			v.validateExpr(a)
		}
	case IfData:
		v.validateExpr(data.Cond)
		for _, s := range data.Then {
			v.validateExpr(s)
		}
		for _, s := range data.Else {
			v.validateExpr(s)
		}
	case MatchData:
		v.validateExpr(data.Subject)
		enum, known := v.byType[data.Subject.Type]
		for _, arm := range data.Arms {
			if known && enum.IsEnum && arm.Tag >= len(enum.Variants) {
				v.reportf(diag.InternalDanglingIndex, e.Span,
					"match arm tag %d on %s with %d variant(s)", arm.Tag, enum.Name, len(enum.Variants))
			}
			for _, b := range arm.Binders {
				v.checkLocal(b.Slot, e.Span)
			}
			for _, s := range arm.Body {
				v.validateExpr(s)
			}
		}
	case ReturnData:
		v.validateExpr(data.Value)
	}
}

func (v *validator) checkLocal(slot int, sp source.Span) {
	if slot < 0 || slot >= len(v.method.Locals) {
		v.reportf(diag.InternalDanglingIndex, sp,
			"%s.%s touches local %d of %d", v.method.Class.Name, v.method.Name, slot, len(v.method.Locals))
	}
}

func (v *validator) checkField(object *Expr, field int, sp source.Span) {
	c, ok := v.byType[object.Type]
	if !ok {
		// Closure self fields share the FnN type; bounds were fixed
		// when the closure class was built.
		return
	}
	if field < 0 || field >= len(c.Fields) {
		v.reportf(diag.InternalDanglingIndex, sp,
			"%s.%s touches field %d of %s with %d field(s)",
			v.method.Class.Name, v.method.Name, field, c.Name, len(c.Fields))
	}
}

func (v *validator) checkConcrete(id types.TypeID, sp source.Span, where string) {
	if id == types.NoTypeID {
		v.reportf(diag.InternalUnresolvedParam, sp, "missing type in %s", where)
		return
	}
	if v.in.ContainsParam(id) {
		v.reportf(diag.InternalUnresolvedParam, sp, "type parameter survived into %s", where)
	}
}

func (v *validator) reportf(code diag.Code, sp source.Span, format string, args ...any) {
	v.failed = true
	diag.ReportError(v.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}
