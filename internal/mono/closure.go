package mono

import (
	"fmt"

	"minato/internal/hir"
	"minato/internal/mir"
	"minato/internal/types"
)

// lowerBlock converts one block literal into a synthesized class: the
// captured variables become fields, a trailing field holds the original
// receiver when the body touches it, and the single vtable slot is the
// call method. The block site becomes an allocation that evaluates the
// captured values in the enclosing frame.
func (l *lowerer) lowerBlock(e *hir.Expr, data hir.BlockData, fnT types.TypeID) *mir.Expr {
	m := l.m
	cls := &mir.Class{
		ID:      mir.InstanceID(len(m.out.Classes) + 1),
		Name:    fmt.Sprintf("%s.%s$block%d", l.target.Class.Name, l.target.Name, m.blockSeq),
		Source:  types.NoClassID,
		FnArity: len(data.Params),
		Tag:     -1,
	}
	m.blockSeq++
	m.out.Classes = append(m.out.Classes, cls)

	captures := make([]*mir.Expr, 0, len(data.Captures)+1)
	for _, c := range data.Captures {
		ct := l.sub.Apply(c.Type)
		cls.Fields = append(cls.Fields, mir.Field{Name: m.names.MustLookup(c.Name), Type: ct})
		captures = append(captures, l.lowerBinding(c.Source, ct, e.Span))
	}
	selfField := -1
	if data.CapturesSelf {
		selfField = len(cls.Fields)
		cls.Fields = append(cls.Fields, mir.Field{Name: "self", Type: l.selfT})
		captures = append(captures, l.selfExpr(e.Span))
	}

	call := &mir.Method{
		Name:   "call",
		Class:  cls,
		Return: l.sub.Apply(data.Result),
		Slot:   0,
		Span:   e.Span,
	}
	for _, p := range data.Params {
		call.Params = append(call.Params, mir.Param{
			Name: m.names.MustLookup(p.Name),
			Type: l.sub.Apply(p.Type),
		})
	}
	for _, loc := range data.Locals {
		call.Locals = append(call.Locals, l.sub.Apply(loc.Type))
	}
	cls.VTable = []*mir.Method{call}

	inner := &lowerer{
		m:      m,
		sub:    l.sub,
		target: call,
		selfT:  l.selfT,
		ctx:    &closureCtx{fnType: fnT, selfField: selfField},
	}
	call.Body = inner.lowerBody(data.Body)

	return l.node(mir.ExprMakeClosure, fnT, e.Span,
		mir.MakeClosureData{Class: cls, Captures: captures})
}
