package mono

import (
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/mir"
	"minato/internal/source"
	"minato/internal/types"
)

// lowerer walks one checked body under one substitution. A closure
// body gets its own lowerer whose ctx locates the captured receiver.
type lowerer struct {
	m      *mono
	sub    *types.Subst
	target *mir.Method
	selfT  types.TypeID // receiver type of the declaring method, concrete
	ctx    *closureCtx  // nil outside closure bodies
}

// closureCtx describes the frame of a synthesized call method: self is
// the closure object, captured variables are its fields, and the
// original receiver sits in selfField when the body needs it.
type closureCtx struct {
	fnType    types.TypeID
	selfField int // -1 when the receiver was not captured
}

func (l *lowerer) lowerBody(stmts []*hir.Expr) []*mir.Expr {
	out := make([]*mir.Expr, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, l.lowerExpr(s))
	}
	return out
}

func (l *lowerer) lowerExpr(e *hir.Expr) *mir.Expr {
	ty := l.sub.Apply(e.Type)
	switch data := e.Data.(type) {
	case hir.IntLitData:
		return l.node(mir.ExprIntLit, ty, e.Span, mir.IntLitData{Value: data.Value})
	case hir.FloatLitData:
		return l.node(mir.ExprFloatLit, ty, e.Span, mir.FloatLitData{Value: data.Value})
	case hir.BoolLitData:
		return l.node(mir.ExprBoolLit, ty, e.Span, mir.BoolLitData{Value: data.Value})
	case hir.StringLitData:
		return l.node(mir.ExprStringLit, ty, e.Span, mir.StringLitData{Value: data.Value})
	case hir.SelfData:
		return l.selfExpr(e.Span)
	case hir.VarRefData:
		return l.lowerBinding(data.Binding, ty, e.Span)
	case hir.IVarRefData:
		return l.node(mir.ExprFieldGet, ty, e.Span,
			mir.FieldGetData{Object: l.selfExpr(e.Span), Field: data.Field})
	case hir.ConstRefData:
		site := l.m.instantiateClass(data.Class, l.sub.ApplyAll(data.Args))
		return l.node(mir.ExprClassRef, ty, e.Span, mir.ClassRefData{Class: site})
	case hir.AssignData:
		if data.Binding.Kind != hir.BindLocal {
			l.m.reportf(diag.InternalDanglingIndex, e.Span,
				"assignment resolved to a non-local %s", data.Binding.Kind)
			return nil
		}
		return l.node(mir.ExprLocalSet, ty, e.Span,
			mir.LocalSetData{Slot: data.Binding.Index, Value: l.lowerExpr(data.Value)})
	case hir.IVarAssignData:
		return l.node(mir.ExprFieldSet, ty, e.Span, mir.FieldSetData{
			Object: l.selfExpr(e.Span),
			Field:  data.Field,
			Value:  l.lowerExpr(data.Value),
		})
	case hir.CallData:
		return l.lowerCall(e, data, ty)
	case hir.BlockData:
		return l.lowerBlock(e, data, ty)
	case hir.IfData:
		out := mir.IfData{Cond: l.lowerExpr(data.Cond), Then: l.lowerBody(data.Then)}
		if data.Else != nil {
			out.Else = l.lowerBody(data.Else)
		}
		return l.node(mir.ExprIf, ty, e.Span, out)
	case hir.MatchData:
		return l.lowerMatch(e, data, ty)
	case hir.ReturnData:
		var val *mir.Expr
		if data.Value != nil {
			val = l.lowerExpr(data.Value)
		}
		return l.node(mir.ExprReturn, ty, e.Span, mir.ReturnData{Value: val})
	default:
		l.m.reportf(diag.InternalError, e.Span, "unhandled node %s in lowering", e.Kind)
		return nil
	}
}

// selfExpr produces the original receiver: the frame's own receiver in
// a method body, or a load from the closure's capture field.
func (l *lowerer) selfExpr(sp source.Span) *mir.Expr {
	if l.ctx == nil {
		return l.node(mir.ExprSelf, l.selfT, sp, mir.SelfData{})
	}
	obj := l.node(mir.ExprSelf, l.ctx.fnType, sp, mir.SelfData{})
	if l.ctx.selfField < 0 {
		l.m.reportf(diag.InternalDanglingIndex, sp,
			"receiver used in a closure that did not capture it")
		return obj
	}
	return l.node(mir.ExprFieldGet, l.selfT, sp,
		mir.FieldGetData{Object: obj, Field: l.ctx.selfField})
}

func (l *lowerer) lowerBinding(b hir.Binding, ty types.TypeID, sp source.Span) *mir.Expr {
	switch b.Kind {
	case hir.BindParam:
		return l.node(mir.ExprParamRef, ty, sp, mir.ParamRefData{Index: b.Index})
	case hir.BindLocal:
		return l.node(mir.ExprLocalRef, ty, sp, mir.LocalRefData{Slot: b.Index})
	case hir.BindCapture:
		if l.ctx == nil {
			l.m.reportf(diag.InternalDanglingIndex, sp, "capture reference outside a closure")
			return nil
		}
		obj := l.node(mir.ExprSelf, l.ctx.fnType, sp, mir.SelfData{})
		return l.node(mir.ExprFieldGet, ty, sp, mir.FieldGetData{Object: obj, Field: b.Index})
	default:
		l.m.reportf(diag.InternalDanglingIndex, sp, "unknown binding kind")
		return nil
	}
}

func (l *lowerer) lowerCall(e *hir.Expr, data hir.CallData, ty types.TypeID) *mir.Expr {
	var recv *mir.Expr
	if data.Receiver != nil {
		recv = l.lowerExpr(data.Receiver)
	} else {
		recv = l.selfExpr(e.Span)
	}
	args := make([]*mir.Expr, len(data.Args))
	for i, a := range data.Args {
		args[i] = l.lowerExpr(a)
	}
	if recv == nil {
		return nil
	}
	rt := l.m.in.MustLookup(recv.Type)
	if rt.Kind == types.KindTypeParam {
		l.m.reportf(diag.InternalUnresolvedParam, e.Span,
			"call receiver still typed by a parameter")
		return nil
	}
	name := l.m.names.MustLookup(data.Method.Name)

	if data.Method.ClassLevel {
		site := l.m.instantiateClass(rt.Class, l.m.in.Args(rt.Args))
		if name == "new" && data.Method.Builtin {
			return l.lowerNew(site, args, ty, e.Span)
		}
		owner := l.m.instantiateClass(data.Owner, l.ownerArgs(recv.Type, data.Owner))
		var target *mir.Method
		if len(data.TypeArgs) > 0 {
			target = l.m.instantiateMethod(owner, data.Method, l.sub.ApplyAll(data.TypeArgs))
		} else {
			target = owner.FindStatic(name)
		}
		if target == nil {
			l.m.reportf(diag.InternalDanglingIndex, e.Span,
				"class-level method %s missing on %s", name, site.Name)
			return nil
		}
		return l.node(mir.ExprCallDirect, ty, e.Span, mir.CallDirectData{Target: target, Args: args})
	}

	// Closures and block parameters all dispatch through slot 0 of
	// their FnN shape; the concrete closure class is behind the value.
	if l.m.t.FnClassArity(rt.Class) >= 0 && name == "call" {
		return l.node(mir.ExprCallVirtual, ty, e.Span,
			mir.CallVirtualData{Receiver: recv, Slot: 0, Args: args})
	}

	site := l.m.instantiateClass(rt.Class, l.m.in.Args(rt.Args))
	if len(data.TypeArgs) > 0 {
		owner := l.m.instantiateClass(data.Owner, l.ownerArgs(recv.Type, data.Owner))
		target := l.m.instantiateMethod(owner, data.Method, l.sub.ApplyAll(data.TypeArgs))
		return l.node(mir.ExprCallDirect, ty, e.Span,
			mir.CallDirectData{Receiver: recv, Target: target, Args: args})
	}
	slot := site.FindSlot(name)
	if slot < 0 {
		l.m.reportf(diag.InternalDanglingIndex, e.Span,
			"method %s has no slot on %s", name, site.Name)
		return nil
	}
	return l.node(mir.ExprCallVirtual, ty, e.Span,
		mir.CallVirtualData{Receiver: recv, Slot: slot, Args: args})
}

// ownerArgs projects the receiver type onto the declaring class: for
// a call on B<Int> resolved to a method A declared, it walks the
// substituted superclass chain until it reaches A and returns A's
// arguments as seen from B<Int>. Works on metaclass chains too.
func (l *lowerer) ownerArgs(recvT types.TypeID, owner types.ClassID) []types.TypeID {
	t := recvT
	for {
		tt := l.m.in.MustLookup(t)
		if tt.Class == owner {
			return l.m.in.Args(tt.Args)
		}
		super, ok := l.m.t.SuperclassType(t)
		if !ok {
			return nil
		}
		t = super
	}
}

// lowerNew turns a constructor call into an allocation. The init hook
// is the (possibly inherited) initialize slot; enum variants have none
// and take their fields positionally.
func (l *lowerer) lowerNew(site *mir.Class, args []*mir.Expr, ty types.TypeID, sp source.Span) *mir.Expr {
	var init *mir.Method
	if !l.m.t.Get(site.Source).IsVariant() {
		if slot := site.FindSlot("initialize"); slot >= 0 {
			init = site.VTable[slot]
		}
	}
	return l.node(mir.ExprNew, ty, sp, mir.NewData{Class: site, Init: init, Args: args})
}

func (l *lowerer) lowerMatch(e *hir.Expr, data hir.MatchData, ty types.TypeID) *mir.Expr {
	subject := l.lowerExpr(data.Subject)
	st := l.m.in.MustLookup(subject.Type)
	enum := l.m.t.Get(st.Class)
	if enum.IsVariant() {
		enum = l.m.t.Get(enum.EnumOwner)
	}
	// Materialize the enum so every variant's tag and layout exist even
	// when only some cases are constructed.
	l.m.instantiateClass(enum.ID, l.m.in.Args(st.Args))

	arms := make([]mir.MatchArm, 0, len(data.Arms))
	for i := range data.Arms {
		arm := &data.Arms[i]
		out := mir.MatchArm{Tag: -1}
		if !arm.IsElse() {
			for tag, id := range enum.Cases {
				if id == arm.Variant {
					out.Tag = tag
				}
			}
		}
		for _, b := range arm.Binders {
			out.Binders = append(out.Binders, mir.ArmBinder{Field: b.Field, Slot: b.Slot})
		}
		out.Body = l.lowerBody(arm.Body)
		arms = append(arms, out)
	}
	return l.node(mir.ExprMatch, ty, e.Span, mir.MatchData{Subject: subject, Arms: arms})
}

func (l *lowerer) node(kind mir.ExprKind, ty types.TypeID, sp source.Span, data mir.ExprData) *mir.Expr {
	return &mir.Expr{Kind: kind, Type: ty, Span: sp, Data: data}
}
