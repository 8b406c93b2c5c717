package check

import (
	"minato/internal/ast"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/types"
)

func (ck *checker) checkExpr(e *ast.Expr) (*hir.Expr, bool) {
	b := ck.t.Builtins()
	switch data := e.Data.(type) {
	case ast.IntLitData:
		return &hir.Expr{Kind: hir.ExprIntLit, Type: b.IntType, Span: e.Span, Data: hir.IntLitData{Value: data.Value}}, true
	case ast.FloatLitData:
		return &hir.Expr{Kind: hir.ExprFloatLit, Type: b.FloatType, Span: e.Span, Data: hir.FloatLitData{Value: data.Value}}, true
	case ast.BoolLitData:
		return &hir.Expr{Kind: hir.ExprBoolLit, Type: b.BoolType, Span: e.Span, Data: hir.BoolLitData{Value: data.Value}}, true
	case ast.StringLitData:
		return &hir.Expr{Kind: hir.ExprStringLit, Type: b.StringType, Span: e.Span, Data: hir.StringLitData{Value: data.Value}}, true
	case ast.SelfData:
		return ck.checkSelf(e), true
	case ast.VarRefData:
		return ck.checkVarRef(e, data)
	case ast.IVarRefData:
		return ck.checkIVarRef(e, data)
	case ast.ConstRefData:
		return ck.checkConstRef(e, data)
	case ast.AssignData:
		return ck.checkAssign(e, data)
	case ast.IVarAssignData:
		return ck.checkIVarAssign(e, data)
	case ast.CallData:
		return ck.checkCall(e, data)
	case ast.BlockData:
		return ck.checkBareBlock(e, data)
	case ast.IfData:
		return ck.checkIf(e, data)
	case ast.MatchData:
		return ck.checkMatch(e, data)
	case ast.ReturnData:
		return ck.checkReturn(e, data)
	}
	ck.errorf(diag.InternalError, e.Span, "unhandled expression kind %s", e.Kind).Emit()
	return nil, false
}

func (ck *checker) checkSelf(e *ast.Expr) *hir.Expr {
	if len(ck.frames) > 1 {
		ck.markSelfCaptured()
	}
	return &hir.Expr{Kind: hir.ExprSelf, Type: ck.selfType, Span: e.Span, Data: hir.SelfData{}}
}

func (ck *checker) checkVarRef(e *ast.Expr, data ast.VarRefData) (*hir.Expr, bool) {
	name := ck.t.Names.Intern(data.Name)
	bnd, _, found := ck.lookupVar(name)
	if !found {
		ck.errorf(diag.CheckUndefinedVariable, e.Span, "undefined variable %s", data.Name).Emit()
		return nil, false
	}
	return &hir.Expr{
		Kind: hir.ExprVarRef,
		Type: bnd.typ,
		Span: e.Span,
		Data: hir.VarRefData{Name: name, Binding: hir.Binding{Kind: bnd.kind, Index: bnd.index}},
	}, true
}

func (ck *checker) checkIVarRef(e *ast.Expr, data ast.IVarRefData) (*hir.Expr, bool) {
	if ck.method.ClassLevel {
		ck.errorf(diag.CheckUndefinedVariable, e.Span,
			"instance variable @%s is not visible in a class-level method", data.Name).Emit()
		return nil, false
	}
	name := ck.t.Names.Intern(data.Name)
	iv, field, found := ck.t.FindField(ck.class, name)
	if !found {
		ck.errorf(diag.CheckUndefinedVariable, e.Span,
			"%s has no instance variable @%s", ck.t.ClassName(ck.class.ID), data.Name).Emit()
		return nil, false
	}
	if len(ck.frames) > 1 {
		ck.markSelfCaptured()
	}
	return &hir.Expr{
		Kind: hir.ExprIVarRef,
		Type: iv.Type,
		Span: e.Span,
		Data: hir.IVarRefData{Name: name, Field: field},
	}, true
}

func (ck *checker) checkConstRef(e *ast.Expr, data ast.ConstRefData) (*hir.Expr, bool) {
	name := ck.t.Names.Intern(data.Name)
	entry, ok := ck.t.GetByName(name)
	if !ok {
		ck.errorf(diag.CheckUnknownClass, e.Span, "unknown class %q", data.Name).Emit()
		return nil, false
	}
	if len(data.TypeArgs) != entry.Arity() {
		ck.errorf(diag.CheckWrongTypeArity, e.Span,
			"%s expects %d type argument(s), got %d", data.Name, entry.Arity(), len(data.TypeArgs)).
			WithNote(entry.Span, "class declared here").Emit()
		return nil, false
	}
	args := make([]types.TypeID, 0, len(data.TypeArgs))
	argsOK := true
	for _, te := range data.TypeArgs {
		arg, ok := ck.resolveTypeExpr(te)
		if !ok {
			argsOK = false
			continue
		}
		args = append(args, arg)
	}
	if !argsOK {
		return nil, false
	}
	if len(args) > 0 {
		ck.recorder.RecordClassInstantiation(entry.ID, args, e.Span)
	}
	return &hir.Expr{
		Kind: hir.ExprConstRef,
		Type: ck.t.Types.Meta(entry.ID, args),
		Span: e.Span,
		Data: hir.ConstRefData{Class: entry.ID, Args: args},
	}, true
}

// resolveTypeExpr resolves a type written inside the current method
// body: the enclosing class's and method's type parameters are in
// scope, and errors come out under checker codes.
func (ck *checker) resolveTypeExpr(te *ast.TypeExpr) (types.TypeID, bool) {
	id, ok := ck.t.ResolveTypeExprWith(te, ck.class, ck.method.TypeParams, ck.reporter,
		diag.CheckUnknownClass, diag.CheckWrongTypeArity)
	if !ok {
		ck.failed = true
	}
	return id, ok
}

func (ck *checker) checkAssign(e *ast.Expr, data ast.AssignData) (*hir.Expr, bool) {
	value, ok := ck.checkExpr(data.Value)
	if !ok {
		return nil, false
	}
	b := ck.t.Builtins()
	name := ck.t.Names.Intern(data.Name)
	bnd, crossed, found := ck.lookupVar(name)
	if found && crossed {
		ck.errorf(diag.CheckCaptureAssign, e.Span,
			"cannot assign to %s: it belongs to an enclosing scope", data.Name).Emit()
		return nil, false
	}
	if found && bnd.kind == hir.BindParam {
		ck.errorf(diag.CheckParamAssign, e.Span,
			"cannot assign to parameter %s; bind a new local instead", data.Name).
			WithNote(bnd.span, "declared here").Emit()
		return nil, false
	}
	if found {
		if !ck.t.Conforms(value.Type, bnd.typ) {
			ck.errorf(diag.CheckTypeMismatch, e.Span,
				"cannot assign %s to %s: declared as %s",
				ck.t.FormatType(value.Type), data.Name, ck.t.FormatType(bnd.typ)).
				WithNote(bnd.span, "declared here").Emit()
			return nil, false
		}
		return &hir.Expr{
			Kind: hir.ExprAssign,
			Type: value.Type,
			Span: e.Span,
			Data: hir.AssignData{Name: name, Binding: hir.Binding{Kind: bnd.kind, Index: bnd.index}, Value: value},
		}, true
	}
	if value.Type == b.VoidType {
		ck.errorf(diag.CheckTypeMismatch, e.Span,
			"cannot declare %s from a Void expression", data.Name).Emit()
		return nil, false
	}
	decl := ck.declareLocal(name, value.Type, e.Span)
	return &hir.Expr{
		Kind: hir.ExprAssign,
		Type: value.Type,
		Span: e.Span,
		Data: hir.AssignData{
			Name:     name,
			Binding:  hir.Binding{Kind: decl.kind, Index: decl.index},
			Declares: true,
			Value:    value,
		},
	}, true
}

func (ck *checker) checkIVarAssign(e *ast.Expr, data ast.IVarAssignData) (*hir.Expr, bool) {
	value, ok := ck.checkExpr(data.Value)
	if ck.method.ClassLevel {
		ck.errorf(diag.CheckUndefinedVariable, e.Span,
			"instance variable @%s is not visible in a class-level method", data.Name).Emit()
		return nil, false
	}
	name := ck.t.Names.Intern(data.Name)
	iv, field, found := ck.t.FindField(ck.class, name)
	if !found {
		ck.errorf(diag.CheckUndefinedVariable, e.Span,
			"%s has no instance variable @%s", ck.t.ClassName(ck.class.ID), data.Name).Emit()
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if !ck.t.Conforms(value.Type, iv.Type) {
		ck.errorf(diag.CheckTypeMismatch, e.Span,
			"cannot assign %s to @%s: declared as %s",
			ck.t.FormatType(value.Type), data.Name, ck.t.FormatType(iv.Type)).
			WithNote(iv.Span, "declared here").Emit()
		return nil, false
	}
	if len(ck.frames) > 1 {
		ck.markSelfCaptured()
	}
	return &hir.Expr{
		Kind: hir.ExprIVarAssign,
		Type: value.Type,
		Span: e.Span,
		Data: hir.IVarAssignData{Name: name, Field: field, Value: value},
	}, true
}

func (ck *checker) checkIf(e *ast.Expr, data ast.IfData) (*hir.Expr, bool) {
	b := ck.t.Builtins()
	cond, condOK := ck.checkExpr(data.Cond)
	if condOK && !ck.t.Conforms(cond.Type, b.BoolType) {
		ck.errorf(diag.CheckConditionNotBool, data.Cond.Span,
			"condition has type %s, expected Bool", ck.t.FormatType(cond.Type)).Emit()
		condOK = false
	}
	then, thenT, thenOK := ck.checkSeq(data.Then, true)
	var els []*hir.Expr
	elseT := b.VoidType
	elseOK := true
	hasElse := data.Else != nil
	if hasElse {
		els, elseT, elseOK = ck.checkSeq(data.Else, true)
	}
	if !condOK || !thenOK || !elseOK {
		return nil, false
	}

	var resultT types.TypeID
	if !hasElse {
		resultT = b.VoidType
	} else {
		unified, ok := ck.unify(thenT, elseT)
		if !ok {
			ck.errorf(diag.CheckBranchTypeMismatch, e.Span,
				"if branches do not unify: then is %s, else is %s",
				ck.t.FormatType(thenT), ck.t.FormatType(elseT)).Emit()
			return nil, false
		}
		resultT = unified
	}
	return &hir.Expr{
		Kind: hir.ExprIf,
		Type: resultT,
		Span: e.Span,
		Data: hir.IfData{Cond: cond, Then: then, Else: els},
	}, true
}

func (ck *checker) checkReturn(e *ast.Expr, data ast.ReturnData) (*hir.Expr, bool) {
	if len(ck.frames) > 1 {
		ck.errorf(diag.CheckReturnInBlock, e.Span,
			"return cannot cross a block boundary; the block's trailing expression is its result").Emit()
		return nil, false
	}
	b := ck.t.Builtins()
	var value *hir.Expr
	valueT := b.VoidType
	if data.Value != nil {
		v, ok := ck.checkExpr(data.Value)
		if !ok {
			return nil, false
		}
		value = v
		valueT = v.Type
	}
	if !ck.t.Conforms(valueT, ck.method.Return) {
		ck.errorf(diag.CheckReturnTypeMismatch, e.Span,
			"method %s returns %s, got %s",
			ck.t.Names.MustLookup(ck.method.Name),
			ck.t.FormatType(ck.method.Return), ck.t.FormatType(valueT)).
			WithNote(ck.method.Span, "declared here").Emit()
		return nil, false
	}
	return &hir.Expr{Kind: hir.ExprReturn, Type: b.NeverType, Span: e.Span, Data: hir.ReturnData{Value: value}}, true
}

// unify combines two branch result types: Never yields to the other
// side, any Void makes the whole expression Void, otherwise the types
// meet at their nearest common ancestor.
func (ck *checker) unify(a, b types.TypeID) (types.TypeID, bool) {
	bt := ck.t.Builtins()
	switch {
	case a == b:
		return a, true
	case a == bt.NeverType:
		return b, true
	case b == bt.NeverType:
		return a, true
	case a == bt.VoidType || b == bt.VoidType:
		return bt.VoidType, true
	}
	return ck.t.NearestCommonAncestor(a, b)
}
