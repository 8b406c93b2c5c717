package check

import (
	"minato/internal/ast"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/types"
)

func (ck *checker) checkCall(e *ast.Expr, data ast.CallData) (*hir.Expr, bool) {
	var recv *hir.Expr
	if data.Receiver == nil {
		recv = ck.checkSelf(e)
	} else {
		r, ok := ck.checkExpr(data.Receiver)
		if !ok {
			return nil, false
		}
		recv = r
	}

	name := ck.t.Names.Intern(data.Method)
	sig, found := ck.t.LookupMethod(recv.Type, name)
	if !found {
		ck.errorf(diag.CheckNoSuchMethod, e.Span,
			"%s has no method %s", ck.t.FormatType(recv.Type), data.Method).Emit()
		return nil, false
	}
	m := sig.Method
	if !m.SigOK {
		// The declaration was already rejected; fail the call quietly.
		ck.failed = true
		return nil, false
	}

	if len(data.TypeArgs) != m.MethodArity() {
		ck.errorf(diag.CheckWrongTypeArity, e.Span,
			"method %s expects %d type argument(s), got %d",
			data.Method, m.MethodArity(), len(data.TypeArgs)).
			WithNote(m.Span, "declared here").Emit()
		return nil, false
	}
	typeArgs := make([]types.TypeID, 0, len(data.TypeArgs))
	argsOK := true
	for _, te := range data.TypeArgs {
		arg, ok := ck.resolveTypeExpr(te)
		if !ok {
			argsOK = false
			continue
		}
		typeArgs = append(typeArgs, arg)
	}
	if !argsOK {
		return nil, false
	}

	params := sig.Params
	ret := sig.Return
	if len(typeArgs) > 0 {
		sub := types.NewSubst(ck.t.Types, nil, typeArgs)
		params = sub.ApplyAll(params)
		ret = sub.Apply(ret)
		ck.recorder.RecordMethodInstantiation(sig.Owner, m.Name, typeArgs, e.Span)
	}

	if len(data.Args) != len(params) {
		ck.errorf(diag.CheckArityMismatch, e.Span,
			"%s.%s expects %d argument(s), got %d",
			ck.t.FormatType(recv.Type), data.Method, len(params), len(data.Args)).
			WithNote(m.Span, "declared here").Emit()
		return nil, false
	}

	args := make([]*hir.Expr, 0, len(params))
	for i, argExpr := range data.Args {
		arg, ok := ck.checkArg(argExpr, params[i])
		if !ok {
			argsOK = false
			continue
		}
		args = append(args, arg)
	}
	if !argsOK {
		return nil, false
	}

	return &hir.Expr{
		Kind: hir.ExprCall,
		Type: ret,
		Span: e.Span,
		Data: hir.CallData{Receiver: recv, Method: m, Owner: sig.Owner, TypeArgs: typeArgs, Args: args},
	}, true
}

// checkArg checks one call argument against the already substituted
// parameter type. Block literals check against the parameter's FnN
// shape; everything else checks by nominal subtyping.
func (ck *checker) checkArg(argExpr *ast.Expr, paramType types.TypeID) (*hir.Expr, bool) {
	if block, isBlock := argExpr.Data.(ast.BlockData); isBlock {
		expParams, expRet, isFn := ck.fnShape(paramType)
		if !isFn {
			ck.errorf(diag.CheckBlockExpected, argExpr.Span,
				"block argument given where %s is expected", ck.t.FormatType(paramType)).Emit()
			return nil, false
		}
		return ck.checkBlock(argExpr, block, expParams, expRet, true)
	}
	arg, ok := ck.checkExpr(argExpr)
	if !ok {
		return nil, false
	}
	if !ck.t.Conforms(arg.Type, paramType) {
		ck.errorf(diag.CheckTypeMismatch, argExpr.Span,
			"expected %s, got %s", ck.t.FormatType(paramType), ck.t.FormatType(arg.Type)).Emit()
		return nil, false
	}
	return arg, true
}

// fnShape splits an FnN instantiation into its parameter types and
// return type.
func (ck *checker) fnShape(id types.TypeID) ([]types.TypeID, types.TypeID, bool) {
	tt, ok := ck.t.Types.Lookup(id)
	if !ok || tt.Kind != types.KindClass {
		return nil, types.NoTypeID, false
	}
	n := ck.t.FnClassArity(tt.Class)
	if n < 0 {
		return nil, types.NoTypeID, false
	}
	args := ck.t.Types.Args(tt.Args)
	return args[:n], args[n], true
}

// checkBareBlock handles a block in expression position, outside a call
// argument. There is no expected shape, so every parameter must carry
// an annotation and the result type is inferred from the body.
func (ck *checker) checkBareBlock(e *ast.Expr, data ast.BlockData) (*hir.Expr, bool) {
	return ck.checkBlock(e, data, nil, types.NoTypeID, false)
}

func (ck *checker) checkBlock(e *ast.Expr, data ast.BlockData, expParams []types.TypeID, expRet types.TypeID, expected bool) (*hir.Expr, bool) {
	if expected && len(data.Params) != len(expParams) {
		ck.errorf(diag.CheckArityMismatch, e.Span,
			"block takes %d parameter(s), %d expected here", len(data.Params), len(expParams)).Emit()
		return nil, false
	}

	params := make([]hir.BlockParam, 0, len(data.Params))
	paramsOK := true
	for i := range data.Params {
		p := &data.Params[i]
		name := ck.t.Names.Intern(p.Name)
		var typ types.TypeID
		switch {
		case p.Type != nil:
			annotated, ok := ck.resolveTypeExpr(p.Type)
			if !ok {
				paramsOK = false
				continue
			}
			// The annotation must accept whatever the caller passes in.
			if expected && !ck.t.Conforms(expParams[i], annotated) {
				ck.errorf(diag.CheckTypeMismatch, p.Span,
					"block parameter %s annotated as %s, but %s flows in here",
					p.Name, ck.t.FormatType(annotated), ck.t.FormatType(expParams[i])).Emit()
				paramsOK = false
				continue
			}
			typ = annotated
		case expected:
			typ = expParams[i]
		default:
			ck.errorf(diag.CheckBlockExpected, p.Span,
				"block parameter %s needs a type annotation here", p.Name).Emit()
			paramsOK = false
			continue
		}
		params = append(params, hir.BlockParam{Name: name, Type: typ, Span: p.Span})
	}
	if !paramsOK {
		return nil, false
	}

	ck.pushFrame(params)
	body, bodyT, bodyOK := ck.checkSeq(data.Body, false)
	frame := ck.popFrame()
	if !bodyOK {
		return nil, false
	}

	b := ck.t.Builtins()
	result := bodyT
	if expected {
		if expRet == b.VoidType || bodyT == b.NeverType {
			result = expRet
		} else if ck.t.Conforms(bodyT, expRet) {
			result = expRet
		} else {
			ck.errorf(diag.CheckTypeMismatch, e.Span,
				"block yields %s, %s expected here", ck.t.FormatType(bodyT), ck.t.FormatType(expRet)).Emit()
			return nil, false
		}
	}

	paramTypes := make([]types.TypeID, len(params))
	for i, p := range params {
		paramTypes[i] = p.Type
	}
	fnType := ck.t.FnType(paramTypes, result)
	return &hir.Expr{
		Kind: hir.ExprBlock,
		Type: fnType,
		Span: e.Span,
		Data: hir.BlockData{
			Params:       params,
			Captures:     frame.captures,
			CapturesSelf: frame.capturesSelf,
			Body:         body,
			Result:       result,
			Locals:       frame.locals,
		},
	}, true
}
