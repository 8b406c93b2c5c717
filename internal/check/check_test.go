package check_test

import (
	"testing"

	"minato/internal/ast"
	"minato/internal/check"
	"minato/internal/classtable"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/source"
	"minato/internal/types"
)

var sp source.Span

func typeExpr(name string, args ...*ast.TypeExpr) *ast.TypeExpr {
	return &ast.TypeExpr{Name: name, Args: args}
}

func method(name string, ret *ast.TypeExpr, body []*ast.Expr, params ...ast.ParamDef) *ast.MethodDef {
	return &ast.MethodDef{Name: name, Params: params, Return: ret, Body: body}
}

func param(name string, ty *ast.TypeExpr) ast.ParamDef {
	return ast.ParamDef{Name: name, Type: ty}
}

func body(exprs ...*ast.Expr) []*ast.Expr {
	return exprs
}

func checkProgram(t *testing.T, classes ...*ast.ClassDef) (*hir.Program, *classtable.Table, *diag.Bag, bool) {
	t.Helper()
	bag := diag.NewBag(100)
	table, ok := classtable.Build(&ast.Program{Classes: classes}, classtable.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	if !ok {
		t.Fatalf("table build failed: %+v", bag.Items())
	}
	prog, ok := check.CheckProgram(check.Options{Table: table, Reporter: diag.BagReporter{Bag: bag}})
	return prog, table, bag, ok
}

func requireCode(t *testing.T, bag *diag.Bag, code diag.Code) {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected %s in diagnostics, got %d item(s): %+v", code.ID(), bag.Len(), bag.Items())
}

func findMethod(t *testing.T, prog *hir.Program, table *classtable.Table, name string) *hir.Method {
	t.Helper()
	id := table.Names.Intern(name)
	for _, m := range prog.Methods {
		if m.Name() == id {
			return m
		}
	}
	t.Fatalf("method %s not in checked program", name)
	return nil
}

func TestLiteralAndLocalTypes(t *testing.T) {
	prog, table, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", typeExpr("Int"), body(
				ast.NewAssign(sp, "x", ast.NewIntLit(sp, 41)),
				ast.NewCall(sp, ast.NewVarRef(sp, "x"), "+", nil, body(ast.NewIntLit(sp, 1))),
			)),
		}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	m := findMethod(t, prog, table, "f")
	b := table.Builtins()
	if got := m.Body[1].Type; got != b.IntType {
		t.Fatalf("x + 1 should be Int, got %s", table.FormatType(got))
	}
	if len(m.Locals) != 1 {
		t.Fatalf("expected one local slot, got %d", len(m.Locals))
	}
}

func TestUndefinedVariableCollectsSiblings(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewVarRef(sp, "nope"),
				ast.NewVarRef(sp, "alsoNope"),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckUndefinedVariable)
	count := 0
	for _, d := range bag.Items() {
		if d.Code == diag.CheckUndefinedVariable {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("both bad statements must report, got %d", count)
	}
}

func TestClassMethodArityMismatch(t *testing.T) {
	// A.foo(1) where foo takes two arguments.
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			{Name: "foo", ClassLevel: true, Return: typeExpr("Int"),
				Params: []ast.ParamDef{param("a", typeExpr("Int")), param("b", typeExpr("Int"))},
				Body:   body(ast.NewIntLit(sp, 0))},
		}},
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			method("main", nil, body(
				ast.NewCall(sp, ast.NewConstRef(sp, "A"), "foo", nil, body(ast.NewIntLit(sp, 1))),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckArityMismatch)
}

func TestNoSuchMethod(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewCall(sp, ast.NewIntLit(sp, 1), "frobnicate", nil, nil),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckNoSuchMethod)
}

func TestArgumentTypeMismatch(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewCall(sp, ast.NewIntLit(sp, 1), "+", nil, body(ast.NewBoolLit(sp, true))),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckTypeMismatch)
}

func TestAssignAgainstDeclaredType(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewAssign(sp, "x", ast.NewIntLit(sp, 1)),
				ast.NewAssign(sp, "x", ast.NewBoolLit(sp, true)),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckTypeMismatch)
}

func TestGenericSubstitutionThroughCall(t *testing.T) {
	// Foo<String>.new.bar<Int>({ s -> 5 }) must see the block as
	// Fn1<String, Int>: T = String from the receiver, W = Int from the
	// explicit method type argument.
	block := ast.NewBlock(sp, []ast.ParamDef{{Name: "s"}}, body(ast.NewIntLit(sp, 5)))
	recv := ast.NewCall(sp, ast.NewConstRef(sp, "Foo", typeExpr("String")), "new", nil, nil)
	call := ast.NewCall(sp, recv, "bar", []*ast.TypeExpr{typeExpr("Int")}, body(block))

	prog, table, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "Foo", TypeParams: []string{"T"}, Methods: []*ast.MethodDef{
			{Name: "bar", TypeParams: []string{"W"}, Return: typeExpr("Int"),
				Params: []ast.ParamDef{param("f", typeExpr("Fn1", typeExpr("T"), typeExpr("W")))},
				Body:   body(ast.NewIntLit(sp, 0))},
		}},
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			method("main", typeExpr("Int"), body(call)),
		}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	b := table.Builtins()
	m := findMethod(t, prog, table, "main")
	callExpr := m.Body[0]
	if callExpr.Type != b.IntType {
		t.Fatalf("call should yield Int, got %s", table.FormatType(callExpr.Type))
	}
	data := callExpr.Data.(hir.CallData)
	if len(data.TypeArgs) != 1 || data.TypeArgs[0] != b.IntType {
		t.Fatalf("method type argument should be Int")
	}
	wantFn := table.FnType([]types.TypeID{b.StringType}, b.IntType)
	if data.Args[0].Type != wantFn {
		t.Fatalf("block should check as %s, got %s",
			table.FormatType(wantFn), table.FormatType(data.Args[0].Type))
	}
	blockData := data.Args[0].Data.(hir.BlockData)
	if blockData.Params[0].Type != b.StringType {
		t.Fatalf("block parameter should take String")
	}
}

func TestGenericMethodNeedsTypeArgs(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			{Name: "id", TypeParams: []string{"W"}, Return: typeExpr("Int"),
				Params: []ast.ParamDef{param("x", typeExpr("Int"))},
				Body:   body(ast.NewVarRef(sp, "x"))},
			method("f", nil, body(
				ast.NewCall(sp, nil, "id", nil, body(ast.NewIntLit(sp, 1))),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckWrongTypeArity)
}

func TestBlockCapturesLocal(t *testing.T) {
	// The block reads x from the method frame; the capture list must
	// record it so closure conversion can lift it into instance state.
	prog, table, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "C", Methods: []*ast.MethodDef{
			method("run", typeExpr("Int"), body(
				ast.NewCall(sp, ast.NewVarRef(sp, "f"), "call", nil, nil),
			), param("f", typeExpr("Fn0", typeExpr("Int")))),
			method("go", typeExpr("Int"), body(
				ast.NewAssign(sp, "x", ast.NewIntLit(sp, 1)),
				ast.NewCall(sp, nil, "run", nil, body(
					ast.NewBlock(sp, nil, body(ast.NewVarRef(sp, "x"))),
				)),
			)),
		}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	b := table.Builtins()
	run := findMethod(t, prog, table, "run")
	if run.Body[0].Type != b.IntType {
		t.Fatalf("Fn0<Int>.call() should yield Int, got %s", table.FormatType(run.Body[0].Type))
	}
	goM := findMethod(t, prog, table, "go")
	callData := goM.Body[1].Data.(hir.CallData)
	blockData := callData.Args[0].Data.(hir.BlockData)
	if len(blockData.Captures) != 1 {
		t.Fatalf("expected one capture, got %d", len(blockData.Captures))
	}
	captured := blockData.Captures[0]
	if captured.Name != table.Names.Intern("x") || captured.Type != b.IntType {
		t.Fatal("capture should record x: Int")
	}
	if captured.Source.Kind != hir.BindLocal || captured.Source.Index != 0 {
		t.Fatalf("capture source should be local slot 0, got %s:%d", captured.Source.Kind, captured.Source.Index)
	}
	ref := blockData.Body[0].Data.(hir.VarRefData)
	if ref.Binding.Kind != hir.BindCapture {
		t.Fatal("the reference inside the block must read through the capture")
	}
}

func TestAssignToCapturedVariableRejected(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "C", Methods: []*ast.MethodDef{
			method("run", nil, nil, param("f", typeExpr("Fn0", typeExpr("Int")))),
			method("go", nil, body(
				ast.NewAssign(sp, "x", ast.NewIntLit(sp, 1)),
				ast.NewCall(sp, nil, "run", nil, body(
					ast.NewBlock(sp, nil, body(
						ast.NewAssign(sp, "x", ast.NewIntLit(sp, 2)),
						ast.NewIntLit(sp, 3),
					)),
				)),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckCaptureAssign)
}

func TestAssignToParameterRejected(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewAssign(sp, "x", ast.NewIntLit(sp, 2)),
			), param("x", typeExpr("Int"))),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckParamAssign)
}

func TestConditionMustBeBool(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewIf(sp, ast.NewIntLit(sp, 1), body(ast.NewIntLit(sp, 2)), nil),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckConditionNotBool)
}

func TestIfWithoutElseIsVoid(t *testing.T) {
	prog, table, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", nil, body(
				ast.NewIf(sp, ast.NewBoolLit(sp, true), body(ast.NewIntLit(sp, 2)), nil),
			)),
		}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	m := findMethod(t, prog, table, "f")
	if m.Body[0].Type != table.Builtins().VoidType {
		t.Fatal("if without else should be Void")
	}
}

func TestReturnTypeMismatch(t *testing.T) {
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", typeExpr("Int"), body(
				ast.NewReturn(sp, ast.NewBoolLit(sp, true)),
			)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckReturnTypeMismatch)
}

func optEnum() *ast.ClassDef {
	return &ast.ClassDef{Name: "Opt", TypeParams: []string{"T"}, IsEnum: true, Cases: []ast.CaseDef{
		{Name: "None"},
		{Name: "Some", Fields: []ast.FieldDef{{Name: "value", Type: typeExpr("T")}}},
	}}
}

func TestMatchBindsSubstitutedFields(t *testing.T) {
	match := ast.NewMatch(sp, ast.NewVarRef(sp, "o"), []ast.MatchArm{
		{Variant: "Some", Binders: []string{"v"}, Body: body(ast.NewVarRef(sp, "v"))},
		{Variant: "None", Body: body(ast.NewIntLit(sp, 0))},
	})
	prog, table, bag, ok := checkProgram(t,
		optEnum(),
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			method("pick", typeExpr("Int"), body(match), param("o", typeExpr("Opt", typeExpr("Int")))),
		}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	b := table.Builtins()
	m := findMethod(t, prog, table, "pick")
	if m.Body[0].Type != b.IntType {
		t.Fatalf("match should unify to Int, got %s", table.FormatType(m.Body[0].Type))
	}
	arms := m.Body[0].Data.(hir.MatchData).Arms
	if arms[0].Binders[0].Type != b.IntType {
		t.Fatal("binder v should substitute T = Int")
	}
}

func TestMatchMissingVariant(t *testing.T) {
	match := ast.NewMatch(sp, ast.NewVarRef(sp, "o"), []ast.MatchArm{
		{Variant: "Some", Binders: []string{"v"}, Body: body(ast.NewVarRef(sp, "v"))},
	})
	_, _, bag, ok := checkProgram(t,
		optEnum(),
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			method("pick", typeExpr("Int"), body(match), param("o", typeExpr("Opt", typeExpr("Int")))),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckNonExhaustiveMatch)
}

func TestMatchElseArmCovers(t *testing.T) {
	match := ast.NewMatch(sp, ast.NewVarRef(sp, "o"), []ast.MatchArm{
		{Variant: "Some", Binders: []string{"v"}, Body: body(ast.NewVarRef(sp, "v"))},
		{IsElse: true, Body: body(ast.NewIntLit(sp, 0))},
	})
	_, _, bag, ok := checkProgram(t,
		optEnum(),
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			method("pick", typeExpr("Int"), body(match), param("o", typeExpr("Opt", typeExpr("Int")))),
		}},
	)
	if !ok {
		t.Fatalf("catch-all arm must satisfy exhaustiveness: %+v", bag.Items())
	}
}

func TestMatchOnNonEnum(t *testing.T) {
	match := ast.NewMatch(sp, ast.NewIntLit(sp, 1), []ast.MatchArm{
		{IsElse: true, Body: body(ast.NewIntLit(sp, 0))},
	})
	_, _, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "A", Methods: []*ast.MethodDef{
			method("f", typeExpr("Int"), body(match)),
		}},
	)
	if ok {
		t.Fatal("check must fail")
	}
	requireCode(t, bag, diag.CheckNotAnEnum)
}

func TestMatchArmsMustUnify(t *testing.T) {
	match := ast.NewMatch(sp, ast.NewVarRef(sp, "o"), []ast.MatchArm{
		{Variant: "Some", Binders: []string{"v"}, Body: body(ast.NewVarRef(sp, "v"))},
		{Variant: "None", Body: body(ast.NewIntLit(sp, 0))},
	})
	prog, table, bag, ok := checkProgram(t,
		optEnum(),
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			// Subject is Opt<Bool>: arms yield Bool and Int, which only
			// meet at Object.
			method("pick", typeExpr("Object"), body(match), param("o", typeExpr("Opt", typeExpr("Bool")))),
		}},
	)
	if !ok {
		t.Fatalf("Bool and Int unify at Object: %+v", bag.Items())
	}
	m := findMethod(t, prog, table, "pick")
	if m.Body[0].Type != table.Builtins().ObjectType {
		t.Fatalf("expected Object, got %s", table.FormatType(m.Body[0].Type))
	}
}

func TestEnumConstructorAndSubtyping(t *testing.T) {
	// Some<Int>.new(5) yields the variant type, which conforms to the
	// enum and may initialize a local later reassigned from None<Int>.
	prog, table, bag, ok := checkProgram(t,
		optEnum(),
		&ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
			method("mk", typeExpr("Opt", typeExpr("Int")), body(
				ast.NewCall(sp, ast.NewConstRef(sp, "Some", typeExpr("Int")), "new", nil, body(ast.NewIntLit(sp, 5))),
			)),
		}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	m := findMethod(t, prog, table, "mk")
	someEntry, _ := table.GetByName(table.Names.Intern("Some"))
	want := table.Types.Class(someEntry.ID, []types.TypeID{table.Builtins().IntType})
	if m.Body[0].Type != want {
		t.Fatalf("Some<Int>.new should yield Some<Int>, got %s", table.FormatType(m.Body[0].Type))
	}
}

func TestIVarAccess(t *testing.T) {
	prog, table, bag, ok := checkProgram(t,
		&ast.ClassDef{Name: "Box",
			IVars: []ast.FieldDef{{Name: "value", Type: typeExpr("Int")}},
			Methods: []*ast.MethodDef{
				method("initialize", nil, body(
					ast.NewIVarAssign(sp, "value", ast.NewVarRef(sp, "v")),
				), param("v", typeExpr("Int"))),
				method("get", typeExpr("Int"), body(ast.NewIVarRef(sp, "value"))),
			}},
	)
	if !ok {
		t.Fatalf("expected clean check: %+v", bag.Items())
	}
	m := findMethod(t, prog, table, "get")
	data := m.Body[0].Data.(hir.IVarRefData)
	if data.Field != 0 {
		t.Fatalf("value should be field 0, got %d", data.Field)
	}
}

func TestInvalidSignatureSkipsBody(t *testing.T) {
	bag := diag.NewBag(100)
	table, ok := classtable.Build(&ast.Program{Classes: []*ast.ClassDef{
		{Name: "A", Methods: []*ast.MethodDef{
			method("f", typeExpr("Missing"), body(ast.NewVarRef(sp, "alsoMissing"))),
		}},
	}}, classtable.Options{Reporter: diag.BagReporter{Bag: bag}})
	if ok {
		t.Fatal("table build must fail on the unknown return type")
	}
	before := bag.Len()
	_, checkOK := check.CheckProgram(check.Options{Table: table, Reporter: diag.BagReporter{Bag: bag}})
	if checkOK {
		t.Fatal("check must report failure for the skipped method")
	}
	// The body must not be checked, so no CheckUndefinedVariable and no
	// new diagnostics at all.
	if bag.Len() != before {
		t.Fatalf("skipped body re-reported: %+v", bag.Items())
	}
}
