package ast_test

import (
	"bytes"
	"testing"

	"minato/internal/ast"
	"minato/internal/source"
)

func TestRebaseAfterDecode(t *testing.T) {
	sp := source.Span{Start: 4, End: 9}
	prog := &ast.Program{Classes: []*ast.ClassDef{{
		Name: "Counter",
		Span: sp,
		IVars: []ast.FieldDef{
			{Name: "n", Type: &ast.TypeExpr{Name: "Int", Span: sp}, Span: sp},
		},
		Methods: []*ast.MethodDef{{
			Name: "bump",
			Span: sp,
			Body: []*ast.Expr{
				ast.NewIVarAssign(sp, "n",
					ast.NewCall(sp, ast.NewIVarRef(sp, "n"), "+", nil,
						[]*ast.Expr{ast.NewIntLit(sp, 1)})),
				ast.NewBlock(sp, []ast.ParamDef{{Name: "x", Span: sp}},
					[]*ast.Expr{ast.NewVarRef(sp, "x")}),
			},
		}},
	}}}

	var buf bytes.Buffer
	if err := ast.EncodeProgram(&buf, prog); err != nil {
		t.Fatal(err)
	}
	decoded, err := ast.DecodeProgram(&buf)
	if err != nil {
		t.Fatal(err)
	}

	const file source.FileID = 3
	ast.RebaseFiles(decoded, file)

	c := decoded.Classes[0]
	if c.Span.File != file || c.Span.Start != 4 {
		t.Fatalf("class span not rebased: %+v", c.Span)
	}
	if c.IVars[0].Type.Span.File != file {
		t.Fatalf("ivar type span not rebased: %+v", c.IVars[0].Type.Span)
	}

	// The call nested inside the assignment, and the block's own body.
	assign := c.Methods[0].Body[0]
	call := assign.Data.(ast.IVarAssignData).Value
	if call.Span.File != file {
		t.Fatalf("nested call span not rebased: %+v", call.Span)
	}
	arg := call.Data.(ast.CallData).Args[0]
	if arg.Span.File != file {
		t.Fatalf("call argument span not rebased: %+v", arg.Span)
	}
	block := c.Methods[0].Body[1].Data.(ast.BlockData)
	if block.Params[0].Span.File != file || block.Body[0].Span.File != file {
		t.Fatal("block params and body must be rebased")
	}
}
