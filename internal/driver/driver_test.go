package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"minato/internal/ast"
	"minato/internal/driver"
	"minato/internal/project"
	"minato/internal/source"
)

func span() source.Span { return source.Span{} }

func typeExpr(name string, args ...*ast.TypeExpr) *ast.TypeExpr {
	return &ast.TypeExpr{Name: name, Args: args}
}

func writeUnit(t *testing.T, dir, name string, classes ...*ast.ClassDef) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := ast.EncodeProgram(f, &ast.Program{Classes: classes}); err != nil {
		t.Fatal(err)
	}
	return path
}

func boxClass() *ast.ClassDef {
	return &ast.ClassDef{
		Name:       "Box",
		TypeParams: []string{"T"},
		IVars:      []ast.FieldDef{{Name: "value", Type: typeExpr("T")}},
		Methods: []*ast.MethodDef{
			{Name: "initialize", Params: []ast.ParamDef{{Name: "v", Type: typeExpr("T")}},
				Body: []*ast.Expr{ast.NewIVarAssign(span(), "value", ast.NewVarRef(span(), "v"))}},
			{Name: "get", Return: typeExpr("T"),
				Body: []*ast.Expr{ast.NewIVarRef(span(), "value")}},
		},
	}
}

func mainClass(stmts ...*ast.Expr) *ast.ClassDef {
	return &ast.ClassDef{Name: "Main", Methods: []*ast.MethodDef{
		{Name: "main", ClassLevel: true, Body: stmts},
	}}
}

func TestRunBuildsAcrossUnits(t *testing.T) {
	dir := t.TempDir()
	lib := writeUnit(t, dir, "box.mnast", boxClass())
	app := writeUnit(t, dir, "main.mnast", mainClass(
		ast.NewAssign(span(), "b",
			ast.NewCall(span(), ast.NewConstRef(span(), "Box", typeExpr("Int")), "new", nil,
				[]*ast.Expr{ast.NewIntLit(span(), 7)})),
		ast.NewCall(span(), ast.NewVarRef(span(), "b"), "get", nil, nil),
	))

	res, err := driver.Run(context.Background(), driver.Options{Units: []string{lib, app}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if res.MIR == nil || res.MIR.Entry == nil || res.MIR.Entry.Name != "main" {
		t.Fatalf("entry point not wired: %+v", res.MIR)
	}
	found := false
	for _, c := range res.MIR.Classes {
		if c.Name == "Box<Int>" {
			found = true
		}
	}
	if !found {
		t.Fatal("Box<Int> was not instantiated across units")
	}
	if res.Files.Len() != 2 {
		t.Fatalf("want 2 registered files, got %d", res.Files.Len())
	}
	if res.Digest == (project.Digest{}) {
		t.Fatal("input digest must be derived from the unit hashes")
	}
}

func TestDiagnosticsCarryUnitFile(t *testing.T) {
	dir := t.TempDir()
	good := writeUnit(t, dir, "a.mnast", boxClass())
	bad := writeUnit(t, dir, "b.mnast", mainClass(
		ast.NewCall(span(), ast.NewIntLit(span(), 1), "frobnicate", nil, nil),
	))

	res, err := driver.Run(context.Background(), driver.Options{Units: []string{good, bad}})
	if err != nil {
		t.Fatal(err)
	}
	if res.OK() {
		t.Fatal("unknown method must fail the run")
	}
	if res.MIR != nil {
		t.Fatal("MIR must not be produced from an erroring check")
	}
	items := res.Bag.Items()
	if len(items) == 0 {
		t.Fatal("no diagnostics reported")
	}
	if got := res.Files.Get(items[0].Primary.File).Path; got != bad {
		t.Fatalf("diagnostic points at %q, want the failing unit %q", got, bad)
	}
}

func TestCheckOnlyStopsBeforeLowering(t *testing.T) {
	dir := t.TempDir()
	unit := writeUnit(t, dir, "a.mnast", boxClass())

	res, err := driver.Run(context.Background(), driver.Options{
		Units:     []string{unit},
		CheckOnly: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() || res.HIR == nil {
		t.Fatalf("check-only run failed: %+v", res.Bag.Items())
	}
	if res.MIR != nil {
		t.Fatal("check-only run must not lower")
	}
}

func TestRunWithoutUnits(t *testing.T) {
	_, err := driver.Run(context.Background(), driver.Options{})
	if !errors.Is(err, driver.ErrNoUnits) {
		t.Fatalf("want ErrNoUnits, got %v", err)
	}
}
