package check

import (
	"fmt"

	"minato/internal/ast"
	"minato/internal/classtable"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/source"
	"minato/internal/types"
)

// Options configures body checking.
type Options struct {
	Table    *classtable.Table
	Reporter diag.Reporter
	// Recorder observes generic instantiation sites; nil disables
	// recording.
	Recorder InstantiationRecorder
}

// InstantiationRecorder receives every generic instantiation site the
// checker encounters. Type arguments may still mention type parameters
// of the enclosing class or method; the monomorphizer resolves those
// when it instantiates the enclosing declaration.
type InstantiationRecorder interface {
	RecordClassInstantiation(class types.ClassID, args []types.TypeID, site source.Span)
	RecordMethodInstantiation(owner types.ClassID, method source.StringID, args []types.TypeID, site source.Span)
}

type nopRecorder struct{}

func (nopRecorder) RecordClassInstantiation(types.ClassID, []types.TypeID, source.Span)            {}
func (nopRecorder) RecordMethodInstantiation(types.ClassID, source.StringID, []types.TypeID, source.Span) {
}

// CheckProgram checks every user method body against the sealed table.
// Methods whose signature pass failed are skipped without re-reporting.
// The returned ok is false when any body failed; the program then holds
// only the bodies that checked cleanly.
func CheckProgram(opts Options) (*hir.Program, bool) {
	if !opts.Table.Sealed() {
		panic("check: table not sealed")
	}
	prog := &hir.Program{Table: opts.Table}
	allOK := true
	opts.Table.All(func(c *classtable.ClassEntry) {
		if c.Builtin {
			return
		}
		checked, ok := CheckClass(c, opts)
		if !ok {
			allOK = false
		}
		prog.Methods = append(prog.Methods, checked...)
	})
	return prog, allOK
}

// CheckClass checks every declared body of one class, in source order.
// The table is read-only here, so the driver may check several classes
// concurrently, each with its own reporter and recorder.
func CheckClass(c *classtable.ClassEntry, opts Options) ([]*hir.Method, bool) {
	var out []*hir.Method
	allOK := true
	for _, m := range methodsInOrder(c) {
		if m.Builtin || m.Body == nil {
			continue
		}
		if !m.SigOK {
			allOK = false
			continue
		}
		checked, ok := CheckMethod(c, m, opts)
		if !ok {
			allOK = false
			continue
		}
		out = append(out, checked)
	}
	return out, allOK
}

// methodsInOrder returns c's declared methods in source order so the
// emitted diagnostics and the HIR forest are deterministic.
func methodsInOrder(c *classtable.ClassEntry) []*classtable.MethodEntry {
	out := c.MethodsInOrder()
	return append(out, c.ClassMethodsInOrder()...)
}

// CheckMethod checks one method body. The receiver type the body sees
// is the instance type over the class's own parameters, or the
// metaclass type for class-level methods.
func CheckMethod(c *classtable.ClassEntry, m *classtable.MethodEntry, opts Options) (*hir.Method, bool) {
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	ck := &checker{
		t:        opts.Table,
		reporter: opts.Reporter,
		recorder: rec,
		class:    c,
		method:   m,
	}
	if m.ClassLevel {
		ck.selfType = opts.Table.MetaType(c)
	} else {
		ck.selfType = opts.Table.InstanceType(c)
	}
	ck.pushFrame(nil)
	for i, p := range m.Params {
		ck.bind(p.Name, binding{kind: hir.BindParam, index: i, typ: p.Type, span: p.Span})
	}

	body, last, bodyOK := ck.checkSeq(m.Body, false)
	if bodyOK {
		ck.checkBodyResult(last, m)
	}
	frame := ck.popFrame()

	if ck.failed || !bodyOK {
		return nil, false
	}
	return &hir.Method{
		Class:    c.ID,
		Entry:    m,
		SelfType: ck.selfType,
		Body:     body,
		Locals:   frame.locals,
	}, true
}

// checkBodyResult enforces that the body's trailing expression conforms
// to the declared return type. Void-returning methods accept anything;
// a trailing Never (panic, return) satisfies every declaration.
func (ck *checker) checkBodyResult(last types.TypeID, m *classtable.MethodEntry) {
	b := ck.t.Builtins()
	if m.Return == b.VoidType {
		return
	}
	if last == b.NeverType {
		return
	}
	if last == types.NoTypeID {
		ck.errorf(diag.CheckReturnTypeMismatch, m.Span,
			"method %s declares return type %s but its body is empty",
			ck.t.Names.MustLookup(m.Name), ck.t.FormatType(m.Return)).Emit()
		return
	}
	if !ck.t.Conforms(last, m.Return) {
		ck.errorf(diag.CheckReturnTypeMismatch, m.Span,
			"method %s returns %s, body yields %s",
			ck.t.Names.MustLookup(m.Name), ck.t.FormatType(m.Return), ck.t.FormatType(last)).Emit()
	}
}

// checker carries per-method state. frames[0] is the method frame;
// every block literal pushes another one.
type checker struct {
	t        *classtable.Table
	reporter diag.Reporter
	recorder InstantiationRecorder
	class    *classtable.ClassEntry
	method   *classtable.MethodEntry
	selfType types.TypeID
	frames   []*frame
	failed   bool
}

func (ck *checker) errorf(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	ck.failed = true
	return diag.ReportError(ck.reporter, code, span, fmt.Sprintf(format, args...))
}

// checkSeq checks a statement sequence, collecting errors from every
// statement instead of stopping at the first bad one. Returns the
// checked statements, the trailing expression's type (Void when the
// sequence is empty) and whether every statement checked.
func (ck *checker) checkSeq(stmts []*ast.Expr, newScope bool) ([]*hir.Expr, types.TypeID, bool) {
	if newScope {
		ck.pushScope()
		defer ck.popScope()
	}
	out := make([]*hir.Expr, 0, len(stmts))
	last := ck.t.Builtins().VoidType
	ok := true
	for _, stmt := range stmts {
		e, eok := ck.checkExpr(stmt)
		if !eok {
			ok = false
			continue
		}
		out = append(out, e)
		last = e.Type
	}
	if len(stmts) == 0 {
		last = ck.t.Builtins().VoidType
	}
	if !ok {
		return nil, types.NoTypeID, false
	}
	return out, last, true
}
