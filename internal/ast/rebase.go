package ast

import (
	"minato/internal/source"
)

// RebaseFiles points every span in the unit at file. The parser dumps
// one unit at a time with zero-based file ids; the driver loads each
// unit into its FileSet and rebases before merging the forests.
func RebaseFiles(p *Program, file source.FileID) {
	for _, c := range p.Classes {
		rebaseClass(c, file)
	}
}

func rebaseClass(c *ClassDef, file source.FileID) {
	c.Span.File = file
	rebaseTypeExpr(c.Superclass, file)
	for i := range c.IVars {
		c.IVars[i].Span.File = file
		rebaseTypeExpr(c.IVars[i].Type, file)
	}
	for i := range c.Cases {
		c.Cases[i].Span.File = file
		for j := range c.Cases[i].Fields {
			c.Cases[i].Fields[j].Span.File = file
			rebaseTypeExpr(c.Cases[i].Fields[j].Type, file)
		}
	}
	for _, m := range c.Methods {
		rebaseMethod(m, file)
	}
}

func rebaseMethod(m *MethodDef, file source.FileID) {
	m.Span.File = file
	for i := range m.Params {
		m.Params[i].Span.File = file
		rebaseTypeExpr(m.Params[i].Type, file)
	}
	rebaseTypeExpr(m.Return, file)
	rebaseBody(m.Body, file)
}

func rebaseBody(body []*Expr, file source.FileID) {
	for _, e := range body {
		rebaseExpr(e, file)
	}
}

func rebaseExpr(e *Expr, file source.FileID) {
	if e == nil {
		return
	}
	e.Span.File = file
	switch data := e.Data.(type) {
	case ConstRefData:
		for _, ta := range data.TypeArgs {
			rebaseTypeExpr(ta, file)
		}
	case AssignData:
		rebaseExpr(data.Value, file)
	case IVarAssignData:
		rebaseExpr(data.Value, file)
	case CallData:
		rebaseExpr(data.Receiver, file)
		for _, ta := range data.TypeArgs {
			rebaseTypeExpr(ta, file)
		}
		rebaseBody(data.Args, file)
	case BlockData:
		for i := range data.Params {
			data.Params[i].Span.File = file
			rebaseTypeExpr(data.Params[i].Type, file)
		}
		rebaseBody(data.Body, file)
	case IfData:
		rebaseExpr(data.Cond, file)
		rebaseBody(data.Then, file)
		rebaseBody(data.Else, file)
	case MatchData:
		rebaseExpr(data.Subject, file)
		for i := range data.Arms {
			data.Arms[i].Span.File = file
			rebaseBody(data.Arms[i].Body, file)
		}
	case ReturnData:
		rebaseExpr(data.Value, file)
	}
}

func rebaseTypeExpr(te *TypeExpr, file source.FileID) {
	if te == nil {
		return
	}
	te.Span.File = file
	for _, a := range te.Args {
		rebaseTypeExpr(a, file)
	}
}
