package hir

import (
	"fmt"
	"io"
	"strings"

	"minato/internal/classtable"
	"minato/internal/source"
)

// Printer is used to dump checked methods to text format. The dump is
// for debugging and golden tests, not a stable interchange format.
type Printer struct {
	w      io.Writer
	table  *classtable.Table
	indent int
}

// NewPrinter creates a new HIR printer.
func NewPrinter(w io.Writer, table *classtable.Table) *Printer {
	return &Printer{w: w, table: table}
}

// Dump writes the whole checked program to w.
func Dump(w io.Writer, p *Program) {
	pr := NewPrinter(w, p.Table)
	for _, m := range p.Methods {
		pr.PrintMethod(m)
		pr.printf("\n")
	}
}

// PrintMethod prints one checked method.
func (p *Printer) PrintMethod(m *Method) {
	marker := "#"
	if m.Entry.ClassLevel {
		marker = "."
	}
	p.printf("%s%s%s(", p.table.ClassName(m.Class), marker, p.name(m.Entry.Name))
	for i, param := range m.Entry.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s: %s", p.name(param.Name), p.table.FormatType(param.Type))
	}
	p.printf(") -> %s\n", p.table.FormatType(m.Entry.Return))
	for i, l := range m.Locals {
		p.printf("  local %d %s: %s\n", i, p.name(l.Name), p.table.FormatType(l.Type))
	}
	p.indent = 1
	for _, e := range m.Body {
		p.printExprLine(e)
	}
	p.indent = 0
}

func (p *Printer) printExprLine(e *Expr) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printExpr(e)
	p.printf("\n")
}

func (p *Printer) printExpr(e *Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}
	switch data := e.Data.(type) {
	case IntLitData:
		p.printf("%d", data.Value)
	case FloatLitData:
		p.printf("%g", data.Value)
	case BoolLitData:
		p.printf("%t", data.Value)
	case StringLitData:
		p.printf("%q", data.Value)
	case SelfData:
		p.printf("self")
	case VarRefData:
		p.printf("%s<%s:%d>", p.name(data.Name), data.Binding.Kind, data.Binding.Index)
	case IVarRefData:
		p.printf("@%s<field:%d>", p.name(data.Name), data.Field)
	case ConstRefData:
		p.printf("%s", p.table.ClassName(data.Class))
	case AssignData:
		op := "="
		if data.Declares {
			op = ":="
		}
		p.printf("%s<%s:%d> %s ", p.name(data.Name), data.Binding.Kind, data.Binding.Index, op)
		p.printExpr(data.Value)
	case IVarAssignData:
		p.printf("@%s<field:%d> = ", p.name(data.Name), data.Field)
		p.printExpr(data.Value)
	case CallData:
		p.printExpr(data.Receiver)
		p.printf(".%s", p.name(data.Method.Name))
		if len(data.TypeArgs) > 0 {
			p.printf("<")
			for i, a := range data.TypeArgs {
				if i > 0 {
					p.printf(", ")
				}
				p.printf("%s", p.table.FormatType(a))
			}
			p.printf(">")
		}
		p.printf("(")
		for i, a := range data.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(a)
		}
		p.printf(")")
	case BlockData:
		p.printf("block(")
		for i, param := range data.Params {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s: %s", p.name(param.Name), p.table.FormatType(param.Type))
		}
		p.printf(")")
		if len(data.Captures) > 0 || data.CapturesSelf {
			p.printf(" captures [")
			first := true
			if data.CapturesSelf {
				p.printf("self")
				first = false
			}
			for _, c := range data.Captures {
				if !first {
					p.printf(", ")
				}
				p.printf("%s", p.name(c.Name))
				first = false
			}
			p.printf("]")
		}
		p.printBody(data.Body)
	case IfData:
		p.printf("if ")
		p.printExpr(data.Cond)
		p.printBody(data.Then)
		if data.Else != nil {
			p.printf(" else")
			p.printBody(data.Else)
		}
	case MatchData:
		p.printf("match ")
		p.printExpr(data.Subject)
		for i := range data.Arms {
			arm := &data.Arms[i]
			p.printf("\n%s", strings.Repeat("  ", p.indent+1))
			if arm.IsElse() {
				p.printf("else")
			} else {
				p.printf("case %s", p.table.ClassName(arm.Variant))
				if len(arm.Binders) > 0 {
					p.printf("(")
					for j, b := range arm.Binders {
						if j > 0 {
							p.printf(", ")
						}
						p.printf("%s: %s", p.name(b.Name), p.table.FormatType(b.Type))
					}
					p.printf(")")
				}
			}
			p.indent++
			p.printBody(arm.Body)
			p.indent--
		}
	case ReturnData:
		p.printf("return")
		if data.Value != nil {
			p.printf(" ")
			p.printExpr(data.Value)
		}
	default:
		p.printf("<%s>", e.Kind)
	}
	p.printf(" : %s", p.table.FormatType(e.Type))
}

func (p *Printer) printBody(body []*Expr) {
	p.indent++
	for _, stmt := range body {
		p.printf("\n")
		p.printf("%s", strings.Repeat("  ", p.indent))
		p.printExpr(stmt)
	}
	p.indent--
}

func (p *Printer) name(id source.StringID) string {
	return p.table.Names.MustLookup(id)
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}
