package mir

import (
	"fmt"
	"io"
	"strings"

	"minato/internal/types"
)

// Printer dumps a lowered program to text for debugging and golden
// tests.
type Printer struct {
	w      io.Writer
	format func(types.TypeID) string
	indent int
}

// NewPrinter creates a printer; format renders type ids (usually
// Table.FormatType).
func NewPrinter(w io.Writer, format func(types.TypeID) string) *Printer {
	return &Printer{w: w, format: format}
}

// Dump writes the whole program.
func Dump(w io.Writer, p *Program, format func(types.TypeID) string) {
	pr := NewPrinter(w, format)
	for _, c := range p.Classes {
		pr.PrintClass(c)
		pr.printf("\n")
	}
}

// PrintClass prints one instantiation: fields, vtable and bodies.
func (p *Printer) PrintClass(c *Class) {
	p.printf("class %s", c.Name)
	if c.IsEnum {
		p.printf(" enum")
	}
	if c.Source == types.NoClassID {
		p.printf(" closure/%d", c.FnArity)
	}
	if c.Super != nil {
		p.printf(" < %s", c.Super.Name)
	}
	p.printf("\n")
	for i, f := range c.Fields {
		p.printf("  field %d %s: %s\n", i, f.Name, p.format(f.Type))
	}
	for slot, m := range c.VTable {
		owner := ""
		if m.Class != c {
			owner = " (from " + m.Class.Name + ")"
		}
		p.printf("  slot %d %s%s\n", slot, m.Name, owner)
	}
	for _, m := range c.VTable {
		if m.Class == c {
			p.PrintMethod(m)
		}
	}
	for _, m := range c.Statics {
		p.PrintMethod(m)
	}
}

// PrintMethod prints one lowered method.
func (p *Printer) PrintMethod(m *Method) {
	p.printf("  def %s(", m.Name)
	for i, param := range m.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s: %s", param.Name, p.format(param.Type))
	}
	p.printf(") -> %s", p.format(m.Return))
	if m.Builtin {
		p.printf(" builtin\n")
		return
	}
	p.printf("\n")
	for i, l := range m.Locals {
		p.printf("    local %d: %s\n", i, p.format(l))
	}
	p.indent = 2
	for _, e := range m.Body {
		p.printf("%s", strings.Repeat("  ", p.indent))
		p.printExpr(e)
		p.printf("\n")
	}
	p.indent = 0
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
	case ParamRefData:
		p.printf("param%d", data.Index)
	case LocalRefData:
		p.printf("local%d", data.Slot)
	case LocalSetData:
		p.printf("local%d = ", data.Slot)
		p.printExpr(data.Value)
	case FieldGetData:
		p.printExpr(data.Object)
		p.printf(".f%d", data.Field)
	case FieldSetData:
		p.printExpr(data.Object)
		p.printf(".f%d = ", data.Field)
		p.printExpr(data.Value)
	case CallVirtualData:
		p.printExpr(data.Receiver)
		p.printf(".v%d", data.Slot)
		p.printArgs(data.Args)
	case CallDirectData:
		if data.Receiver != nil {
			p.printExpr(data.Receiver)
			p.printf(".")
		}
		p.printf("%s.%s", data.Target.Class.Name, data.Target.Name)
		p.printArgs(data.Args)
	case NewData:
		p.printf("new %s", data.Class.Name)
		p.printArgs(data.Args)
	case MakeClosureData:
		p.printf("closure %s", data.Class.Name)
		p.printArgs(data.Captures)
	case ClassRefData:
		p.printf("classref %s", data.Class.Name)
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
		for _, arm := range data.Arms {
			p.printf("\n%s", strings.Repeat("  ", p.indent+1))
			if arm.Tag < 0 {
				p.printf("else")
			} else {
				p.printf("tag %d", arm.Tag)
				for _, b := range arm.Binders {
					p.printf(" f%d->local%d", b.Field, b.Slot)
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
	p.printf(" : %s", p.format(e.Type))
}

func (p *Printer) printArgs(args []*Expr) {
	p.printf("(")
	for i, a := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(a)
	}
	p.printf(")")
}

func (p *Printer) printBody(body []*Expr) {
	p.indent++
	for _, stmt := range body {
		p.printf("\n%s", strings.Repeat("  ", p.indent))
		p.printExpr(stmt)
	}
	p.indent--
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}
