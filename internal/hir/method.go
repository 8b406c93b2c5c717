package hir

import (
	"minato/internal/classtable"
	"minato/internal/source"
	"minato/internal/types"
)

// Local is one declared local slot in a frame. Match binders and plain
// assignments both allocate here.
type Local struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
}

// Method is a fully checked method body. SelfType is the receiver type
// the body was checked under: the instance type applied to the class's
// own parameters, or the metaclass type for class-level methods.
type Method struct {
	Class    types.ClassID
	Entry    *classtable.MethodEntry
	SelfType types.TypeID
	Body     []*Expr
	Locals   []Local
}

// Name returns the method name id.
func (m *Method) Name() source.StringID {
	return m.Entry.Name
}

// Program is the checked whole program: every user method body that
// passed the checker, in deterministic (class, then declaration) order.
type Program struct {
	Table   *classtable.Table
	Methods []*Method
}

// MethodsOf filters the program's methods by owning class.
func (p *Program) MethodsOf(class types.ClassID) []*Method {
	var out []*Method
	for _, m := range p.Methods {
		if m.Class == class {
			out = append(out, m)
		}
	}
	return out
}
