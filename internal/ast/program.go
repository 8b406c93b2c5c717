package ast

import (
	"minato/internal/source"
)

// Program is the whole-program syntax forest: every class definition from
// every source unit, in declaration order. Forward references between
// classes are expected; resolution happens in the class table passes.
type Program struct {
	Classes []*ClassDef
}

// FindClass returns the first class definition with the given name, or nil.
func (p *Program) FindClass(name string) *ClassDef {
	for _, c := range p.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TypeExpr is an unresolved type mention: a class name plus optional type
// arguments, e.g. `Array<Int>` or a bare type-parameter name `T`. Which of
// the two it is cannot be known before the class table exists.
type TypeExpr struct {
	Name string
	Args []*TypeExpr
	Span source.Span
}

// ClassDef declares a class or an enum.
type ClassDef struct {
	Name       string
	TypeParams []string
	Superclass *TypeExpr // nil means Object (and nothing for Object itself)
	IVars      []FieldDef
	Methods    []*MethodDef
	IsEnum     bool
	Cases      []CaseDef
	Span       source.Span
}

// FieldDef declares an instance variable or an enum-case field.
type FieldDef struct {
	Name string
	Type *TypeExpr
	Span source.Span
}

// CaseDef declares one variant of an enum. Each variant is a distinct
// constructible shape; the set is closed and drives exhaustiveness checks.
type CaseDef struct {
	Name   string
	Fields []FieldDef
	Span   source.Span
}

// MethodDef declares an instance or class-level method.
// Builtin methods carry no body; the backend supplies the implementation.
type MethodDef struct {
	Name       string
	ClassLevel bool
	TypeParams []string
	Params     []ParamDef
	Return     *TypeExpr // nil means Void
	Body       []*Expr
	Builtin    bool
	Span       source.Span
}

// ParamDef declares a method or block parameter. Block parameters may omit
// the type; it is then taken from the expected function type.
type ParamDef struct {
	Name string
	Type *TypeExpr
	Span source.Span
}
