package classtable

import (
	"sort"

	"minato/internal/ast"
	"minato/internal/source"
	"minato/internal/types"
)

// ClassEntry is the registry record for one class (or enum, or enum
// variant). Entries are created during the signature pass and read-only
// once the table is sealed.
type ClassEntry struct {
	ID         types.ClassID
	Name       source.StringID
	TypeParams []source.StringID

	// Superclass is the instance type of the superclass; its arguments
	// may reference this class's own type parameters (class B<U> <
	// A<Array<U>>). NoTypeID only for Object.
	Superclass types.TypeID

	IVars []IVarEntry

	// One method per name per class; class-level methods live in their
	// own map (the metaclass side of the entry).
	Methods      map[source.StringID]*MethodEntry
	ClassMethods map[source.StringID]*MethodEntry

	IsEnum    bool
	Cases     []types.ClassID // variant classes, declaration order
	EnumOwner types.ClassID   // for variants: the owning enum

	Builtin bool
	Span    source.Span

	def *ast.ClassDef // syntax backing, nil for builtins
}

// IVarEntry is one instance-variable declaration.
type IVarEntry struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
}

// IsVariant reports whether the class is an enum case.
func (c *ClassEntry) IsVariant() bool {
	return c.EnumOwner != types.NoClassID
}

// Arity is the declared type-parameter count.
func (c *ClassEntry) Arity() int {
	return len(c.TypeParams)
}

// FindIVar returns the instance variable and its index, or (nil, -1).
func (c *ClassEntry) FindIVar(name source.StringID) (*IVarEntry, int) {
	for i := range c.IVars {
		if c.IVars[i].Name == name {
			return &c.IVars[i], i
		}
	}
	return nil, -1
}

// MethodEntry is the registry record for one method. Builtin methods
// have no body; the backend provides the implementation out of band,
// but the signature still participates in override checking.
type MethodEntry struct {
	Name       source.StringID
	Owner      types.ClassID
	ClassLevel bool
	TypeParams []source.StringID
	Params     []ParamEntry
	Return     types.TypeID
	Builtin    bool
	Span       source.Span

	// Body is the unchecked syntax; nil for builtins and the synthetic
	// `new`.
	Body []*ast.Expr

	// SigOK is cleared when the well-formedness pass rejects the
	// signature; the checker then skips the body without re-reporting.
	SigOK bool

	def *ast.MethodDef
}

// ParamEntry is one declared method parameter.
type ParamEntry struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
}

// MethodArity is the declared method type-parameter count.
func (m *MethodEntry) MethodArity() int {
	return len(m.TypeParams)
}

// MethodsInOrder returns the instance methods sorted by declaration
// position, so passes that iterate them stay deterministic.
func (c *ClassEntry) MethodsInOrder() []*MethodEntry {
	return sortMethods(c.Methods)
}

// ClassMethodsInOrder is MethodsInOrder for the class-level side.
func (c *ClassEntry) ClassMethodsInOrder() []*MethodEntry {
	return sortMethods(c.ClassMethods)
}

func sortMethods(pool map[source.StringID]*MethodEntry) []*MethodEntry {
	out := make([]*MethodEntry, 0, len(pool))
	for _, m := range pool {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Span, out[j].Span
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Signature is a method signature specialized with a receiver's concrete
// class type arguments. Method-level type parameters are still
// unsubstituted; the checker binds them from explicit call-site type
// arguments.
type Signature struct {
	Method *MethodEntry
	Owner  types.ClassID // class whose chain walk found the method
	Params []types.TypeID
	Return types.TypeID
}
