package mir

import (
	"minato/internal/source"
	"minato/internal/types"
)

// InstanceID identifies one class instantiation inside a Program.
type InstanceID uint32

// NoInstanceID is the zero instance id; slot 0 is reserved.
const NoInstanceID InstanceID = 0

// Program is the monomorphized whole program. Every generic use has
// been expanded to a concrete instantiation, closures have become
// classes of their own, and every method carries a lowered body with
// resolved field and vtable indices. Nothing in here mentions a type
// parameter; Validate enforces that.
type Program struct {
	// Classes holds every instantiation in creation order; index is the
	// InstanceID minus one.
	Classes []*Class

	// Entry is the program entry point (`Main.main`), nil when the
	// compiled unit is a library.
	Entry *Method
}

// Class is one concrete class instantiation: a (source class, type
// argument tuple) pair, or a synthesized closure class with no source.
type Class struct {
	ID   InstanceID
	Name string

	// Source and Args identify the generic declaration this was
	// instantiated from. Closure classes have NoClassID and carry their
	// captured state in Fields instead.
	Source types.ClassID
	Args   []types.TypeID

	Super  *Class
	Fields []Field

	// VTable is slot-ordered for constant-offset dispatch: the root
	// class's methods first, an override sitting at the slot of the
	// method it overrides, newly introduced methods appended.
	VTable []*Method

	// Statics are the direct-dispatch methods: class-level methods (the
	// synthetic `new` excluded, construction lowers to ExprNew) and the
	// per-type-argument instantiations of generic instance methods,
	// which never go through the vtable.
	Statics []*Method

	// Enum wiring: an enum instantiation lists its variant
	// instantiations in declaration order, and each variant knows its
	// tag, the index into that list.
	IsEnum   bool
	Variants []*Class
	Tag      int

	// Fn arity for closure classes, -1 otherwise.
	FnArity int
}

// Field is one slot of concrete instance state.
type Field struct {
	Name string
	Type types.TypeID
}

// FindSlot returns the vtable slot of the named method, or -1.
func (c *Class) FindSlot(name string) int {
	for i, m := range c.VTable {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// FindStatic returns the class-level method with the given name, or nil.
func (c *Class) FindStatic(name string) *Method {
	for _, m := range c.Statics {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Method is one concrete method body. Builtin methods have no body; the
// backend binds them to runtime primitives by (class name, name).
type Method struct {
	Name    string
	Class   *Class
	Params  []Param
	Return  types.TypeID
	Locals  []types.TypeID
	Body    []*Expr
	Builtin bool
	Slot    int // vtable slot, -1 for statics
	Span    source.Span
}

// Param is one concrete method parameter.
type Param struct {
	Name string
	Type types.TypeID
}
