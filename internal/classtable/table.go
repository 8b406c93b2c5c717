package classtable

import (
	"fmt"

	"fortio.org/safecast"

	"minato/internal/source"
	"minato/internal/types"
)

// Table is the whole-program class registry. It is built in two passes
// (see build.go and wellformed.go) and frozen before any method body is
// checked; from then on every access is read-only.
type Table struct {
	Names *source.Interner
	Types *types.Interner

	classes []*ClassEntry // indexed by ClassID, slot 0 reserved
	byName  map[source.StringID]types.ClassID

	builtins Builtins
	sealed   bool
}

// NewTable constructs a table seeded with the builtin core classes.
func NewTable(names *source.Interner, in *types.Interner) *Table {
	t := &Table{
		Names:   names,
		Types:   in,
		classes: []*ClassEntry{nil},
		byName:  make(map[source.StringID]types.ClassID, 64),
	}
	t.seedBuiltins()
	return t
}

// Builtins returns handles for the seeded core classes.
func (t *Table) Builtins() Builtins {
	return t.builtins
}

// Seal freezes the table. Sealing twice is a programming error.
func (t *Table) Seal() {
	if t.sealed {
		panic("classtable: sealed twice")
	}
	t.sealed = true
}

// Sealed reports whether the table is frozen.
func (t *Table) Sealed() bool {
	return t.sealed
}

func (t *Table) addClass(entry *ClassEntry) types.ClassID {
	if t.sealed {
		panic("classtable: mutation after seal")
	}
	lenClasses, err := safecast.Conv[uint32](len(t.classes))
	if err != nil {
		panic(fmt.Errorf("class count overflow: %w", err))
	}
	id := types.ClassID(lenClasses)
	entry.ID = id
	if entry.Methods == nil {
		entry.Methods = make(map[source.StringID]*MethodEntry, 4)
	}
	if entry.ClassMethods == nil {
		entry.ClassMethods = make(map[source.StringID]*MethodEntry, 2)
	}
	t.classes = append(t.classes, entry)
	t.byName[entry.Name] = id
	return id
}

// Get returns the entry for id, or nil.
func (t *Table) Get(id types.ClassID) *ClassEntry {
	if id == types.NoClassID || int(id) >= len(t.classes) {
		return nil
	}
	return t.classes[id]
}

// GetByName resolves a class fullname.
func (t *Table) GetByName(name source.StringID) (*ClassEntry, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.classes[id], true
}

// Len counts registered classes, the reserved slot excluded.
func (t *Table) Len() int {
	return len(t.classes) - 1
}

// All iterates entries in registration order.
func (t *Table) All(fn func(*ClassEntry)) {
	for _, c := range t.classes[1:] {
		fn(c)
	}
}

// ClassName renders the fullname for diagnostics; satisfies
// types.ClassNamer.
func (t *Table) ClassName(id types.ClassID) string {
	c := t.Get(id)
	if c == nil {
		return "<unknown>"
	}
	return t.Names.MustLookup(c.Name)
}

// FormatType renders a type against this table's interners.
func (t *Table) FormatType(id types.TypeID) string {
	return types.Format(id, t.Types, t.Names, t.ClassName)
}

// InstanceType returns the instance type of c applied to its own type
// parameters: `Array<T>` for Array, `Int` for Int.
func (t *Table) InstanceType(c *ClassEntry) types.TypeID {
	return t.Types.Class(c.ID, t.ownParamRefs(c))
}

// MetaType returns the metaclass type of c, likewise parameterized.
func (t *Table) MetaType(c *ClassEntry) types.TypeID {
	return t.Types.Meta(c.ID, t.ownParamRefs(c))
}

func (t *Table) ownParamRefs(c *ClassEntry) []types.TypeID {
	if len(c.TypeParams) == 0 {
		return nil
	}
	refs := make([]types.TypeID, len(c.TypeParams))
	for i, name := range c.TypeParams {
		idx, err := safecast.Conv[uint16](i)
		if err != nil {
			panic(fmt.Errorf("type parameter index overflow: %w", err))
		}
		refs[i] = t.Types.Param(types.OwnerClass, idx, name)
	}
	return refs
}

// SuperclassType returns the substituted superclass of an instance type:
// for B<Int> where `class B<U> < A<Array<U>>`, that is A<Array<Int>>.
func (t *Table) SuperclassType(instance types.TypeID) (types.TypeID, bool) {
	tt, ok := t.Types.Lookup(instance)
	if !ok || (tt.Kind != types.KindClass && tt.Kind != types.KindMeta) {
		return types.NoTypeID, false
	}
	c := t.Get(tt.Class)
	if c == nil || c.Superclass == types.NoTypeID {
		return types.NoTypeID, false
	}
	sub := types.NewSubst(t.Types, t.Types.Args(tt.Args), nil)
	super := sub.Apply(c.Superclass)
	if tt.Kind == types.KindMeta {
		// Metaclasses mirror the instance hierarchy: Meta:B < Meta:A.
		st := t.Types.MustLookup(super)
		super = t.Types.Intern(types.MakeMeta(st.Class, st.Args))
	}
	return super, true
}
