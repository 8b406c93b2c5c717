package classtable

import (
	"minato/internal/source"
	"minato/internal/types"
)

// FieldLayout returns the flattened instance layout of c: inherited
// fields first, then own declarations. Inherited field types are
// substituted into c's view of the chain, so for `class B<U> <
// A<Array<U>>` a field declared as T in A appears as Array<U> here.
func (t *Table) FieldLayout(c *ClassEntry) []IVarEntry {
	var levels [][]IVarEntry
	cur := t.InstanceType(c)
	for depth := 0; depth < maxChainDepth; depth++ {
		tt, ok := t.Types.Lookup(cur)
		if !ok {
			break
		}
		entry := t.Get(tt.Class)
		if entry == nil {
			break
		}
		sub := types.NewSubst(t.Types, t.Types.Args(tt.Args), nil)
		own := make([]IVarEntry, len(entry.IVars))
		for i, iv := range entry.IVars {
			own[i] = IVarEntry{Name: iv.Name, Type: sub.Apply(iv.Type), Span: iv.Span}
		}
		levels = append(levels, own)
		next, ok := t.SuperclassType(cur)
		if !ok {
			break
		}
		cur = next
	}
	var out []IVarEntry
	for i := len(levels) - 1; i >= 0; i-- {
		out = append(out, levels[i]...)
	}
	return out
}

// FindField locates name in c's flattened layout, nearest declaration
// winning when a class redeclares an inherited field.
func (t *Table) FindField(c *ClassEntry, name source.StringID) (IVarEntry, int, bool) {
	layout := t.FieldLayout(c)
	for i := len(layout) - 1; i >= 0; i-- {
		if layout[i].Name == name {
			return layout[i], i, true
		}
	}
	return IVarEntry{}, -1, false
}
