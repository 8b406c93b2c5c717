package types

import (
	"strings"

	"minato/internal/source"
)

// ClassNamer resolves a class handle to its fullname. The class table
// provides one; keeping it a function avoids a package cycle.
type ClassNamer func(ClassID) string

// Format renders a type for diagnostics, e.g. "Array<Int>" or
// "Meta:Pair<Int, Bool>".
func Format(id TypeID, in *Interner, names *source.Interner, classes ClassNamer) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindTypeParam:
		if name, ok := names.Lookup(tt.Name); ok && name != "" {
			return name
		}
		return "<typaram>"
	case KindClass, KindMeta:
		var b strings.Builder
		if tt.Kind == KindMeta {
			b.WriteString("Meta:")
		}
		b.WriteString(classes(tt.Class))
		args := in.Args(tt.Args)
		if len(args) > 0 {
			b.WriteByte('<')
			for i, arg := range args {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(Format(arg, in, names, classes))
			}
			b.WriteByte('>')
		}
		return b.String()
	default:
		return "<invalid>"
	}
}

// FormatAll renders a tuple as "A, B, C".
func FormatAll(ids []TypeID, in *Interner, names *source.Interner, classes ClassNamer) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = Format(id, in, names, classes)
	}
	return strings.Join(parts, ", ")
}
