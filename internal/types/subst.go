package types

// Subst binds the type parameters of one declaration context to concrete
// types: ClassArgs for the enclosing class, MethodArgs for the method
// being specialized. Applying a substitution built for a context must
// eliminate every parameter reference that is in scope there; a
// reference it cannot resolve is returned unchanged so the
// monomorphizer's validator can flag it as an internal error instead of
// silently coercing.
type Subst struct {
	in         *Interner
	ClassArgs  []TypeID
	MethodArgs []TypeID
}

// NewSubst builds a substitution over the given interner.
func NewSubst(in *Interner, classArgs, methodArgs []TypeID) *Subst {
	return &Subst{in: in, ClassArgs: classArgs, MethodArgs: methodArgs}
}

// Apply resolves id under the substitution, re-interning any rebuilt
// class types. Identity is preserved when nothing changes.
func (s *Subst) Apply(id TypeID) TypeID {
	if s == nil || id == NoTypeID {
		return id
	}
	tt, ok := s.in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindTypeParam:
		var pool []TypeID
		if tt.Owner == OwnerClass {
			pool = s.ClassArgs
		} else {
			pool = s.MethodArgs
		}
		if int(tt.Index) < len(pool) && pool[tt.Index] != NoTypeID {
			return pool[tt.Index]
		}
		return id
	case KindClass, KindMeta:
		args := s.in.Args(tt.Args)
		if len(args) == 0 {
			return id
		}
		changed := false
		newArgs := make([]TypeID, len(args))
		for i, arg := range args {
			newArgs[i] = s.Apply(arg)
			if newArgs[i] != arg {
				changed = true
			}
		}
		if !changed {
			return id
		}
		return s.in.Intern(Type{Kind: tt.Kind, Class: tt.Class, Args: s.in.InternArgs(newArgs)})
	default:
		return id
	}
}

// ApplyAll maps Apply over a tuple, reusing the input when unchanged.
func (s *Subst) ApplyAll(ids []TypeID) []TypeID {
	if s == nil || len(ids) == 0 {
		return ids
	}
	changed := false
	out := make([]TypeID, len(ids))
	for i, id := range ids {
		out[i] = s.Apply(id)
		if out[i] != id {
			changed = true
		}
	}
	if !changed {
		return ids
	}
	return out
}
