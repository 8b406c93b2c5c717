package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"

	"minato/internal/source"
)

// Interner provides stable TypeIDs by hashing structural descriptors.
// Argument tuples are interned separately so a descriptor stays a flat,
// comparable value. Safe for concurrent use; the driver checks method
// bodies for several classes at once against one interner.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[Type]TypeID
	argLists [][]TypeID
	argIndex map[string]ArgsID
}

// NewInterner constructs an empty interner. Slot 0 of every arena is a
// reserved invalid sentinel.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[Type]TypeID, 64),
		argIndex: make(map[string]ArgsID, 16),
	}
	in.types = append(in.types, Type{Kind: KindInvalid})
	in.argLists = append(in.argLists, nil) // ArgsID 0 = empty tuple
	return in
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[t]; ok {
		return id
	}
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Class interns the instance type of class with the given arguments.
func (in *Interner) Class(class ClassID, args []TypeID) TypeID {
	return in.Intern(MakeClass(class, in.InternArgs(args)))
}

// Meta interns the metaclass type of class.
func (in *Interner) Meta(class ClassID, args []TypeID) TypeID {
	return in.Intern(MakeMeta(class, in.InternArgs(args)))
}

// Param interns a type-parameter reference.
func (in *Interner) Param(owner ParamOwner, index uint16, name source.StringID) TypeID {
	return in.Intern(MakeParam(owner, index, name))
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// InternArgs deduplicates an argument tuple and returns its handle.
func (in *Interner) InternArgs(args []TypeID) ArgsID {
	if len(args) == 0 {
		return 0
	}
	key := argsKey(args)
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.argIndex[key]; ok {
		return id
	}
	lenLists, err := safecast.Conv[uint32](len(in.argLists))
	if err != nil {
		panic(fmt.Errorf("len(argLists) overflow: %w", err))
	}
	id := ArgsID(lenLists)
	in.argLists = append(in.argLists, slices.Clone(args))
	in.argIndex[key] = id
	return id
}

// Args returns the tuple for a handle; the result must not be mutated.
func (in *Interner) Args(id ArgsID) []TypeID {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.argLists) {
		return nil
	}
	return in.argLists[id]
}

// ArgsOf is a convenience for the tuple attached to a class/meta type.
func (in *Interner) ArgsOf(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	return in.Args(tt.Args)
}

// ContainsParam reports whether any type-parameter reference remains
// anywhere inside id. The monomorphizer uses this as its no-escape check.
func (in *Interner) ContainsParam(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindTypeParam:
		return true
	case KindClass, KindMeta:
		for _, arg := range in.Args(tt.Args) {
			if in.ContainsParam(arg) {
				return true
			}
		}
	}
	return false
}

// StripMethodParamNames reinterns id with the names of method
// type-parameter references erased. Names are kept on descriptors only
// for rendering, so two signatures that differ in nothing but the
// spelling of a method type parameter compare equal after stripping.
func (in *Interner) StripMethodParamNames(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindTypeParam:
		if tt.Owner == OwnerMethod && tt.Name != source.NoStringID {
			return in.Param(OwnerMethod, tt.Index, source.NoStringID)
		}
	case KindClass, KindMeta:
		args := in.Args(tt.Args)
		changed := false
		stripped := make([]TypeID, len(args))
		for i, arg := range args {
			stripped[i] = in.StripMethodParamNames(arg)
			changed = changed || stripped[i] != arg
		}
		if changed {
			tt.Args = in.InternArgs(stripped)
			return in.Intern(tt)
		}
	}
	return id
}

func argsKey(args []TypeID) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(strconv.FormatUint(uint64(arg), 10))
	}
	return b.String()
}
