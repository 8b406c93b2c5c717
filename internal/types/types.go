package types

import (
	"fmt"

	"minato/internal/source"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// ClassID is a stable handle into the class table arena. It is declared
// here, not in classtable, so type descriptors can reference classes
// without a package cycle.
type ClassID uint32

// NoClassID marks the absence of a class.
const NoClassID ClassID = 0

// ArgsID is a handle to an interned type-argument tuple. Zero means the
// empty tuple.
type ArgsID uint32

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindClass is a concrete instance type: a class identity plus an
	// ordered type-argument tuple whose arity is fixed by the class.
	KindClass
	// KindMeta is the type of a class used as a value (`A` in `A.foo`).
	// Class-level methods live on the metaclass side.
	KindMeta
	// KindTypeParam is a reference to an enclosing class or method type
	// parameter, valid only inside that declaration's body.
	KindTypeParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindClass:
		return "class"
	case KindMeta:
		return "meta"
	case KindTypeParam:
		return "typaram"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParamOwner tells whether a type parameter belongs to the enclosing
// class or to the method being checked.
type ParamOwner uint8

const (
	// OwnerClass marks parameters like T in `class Foo<T>`.
	OwnerClass ParamOwner = iota
	// OwnerMethod marks parameters like W in `def bar<W>(...)`.
	OwnerMethod
)

func (o ParamOwner) String() string {
	if o == OwnerMethod {
		return "method"
	}
	return "class"
}

// Type is a compact, comparable descriptor. Equality of descriptors is
// structural equality of types: the interner deduplicates on the whole
// value, so identical types always share a TypeID and generics stay
// invariant (Array<Int> and Array<Object> are unrelated).
type Type struct {
	Kind  Kind
	Class ClassID         // for KindClass/KindMeta
	Args  ArgsID          // interned type-argument tuple
	Owner ParamOwner      // for KindTypeParam
	Index uint16          // parameter position within its owner
	Name  source.StringID // parameter name, kept for rendering
}

// MakeClass describes an instance type of class with the given interned
// argument tuple.
func MakeClass(class ClassID, args ArgsID) Type {
	return Type{Kind: KindClass, Class: class, Args: args}
}

// MakeMeta describes the metaclass type of class.
func MakeMeta(class ClassID, args ArgsID) Type {
	return Type{Kind: KindMeta, Class: class, Args: args}
}

// MakeParam describes a type-parameter reference.
func MakeParam(owner ParamOwner, index uint16, name source.StringID) Type {
	return Type{Kind: KindTypeParam, Owner: owner, Index: index, Name: name}
}
