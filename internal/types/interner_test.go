package types

import (
	"testing"

	"minato/internal/source"
)

func TestInternDeduplicatesClassTypes(t *testing.T) {
	in := NewInterner()
	intTy := in.Class(ClassID(3), nil)
	a := in.Class(ClassID(7), []TypeID{intTy})
	b := in.Class(ClassID(7), []TypeID{intTy})
	if a != b {
		t.Fatalf("identical instantiations must share a TypeID: %d vs %d", a, b)
	}
}

func TestGenericsAreInvariant(t *testing.T) {
	in := NewInterner()
	intTy := in.Class(ClassID(3), nil)
	objTy := in.Class(ClassID(1), nil)
	arrInt := in.Class(ClassID(7), []TypeID{intTy})
	arrObj := in.Class(ClassID(7), []TypeID{objTy})
	if arrInt == arrObj {
		t.Fatal("Array<Int> and Array<Object> must be distinct types")
	}
}

func TestMetaDiffersFromInstance(t *testing.T) {
	in := NewInterner()
	inst := in.Class(ClassID(4), nil)
	meta := in.Meta(ClassID(4), nil)
	if inst == meta {
		t.Fatal("a class and its metaclass must have distinct types")
	}
}

func TestContainsParam(t *testing.T) {
	in := NewInterner()
	names := source.NewInterner()
	tP := in.Param(OwnerClass, 0, names.Intern("T"))
	arrT := in.Class(ClassID(7), []TypeID{tP})
	if !in.ContainsParam(arrT) {
		t.Fatal("Array<T> contains a parameter reference")
	}
	intTy := in.Class(ClassID(3), nil)
	arrInt := in.Class(ClassID(7), []TypeID{intTy})
	if in.ContainsParam(arrInt) {
		t.Fatal("Array<Int> is fully concrete")
	}
}

func TestStripMethodParamNames(t *testing.T) {
	in := NewInterner()
	names := source.NewInterner()
	v := in.Param(OwnerMethod, 0, names.Intern("V"))
	w := in.Param(OwnerMethod, 0, names.Intern("W"))
	if v == w {
		t.Fatal("differently named references start out distinct")
	}
	if in.StripMethodParamNames(v) != in.StripMethodParamNames(w) {
		t.Fatal("same position must compare equal once names are erased")
	}
	arrV := in.Class(ClassID(7), []TypeID{v})
	arrW := in.Class(ClassID(7), []TypeID{w})
	if in.StripMethodParamNames(arrV) != in.StripMethodParamNames(arrW) {
		t.Fatal("erasure must reach references nested in type arguments")
	}

	// Class-owned parameters keep their names: those are compared after
	// substitution with the receiver's arguments, never positionally.
	tP := in.Param(OwnerClass, 0, names.Intern("T"))
	if in.StripMethodParamNames(tP) != tP {
		t.Fatal("class parameter references must pass through unchanged")
	}
	intTy := in.Class(ClassID(3), nil)
	if in.StripMethodParamNames(intTy) != intTy {
		t.Fatal("concrete types must pass through unchanged")
	}
}

func TestSubstEliminatesParams(t *testing.T) {
	in := NewInterner()
	names := source.NewInterner()
	tP := in.Param(OwnerClass, 0, names.Intern("T"))
	wP := in.Param(OwnerMethod, 0, names.Intern("W"))
	strTy := in.Class(ClassID(5), nil)
	intTy := in.Class(ClassID(3), nil)

	// Fn1<T, W> with T = String, W = Int must become Fn1<String, Int>.
	fn1TW := in.Class(ClassID(9), []TypeID{tP, wP})
	sub := NewSubst(in, []TypeID{strTy}, []TypeID{intTy})
	got := sub.Apply(fn1TW)
	want := in.Class(ClassID(9), []TypeID{strTy, intTy})
	if got != want {
		t.Fatalf("substitution through nested generics failed: got %d, want %d", got, want)
	}
	if in.ContainsParam(got) {
		t.Fatal("substitution left a parameter reference behind")
	}
}

func TestSubstKeepsIdentityWhenConcrete(t *testing.T) {
	in := NewInterner()
	intTy := in.Class(ClassID(3), nil)
	arrInt := in.Class(ClassID(7), []TypeID{intTy})
	sub := NewSubst(in, []TypeID{in.Class(ClassID(5), nil)}, nil)
	if got := sub.Apply(arrInt); got != arrInt {
		t.Fatalf("concrete type must be unchanged, got %d", got)
	}
}

func TestSubstLeavesUnboundParamForValidator(t *testing.T) {
	in := NewInterner()
	names := source.NewInterner()
	wP := in.Param(OwnerMethod, 2, names.Intern("W"))
	sub := NewSubst(in, nil, []TypeID{in.Class(ClassID(3), nil)})
	if got := sub.Apply(wP); got != wP {
		t.Fatalf("out-of-range parameter must survive for the validator, got %d", got)
	}
}
