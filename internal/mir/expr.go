package mir

import (
	"minato/internal/source"
	"minato/internal/types"
)

// ExprKind enumerates lowered expression kinds. Name resolution is
// gone: variables are parameter positions or local slots, instance
// state is field indices, dynamic dispatch is a vtable slot.
type ExprKind uint8

const (
	// ExprIntLit represents an integer literal.
	ExprIntLit ExprKind = iota
	// ExprFloatLit represents a floating-point literal.
	ExprFloatLit
	// ExprBoolLit represents true/false.
	ExprBoolLit
	// ExprStringLit represents a string literal.
	ExprStringLit
	// ExprSelf represents the receiver.
	ExprSelf
	// ExprParamRef reads a parameter by position.
	ExprParamRef
	// ExprLocalRef reads a local slot.
	ExprLocalRef
	// ExprLocalSet writes a local slot.
	ExprLocalSet
	// ExprFieldGet reads a field of an object.
	ExprFieldGet
	// ExprFieldSet writes a field of an object.
	ExprFieldSet
	// ExprCallVirtual dispatches through the receiver's vtable slot.
	ExprCallVirtual
	// ExprCallDirect calls a known method without dispatch: statics,
	// generic-method instantiations and builtin primitives.
	ExprCallDirect
	// ExprNew allocates an instantiation and initializes it.
	ExprNew
	// ExprMakeClosure allocates a closure class instance, evaluating
	// the captured values into its fields.
	ExprMakeClosure
	// ExprClassRef evaluates to a class object, for the rare case
	// where one is used as a value rather than a call receiver.
	ExprClassRef
	// ExprIf represents a conditional.
	ExprIf
	// ExprMatch branches on an enum value's variant tag.
	ExprMatch
	// ExprReturn leaves the enclosing method.
	ExprReturn
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprIntLit:
		return "IntLit"
	case ExprFloatLit:
		return "FloatLit"
	case ExprBoolLit:
		return "BoolLit"
	case ExprStringLit:
		return "StringLit"
	case ExprSelf:
		return "Self"
	case ExprParamRef:
		return "ParamRef"
	case ExprLocalRef:
		return "LocalRef"
	case ExprLocalSet:
		return "LocalSet"
	case ExprFieldGet:
		return "FieldGet"
	case ExprFieldSet:
		return "FieldSet"
	case ExprCallVirtual:
		return "CallVirtual"
	case ExprCallDirect:
		return "CallDirect"
	case ExprNew:
		return "New"
	case ExprMakeClosure:
		return "MakeClosure"
	case ExprClassRef:
		return "ClassRef"
	case ExprIf:
		return "If"
	case ExprMatch:
		return "Match"
	case ExprReturn:
		return "Return"
	default:
		return "Unknown"
	}
}

// Expr is a lowered expression node; Type is always concrete.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific payloads.
type ExprData interface {
	exprData()
}

// IntLitData holds data for ExprIntLit.
type IntLitData struct {
	Value int64
}

// FloatLitData holds data for ExprFloatLit.
type FloatLitData struct {
	Value float64
}

// BoolLitData holds data for ExprBoolLit.
type BoolLitData struct {
	Value bool
}

// StringLitData holds data for ExprStringLit.
type StringLitData struct {
	Value string
}

// SelfData holds data for ExprSelf.
type SelfData struct{}

// ParamRefData holds data for ExprParamRef.
type ParamRefData struct {
	Index int
}

// LocalRefData holds data for ExprLocalRef.
type LocalRefData struct {
	Slot int
}

// LocalSetData holds data for ExprLocalSet.
type LocalSetData struct {
	Slot  int
	Value *Expr
}

// FieldGetData holds data for ExprFieldGet.
type FieldGetData struct {
	Object *Expr
	Field  int
}

// FieldSetData holds data for ExprFieldSet.
type FieldSetData struct {
	Object *Expr
	Field  int
	Value  *Expr
}

// CallVirtualData holds data for ExprCallVirtual. Slot indexes the
// vtable of the receiver's static class; every subclass keeps the
// override at the same slot.
type CallVirtualData struct {
	Receiver *Expr
	Slot     int
	Args     []*Expr
}

// CallDirectData holds data for ExprCallDirect. Receiver is nil for
// class-level targets.
type CallDirectData struct {
	Receiver *Expr
	Target   *Method
	Args     []*Expr
}

// NewData holds data for ExprNew. For classes with an `initialize`,
// Init runs right after allocation with Args; for enum variants the
// arguments fill the fields positionally and Init is nil.
type NewData struct {
	Class *Class
	Init  *Method
	Args  []*Expr
}

// MakeClosureData holds data for ExprMakeClosure. Captures align with
// the closure class's fields.
type MakeClosureData struct {
	Class    *Class
	Captures []*Expr
}

// ClassRefData holds data for ExprClassRef.
type ClassRefData struct {
	Class *Class
}

// IfData holds data for ExprIf.
type IfData struct {
	Cond *Expr
	Then []*Expr
	Else []*Expr
}

// MatchArm is one lowered arm. Tag is the variant's index in the
// enum's case list, -1 for the catch-all. Binders copy variant fields
// into local slots before the body runs.
type MatchArm struct {
	Tag     int
	Binders []ArmBinder
	Body    []*Expr
}

// ArmBinder moves one variant field into a local slot.
type ArmBinder struct {
	Field int
	Slot  int
}

// MatchData holds data for ExprMatch.
type MatchData struct {
	Subject *Expr
	Arms    []MatchArm
}

// ReturnData holds data for ExprReturn. Value is nil for a bare return.
type ReturnData struct {
	Value *Expr
}

func (IntLitData) exprData()      {}
func (FloatLitData) exprData()    {}
func (BoolLitData) exprData()     {}
func (StringLitData) exprData()   {}
func (SelfData) exprData()        {}
func (ParamRefData) exprData()    {}
func (LocalRefData) exprData()    {}
func (LocalSetData) exprData()    {}
func (FieldGetData) exprData()    {}
func (FieldSetData) exprData()    {}
func (CallVirtualData) exprData() {}
func (CallDirectData) exprData()  {}
func (NewData) exprData()         {}
func (MakeClosureData) exprData() {}
func (ClassRefData) exprData()    {}
func (IfData) exprData()          {}
func (MatchData) exprData()       {}
func (ReturnData) exprData()      {}
