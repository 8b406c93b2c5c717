package hir

import (
	"minato/internal/classtable"
	"minato/internal/source"
	"minato/internal/types"
)

// ExprKind enumerates typed expression kinds. The tree is close to the
// AST; the checker resolves names to binding sites, attaches a type to
// every node and rewrites closure-captured references (see BindCapture).
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
	// ExprSelf represents the receiver reference.
	ExprSelf
	// ExprVarRef represents a resolved local, parameter or capture read.
	ExprVarRef
	// ExprIVarRef represents an instance variable read with its resolved
	// field index.
	ExprIVarRef
	// ExprConstRef represents a class used as a value; its type is the
	// metaclass type.
	ExprConstRef
	// ExprAssign writes a local or parameter slot.
	ExprAssign
	// ExprIVarAssign writes an instance variable.
	ExprIVarAssign
	// ExprCall represents a resolved method call.
	ExprCall
	// ExprBlock represents a closure literal with its capture list.
	ExprBlock
	// ExprIf represents a conditional expression.
	ExprIf
	// ExprMatch represents exhaustive matching over enum variants.
	ExprMatch
	// ExprReturn represents an early return; the node itself types as
	// Never.
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
	case ExprVarRef:
		return "VarRef"
	case ExprIVarRef:
		return "IVarRef"
	case ExprConstRef:
		return "ConstRef"
	case ExprAssign:
		return "Assign"
	case ExprIVarAssign:
		return "IVarAssign"
	case ExprCall:
		return "Call"
	case ExprBlock:
		return "Block"
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

// Expr is a typed expression node. Type may still mention type
// parameters of the enclosing class or method; monomorphization
// substitutes them away.
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

// BindKind says where a resolved variable lives.
type BindKind uint8

const (
	// BindParam is a method (or block) parameter, indexed by position.
	BindParam BindKind = iota
	// BindLocal is a declared local, indexed into the frame's slot list.
	BindLocal
	// BindCapture is a variable captured by the enclosing closure,
	// indexed into its capture list.
	BindCapture
)

// String returns a short name for the binding kind.
func (k BindKind) String() string {
	switch k {
	case BindParam:
		return "param"
	case BindLocal:
		return "local"
	case BindCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// Binding locates a variable inside the current frame.
type Binding struct {
	Kind  BindKind
	Index int
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

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Name    source.StringID
	Binding Binding
}

// IVarRefData holds data for ExprIVarRef. Field is the index into the
// flattened instance layout (inherited fields first).
type IVarRefData struct {
	Name  source.StringID
	Field int
}

// ConstRefData holds data for ExprConstRef. Args are the class type
// arguments written at the reference site.
type ConstRefData struct {
	Class types.ClassID
	Args  []types.TypeID
}

// AssignData holds data for ExprAssign. Declares reports whether this
// is the binding occurrence of the local.
type AssignData struct {
	Name     source.StringID
	Binding  Binding
	Declares bool
	Value    *Expr
}

// IVarAssignData holds data for ExprIVarAssign.
type IVarAssignData struct {
	Name  source.StringID
	Field int
	Value *Expr
}

// CallData holds data for ExprCall. Method is the registry entry the
// chain walk resolved; TypeArgs bind its method-level type parameters
// and are empty for non-generic methods.
type CallData struct {
	Receiver *Expr
	Method   *classtable.MethodEntry
	Owner    types.ClassID
	TypeArgs []types.TypeID
	Args     []*Expr
}

// BlockParam is one typed closure parameter.
type BlockParam struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
}

// Capture is one variable a closure pulls from its defining frame.
// Source locates the variable in the frame that creates the closure.
type Capture struct {
	Name   source.StringID
	Type   types.TypeID
	Source Binding
}

// BlockData holds data for ExprBlock. The node's Type is the matching
// FnN instantiation.
type BlockData struct {
	Params       []BlockParam
	Captures     []Capture
	CapturesSelf bool
	Body         []*Expr
	Result       types.TypeID
	Locals       []Local
}

// IfData holds data for ExprIf. Else is nil when the branch is absent,
// in which case the whole expression types as Void.
type IfData struct {
	Cond *Expr
	Then []*Expr
	Else []*Expr
}

// MatchArm is one checked clause. Variant is NoClassID for the
// catch-all arm. Binders declare locals in the arm's scope; their slots
// live in the enclosing frame.
type MatchArm struct {
	Variant types.ClassID
	Binders []ArmBinder
	Body    []*Expr
	Span    source.Span
}

// ArmBinder binds one variant field inside a match arm.
type ArmBinder struct {
	Name  source.StringID
	Type  types.TypeID
	Field int
	Slot  int
}

// IsElse reports whether the arm is the catch-all.
func (a *MatchArm) IsElse() bool {
	return a.Variant == types.NoClassID
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

func (IntLitData) exprData()     {}
func (FloatLitData) exprData()   {}
func (BoolLitData) exprData()    {}
func (StringLitData) exprData()  {}
func (SelfData) exprData()       {}
func (VarRefData) exprData()     {}
func (IVarRefData) exprData()    {}
func (ConstRefData) exprData()   {}
func (AssignData) exprData()     {}
func (IVarAssignData) exprData() {}
func (CallData) exprData()       {}
func (BlockData) exprData()      {}
func (IfData) exprData()         {}
func (MatchData) exprData()      {}
func (ReturnData) exprData()     {}
