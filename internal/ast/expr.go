package ast

import (
	"minato/internal/source"
)

// ExprKind enumerates untyped expression kinds.
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
	// ExprSelf represents the receiver reference `self`.
	ExprSelf
	// ExprVarRef represents a local variable or parameter reference.
	ExprVarRef
	// ExprIVarRef represents an instance variable read (@name).
	ExprIVarRef
	// ExprConstRef represents a class reference used as a value (`A` in
	// `A.foo`). Enum variants are referenced the same way.
	ExprConstRef
	// ExprAssign represents `name = value`; the first assignment in a
	// scope declares the variable.
	ExprAssign
	// ExprIVarAssign represents `@name = value`.
	ExprIVarAssign
	// ExprCall represents a method call, optionally with explicit type
	// arguments. A nil receiver means an implicit call on self.
	ExprCall
	// ExprBlock represents a closure literal.
	ExprBlock
	// ExprIf represents a conditional expression.
	ExprIf
	// ExprMatch represents pattern matching over an enum value.
	ExprMatch
	// ExprReturn represents an explicit return.
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

// Expr is an untyped expression node.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData // Kind-specific payload
}

// ExprData is the interface for expression-specific data.
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

// SelfData holds data for ExprSelf.
type SelfData struct{}

// StringLitData holds data for ExprStringLit.
type StringLitData struct {
	Value string
}

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Name string
}

// IVarRefData holds data for ExprIVarRef.
type IVarRefData struct {
	Name string
}

// ConstRefData holds data for ExprConstRef. TypeArgs carries explicit
// class type arguments, as in `Pair<Int, Bool>.new`.
type ConstRefData struct {
	Name     string
	TypeArgs []*TypeExpr
}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Name  string
	Value *Expr
}

// IVarAssignData holds data for ExprIVarAssign.
type IVarAssignData struct {
	Name  string
	Value *Expr
}

// CallData holds data for ExprCall.
type CallData struct {
	Receiver *Expr // nil for implicit self
	Method   string
	TypeArgs []*TypeExpr
	Args     []*Expr
}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Params []ParamDef
	Body   []*Expr
}

// IfData holds data for ExprIf.
type IfData struct {
	Cond *Expr
	Then []*Expr
	Else []*Expr
}

// MatchArm is one clause of a match expression. IsElse marks the
// catch-all arm; Binders name the variant's fields in declaration order.
type MatchArm struct {
	Variant string
	Binders []string
	Body    []*Expr
	IsElse  bool
	Span    source.Span
}

// MatchData holds data for ExprMatch.
type MatchData struct {
	Subject *Expr
	Arms    []MatchArm
}

// ReturnData holds data for ExprReturn. A nil value returns Void.
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


// Constructors. The external parser (and tests) build nodes through
// these so the Kind/Data pairing stays consistent.

func NewIntLit(span source.Span, v int64) *Expr {
	return &Expr{Kind: ExprIntLit, Span: span, Data: IntLitData{Value: v}}
}

func NewFloatLit(span source.Span, v float64) *Expr {
	return &Expr{Kind: ExprFloatLit, Span: span, Data: FloatLitData{Value: v}}
}

func NewBoolLit(span source.Span, v bool) *Expr {
	return &Expr{Kind: ExprBoolLit, Span: span, Data: BoolLitData{Value: v}}
}

func NewStringLit(span source.Span, v string) *Expr {
	return &Expr{Kind: ExprStringLit, Span: span, Data: StringLitData{Value: v}}
}

func NewSelf(span source.Span) *Expr {
	return &Expr{Kind: ExprSelf, Span: span, Data: SelfData{}}
}

func NewVarRef(span source.Span, name string) *Expr {
	return &Expr{Kind: ExprVarRef, Span: span, Data: VarRefData{Name: name}}
}

func NewIVarRef(span source.Span, name string) *Expr {
	return &Expr{Kind: ExprIVarRef, Span: span, Data: IVarRefData{Name: name}}
}

func NewConstRef(span source.Span, name string, typeArgs ...*TypeExpr) *Expr {
	return &Expr{Kind: ExprConstRef, Span: span, Data: ConstRefData{Name: name, TypeArgs: typeArgs}}
}

func NewAssign(span source.Span, name string, value *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Span: span, Data: AssignData{Name: name, Value: value}}
}

func NewIVarAssign(span source.Span, name string, value *Expr) *Expr {
	return &Expr{Kind: ExprIVarAssign, Span: span, Data: IVarAssignData{Name: name, Value: value}}
}

func NewCall(span source.Span, recv *Expr, method string, typeArgs []*TypeExpr, args []*Expr) *Expr {
	return &Expr{Kind: ExprCall, Span: span, Data: CallData{Receiver: recv, Method: method, TypeArgs: typeArgs, Args: args}}
}

func NewBlock(span source.Span, params []ParamDef, body []*Expr) *Expr {
	return &Expr{Kind: ExprBlock, Span: span, Data: BlockData{Params: params, Body: body}}
}

func NewIf(span source.Span, cond *Expr, then, els []*Expr) *Expr {
	return &Expr{Kind: ExprIf, Span: span, Data: IfData{Cond: cond, Then: then, Else: els}}
}

func NewMatch(span source.Span, subject *Expr, arms []MatchArm) *Expr {
	return &Expr{Kind: ExprMatch, Span: span, Data: MatchData{Subject: subject, Arms: arms}}
}

func NewReturn(span source.Span, value *Expr) *Expr {
	return &Expr{Kind: ExprReturn, Span: span, Data: ReturnData{Value: value}}
}
