package ast

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"minato/internal/source"
)

// The parser handoff format: the external parser serializes a Program as
// msgpack and the driver decodes it here. Only Expr needs a custom codec,
// since its payload is an interface; everything else round-trips through the
// generic struct encoder.

// exprWire flattens every Expr payload into one struct so the generic
// msgpack codec can handle it. Child expressions recurse through the
// custom codec on *Expr.
type exprWire struct {
	Kind     uint8
	Span     spanWire
	Int      int64       `msgpack:",omitempty"`
	Float    float64     `msgpack:",omitempty"`
	Bool     bool        `msgpack:",omitempty"`
	Str      string      `msgpack:",omitempty"`
	TypeArgs []*TypeExpr `msgpack:",omitempty"`
	X        *Expr       `msgpack:",omitempty"`
	Exprs    []*Expr     `msgpack:",omitempty"`
	Else     []*Expr     `msgpack:",omitempty"`
	Params   []ParamDef  `msgpack:",omitempty"`
	Arms     []MatchArm  `msgpack:",omitempty"`
}

// spanWire keeps spans compact and independent of source.Span layout.
type spanWire struct {
	File  uint32
	Start uint32
	End   uint32
}

var (
	_ msgpack.CustomEncoder = (*Expr)(nil)
	_ msgpack.CustomDecoder = (*Expr)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	w := exprWire{
		Kind: uint8(e.Kind),
		Span: spanWire{File: uint32(e.Span.File), Start: e.Span.Start, End: e.Span.End},
	}
	switch data := e.Data.(type) {
	case IntLitData:
		w.Int = data.Value
	case FloatLitData:
		w.Float = data.Value
	case BoolLitData:
		w.Bool = data.Value
	case StringLitData:
		w.Str = data.Value
	case SelfData:
	case VarRefData:
		w.Str = data.Name
	case IVarRefData:
		w.Str = data.Name
	case ConstRefData:
		w.Str = data.Name
		w.TypeArgs = data.TypeArgs
	case AssignData:
		w.Str = data.Name
		w.X = data.Value
	case IVarAssignData:
		w.Str = data.Name
		w.X = data.Value
	case CallData:
		w.Str = data.Method
		w.X = data.Receiver
		w.Exprs = data.Args
		w.TypeArgs = data.TypeArgs
	case BlockData:
		w.Params = data.Params
		w.Exprs = data.Body
	case IfData:
		w.X = data.Cond
		w.Exprs = data.Then
		w.Else = data.Else
	case MatchData:
		w.X = data.Subject
		w.Arms = data.Arms
	case ReturnData:
		w.X = data.Value
	default:
		return fmt.Errorf("ast: cannot encode expression kind %s", e.Kind)
	}
	return enc.Encode(w)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w exprWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	expr, err := w.toExpr()
	if err != nil {
		return err
	}
	*e = *expr
	return nil
}

func (w *exprWire) toExpr() (*Expr, error) {
	span := spanFromWire(w.Span)
	switch ExprKind(w.Kind) {
	case ExprIntLit:
		return NewIntLit(span, w.Int), nil
	case ExprFloatLit:
		return NewFloatLit(span, w.Float), nil
	case ExprBoolLit:
		return NewBoolLit(span, w.Bool), nil
	case ExprStringLit:
		return NewStringLit(span, w.Str), nil
	case ExprSelf:
		return NewSelf(span), nil
	case ExprVarRef:
		return NewVarRef(span, w.Str), nil
	case ExprIVarRef:
		return NewIVarRef(span, w.Str), nil
	case ExprConstRef:
		return NewConstRef(span, w.Str, w.TypeArgs...), nil
	case ExprAssign:
		return NewAssign(span, w.Str, w.X), nil
	case ExprIVarAssign:
		return NewIVarAssign(span, w.Str, w.X), nil
	case ExprCall:
		return NewCall(span, w.X, w.Str, w.TypeArgs, w.Exprs), nil
	case ExprBlock:
		return NewBlock(span, w.Params, w.Exprs), nil
	case ExprIf:
		return NewIf(span, w.X, w.Exprs, w.Else), nil
	case ExprMatch:
		return NewMatch(span, w.X, w.Arms), nil
	case ExprReturn:
		return NewReturn(span, w.X), nil
	}
	return nil, fmt.Errorf("ast: cannot decode expression kind %d", w.Kind)
}

func spanFromWire(w spanWire) source.Span {
	return source.Span{File: source.FileID(w.File), Start: w.Start, End: w.End}
}

// EncodeProgram writes the parser handoff dump for p.
func EncodeProgram(w io.Writer, p *Program) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(p)
}

// DecodeProgram reads a parser handoff dump.
func DecodeProgram(r io.Reader) (*Program, error) {
	dec := msgpack.NewDecoder(r)
	p := &Program{}
	if err := dec.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}
