package diag

import (
	"fmt"
)

// Code is a compact numeric identifier with a stable string form.
type Code uint16

const (
	UnknownCode Code = 0

	// Reserved for the external lexer/parser (1000-2999). The core never
	// emits these; they exist so a surrounding driver can merge bags from
	// both sides of the parse boundary without collisions.
	LexInfo Code = 1000
	SynInfo Code = 2000

	// Class table construction (3000-3999).
	TableInfo            Code = 3000
	TableUnknownClass    Code = 3001
	TableCyclicInherit   Code = 3002
	TableWrongTypeArity  Code = 3003
	TableInvalidOverride Code = 3004
	TableDuplicateClass  Code = 3005
	TableDuplicateMethod Code = 3006
	TableDuplicateIvar   Code = 3007
	TableDuplicateTyparam Code = 3008
	TableEnumEmptyCases  Code = 3009

	// Method body checking (4000-4999).
	CheckInfo               Code = 4000
	CheckNoSuchMethod       Code = 4001
	CheckArityMismatch      Code = 4002
	CheckTypeMismatch       Code = 4003
	CheckNonExhaustiveMatch Code = 4004
	CheckUndefinedVariable  Code = 4005
	CheckWrongTypeArity     Code = 4006
	CheckUnknownClass       Code = 4007
	CheckNotAnEnum          Code = 4008
	CheckUnknownVariant     Code = 4009
	CheckVariantArity       Code = 4010
	CheckBlockExpected      Code = 4011
	CheckConditionNotBool   Code = 4012
	CheckBranchTypeMismatch Code = 4013
	CheckReturnTypeMismatch Code = 4014
	CheckCaptureAssign      Code = 4015
	CheckReturnInBlock      Code = 4016
	CheckParamAssign        Code = 4017

	// Internal invariant violations (9000-9999). Reaching one of these
	// means the checker let something inconsistent through; it is a
	// compiler defect, never a user error.
	InternalError           Code = 9000
	InternalUnresolvedParam Code = 9001
	InternalDanglingIndex   Code = 9002
)

// ID returns the rendered identifier, e.g. "TBL3001" or "CHK4002".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TBL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CHK%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

var codeDescription = map[Code]string{
	UnknownCode: "unknown error",

	LexInfo: "lexer diagnostic",
	SynInfo: "parser diagnostic",

	TableInfo:             "class table diagnostic",
	TableUnknownClass:     "unknown class",
	TableCyclicInherit:    "cyclic inheritance",
	TableWrongTypeArity:   "wrong number of type arguments",
	TableInvalidOverride:  "invalid method override",
	TableDuplicateClass:   "duplicate class definition",
	TableDuplicateMethod:  "duplicate method definition",
	TableDuplicateIvar:    "duplicate instance variable",
	TableDuplicateTyparam: "duplicate type parameter",
	TableEnumEmptyCases:   "enum without cases",

	CheckInfo:               "type check diagnostic",
	CheckNoSuchMethod:       "no such method",
	CheckArityMismatch:      "wrong number of arguments",
	CheckTypeMismatch:       "type mismatch",
	CheckNonExhaustiveMatch: "non-exhaustive match",
	CheckUndefinedVariable:  "undefined variable",
	CheckWrongTypeArity:     "wrong number of type arguments",
	CheckUnknownClass:       "unknown class",
	CheckNotAnEnum:          "match subject is not an enum",
	CheckUnknownVariant:     "unknown enum variant",
	CheckVariantArity:       "wrong number of variant bindings",
	CheckBlockExpected:      "block expected",
	CheckConditionNotBool:   "condition must be Bool",
	CheckBranchTypeMismatch: "branch types do not unify",
	CheckReturnTypeMismatch: "return type mismatch",
	CheckCaptureAssign:      "cannot assign to a captured variable",
	CheckReturnInBlock:      "return is not allowed inside a block",
	CheckParamAssign:        "cannot assign to a parameter",

	InternalError:           "internal compiler error",
	InternalUnresolvedParam: "unresolved type parameter escaped the checker",
	InternalDanglingIndex:   "dangling method or field index",
}
