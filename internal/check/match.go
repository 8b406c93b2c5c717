package check

import (
	"sort"
	"strings"

	"minato/internal/ast"
	"minato/internal/classtable"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/types"
)

func (ck *checker) checkMatch(e *ast.Expr, data ast.MatchData) (*hir.Expr, bool) {
	subject, subjOK := ck.checkExpr(data.Subject)
	if !subjOK {
		// Still walk the arms for their own errors, against no enum.
		for i := range data.Arms {
			ck.checkSeq(data.Arms[i].Body, true)
		}
		return nil, false
	}

	enum, subjArgs, ok := ck.matchedEnum(subject)
	if !ok {
		return nil, false
	}
	sub := types.NewSubst(ck.t.Types, subjArgs, nil)

	covered := make(map[types.ClassID]bool, len(enum.Cases))
	hasElse := false
	arms := make([]hir.MatchArm, 0, len(data.Arms))
	resultT := ck.t.Builtins().NeverType
	armsOK := true

	for i := range data.Arms {
		arm := &data.Arms[i]
		checked, armT, ok := ck.checkArm(arm, enum, sub)
		if !ok {
			armsOK = false
			continue
		}
		if checked.IsElse() {
			hasElse = true
		} else {
			covered[checked.Variant] = true
		}
		unified, uok := ck.unify(resultT, armT)
		if !uok {
			ck.errorf(diag.CheckBranchTypeMismatch, arm.Span,
				"match arms do not unify: earlier arms yield %s, this one yields %s",
				ck.t.FormatType(resultT), ck.t.FormatType(armT)).Emit()
			armsOK = false
			continue
		}
		resultT = unified
		arms = append(arms, checked)
	}

	if !hasElse {
		var missing []string
		for _, caseID := range enum.Cases {
			if !covered[caseID] {
				missing = append(missing, ck.t.ClassName(caseID))
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			ck.errorf(diag.CheckNonExhaustiveMatch, e.Span,
				"match over %s does not cover %s",
				ck.t.ClassName(enum.ID), strings.Join(missing, ", ")).
				WithNote(enum.Span, "enum declared here").Emit()
			armsOK = false
		}
	}
	if !armsOK {
		return nil, false
	}

	return &hir.Expr{
		Kind: hir.ExprMatch,
		Type: resultT,
		Span: e.Span,
		Data: hir.MatchData{Subject: subject, Arms: arms},
	}, true
}

// matchedEnum resolves the subject's static type to the enum whose
// cases the match must cover. Matching on a variant type directly is
// allowed and covers against the owning enum.
func (ck *checker) matchedEnum(subject *hir.Expr) (*classtable.ClassEntry, []types.TypeID, bool) {
	tt, ok := ck.t.Types.Lookup(subject.Type)
	if !ok || tt.Kind != types.KindClass {
		ck.errorf(diag.CheckNotAnEnum, subject.Span,
			"cannot match on %s: not an enum value", ck.t.FormatType(subject.Type)).Emit()
		return nil, nil, false
	}
	entry := ck.t.Get(tt.Class)
	switch {
	case entry == nil:
		ck.errorf(diag.CheckNotAnEnum, subject.Span,
			"cannot match on %s: not an enum value", ck.t.FormatType(subject.Type)).Emit()
		return nil, nil, false
	case entry.IsEnum:
		return entry, ck.t.Types.Args(tt.Args), true
	case entry.IsVariant():
		return ck.t.Get(entry.EnumOwner), ck.t.Types.Args(tt.Args), true
	}
	ck.errorf(diag.CheckNotAnEnum, subject.Span,
		"cannot match on %s: %s is not an enum", ck.t.FormatType(subject.Type), ck.t.ClassName(entry.ID)).Emit()
	return nil, nil, false
}

func (ck *checker) checkArm(arm *ast.MatchArm, enum *classtable.ClassEntry, sub *types.Subst) (hir.MatchArm, types.TypeID, bool) {
	if arm.IsElse {
		ck.pushScope()
		body, bodyT, ok := ck.checkSeq(arm.Body, false)
		ck.popScope()
		if !ok {
			return hir.MatchArm{}, types.NoTypeID, false
		}
		return hir.MatchArm{Variant: types.NoClassID, Body: body, Span: arm.Span}, bodyT, true
	}

	name := ck.t.Names.Intern(arm.Variant)
	variant, found := ck.t.GetByName(name)
	if !found || variant.EnumOwner != enum.ID {
		ck.errorf(diag.CheckUnknownVariant, arm.Span,
			"%s is not a variant of %s", arm.Variant, ck.t.ClassName(enum.ID)).Emit()
		return hir.MatchArm{}, types.NoTypeID, false
	}
	if len(arm.Binders) != len(variant.IVars) {
		ck.errorf(diag.CheckVariantArity, arm.Span,
			"%s has %d field(s), %d binding(s) given", arm.Variant, len(variant.IVars), len(arm.Binders)).
			WithNote(variant.Span, "variant declared here").Emit()
		return hir.MatchArm{}, types.NoTypeID, false
	}

	// Case fields sit after any state the enum itself declares.
	fieldBase := len(ck.t.FieldLayout(variant)) - len(variant.IVars)

	ck.pushScope()
	binders := make([]hir.ArmBinder, 0, len(arm.Binders))
	for i, binderName := range arm.Binders {
		id := ck.t.Names.Intern(binderName)
		typ := sub.Apply(variant.IVars[i].Type)
		decl := ck.declareLocal(id, typ, arm.Span)
		binders = append(binders, hir.ArmBinder{Name: id, Type: typ, Field: fieldBase + i, Slot: decl.index})
	}
	body, bodyT, ok := ck.checkSeq(arm.Body, false)
	ck.popScope()
	if !ok {
		return hir.MatchArm{}, types.NoTypeID, false
	}
	return hir.MatchArm{Variant: variant.ID, Binders: binders, Body: body, Span: arm.Span}, bodyT, true
}
