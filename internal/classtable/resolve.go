package classtable

import (
	"fmt"

	"fortio.org/safecast"

	"minato/internal/ast"
	"minato/internal/diag"
	"minato/internal/source"
	"minato/internal/types"
)

// maxChainDepth bounds superclass walks so a cycle that slipped past
// detection cannot hang the compiler.
const maxChainDepth = 256

// ResolveTypeExpr resolves an unresolved type mention inside class
// (and, when methodTyparams is non-nil, inside a method declaring those
// parameters). Table-pass error codes are used; the checker calls
// ResolveTypeExprWith to report under its own codes.
func (t *Table) ResolveTypeExpr(te *ast.TypeExpr, class *ClassEntry, methodTyparams []source.StringID, r diag.Reporter) (types.TypeID, bool) {
	return t.ResolveTypeExprWith(te, class, methodTyparams, r, diag.TableUnknownClass, diag.TableWrongTypeArity)
}

// ResolveTypeExprWith is ResolveTypeExpr with caller-chosen error codes.
func (t *Table) ResolveTypeExprWith(te *ast.TypeExpr, class *ClassEntry, methodTyparams []source.StringID, r diag.Reporter, unknownCode, arityCode diag.Code) (types.TypeID, bool) {
	name := t.Names.Intern(te.Name)

	// Method type parameters shadow class ones.
	if idx := indexOfName(methodTyparams, name); idx >= 0 {
		return t.resolveParamMention(te, types.OwnerMethod, idx, name, r, arityCode)
	}
	if class != nil {
		if idx := indexOfName(class.TypeParams, name); idx >= 0 {
			return t.resolveParamMention(te, types.OwnerClass, idx, name, r, arityCode)
		}
	}

	entry, ok := t.GetByName(name)
	if !ok {
		diag.ReportError(r, unknownCode, te.Span,
			fmt.Sprintf("unknown class %q", te.Name)).Emit()
		return types.NoTypeID, false
	}
	if len(te.Args) != entry.Arity() {
		diag.ReportError(r, arityCode, te.Span,
			fmt.Sprintf("%s expects %d type argument(s), got %d", te.Name, entry.Arity(), len(te.Args))).
			WithNote(entry.Span, "class declared here").Emit()
		return types.NoTypeID, false
	}
	args := make([]types.TypeID, 0, len(te.Args))
	allOK := true
	for _, argExpr := range te.Args {
		arg, ok := t.ResolveTypeExprWith(argExpr, class, methodTyparams, r, unknownCode, arityCode)
		if !ok {
			allOK = false
			continue
		}
		args = append(args, arg)
	}
	if !allOK {
		return types.NoTypeID, false
	}
	return t.Types.Class(entry.ID, args), true
}

func (t *Table) resolveParamMention(te *ast.TypeExpr, owner types.ParamOwner, idx int, name source.StringID, r diag.Reporter, arityCode diag.Code) (types.TypeID, bool) {
	if len(te.Args) != 0 {
		diag.ReportError(r, arityCode, te.Span,
			fmt.Sprintf("type parameter %s takes no type arguments", te.Name)).Emit()
		return types.NoTypeID, false
	}
	idx16, err := safecast.Conv[uint16](idx)
	if err != nil {
		panic(fmt.Errorf("type parameter index overflow: %w", err))
	}
	return t.Types.Param(owner, idx16, name), true
}

func indexOfName(names []source.StringID, name source.StringID) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// LookupMethod resolves a method against the receiver's static type:
// nearest wins along the single-inheritance chain, class-level methods
// for metaclass receivers. The returned signature already has the
// receiver's class type arguments substituted in; method type
// parameters remain for the call site to bind.
func (t *Table) LookupMethod(recv types.TypeID, name source.StringID) (Signature, bool) {
	cur := recv
	for depth := 0; depth < maxChainDepth; depth++ {
		tt, ok := t.Types.Lookup(cur)
		if !ok || (tt.Kind != types.KindClass && tt.Kind != types.KindMeta) {
			return Signature{}, false
		}
		c := t.Get(tt.Class)
		if c == nil {
			return Signature{}, false
		}
		var m *MethodEntry
		if tt.Kind == types.KindMeta {
			m = c.ClassMethods[name]
		} else {
			m = c.Methods[name]
		}
		if m != nil {
			sub := types.NewSubst(t.Types, t.Types.Args(tt.Args), nil)
			sig := Signature{Method: m, Owner: c.ID, Return: sub.Apply(m.Return)}
			if len(m.Params) > 0 {
				sig.Params = make([]types.TypeID, len(m.Params))
				for i, p := range m.Params {
					sig.Params[i] = sub.Apply(p.Type)
				}
			}
			return sig, true
		}
		next, ok := t.SuperclassType(cur)
		if !ok {
			return Signature{}, false
		}
		cur = next
	}
	return Signature{}, false
}

// Conforms implements nominal subtyping: sub <= super when they are the
// same type, when sub is Never, when super is Object, or when super
// appears (exactly, generics invariant) on sub's superclass chain.
func (t *Table) Conforms(sub, super types.TypeID) bool {
	if sub == super {
		return true
	}
	st, ok := t.Types.Lookup(sub)
	if !ok {
		return false
	}
	if st.Kind == types.KindClass && st.Class == t.builtins.Never {
		return true
	}
	if st.Kind != types.KindClass && st.Kind != types.KindMeta {
		// Type parameters conform only to themselves (and Object).
		return super == t.builtins.ObjectType
	}
	if super == t.builtins.ObjectType {
		return true
	}
	cur := sub
	for depth := 0; depth < maxChainDepth; depth++ {
		next, ok := t.SuperclassType(cur)
		if !ok {
			return false
		}
		if next == super {
			return true
		}
		cur = next
	}
	return false
}

// NearestCommonAncestor names the closest type both a and b conform to.
// Distinct generic instantiations meet at Object, never at a partially
// substituted ancestor.
func (t *Table) NearestCommonAncestor(a, b types.TypeID) (types.TypeID, bool) {
	if a == b {
		return a, true
	}
	aChain := t.ancestry(a)
	if aChain == nil {
		return types.NoTypeID, false
	}
	cur := b
	for depth := 0; depth < maxChainDepth; depth++ {
		for _, anc := range aChain {
			if anc == cur {
				return cur, true
			}
		}
		next, ok := t.SuperclassType(cur)
		if !ok {
			if cur != t.builtins.ObjectType {
				cur = t.builtins.ObjectType
				continue
			}
			return types.NoTypeID, false
		}
		cur = next
	}
	return types.NoTypeID, false
}

// ancestry returns a's chain including a itself, ending at Object.
// Nil for anything that is not a class or metaclass type.
func (t *Table) ancestry(a types.TypeID) []types.TypeID {
	tt, ok := t.Types.Lookup(a)
	if !ok || (tt.Kind != types.KindClass && tt.Kind != types.KindMeta) {
		return nil
	}
	chain := []types.TypeID{a}
	cur := a
	for depth := 0; depth < maxChainDepth; depth++ {
		next, ok := t.SuperclassType(cur)
		if !ok {
			break
		}
		chain = append(chain, next)
		cur = next
	}
	if cur != t.builtins.ObjectType {
		chain = append(chain, t.builtins.ObjectType)
	}
	return chain
}
