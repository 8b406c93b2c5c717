package classtable

import (
	"minato/internal/ast"
	"minato/internal/diag"
	"minato/internal/types"
)

// wellFormedness is pass 2: resolve every type mentioned in a signature
// (instance variables, enum case fields, method parameters and returns),
// derive constructors, then check overrides. Runs only after every class
// is indexed and every superclass link is resolved and acyclic.
func (b *builder) wellFormedness() {
	b.t.All(func(c *ClassEntry) {
		if c.Builtin {
			return
		}
		b.resolveIVars(c)
		b.resolveMethods(c)
	})
	b.t.All(func(c *ClassEntry) {
		if c.Builtin {
			return
		}
		b.deriveNew(c)
	})
	b.t.All(func(c *ClassEntry) {
		if c.Builtin {
			return
		}
		b.checkOverrides(c)
	})
}

func (b *builder) resolveIVars(c *ClassEntry) {
	var fields []ast.FieldDef
	switch {
	case c.IsVariant():
		fields = b.variantDef(c).Fields
	case c.def != nil:
		fields = c.def.IVars
	}
	for i := range fields {
		f := &fields[i]
		name := b.t.Names.Intern(f.Name)
		if prev, _ := c.FindIVar(name); prev != nil {
			b.errorf(diag.TableDuplicateIvar, f.Span,
				"instance variable @%s is already declared", f.Name).
				WithNote(prev.Span, "previous declaration here").Emit()
			continue
		}
		ty, ok := b.t.ResolveTypeExpr(f.Type, c, nil, b.reporterChecked())
		if !ok {
			ty = types.NoTypeID
		}
		c.IVars = append(c.IVars, IVarEntry{Name: name, Type: ty, Span: f.Span})
	}
}

func (b *builder) variantDef(c *ClassEntry) *ast.CaseDef {
	enum := b.t.Get(c.EnumOwner)
	if enum == nil || enum.def == nil {
		return &ast.CaseDef{}
	}
	for i := range enum.def.Cases {
		if b.t.Names.Intern(enum.def.Cases[i].Name) == c.Name {
			return &enum.def.Cases[i]
		}
	}
	return &ast.CaseDef{}
}

func (b *builder) resolveMethods(c *ClassEntry) {
	if c.def == nil {
		return
	}
	for _, def := range c.def.Methods {
		b.resolveMethod(c, def)
	}
}

func (b *builder) resolveMethod(c *ClassEntry, def *ast.MethodDef) {
	name := b.t.Names.Intern(def.Name)
	pool := c.Methods
	if def.ClassLevel {
		pool = c.ClassMethods
	}
	if prev, exists := pool[name]; exists {
		b.errorf(diag.TableDuplicateMethod, def.Span,
			"method %s is already defined on %s", def.Name, b.t.ClassName(c.ID)).
			WithNote(prev.Span, "previous definition here").Emit()
		return
	}

	entry := &MethodEntry{
		Name:       name,
		Owner:      c.ID,
		ClassLevel: def.ClassLevel,
		Builtin:    def.Builtin,
		Span:       def.Span,
		Body:       def.Body,
		SigOK:      true,
		def:        def,
	}
	for _, tp := range def.TypeParams {
		tpID := b.t.Names.Intern(tp)
		if indexOfName(entry.TypeParams, tpID) >= 0 {
			b.errorf(diag.TableDuplicateTyparam, def.Span,
				"duplicate type parameter %s in method %s", tp, def.Name).Emit()
			entry.SigOK = false
			continue
		}
		entry.TypeParams = append(entry.TypeParams, tpID)
	}

	for i := range def.Params {
		p := &def.Params[i]
		if p.Type == nil {
			// Method parameters are always annotated; only block
			// parameters may omit the type.
			b.errorf(diag.TableUnknownClass, p.Span,
				"parameter %s of method %s needs a type annotation", p.Name, def.Name).Emit()
			entry.SigOK = false
			continue
		}
		ty, ok := b.t.ResolveTypeExpr(p.Type, c, entry.TypeParams, b.reporterChecked())
		if !ok {
			entry.SigOK = false
			ty = types.NoTypeID
		}
		entry.Params = append(entry.Params, ParamEntry{
			Name: b.t.Names.Intern(p.Name),
			Type: ty,
			Span: p.Span,
		})
	}

	if def.Return == nil {
		entry.Return = b.t.builtins.VoidType
	} else {
		ret, ok := b.t.ResolveTypeExpr(def.Return, c, entry.TypeParams, b.reporterChecked())
		if !ok {
			entry.SigOK = false
			ret = types.NoTypeID
		}
		entry.Return = ret
	}
	pool[name] = entry
}

// deriveNew installs the synthetic constructor: parameters mirror
// `initialize` when the class declares one, or the case fields for an
// enum variant.
func (b *builder) deriveNew(c *ClassEntry) {
	if c.IsEnum {
		// The enum itself is abstract; only its cases construct.
		return
	}
	var params []ParamEntry
	switch {
	case c.IsVariant():
		params = append(params, ivarsAsParams(c.IVars)...)
	default:
		// Inherited initializers count too; the lookup substitutes
		// superclass type arguments into the parameter types.
		if sig, ok := b.t.LookupMethod(b.t.InstanceType(c), b.t.Names.Intern("initialize")); ok {
			for i, p := range sig.Method.Params {
				params = append(params, ParamEntry{Name: p.Name, Type: sig.Params[i], Span: p.Span})
			}
		}
	}
	b.t.addSyntheticNew(c, params)
}

func ivarsAsParams(ivars []IVarEntry) []ParamEntry {
	params := make([]ParamEntry, 0, len(ivars))
	for _, iv := range ivars {
		params = append(params, ParamEntry{Name: iv.Name, Type: iv.Type, Span: iv.Span})
	}
	return params
}

// checkOverrides enforces the fixed variance rule on every method that
// shadows one on the superclass chain: parameter types invariant,
// return type covariant, type-parameter count equal. This preserves
// call-site soundness: any call checked against the ancestor signature
// stays valid against the override.
func (b *builder) checkOverrides(c *ClassEntry) {
	super, ok := b.t.SuperclassType(b.t.InstanceType(c))
	if !ok {
		return
	}
	metaSuper, _ := b.t.SuperclassType(b.t.MetaType(c))
	for name, m := range c.Methods {
		if parent, found := b.t.LookupMethod(super, name); found {
			b.checkOverride(c, m, parent)
		}
	}
	if metaSuper == types.NoTypeID {
		return
	}
	for name, m := range c.ClassMethods {
		if name == b.t.Names.Intern("new") {
			continue // every class redefines its own constructor
		}
		if parent, found := b.t.LookupMethod(metaSuper, name); found {
			b.checkOverride(c, m, parent)
		}
	}
}

func (b *builder) checkOverride(c *ClassEntry, m *MethodEntry, parent Signature) {
	if !m.SigOK || !parent.Method.SigOK {
		return
	}
	methodName := b.t.Names.MustLookup(m.Name)
	if len(m.Params) != len(parent.Params) {
		b.errorf(diag.TableInvalidOverride, m.Span,
			"%s#%s overrides a method with %d parameter(s), not %d",
			b.t.ClassName(c.ID), methodName, len(parent.Params), len(m.Params)).
			WithNote(parent.Method.Span, "overridden method declared here").Emit()
		m.SigOK = false
		return
	}
	if len(m.TypeParams) != len(parent.Method.TypeParams) {
		b.errorf(diag.TableInvalidOverride, m.Span,
			"%s#%s changes the overridden method's type-parameter count",
			b.t.ClassName(c.ID), methodName).
			WithNote(parent.Method.Span, "overridden method declared here").Emit()
		m.SigOK = false
		return
	}
	// Method type parameters are positional; an override may rename them
	// freely, so both signatures are compared with those names erased.
	strip := b.t.Types.StripMethodParamNames
	for i := range m.Params {
		if strip(m.Params[i].Type) != strip(parent.Params[i]) {
			b.errorf(diag.TableInvalidOverride, m.Params[i].Span,
				"parameter %s of %s#%s must stay %s (parameter types are invariant), got %s",
				b.t.Names.MustLookup(m.Params[i].Name), b.t.ClassName(c.ID), methodName,
				b.t.FormatType(parent.Params[i]), b.t.FormatType(m.Params[i].Type)).
				WithNote(parent.Method.Span, "overridden method declared here").Emit()
			m.SigOK = false
			return
		}
	}
	if !b.t.Conforms(strip(m.Return), strip(parent.Return)) {
		b.errorf(diag.TableInvalidOverride, m.Span,
			"%s#%s must return %s or a subtype, got %s",
			b.t.ClassName(c.ID), methodName,
			b.t.FormatType(parent.Return), b.t.FormatType(m.Return)).
			WithNote(parent.Method.Span, "overridden method declared here").Emit()
		m.SigOK = false
	}
}
