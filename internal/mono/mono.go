// Package mono lowers the checked tree to the backend representation.
// Every generic class and method is stamped out once per distinct
// argument list, closures become synthesized classes, and dynamic
// dispatch turns into vtable slots.
package mono

import (
	"fmt"
	"strings"

	"minato/internal/classtable"
	"minato/internal/diag"
	"minato/internal/hir"
	"minato/internal/mir"
	"minato/internal/source"
	"minato/internal/types"
)

// Options configures a lowering run.
type Options struct {
	// Program is the checked whole program. Its table must be sealed.
	Program *hir.Program
	// Reporter receives internal-invariant diagnostics. Nil means drop.
	Reporter diag.Reporter
	// Recorder optionally seeds the instantiations the checker saw with
	// concrete arguments. The lowering walk discovers the rest.
	Recorder *Recorder
}

// Lower monomorphizes the program. The boolean is false when an
// internal invariant broke; the returned program is then partial and
// must not reach a backend.
func Lower(opts Options) (*mir.Program, bool) {
	p := opts.Program
	r := opts.Reporter
	if r == nil {
		r = diag.NopReporter{}
	}
	m := &mono{
		t:        p.Table,
		in:       p.Table.Types,
		names:    p.Table.Names,
		reporter: r,
		out:      &mir.Program{},
		classes:  make(map[classKey]*mir.Class),
		methods:  make(map[methodKey]*mir.Method),
		bodies:   make(map[bodyKey]*hir.Method, len(p.Methods)),
	}
	for _, hm := range p.Methods {
		m.bodies[bodyKey{hm.Entry.Owner, hm.Entry.Name, hm.Entry.ClassLevel}] = hm
	}
	m.seed(opts.Recorder)
	m.drain()
	m.wireEntry()
	return m.out, !m.failed
}

// classKey identifies one class instantiation.
type classKey struct {
	src  types.ClassID
	args types.ArgsID
}

// methodKey identifies one generic-method instantiation.
type methodKey struct {
	class      mir.InstanceID
	name       source.StringID
	classLevel bool
	args       types.ArgsID
}

// bodyKey locates the checked body of a declared method.
type bodyKey struct {
	owner      types.ClassID
	name       source.StringID
	classLevel bool
}

// work is one method body waiting to be lowered under a substitution.
type work struct {
	target *mir.Method
	body   *hir.Method
	sub    *types.Subst
}

type mono struct {
	t        *classtable.Table
	in       *types.Interner
	names    *source.Interner
	reporter diag.Reporter

	out     *mir.Program
	classes map[classKey]*mir.Class
	methods map[methodKey]*mir.Method
	bodies  map[bodyKey]*hir.Method

	queue    []work
	blockSeq int
	failed   bool
}

// seed requests the roots. With a Main class the entry point alone
// drives the closure; otherwise every non-generic user class is a root
// so the output stays useful as a library.
func (m *mono) seed(rec *Recorder) {
	if main, ok := m.t.GetByName(m.names.Intern("Main")); ok && main.Arity() == 0 {
		m.instantiateClass(main.ID, nil)
	} else {
		m.t.All(func(c *classtable.ClassEntry) {
			if c.Builtin || c.Arity() > 0 {
				return
			}
			m.instantiateClass(c.ID, nil)
		})
	}
	if rec == nil {
		return
	}
	for _, s := range rec.ClassSites() {
		if m.concreteArgs(s.Args) {
			m.instantiateClass(s.Class, s.Args)
		}
	}
	for _, s := range rec.MethodSites() {
		m.seedMethodSite(s)
	}
}

// seedMethodSite instantiates a recorded generic-method use. Sites on
// generic owners or with open arguments are reached through the
// instantiation that encloses them instead.
func (m *mono) seedMethodSite(s MethodSite) {
	if !m.concreteArgs(s.Args) {
		return
	}
	owner := m.t.Get(s.Owner)
	if owner == nil || owner.Arity() > 0 {
		return
	}
	me, ok := owner.Methods[s.Method]
	if !ok {
		me, ok = owner.ClassMethods[s.Method]
	}
	if !ok || me.MethodArity() != len(s.Args) {
		return
	}
	m.instantiateMethod(m.instantiateClass(owner.ID, nil), me, s.Args)
}

func (m *mono) drain() {
	for len(m.queue) > 0 {
		w := m.queue[0]
		m.queue = m.queue[1:]
		m.lowerMethod(w)
	}
}

func (m *mono) wireEntry() {
	main, ok := m.t.GetByName(m.names.Intern("Main"))
	if !ok || main.Arity() > 0 {
		return
	}
	c, ok := m.classes[classKey{main.ID, m.in.InternArgs(nil)}]
	if !ok {
		return
	}
	if entry := c.FindStatic("main"); entry != nil && len(entry.Params) == 0 {
		m.out.Entry = entry
	}
}

// instantiateClass returns the instantiation of src applied to args,
// building it (and its superclass chain) on first request. The cache
// entry goes in before any recursion so self-referential supertypes
// and enum cycles terminate.
func (m *mono) instantiateClass(src types.ClassID, args []types.TypeID) *mir.Class {
	key := classKey{src, m.in.InternArgs(args)}
	if c, ok := m.classes[key]; ok {
		return c
	}
	entry := m.t.Get(src)
	instT := m.in.Class(src, args)
	c := &mir.Class{
		ID:      mir.InstanceID(len(m.out.Classes) + 1),
		Name:    m.t.FormatType(instT),
		Source:  src,
		Args:    append([]types.TypeID(nil), args...),
		FnArity: m.t.FnClassArity(src),
		Tag:     -1,
	}
	m.classes[key] = c
	m.out.Classes = append(m.out.Classes, c)

	if superT, ok := m.t.SuperclassType(instT); ok {
		st := m.in.MustLookup(superT)
		c.Super = m.instantiateClass(st.Class, m.in.Args(st.Args))
	}

	sub := types.NewSubst(m.in, args, nil)
	for _, iv := range m.t.FieldLayout(entry) {
		c.Fields = append(c.Fields, mir.Field{
			Name: m.names.MustLookup(iv.Name),
			Type: sub.Apply(iv.Type),
		})
	}

	// Inherited slots come first and keep their positions; overrides
	// replace in place, new methods append. Generic methods dispatch
	// directly and stay out of the vtable.
	if c.Super != nil {
		c.VTable = append(c.VTable, c.Super.VTable...)
	}
	for _, me := range entry.MethodsInOrder() {
		if me.MethodArity() > 0 || !me.SigOK {
			continue
		}
		mm := m.buildMethod(c, me, sub, m.names.MustLookup(me.Name))
		if slot := c.FindSlot(mm.Name); slot >= 0 {
			mm.Slot = slot
			c.VTable[slot] = mm
		} else {
			mm.Slot = len(c.VTable)
			c.VTable = append(c.VTable, mm)
		}
		m.enqueue(mm, me, sub)
	}
	for _, me := range entry.ClassMethodsInOrder() {
		if me.MethodArity() > 0 || !me.SigOK {
			continue
		}
		name := m.names.MustLookup(me.Name)
		if me.Builtin && name == "new" {
			// Constructors lower to allocation nodes at call sites.
			continue
		}
		mm := m.buildMethod(c, me, sub, name)
		mm.Slot = -1
		c.Statics = append(c.Statics, mm)
		m.enqueue(mm, me, sub)
	}

	if entry.IsEnum {
		c.IsEnum = true
		for _, caseID := range entry.Cases {
			c.Variants = append(c.Variants, m.instantiateClass(caseID, args))
		}
	}
	if entry.IsVariant() {
		for i, id := range m.t.Get(entry.EnumOwner).Cases {
			if id == src {
				c.Tag = i
			}
		}
	}
	return c
}

// instantiateMethod stamps out one generic method for the given
// (already concrete) type arguments, as a static on the owner's
// instantiation. Call sites dispatch it directly.
func (m *mono) instantiateMethod(owner *mir.Class, me *classtable.MethodEntry, margs []types.TypeID) *mir.Method {
	key := methodKey{owner.ID, me.Name, me.ClassLevel, m.in.InternArgs(margs)}
	if mm, ok := m.methods[key]; ok {
		return mm
	}
	sub := types.NewSubst(m.in, owner.Args, margs)
	var b strings.Builder
	b.WriteString(m.names.MustLookup(me.Name))
	b.WriteByte('<')
	for i, a := range margs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(m.t.FormatType(a))
	}
	b.WriteByte('>')
	mm := m.buildMethod(owner, me, sub, b.String())
	mm.Slot = -1
	m.methods[key] = mm
	owner.Statics = append(owner.Statics, mm)
	m.enqueue(mm, me, sub)
	return mm
}

func (m *mono) buildMethod(c *mir.Class, me *classtable.MethodEntry, sub *types.Subst, name string) *mir.Method {
	mm := &mir.Method{
		Name:    name,
		Class:   c,
		Return:  sub.Apply(me.Return),
		Builtin: me.Builtin,
		Span:    me.Span,
	}
	for _, p := range me.Params {
		mm.Params = append(mm.Params, mir.Param{
			Name: m.names.MustLookup(p.Name),
			Type: sub.Apply(p.Type),
		})
	}
	return mm
}

func (m *mono) enqueue(target *mir.Method, me *classtable.MethodEntry, sub *types.Subst) {
	if me.Builtin {
		return
	}
	hm, ok := m.bodies[bodyKey{me.Owner, me.Name, me.ClassLevel}]
	if !ok {
		return
	}
	m.queue = append(m.queue, work{target: target, body: hm, sub: sub})
}

func (m *mono) lowerMethod(w work) {
	l := &lowerer{
		m:      m,
		sub:    w.sub,
		target: w.target,
		selfT:  w.sub.Apply(w.body.SelfType),
	}
	for _, loc := range w.body.Locals {
		w.target.Locals = append(w.target.Locals, w.sub.Apply(loc.Type))
	}
	w.target.Body = l.lowerBody(w.body.Body)
}

func (m *mono) concreteArgs(args []types.TypeID) bool {
	for _, a := range args {
		if a == types.NoTypeID || m.in.ContainsParam(a) {
			return false
		}
	}
	return true
}

func (m *mono) reportf(code diag.Code, sp source.Span, format string, args ...any) {
	m.failed = true
	diag.ReportError(m.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}
