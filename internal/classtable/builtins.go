package classtable

import (
	"fmt"

	"fortio.org/safecast"

	"minato/internal/types"
)

// MaxFnArity is the largest supported closure arity; the core seeds
// Fn0..Fn9 like the original runtime does.
const MaxFnArity = 9

// Builtins stores handles for the core classes every compilation gets
// before user code is indexed.
type Builtins struct {
	Object types.ClassID
	Void   types.ClassID
	Never  types.ClassID
	Bool   types.ClassID
	Int    types.ClassID
	Float  types.ClassID
	String types.ClassID
	Array  types.ClassID
	Fn     [MaxFnArity + 1]types.ClassID

	ObjectType types.TypeID
	VoidType   types.TypeID
	NeverType  types.TypeID
	BoolType   types.TypeID
	IntType    types.TypeID
	FloatType  types.TypeID
	StringType types.TypeID
}

// FnType interns FnN<params..., ret>.
func (t *Table) FnType(params []types.TypeID, ret types.TypeID) types.TypeID {
	if len(params) > MaxFnArity {
		panic(fmt.Errorf("classtable: closure arity %d exceeds Fn%d", len(params), MaxFnArity))
	}
	args := make([]types.TypeID, 0, len(params)+1)
	args = append(args, params...)
	args = append(args, ret)
	return t.Types.Class(t.builtins.Fn[len(params)], args)
}

// FnClassArity returns N when id names FnN, or -1.
func (t *Table) FnClassArity(id types.ClassID) int {
	for n, fn := range t.builtins.Fn {
		if fn == id {
			return n
		}
	}
	return -1
}

func (t *Table) seedBuiltins() {
	b := &t.builtins

	b.Object = t.seedClass("Object", nil, types.NoTypeID)
	b.ObjectType = t.Types.Class(b.Object, nil)

	objectSuper := b.ObjectType
	b.Void = t.seedClass("Void", nil, objectSuper)
	b.Never = t.seedClass("Never", nil, objectSuper)
	b.Bool = t.seedClass("Bool", nil, objectSuper)
	b.Int = t.seedClass("Int", nil, objectSuper)
	b.Float = t.seedClass("Float", nil, objectSuper)
	b.String = t.seedClass("String", nil, objectSuper)
	b.Array = t.seedClass("Array", []string{"T"}, objectSuper)
	for n := 0; n <= MaxFnArity; n++ {
		names := make([]string, 0, n+1)
		for i := 1; i <= n; i++ {
			names = append(names, fmt.Sprintf("P%d", i))
		}
		names = append(names, "R")
		b.Fn[n] = t.seedClass(fmt.Sprintf("Fn%d", n), names, objectSuper)
	}

	b.VoidType = t.Types.Class(b.Void, nil)
	b.NeverType = t.Types.Class(b.Never, nil)
	b.BoolType = t.Types.Class(b.Bool, nil)
	b.IntType = t.Types.Class(b.Int, nil)
	b.FloatType = t.Types.Class(b.Float, nil)
	b.StringType = t.Types.Class(b.String, nil)

	t.seedMethods()
}

func (t *Table) seedClass(name string, typarams []string, super types.TypeID) types.ClassID {
	entry := &ClassEntry{
		Name:       t.Names.Intern(name),
		Superclass: super,
		Builtin:    true,
	}
	for _, tp := range typarams {
		entry.TypeParams = append(entry.TypeParams, t.Names.Intern(tp))
	}
	return t.addClass(entry)
}

func (t *Table) seedMethods() {
	b := t.builtins

	t.seedMethod(b.Object, "to_s", nil, b.StringType)
	t.seedMethod(b.Object, "panic", []builtinParam{{"message", b.StringType}}, b.NeverType)
	t.seedMethod(b.Bool, "not", nil, b.BoolType)

	t.seedMethod(b.Int, "+", []builtinParam{{"other", b.IntType}}, b.IntType)
	t.seedMethod(b.Int, "-", []builtinParam{{"other", b.IntType}}, b.IntType)
	t.seedMethod(b.Int, "*", []builtinParam{{"other", b.IntType}}, b.IntType)
	t.seedMethod(b.Int, "<", []builtinParam{{"other", b.IntType}}, b.BoolType)
	t.seedMethod(b.Int, "==", []builtinParam{{"other", b.IntType}}, b.BoolType)
	t.seedMethod(b.Float, "+", []builtinParam{{"other", b.FloatType}}, b.FloatType)
	t.seedMethod(b.String, "concat", []builtinParam{{"other", b.StringType}}, b.StringType)
	t.seedMethod(b.String, "size", nil, b.IntType)

	arrT := t.Types.Param(types.OwnerClass, 0, t.Names.Intern("T"))
	t.seedMethod(b.Array, "push", []builtinParam{{"value", arrT}}, b.VoidType)
	t.seedMethod(b.Array, "get", []builtinParam{{"index", b.IntType}}, arrT)
	t.seedMethod(b.Array, "first", nil, arrT)
	t.seedMethod(b.Array, "size", nil, b.IntType)

	for n := 0; n <= MaxFnArity; n++ {
		params := make([]builtinParam, 0, n)
		for i := 0; i < n; i++ {
			idx, err := safecast.Conv[uint16](i)
			if err != nil {
				panic(fmt.Errorf("fn arity overflow: %w", err))
			}
			pname := fmt.Sprintf("P%d", i+1)
			params = append(params, builtinParam{
				name: fmt.Sprintf("arg%d", i+1),
				ty:   t.Types.Param(types.OwnerClass, idx, t.Names.Intern(pname)),
			})
		}
		retIdx, err := safecast.Conv[uint16](n)
		if err != nil {
			panic(fmt.Errorf("fn arity overflow: %w", err))
		}
		ret := t.Types.Param(types.OwnerClass, retIdx, t.Names.Intern("R"))
		t.seedMethod(b.Fn[n], "call", params, ret)
	}

	// Every builtin class constructs with a bare `new`.
	t.All(func(c *ClassEntry) {
		if !c.Builtin {
			return
		}
		t.addSyntheticNew(c, nil)
	})
}

type builtinParam struct {
	name string
	ty   types.TypeID
}

func (t *Table) seedMethod(class types.ClassID, name string, params []builtinParam, ret types.TypeID) {
	entry := &MethodEntry{
		Name:    t.Names.Intern(name),
		Owner:   class,
		Return:  ret,
		Builtin: true,
		SigOK:   true,
	}
	for _, p := range params {
		entry.Params = append(entry.Params, ParamEntry{Name: t.Names.Intern(p.name), Type: p.ty})
	}
	t.Get(class).Methods[entry.Name] = entry
}

// addSyntheticNew installs the class-level constructor: its parameters
// mirror `initialize` (or, for enum variants, the case fields) and it
// returns the instance type.
func (t *Table) addSyntheticNew(c *ClassEntry, params []ParamEntry) {
	name := t.Names.Intern("new")
	if _, exists := c.ClassMethods[name]; exists {
		return
	}
	c.ClassMethods[name] = &MethodEntry{
		Name:       name,
		Owner:      c.ID,
		ClassLevel: true,
		Params:     params,
		Return:     t.InstanceType(c),
		Builtin:    true,
		SigOK:      true,
		Span:       c.Span,
	}
}
