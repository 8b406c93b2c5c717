package check

import (
	"minato/internal/hir"
	"minato/internal/source"
	"minato/internal/types"
)

// binding locates one visible variable: a parameter of the current
// frame, a local slot, or a capture pulled in from an enclosing frame.
type binding struct {
	kind  hir.BindKind
	index int
	typ   types.TypeID
	span  source.Span
}

// frame is one lexical function body: the method itself or a block
// literal. Locals and captures are per frame; scopes nest inside it.
type frame struct {
	locals       []hir.Local
	captures     []hir.Capture
	capturesSelf bool
	scopes       []map[source.StringID]binding
}

func (ck *checker) pushFrame(params []hir.BlockParam) *frame {
	f := &frame{}
	f.scopes = append(f.scopes, make(map[source.StringID]binding, 8))
	for i, p := range params {
		f.scopes[0][p.Name] = binding{kind: hir.BindParam, index: i, typ: p.Type, span: p.Span}
	}
	ck.frames = append(ck.frames, f)
	return f
}

func (ck *checker) popFrame() *frame {
	f := ck.frames[len(ck.frames)-1]
	ck.frames = ck.frames[:len(ck.frames)-1]
	return f
}

func (ck *checker) topFrame() *frame {
	return ck.frames[len(ck.frames)-1]
}

func (ck *checker) pushScope() {
	f := ck.topFrame()
	f.scopes = append(f.scopes, make(map[source.StringID]binding, 4))
}

func (ck *checker) popScope() {
	f := ck.topFrame()
	f.scopes = f.scopes[:len(f.scopes)-1]
}

func (ck *checker) bind(name source.StringID, b binding) {
	f := ck.topFrame()
	f.scopes[len(f.scopes)-1][name] = b
}

// declareLocal allocates a slot in the current frame and makes the name
// visible in the current scope.
func (ck *checker) declareLocal(name source.StringID, typ types.TypeID, span source.Span) binding {
	f := ck.topFrame()
	b := binding{kind: hir.BindLocal, index: len(f.locals), typ: typ, span: span}
	f.locals = append(f.locals, hir.Local{Name: name, Type: typ, Span: span})
	ck.bind(name, b)
	return b
}

// lookupVar resolves name against the frame stack, innermost first.
// A hit in an outer frame threads a capture through every frame in
// between, so the returned binding is always valid in the current one.
// crossed reports whether a frame boundary was crossed.
func (ck *checker) lookupVar(name source.StringID) (b binding, crossed, found bool) {
	for fi := len(ck.frames) - 1; fi >= 0; fi-- {
		f := ck.frames[fi]
		for si := len(f.scopes) - 1; si >= 0; si-- {
			if b, ok := f.scopes[si][name]; ok {
				if fi == len(ck.frames)-1 {
					return b, false, true
				}
				return ck.capture(fi, name, b), true, true
			}
		}
	}
	return binding{}, false, false
}

// capture threads b (visible in frame fi) through every inner frame as
// a capture, deduplicating by name per frame.
func (ck *checker) capture(fi int, name source.StringID, b binding) binding {
	for i := fi + 1; i < len(ck.frames); i++ {
		f := ck.frames[i]
		idx := -1
		for j := range f.captures {
			if f.captures[j].Name == name {
				idx = j
				break
			}
		}
		if idx < 0 {
			f.captures = append(f.captures, hir.Capture{
				Name:   name,
				Type:   b.typ,
				Source: hir.Binding{Kind: b.kind, Index: b.index},
			})
			idx = len(f.captures) - 1
		}
		b = binding{kind: hir.BindCapture, index: idx, typ: b.typ, span: b.span}
	}
	return b
}

// markSelfCaptured flags every block frame on the stack; reading self
// inside a nested block pulls the receiver through each level.
func (ck *checker) markSelfCaptured() {
	for _, f := range ck.frames[1:] {
		f.capturesSelf = true
	}
}
