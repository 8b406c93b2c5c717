package mono

import (
	"minato/internal/check"
	"minato/internal/source"
	"minato/internal/types"
)

// ClassSite is one recorded class instantiation request.
type ClassSite struct {
	Class types.ClassID
	Args  []types.TypeID
	Span  source.Span
}

// MethodSite is one recorded generic-method instantiation request.
type MethodSite struct {
	Owner  types.ClassID
	Method source.StringID
	Args   []types.TypeID
	Span   source.Span
}

// Recorder collects the instantiation sites the checker sees, in
// order. Sites whose arguments still mention type parameters resolve
// later, when the enclosing declaration is itself instantiated; the
// lowering walk covers those, so seeding only uses the concrete ones.
type Recorder struct {
	classSites  []ClassSite
	methodSites []MethodSite
}

var _ check.InstantiationRecorder = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordClassInstantiation implements check.InstantiationRecorder.
func (r *Recorder) RecordClassInstantiation(class types.ClassID, args []types.TypeID, site source.Span) {
	r.classSites = append(r.classSites, ClassSite{
		Class: class,
		Args:  append([]types.TypeID(nil), args...),
		Span:  site,
	})
}

// RecordMethodInstantiation implements check.InstantiationRecorder.
func (r *Recorder) RecordMethodInstantiation(owner types.ClassID, method source.StringID, args []types.TypeID, site source.Span) {
	r.methodSites = append(r.methodSites, MethodSite{
		Owner:  owner,
		Method: method,
		Args:   append([]types.TypeID(nil), args...),
		Span:   site,
	})
}

// Merge appends other's sites, preserving their order. The driver
// checks classes in parallel with one recorder each and merges them
// back in deterministic class order.
func (r *Recorder) Merge(other *Recorder) {
	r.classSites = append(r.classSites, other.classSites...)
	r.methodSites = append(r.methodSites, other.methodSites...)
}

// ClassSites returns the recorded class instantiations in site order.
func (r *Recorder) ClassSites() []ClassSite {
	return r.classSites
}

// MethodSites returns the recorded method instantiations in site order.
func (r *Recorder) MethodSites() []MethodSite {
	return r.methodSites
}
