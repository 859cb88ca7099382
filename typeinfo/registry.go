package typeinfo

import (
	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
)

// Key is a variable's stable identity across the whole compilation unit:
// its enclosing function's name plus its bare identifier. Two functions
// are free to reuse the same parameter or local name (`function f(x:
// number)` alongside `function g(x: string)`); the registry must not
// collapse them onto one slot just because the bare names collide, so the
// registry and the escape graph are keyed by Key, never by Name alone
// (spec.md §9: "keep the registry as a mapping from stable identifier-keys
// ... to VariableInfo").
type Key struct {
	Func string
	Name string
}

// VariableInfo is the per-binding record from spec.md §3. It is created
// once, during TypeHelper's pre-pass, and is thereafter immutable except
// for Escapes, which memory.MemoryManager may promote from false to true.
type VariableInfo struct {
	Func               string
	Name               string
	DeclSite           ast.Pos
	Type               ctype.CType
	RequiresAllocation bool
	IsDynamicArray     bool
	Escapes            bool
}

// Registry is the variable registry TypeHelper populates and the rest of
// the pipeline reads from, keyed by (function, name) rather than bare
// name.
type Registry struct {
	vars  map[Key]*VariableInfo
	order []Key
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{vars: make(map[Key]*VariableInfo)}
}

// Declare adds or replaces the VariableInfo for info's (Func, Name) key,
// recording first-seen order.
func (r *Registry) Declare(info *VariableInfo) {
	k := Key{Func: info.Func, Name: info.Name}
	if _, exists := r.vars[k]; !exists {
		r.order = append(r.order, k)
	}
	r.vars[k] = info
}

// Get returns the VariableInfo declared under key, if any.
func (r *Registry) Get(key Key) (*VariableInfo, bool) {
	v, ok := r.vars[key]
	return v, ok
}

// MarkEscaping promotes key's VariableInfo.Escapes to true. It is a no-op
// if key was never declared (defensive: MemoryManager never fails, per
// spec §4.2, so an unknown key is simply ignored rather than panicking).
func (r *Registry) MarkEscaping(key Key) {
	if v, ok := r.vars[key]; ok {
		v.Escapes = true
	}
}

// Names returns every declared variable's key, in first-seen order.
func (r *Registry) Names() []Key {
	return append([]Key(nil), r.order...)
}
