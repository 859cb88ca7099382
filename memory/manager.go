// Package memory implements MemoryManager (spec.md §4.2): the escape
// analysis pass and the destructor/global-table bookkeeping the Transpiler
// consults while emitting each function.
package memory

import (
	"fmt"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
	"github.com/scriptc-lang/scriptc/emitter"
	"github.com/scriptc-lang/scriptc/typeinfo"
)

// MemoryManager is component B. It never fails: an allocation it cannot
// prove non-escaping is conservatively marked as escaping instead.
type MemoryManager struct {
	done bool

	// allocations records, per function scope, every allocation-bearing
	// VariableInfo in declaration order, as the Transpiler registers them
	// while emitting. InsertDestructorsIfNecessary walks this in reverse
	// (LIFO) at normal scope exit.
	allocations map[string][]*typeinfo.VariableInfo

	// globalRegistered dedupes global-table entries: the same escaping
	// allocation must never be appended twice (spec §3 invariant 2 — exactly
	// one release site per allocation, and the global table's entries are
	// its release sites for escapees). Keyed by VariableInfo pointer
	// identity rather than bare name, since two distinct variables in two
	// different functions can share a bare name but must still each get
	// their own entry.
	globalRegistered map[*typeinfo.VariableInfo]bool
	globalCount      int
}

// New returns an empty MemoryManager, ready for Preprocess.
func New() *MemoryManager {
	return &MemoryManager{
		allocations:      make(map[string][]*typeinfo.VariableInfo),
		globalRegistered: make(map[*typeinfo.VariableInfo]bool),
	}
}

// Preprocess scans unit, classifying every allocation-bearing variable in
// reg as function-local or escaping, per the rules in spec.md §4.2: a value
// escapes if it is the subject of a return, assigned to an outer-scope
// variable, pushed into an escaping container, or stored in a field of an
// escaping struct. Escape is a transitive fixed point. Idempotent: a second
// call is a no-op, matching TypeHelper's idempotency (spec §4.1, §5).
func (m *MemoryManager) Preprocess(unit *ast.Program, reg *typeinfo.Registry) error {
	if m.done {
		return nil
	}
	g := newEscapeGraph()
	for _, fn := range unit.Decls {
		walkFunctionBody(g, fn.Name, fn.Body)
	}
	escaping := g.propagate()
	for key, esc := range escaping {
		if esc {
			reg.MarkEscaping(key)
		}
	}
	m.done = true
	return nil
}

// RegisterAllocation records that info was allocated while emitting scope
// (the enclosing function's name), so InsertDestructorsIfNecessary can free
// it at scope exit if it never escaped.
func (m *MemoryManager) RegisterAllocation(scope string, info *typeinfo.VariableInfo) {
	m.allocations[scope] = append(m.allocations[scope], info)
}

// InsertGCVariablesCreationIfNecessary declares the bookkeeping state a
// scope needs before any allocation in it runs. scope == "" means top
// level: it declares the global pointer table sized to the number of
// variables known (so far) to escape. A non-empty scope is a function name;
// this simplified model needs no extra per-function destructor-list
// variables, so it is a no-op there.
func (m *MemoryManager) InsertGCVariablesCreationIfNecessary(scope string, reg *typeinfo.Registry, em *emitter.Emitter) {
	if scope != "" {
		return
	}
	capacity := 0
	for _, key := range reg.Names() {
		if info, ok := reg.Get(key); ok && info.Escapes && info.RequiresAllocation {
			capacity++
		}
	}
	if capacity == 0 {
		return
	}
	em.EmitTo(emitter.TargetGlobals, fmt.Sprintf("static void *__scriptc_globals[%d];\n", capacity))
	em.EmitTo(emitter.TargetGlobals, "static int __scriptc_globals_count = 0;\n")
}

// InsertGlobalPointerIfNecessary appends the release expression for info to
// the global pointer table at the emitter's current position, if and only
// if info escapes. A struct variable registers itself; a dynamic array
// registers its backing buffer, since that buffer — not the stack-resident
// array header — is the variable's actual heap allocation.
func (m *MemoryManager) InsertGlobalPointerIfNecessary(info *typeinfo.VariableInfo, em *emitter.Emitter) {
	if !info.Escapes || !info.RequiresAllocation {
		return
	}
	if m.globalRegistered[info] {
		return
	}
	m.globalRegistered[info] = true
	em.Emit(fmt.Sprintf("__scriptc_globals[__scriptc_globals_count++] = %s;\n", releaseExpression(info)))
}

// InsertDestructorsIfNecessary emits a free for every allocation registered
// under scope that did not escape, in reverse declaration order (LIFO),
// matching C's natural unwind order for nested allocations.
func (m *MemoryManager) InsertDestructorsIfNecessary(scope string, em *emitter.Emitter) {
	allocs := m.allocations[scope]
	for i := len(allocs) - 1; i >= 0; i-- {
		info := allocs[i]
		if info.Escapes {
			continue
		}
		em.Emit(fmt.Sprintf("free(%s);\n", releaseExpression(info)))
	}
}

// releaseExpression is the C expression whose pointer value owns info's
// single heap allocation.
func releaseExpression(info *typeinfo.VariableInfo) string {
	if info.Type.Kind == ctype.KArray && info.Type.Dynamic {
		return info.Name + ".data"
	}
	return info.Name
}
