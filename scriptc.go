// Package scriptc translates a structurally-typed scripting language's
// already-parsed AST into C89 source. Translate is the facade wiring
// TypeHelper, MemoryManager, and Transpiler together (spec.md §2); it
// constructs a fresh registry, memory manager, and emitter on every call,
// so two concurrent calls never share state (spec §5).
package scriptc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/emitter"
	"github.com/scriptc-lang/scriptc/memory"
	"github.com/scriptc-lang/scriptc/oracle"
	"github.com/scriptc-lang/scriptc/transpile"
	"github.com/scriptc-lang/scriptc/typeinfo"
)

// ErrInternal wraps a recovered panic from MemoryManager or Emitter: a
// broken internal invariant, not a translation error, so a caller
// embedding this as a library never has a translator bug take its process
// down (spec §7).
var ErrInternal = errors.New("scriptc: internal error")

// ErrNoDecls is returned when unit has no function declarations to
// translate.
var ErrNoDecls = errors.New("scriptc: program has no function declarations")

// Translate lowers unit into one C89 source string, resolving types via
// oc. If the Transpiler recorded any diagnostics, Translate returns them
// instead of the partial output — per spec §7, any error means no C is
// returned at all.
func Translate(unit *ast.Program, oc oracle.TypeOracle) (out string, errs []error) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
			errs = []error{fmt.Errorf("%w: %v", ErrInternal, r)}
		}
	}()

	if unit == nil || len(unit.Decls) == 0 {
		return "", []error{ErrNoDecls}
	}

	th := typeinfo.New(oc)
	if err := th.FigureOutVariablesAndTypes(unit); err != nil {
		return "", []error{err}
	}

	mm := memory.New()
	if err := mm.Preprocess(unit, th.Registry()); err != nil {
		return "", []error{err}
	}

	em := emitter.New()
	tr := transpile.New(th, oc, mm, em)
	tr.TranspileProgram(unit)

	if diags := tr.Diagnostics(); len(diags) > 0 {
		joined := make([]error, len(diags))
		for i, d := range diags {
			joined[i] = d
		}
		return "", joined
	}

	code, err := em.Finalize()
	if err != nil {
		return "", []error{err}
	}
	return code, nil
}

// JoinErrors renders a Translate error slice as one newline-separated
// message, for callers that want a single string rather than []error.
func JoinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}
