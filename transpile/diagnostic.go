package transpile

import (
	"fmt"

	"github.com/scriptc-lang/scriptc/ast"
)

// Category is the closed taxonomy of translation failures the Transpiler
// can report (spec.md §7): it never panics on bad input, only on its own
// broken invariants.
type Category int

const (
	// UnsupportedNodeKind is a node the dispatch table has no case for at
	// all (e.g. a future AST addition this build predates).
	UnsupportedNodeKind Category = iota
	// UnsupportedOperator is a known node kind carrying an operator token
	// outside the table the Transpiler implements for it.
	UnsupportedOperator
	// UnsupportedConstruct is a known, well-formed node the language
	// explicitly does not support translating (for-in, assignment nested
	// in an expression, non-identifier for-of iterand, destructuring
	// return binding, and similar named exclusions).
	UnsupportedConstruct
)

// Diagnostic is one translation-time error. The Transpiler accumulates
// these instead of stopping at the first one, so a caller sees every
// problem in a unit in one pass.
type Diagnostic struct {
	Pos      ast.Pos
	Category Category
	Message  string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s", d.Pos.Line, d.Pos.Column, d.Message)
}

func (t *Transpiler) report(pos ast.Pos, cat Category, format string, args ...any) {
	t.diags = append(t.diags, &Diagnostic{
		Pos:      pos,
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
	})
}
