package scriptc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/oracle"
)

func pos() ast.Pos { return ast.Pos{Line: 1, Column: 1} }

func program(stmts ...ast.Stmt) *ast.Program {
	return &ast.Program{
		Pos: pos(),
		Decls: []*ast.FunctionDecl{
			{Pos: pos(), Name: "main", Body: &ast.Block{Pos: pos(), Stmts: stmts}},
		},
	}
}

func translateProgram(t *testing.T, prog *ast.Program) (string, []error) {
	t.Helper()
	oc := oracle.NewStaticOracle(prog)
	return Translate(prog, oc)
}

// E1: let a = [1,2,3]; console.log(a.length);
func TestTranslate_E1_ArrayCreateAndLength(t *testing.T) {
	prog := program(
		&ast.VarDecl{Pos: pos(), Name: "a", Init: &ast.ArrayLit{Pos: pos(), Elements: []ast.Expr{
			&ast.NumberLit{Pos: pos(), Value: 1},
			&ast.NumberLit{Pos: pos(), Value: 2},
			&ast.NumberLit{Pos: pos(), Value: 3},
		}}},
		&ast.ExprStmt{Pos: pos(), X: &ast.CallExpr{
			Pos: pos(),
			Callee: &ast.MemberExpr{Pos: pos(), X: &ast.Ident{Pos: pos(), Name: "console"}, PropName: "log"},
			Args: []ast.Expr{
				&ast.MemberExpr{Pos: pos(), X: &ast.Ident{Pos: pos(), Name: "a"}, PropName: "length"},
			},
		}},
	)

	out, errs := translateProgram(t, prog)
	require.Empty(t, errs, "unexpected diagnostics: %v", errs)
	assert.Contains(t, out, "ARRAY_CREATE(a,")
	assert.Contains(t, out, "a.size")
}

// E2: let s = "hi"; if (s == "hi") console.log(s);
func TestTranslate_E2_StringEqualityUsesStrcmp(t *testing.T) {
	prog := program(
		&ast.VarDecl{Pos: pos(), Name: "s", Init: &ast.StringLit{Pos: pos(), Value: "hi"}},
		&ast.IfStmt{
			Pos: pos(),
			Cond: &ast.BinaryExpr{Pos: pos(), Op: "==",
				L: &ast.Ident{Pos: pos(), Name: "s"},
				R: &ast.StringLit{Pos: pos(), Value: "hi"},
			},
			Then: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
				&ast.ExprStmt{Pos: pos(), X: &ast.CallExpr{
					Pos:    pos(),
					Callee: &ast.MemberExpr{Pos: pos(), X: &ast.Ident{Pos: pos(), Name: "console"}, PropName: "log"},
					Args:   []ast.Expr{&ast.Ident{Pos: pos(), Name: "s"}},
				}},
			}},
		},
	)

	out, errs := translateProgram(t, prog)
	require.Empty(t, errs, "unexpected diagnostics: %v", errs)
	assert.Contains(t, out, `strcmp(s, "hi") == 0`)
	assert.Contains(t, out, `#include <string.h>`)
}

// E3: let p = { x: 1, y: 2 }; return p;
func TestTranslate_E3_StructAllocationEscapesToGlobalTable(t *testing.T) {
	prog := program(
		&ast.VarDecl{Pos: pos(), Name: "p", Init: &ast.ObjectLit{Pos: pos(),
			FieldOrder: []string{"x", "y"},
			Fields: map[string]ast.Expr{
				"x": &ast.NumberLit{Pos: pos(), Value: 1},
				"y": &ast.NumberLit{Pos: pos(), Value: 2},
			},
		}},
		&ast.ReturnStmt{Pos: pos(), Value: &ast.Ident{Pos: pos(), Name: "p"}},
	)
	prog.Decls[0].ReturnType = &ast.ObjectTypeExpr{Pos: pos(),
		FieldOrder: []string{"x", "y"},
		Fields: map[string]ast.TypeExpr{
			"x": &ast.NamedType{Pos: pos(), Name: "number"},
			"y": &ast.NamedType{Pos: pos(), Name: "number"},
		},
	}

	out, errs := translateProgram(t, prog)
	require.Empty(t, errs, "unexpected diagnostics: %v", errs)
	assert.Equal(t, 1, strings.Count(out, "typedef struct"))
	assert.Contains(t, out, "malloc(sizeof(*p))")
	assert.Contains(t, out, "__scriptc_globals[__scriptc_globals_count++] = p")
	assert.NotContains(t, out, "free(p)")
}

// E4: for (let i=0, j=0; i<10; i++) { j = j + i; }
func TestTranslate_E4_MultiDeclaratorForHoistsToPrologue(t *testing.T) {
	prog := program(
		&ast.ForStmt{
			Pos: pos(),
			Init: []*ast.VarDecl{
				{Pos: pos(), Name: "i", Init: &ast.NumberLit{Pos: pos(), Value: 0}},
				{Pos: pos(), Name: "j", Init: &ast.NumberLit{Pos: pos(), Value: 0}},
			},
			Cond: &ast.BinaryExpr{Pos: pos(), Op: "<",
				L: &ast.Ident{Pos: pos(), Name: "i"},
				R: &ast.NumberLit{Pos: pos(), Value: 10},
			},
			Post: &ast.PostfixExpr{Pos: pos(), Op: "++", X: &ast.Ident{Pos: pos(), Name: "i"}},
			Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
				&ast.ExprStmt{Pos: pos(), X: &ast.AssignExpr{Pos: pos(),
					LHS: &ast.Ident{Pos: pos(), Name: "j"},
					RHS: &ast.BinaryExpr{Pos: pos(), Op: "+",
						L: &ast.Ident{Pos: pos(), Name: "j"},
						R: &ast.Ident{Pos: pos(), Name: "i"},
					},
				}},
			}},
		},
	)

	out, errs := translateProgram(t, prog)
	require.Empty(t, errs, "unexpected diagnostics: %v", errs)
	assert.Contains(t, out, "j = 0;")
	assert.Contains(t, out, "for (i = 0; (i < 10); i++)")
}

// E5: for (let x of arr) console.log(x);
func TestTranslate_E5_ForOfLowersToIndexedLoop(t *testing.T) {
	prog := program(
		&ast.VarDecl{Pos: pos(), Name: "arr", Init: &ast.ArrayLit{Pos: pos(), Elements: []ast.Expr{
			&ast.NumberLit{Pos: pos(), Value: 1},
			&ast.NumberLit{Pos: pos(), Value: 2},
		}}},
		&ast.ForOfStmt{
			Pos:     pos(),
			VarName: "x",
			Iterand: &ast.Ident{Pos: pos(), Name: "arr"},
			Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
				&ast.ExprStmt{Pos: pos(), X: &ast.CallExpr{
					Pos:    pos(),
					Callee: &ast.MemberExpr{Pos: pos(), X: &ast.Ident{Pos: pos(), Name: "console"}, PropName: "log"},
					Args:   []ast.Expr{&ast.Ident{Pos: pos(), Name: "x"}},
				}},
			}},
		},
	)

	out, errs := translateProgram(t, prog)
	require.Empty(t, errs, "unexpected diagnostics: %v", errs)
	assert.Contains(t, out, "arr.size")
	assert.Contains(t, out, "x = arr.data[iterator_1];")
}

// E6: let o = {}; o = {a:1}; with the second assignment nested inside an if
// condition — assignment is only legal as a statement, never nested inside
// another expression.
func TestTranslate_E6_NestedAssignmentIsRejected(t *testing.T) {
	prog := program(
		&ast.VarDecl{Pos: pos(), Name: "o", Init: &ast.ObjectLit{Pos: pos()}},
		&ast.IfStmt{
			Pos: pos(),
			Cond: &ast.AssignExpr{Pos: pos(),
				LHS: &ast.Ident{Pos: pos(), Name: "o"},
				RHS: &ast.ObjectLit{Pos: pos(), FieldOrder: []string{"a"}, Fields: map[string]ast.Expr{
					"a": &ast.NumberLit{Pos: pos(), Value: 1},
				}},
			},
			Then: &ast.Block{Pos: pos()},
		},
	)

	out, errs := translateProgram(t, prog)
	assert.Empty(t, out)
	require.NotEmpty(t, errs)
	joined := JoinErrors(errs)
	assert.Contains(t, joined, "Assignments inside expressions are not yet supported.")
}

func TestTranslate_NoDecls(t *testing.T) {
	out, errs := Translate(&ast.Program{Pos: pos()}, nil)
	assert.Empty(t, out)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoDecls)
}
