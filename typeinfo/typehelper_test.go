package typeinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
	"github.com/scriptc-lang/scriptc/oracle"
)

func program(stmts ...ast.Stmt) *ast.Program {
	return &ast.Program{Decls: []*ast.FunctionDecl{
		{Name: "f", Body: &ast.Block{Stmts: stmts}},
	}}
}

// A literal with no type annotation is always dynamic (spec's own E1
// scenario: `let a = [1,2,3]` still emits ARRAY_CREATE), but its logical
// capacity is the max of the literal length and the provable push count.
func TestConvertVarTypeLiteralWithoutAnnotationIsDynamic(t *testing.T) {
	unit := program(
		&ast.VarDecl{Name: "a", Init: &ast.ArrayLit{}},
		&ast.ExprStmt{X: &ast.CallExpr{
			Callee: &ast.MemberExpr{X: &ast.Ident{Name: "a"}, PropName: "push"},
			Args:   []ast.Expr{&ast.NumberLit{Value: 1}},
		}},
		&ast.ExprStmt{X: &ast.CallExpr{
			Callee: &ast.MemberExpr{X: &ast.Ident{Name: "a"}, PropName: "push"},
			Args:   []ast.Expr{&ast.NumberLit{Value: 2}},
		}},
	)
	oc := oracle.NewStaticOracle(unit)
	th := New(oc)
	require.NoError(t, th.FigureOutVariablesAndTypes(unit))

	info, ok := th.GetVariableInfo("f", "a")
	require.True(t, ok)
	assert.Equal(t, ctype.KArray, info.Type.Kind)
	assert.True(t, info.Type.Dynamic)
	assert.Equal(t, 2, info.Type.Capacity)
}

// An explicit capacity annotation makes the array fixed-size, bounded by
// the max of the annotation and any provable push count.
func TestConvertVarTypeAnnotatedCapacityYieldsFixedArray(t *testing.T) {
	unit := program(
		&ast.VarDecl{Name: "a", Type: &ast.ArrayTypeExpr{
			Elem:     &ast.NamedType{Name: "number"},
			Capacity: 4,
		}, Init: &ast.ArrayLit{}},
		&ast.ExprStmt{X: &ast.CallExpr{
			Callee: &ast.MemberExpr{X: &ast.Ident{Name: "a"}, PropName: "push"},
			Args:   []ast.Expr{&ast.NumberLit{Value: 1}},
		}},
	)
	oc := oracle.NewStaticOracle(unit)
	th := New(oc)
	require.NoError(t, th.FigureOutVariablesAndTypes(unit))

	info, ok := th.GetVariableInfo("f", "a")
	require.True(t, ok)
	assert.Equal(t, ctype.KArray, info.Type.Kind)
	assert.False(t, info.Type.Dynamic)
	assert.Equal(t, 4, info.Type.Capacity)
}

// A push reachable through an if-branch is not statically provable, so the
// array must fall back to dynamic (spec §4.1).
func TestConvertVarTypeUnprovablePushForcesDynamic(t *testing.T) {
	unit := program(
		&ast.VarDecl{Name: "a", Init: &ast.ArrayLit{}},
		&ast.IfStmt{
			Cond: &ast.BoolLit{Value: true},
			Then: &ast.Block{Stmts: []ast.Stmt{
				&ast.ExprStmt{X: &ast.CallExpr{
					Callee: &ast.MemberExpr{X: &ast.Ident{Name: "a"}, PropName: "push"},
					Args:   []ast.Expr{&ast.NumberLit{Value: 1}},
				}},
			}},
		},
	)
	oc := oracle.NewStaticOracle(unit)
	th := New(oc)
	require.NoError(t, th.FigureOutVariablesAndTypes(unit))

	info, ok := th.GetVariableInfo("f", "a")
	require.True(t, ok)
	assert.True(t, info.Type.Dynamic)
}

func TestFigureOutVariablesAndTypesIsIdempotent(t *testing.T) {
	unit := program(&ast.VarDecl{Name: "x", Init: &ast.NumberLit{Value: 1}})
	oc := oracle.NewStaticOracle(unit)
	th := New(oc)
	require.NoError(t, th.FigureOutVariablesAndTypes(unit))
	require.NoError(t, th.FigureOutVariablesAndTypes(unit))

	info, ok := th.GetVariableInfo("f", "x")
	require.True(t, ok)
	assert.Equal(t, ctype.KInt16, info.Type.Kind)
}

func TestAddNewIteratorVariableIsUniquePerCall(t *testing.T) {
	th := New(oracle.NewStaticOracle(&ast.Program{}))
	first := th.AddNewIteratorVariable("f", &ast.Block{})
	second := th.AddNewIteratorVariable("f", &ast.Block{})

	assert.Equal(t, "iterator_1", first)
	assert.Equal(t, "iterator_2", second)
	assert.NotEqual(t, first, second)
}

func TestConvertTypeMapsObjectToStruct(t *testing.T) {
	th := New(oracle.NewStaticOracle(&ast.Program{}))
	ct := th.ConvertType(oracle.Type{
		Kind: oracle.KindObject,
		Fields: []oracle.Field{
			{Name: "x", Type: oracle.Type{Kind: oracle.KindNumber}},
		},
	})
	assert.Equal(t, ctype.KStruct, ct.Kind)
	require.Len(t, ct.Fields, 1)
	assert.Equal(t, "x", ct.Fields[0].Name)
}
