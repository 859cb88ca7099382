package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/runtime/cheaders"
)

func TestReadProgramRoundTripsArrayLiteral(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program.json")
	src := `{
		"pos": {"line":1,"column":1},
		"decls": [{
			"kind": "FunctionDecl",
			"pos": {"line":1,"column":1},
			"name": "main",
			"params": [],
			"returnType": null,
			"body": {
				"kind": "Block",
				"pos": {"line":1,"column":1},
				"stmts": [{
					"kind": "VarDecl",
					"pos": {"line":1,"column":1},
					"name": "a",
					"type": null,
					"init": {"kind": "ArrayLit", "pos": {"line":1,"column":1}, "elements": [
						{"kind":"NumberLit","pos":{"line":1,"column":1},"value":1}
					]}
				}]
			}
		}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	unit, err := readProgram(path)
	require.NoError(t, err)
	require.Len(t, unit.Decls, 1)
	require.Len(t, unit.Decls[0].Body.Stmts, 1)
	decl, ok := unit.Decls[0].Body.Stmts[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "a", decl.Name)
	lit, ok := decl.Init.(*ast.ArrayLit)
	require.True(t, ok)
	require.Len(t, lit.Elements, 1)
	assert.Equal(t, float64(1), lit.Elements[0].(*ast.NumberLit).Value)
}

func TestWriteOutputWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.c")
	require.NoError(t, writeOutput(path, "int main(void) { return 0; }\n"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "int main(void) { return 0; }\n", string(b))
}

func TestWriteHeadersWritesEveryEmbeddedHeader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeHeaders(dir))
	for _, name := range cheaders.Names {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
