package transpile

import (
	"fmt"
	"strings"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
	"github.com/scriptc-lang/scriptc/emitter"
)

// printfParts synthesizes a printf format string and argument list for a
// console.log call (spec §4.4's printf sub-transpiler). A single
// array-typed argument is handled separately by transpileConsoleLog (it
// needs a runtime loop, not a static format string); everything else —
// numbers, strings, booleans, and recursively, struct fields — folds into
// one flat format string here, since a struct's shape (unlike an array's
// length) is fully known at transpile time.
func (t *Transpiler) printfParts(exprs []ast.Expr) (string, []string, bool) {
	var format strings.Builder
	var args []string
	for i, e := range exprs {
		if i > 0 {
			format.WriteString(" ")
		}
		cExpr, cType, ok := t.transpileExpr(e)
		if !ok {
			return "", nil, false
		}
		frag, fragArgs, ok := t.printfFragment(e.At(), cExpr, cType)
		if !ok {
			return "", nil, false
		}
		format.WriteString(frag)
		args = append(args, fragArgs...)
	}
	return format.String(), args, true
}

// printfFragment renders one value's format-string fragment and arguments.
func (t *Transpiler) printfFragment(pos ast.Pos, cExpr string, cType ctype.CType) (string, []string, bool) {
	switch cType.Kind {
	case ctype.KInt16, ctype.KBool:
		return "%d", []string{cExpr}, true
	case ctype.KString:
		return "%s", []string{cExpr}, true
	case ctype.KStruct:
		return t.printfStruct(cExpr, cType)
	case ctype.KArray:
		t.report(pos, UnsupportedConstruct, "array values can only be logged as console.log's sole argument")
		return "", nil, false
	default:
		return "%p", []string{cExpr}, true
	}
}

// printfStruct renders `{ a: 1, b: "x" }`-shaped output by recursing
// through the struct's statically known fields.
func (t *Transpiler) printfStruct(cExpr string, cType ctype.CType) (string, []string, bool) {
	var format strings.Builder
	var args []string
	format.WriteString("{ ")
	for i, f := range cType.Fields {
		if i > 0 {
			format.WriteString(", ")
		}
		access := fmt.Sprintf("%s->%s", cExpr, f.Name)
		frag, fragArgs, ok := t.printfFragment(ast.Pos{}, access, f.Type)
		if !ok {
			return "", nil, false
		}
		format.WriteString(f.Name + ": " + frag)
		args = append(args, fragArgs...)
	}
	format.WriteString(" }")
	return format.String(), args, true
}

// emitArrayConsoleLog renders `[1, 2, 3]`-shaped output for an array-typed
// console.log argument via a runtime loop: array contents are not known at
// transpile time, so unlike a struct's fields they cannot fold into one
// static format string.
func (t *Transpiler) emitArrayConsoleLog(pos ast.Pos, cExpr string, cType ctype.CType) bool {
	elem := ctype.VoidPtr()
	if cType.Elem != nil {
		elem = *cType.Elem
	}
	frag, fragArgs, ok := t.printfFragment(pos, "__scriptc_log_elem", elem)
	if !ok {
		return false
	}

	sizeExpr := cExpr + ".size"
	dataExpr := cExpr + ".data"
	if !cType.Dynamic {
		sizeExpr = fmt.Sprintf("%d", cType.Capacity)
		dataExpr = cExpr
	}

	iterVar := t.th.AddNewIteratorVariable(t.scope, &ast.Block{Pos: pos})
	t.em.EmitOnceToBeginningOfFunction("decl:"+iterVar, declStatement(ctype.Int16(), iterVar))

	t.em.EmitPredefinedHeader(emitter.HeaderStdio)
	t.em.Emit(`printf("[");` + "\n")
	t.em.Emit(fmt.Sprintf("for (%s = 0; %s < %s; %s++) {\n", iterVar, iterVar, sizeExpr, iterVar))
	t.em.IncreaseIndent()
	t.em.Emit(fmt.Sprintf(`if (%s > 0) printf(", ");`+"\n", iterVar))
	elemExpr := fmt.Sprintf("%s[%s]", dataExpr, iterVar)
	argLine := fmt.Sprintf(`printf("%s"`, frag)
	for _, a := range fragArgs {
		argLine += ", " + strings.ReplaceAll(a, "__scriptc_log_elem", elemExpr)
	}
	argLine += ");\n"
	t.em.Emit(argLine)
	t.em.DecreaseIndent()
	t.em.Emit("}\n")
	t.em.Emit(`printf("]\n");` + "\n")
	return true
}
