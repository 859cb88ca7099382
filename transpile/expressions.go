package transpile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
	"github.com/scriptc-lang/scriptc/emitter"
)

// transpileExpr lowers e to a C expression string, along with e's CType
// (best-effort: callers that only need the string, such as a statement
// context, ignore it). ok is false when a Diagnostic was recorded and the
// returned string must not be emitted.
func (t *Transpiler) transpileExpr(e ast.Expr) (string, ctype.CType, bool) {
	switch n := e.(type) {
	case *ast.Ident:
		if info, ok := t.th.GetVariableInfo(t.scope, n.Name); ok {
			return n.Name, info.Type, true
		}
		return n.Name, ctype.VoidPtr(), true
	case *ast.NumberLit:
		return formatNumber(n.Value), ctype.Int16(), true
	case *ast.StringLit:
		return normalizeStringLiteral(n), ctype.String(), true
	case *ast.BoolLit:
		t.em.EmitPredefinedHeader(emitter.HeaderBool)
		if n.Value {
			return "TRUE", ctype.Bool(), true
		}
		return "FALSE", ctype.Bool(), true
	case *ast.NullLit:
		return "NULL", ctype.VoidPtr(), true
	case *ast.CallExpr:
		return t.transpileCall(n)
	case *ast.MemberExpr:
		return t.transpileMember(n)
	case *ast.BinaryExpr:
		return t.transpileBinary(n)
	case *ast.LogicalExpr:
		return t.transpileLogical(n)
	case *ast.TernaryExpr:
		return t.transpileTernary(n)
	case *ast.PrefixExpr:
		return t.transpilePrefix(n)
	case *ast.PostfixExpr:
		return t.transpilePostfix(n)
	case *ast.AssignExpr:
		t.report(n.Pos, UnsupportedConstruct, "Assignments inside expressions are not yet supported.")
		return "", ctype.VoidPtr(), false
	case *ast.CompoundAssignExpr:
		return t.transpileCompoundAssignExpr(n)
	case *ast.ArrayLit, *ast.ObjectLit:
		t.report(e.At(), UnsupportedConstruct, "object/array literals are only supported as a variable declaration's initializer")
		return "", ctype.VoidPtr(), false
	case *ast.DestructuringReturnExpr:
		t.report(n.Pos, UnsupportedConstruct, "multi-value return bindings are not supported")
		return "", ctype.VoidPtr(), false
	default:
		t.report(e.At(), UnsupportedNodeKind, "unsupported expression kind %T", e)
		return "", ctype.VoidPtr(), false
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// normalizeStringLiteral reflows a single-quoted source literal to
// double-quoted C syntax, escaping embedded `"` and unescaping embedded
// `\'` (spec §4.4).
func normalizeStringLiteral(s *ast.StringLit) string {
	v := s.Value
	if s.SingleQuoted {
		v = strings.ReplaceAll(v, `\'`, `'`)
	}
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

// transpileAssignTopLevel handles `lhs = rhs` only when it appears directly
// as an ExprStmt — the one place script assignment-as-statement is legal.
func (t *Transpiler) transpileAssignTopLevel(n *ast.AssignExpr) (string, bool) {
	rhsExpr, rhsType, ok := t.transpileExpr(n.RHS)
	if !ok {
		return "", false
	}

	switch lhs := n.LHS.(type) {
	case *ast.Ident:
		return fmt.Sprintf("%s = %s", lhs.Name, rhsExpr), true
	case *ast.MemberExpr:
		target, _, ok := t.transpileAssignableMember(lhs)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s = %s", target, rhsExpr), true
	default:
		t.report(n.Pos, UnsupportedConstruct, "non-assignable left-hand side in assignment")
		_ = rhsType
		return "", false
	}
}

func (t *Transpiler) transpileAssignableMember(n *ast.MemberExpr) (string, ctype.CType, bool) {
	if !n.Computed {
		xExpr, _, ok := t.transpileExpr(n.X)
		if !ok {
			return "", ctype.CType{}, false
		}
		return fmt.Sprintf("%s->%s", xExpr, n.PropName), ctype.VoidPtr(), true
	}
	if sl, ok := n.Prop.(*ast.StringLit); ok {
		xExpr, _, ok := t.transpileExpr(n.X)
		if !ok {
			return "", ctype.CType{}, false
		}
		return fmt.Sprintf("%s->%s", xExpr, sl.Value), ctype.VoidPtr(), true
	}
	xExpr, xType, ok := t.transpileExpr(n.X)
	if !ok {
		return "", ctype.CType{}, false
	}
	propExpr, _, ok := t.transpileExpr(n.Prop)
	if !ok {
		return "", ctype.CType{}, false
	}
	if xType.Kind == ctype.KArray {
		if xType.Dynamic {
			return fmt.Sprintf("%s.data[%s]", xExpr, propExpr), *xType.Elem, true
		}
		return fmt.Sprintf("%s[%s]", xExpr, propExpr), *xType.Elem, true
	}
	return fmt.Sprintf("js_get(%s, %s)", xExpr, propExpr), ctype.VoidPtr(), true
}

// transpileCompoundAssignExpr desugars `lhs += rhs` to `lhs = lhs <op>
// rhs` at emission time; no new CType or escape rule is needed since the
// LHS was already registered by its VariableDeclaration (spec §4.4
// expansion).
func (t *Transpiler) transpileCompoundAssignExpr(n *ast.CompoundAssignExpr) (string, ctype.CType, bool) {
	id, ok := n.LHS.(*ast.Ident)
	if !ok {
		t.report(n.Pos, UnsupportedConstruct, "compound assignment requires an identifier left-hand side")
		return "", ctype.VoidPtr(), false
	}
	info, ok := t.th.GetVariableInfo(t.scope, id.Name)
	if !ok {
		t.report(n.Pos, UnsupportedNodeKind, "variable %q has no resolved type", id.Name)
		return "", ctype.VoidPtr(), false
	}
	rhsExpr, _, ok := t.transpileExpr(n.RHS)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	return fmt.Sprintf("%s = %s %s %s", id.Name, id.Name, n.Op, rhsExpr), info.Type, true
}

func (t *Transpiler) transpilePrefix(n *ast.PrefixExpr) (string, ctype.CType, bool) {
	xExpr, xType, ok := t.transpileExpr(n.X)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	switch n.Op {
	case "!":
		t.em.EmitPredefinedHeader(emitter.HeaderBool)
		return fmt.Sprintf("(!%s)", t.truthyExpr(xExpr, xType)), ctype.Bool(), true
	case "-":
		return fmt.Sprintf("(-%s)", xExpr), xType, true
	default:
		t.report(n.Pos, UnsupportedOperator, "unsupported prefix operator %q", n.Op)
		return "", ctype.VoidPtr(), false
	}
}

func (t *Transpiler) transpilePostfix(n *ast.PostfixExpr) (string, ctype.CType, bool) {
	xExpr, xType, ok := t.transpileExpr(n.X)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	switch n.Op {
	case "++", "--":
		return fmt.Sprintf("%s%s", xExpr, n.Op), xType, true
	default:
		t.report(n.Pos, UnsupportedOperator, "unsupported postfix operator %q", n.Op)
		return "", ctype.VoidPtr(), false
	}
}

// truthyExpr coerces a value to a C boolean condition. A string is falsy
// iff it is empty (spec §4.4's `!` rule, reused here for `&&`/`||`).
func (t *Transpiler) truthyExpr(expr string, ct ctype.CType) string {
	switch ct.Kind {
	case ctype.KString:
		return fmt.Sprintf("(%s != NULL && %s[0] != '\\0')", expr, expr)
	case ctype.KInt16, ctype.KBool:
		return expr
	default:
		t.em.EmitPredefinedHeader(emitter.HeaderJSEq)
		return fmt.Sprintf("js_truthy(%s)", expr)
	}
}

func (t *Transpiler) transpileLogical(n *ast.LogicalExpr) (string, ctype.CType, bool) {
	lExpr, lType, ok := t.transpileExpr(n.L)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	rExpr, rType, ok := t.transpileExpr(n.R)
	if !ok {
		return "", ctype.VoidPtr(), false
	}

	var op string
	switch n.Op {
	case "&&", "||":
		op = n.Op
	default:
		t.report(n.Pos, UnsupportedOperator, "unsupported logical operator %q", n.Op)
		return "", ctype.VoidPtr(), false
	}

	directKinds := func(k ctype.Kind) bool { return k == ctype.KInt16 || k == ctype.KBool }
	if directKinds(lType.Kind) && directKinds(rType.Kind) {
		return fmt.Sprintf("(%s %s %s)", lExpr, op, rExpr), ctype.Bool(), true
	}
	return fmt.Sprintf("(%s %s %s)", t.truthyExpr(lExpr, lType), op, t.truthyExpr(rExpr, rType)), ctype.Bool(), true
}

func (t *Transpiler) transpileTernary(n *ast.TernaryExpr) (string, ctype.CType, bool) {
	condExpr, condType, ok := t.transpileExpr(n.Cond)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	thenExpr, thenType, ok := t.transpileExpr(n.Then)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	elseExpr, elseType, ok := t.transpileExpr(n.Else)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	if thenType.Kind != elseType.Kind {
		t.report(n.Pos, UnsupportedConstruct, "ternary branches must share a type")
		return "", ctype.VoidPtr(), false
	}
	return fmt.Sprintf("(%s ? %s : %s)", t.truthyExpr(condExpr, condType), thenExpr, elseExpr), thenType, true
}

func (t *Transpiler) transpileBinary(n *ast.BinaryExpr) (string, ctype.CType, bool) {
	lExpr, lType, ok := t.transpileExpr(n.L)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	rExpr, rType, ok := t.transpileExpr(n.R)
	if !ok {
		return "", ctype.VoidPtr(), false
	}

	switch n.Op {
	case "==", "!=":
		return t.transpileEquality(n, lExpr, lType, rExpr, rType)
	case "<", "<=", ">", ">=":
		return fmt.Sprintf("(%s %s %s)", lExpr, n.Op, rExpr), ctype.Bool(), true
	case "+":
		if lType.Kind == ctype.KString {
			t.report(n.Pos, UnsupportedOperator, "string concatenation via + is not supported")
			return "", ctype.VoidPtr(), false
		}
		return fmt.Sprintf("(%s + %s)", lExpr, rExpr), ctype.Int16(), true
	case "-", "*", "/", "%":
		return fmt.Sprintf("(%s %s %s)", lExpr, n.Op, rExpr), ctype.Int16(), true
	default:
		t.report(n.Pos, UnsupportedOperator, "unsupported binary operator %q", n.Op)
		return "", ctype.VoidPtr(), false
	}
}

func (t *Transpiler) transpileEquality(n *ast.BinaryExpr, lExpr string, lType ctype.CType, rExpr string, rType ctype.CType) (string, ctype.CType, bool) {
	negate := n.Op == "!="

	if lType.Kind == ctype.KString || rType.Kind == ctype.KString {
		t.em.EmitPredefinedHeader(emitter.HeaderString)
		cmp := fmt.Sprintf("strcmp(%s, %s) == 0", lExpr, rExpr)
		if negate {
			cmp = fmt.Sprintf("strcmp(%s, %s) != 0", lExpr, rExpr)
		}
		return fmt.Sprintf("(%s)", cmp), ctype.Bool(), true
	}
	if lType.Kind == ctype.KInt16 && rType.Kind == ctype.KInt16 {
		op := "=="
		if negate {
			op = "!="
		}
		return fmt.Sprintf("(%s %s %s)", lExpr, op, rExpr), ctype.Bool(), true
	}

	t.em.EmitPredefinedHeader(emitter.HeaderJSEq)
	cmp := fmt.Sprintf("js_eq(%s, %s)", lExpr, rExpr)
	if negate {
		cmp = fmt.Sprintf("!js_eq(%s, %s)", lExpr, rExpr)
	}
	return fmt.Sprintf("(%s)", cmp), ctype.Bool(), true
}

// transpileMember lowers `.length`, struct field access, literal element
// access, array indexing, and the js_get fallback (spec §4.4).
func (t *Transpiler) transpileMember(n *ast.MemberExpr) (string, ctype.CType, bool) {
	if !n.Computed && n.PropName == "length" {
		xExpr, xType, ok := t.transpileExpr(n.X)
		if !ok {
			return "", ctype.VoidPtr(), false
		}
		if xType.Kind == ctype.KArray {
			if xType.Dynamic {
				return xExpr + ".size", ctype.Int16(), true
			}
			return strconv.Itoa(xType.Capacity), ctype.Int16(), true
		}
		if xType.Kind == ctype.KString {
			t.em.EmitPredefinedHeader(emitter.HeaderString)
			return fmt.Sprintf("((int16_t) strlen(%s))", xExpr), ctype.Int16(), true
		}
	}

	if !n.Computed {
		xExpr, xType, ok := t.transpileExpr(n.X)
		if !ok {
			return "", ctype.VoidPtr(), false
		}
		fieldType := ctype.VoidPtr()
		for _, f := range xType.Fields {
			if f.Name == n.PropName {
				fieldType = f.Type
				break
			}
		}
		return fmt.Sprintf("%s->%s", xExpr, n.PropName), fieldType, true
	}

	if sl, ok := n.Prop.(*ast.StringLit); ok {
		xExpr, xType, ok := t.transpileExpr(n.X)
		if !ok {
			return "", ctype.VoidPtr(), false
		}
		fieldType := ctype.VoidPtr()
		for _, f := range xType.Fields {
			if f.Name == sl.Value {
				fieldType = f.Type
				break
			}
		}
		return fmt.Sprintf("%s->%s", xExpr, sl.Value), fieldType, true
	}

	xExpr, xType, ok := t.transpileExpr(n.X)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	propExpr, _, ok := t.transpileExpr(n.Prop)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	if xType.Kind == ctype.KArray {
		elem := ctype.VoidPtr()
		if xType.Elem != nil {
			elem = *xType.Elem
		}
		if xType.Dynamic {
			return fmt.Sprintf("%s.data[%s]", xExpr, propExpr), elem, true
		}
		return fmt.Sprintf("%s[%s]", xExpr, propExpr), elem, true
	}
	t.em.EmitPredefinedHeader(emitter.HeaderJSEq)
	return fmt.Sprintf("js_get(%s, %s)", xExpr, propExpr), ctype.VoidPtr(), true
}

// transpileCall specializes console.log, `.push`, `.pop` on array-typed
// receivers, and reports everything else: script's Non-goals exclude
// first-class/user-defined function calls through anything but a plain
// identifier naming a declared function (spec §1 — closures unsupported).
func (t *Transpiler) transpileCall(n *ast.CallExpr) (string, ctype.CType, bool) {
	if member, ok := n.Callee.(*ast.MemberExpr); ok && !member.Computed {
		if ident, ok := member.X.(*ast.Ident); ok && ident.Name == "console" && member.PropName == "log" {
			return t.transpileConsoleLog(n)
		}

		recv, recvType, ok := t.transpileExpr(member.X)
		if !ok {
			return "", ctype.VoidPtr(), false
		}
		switch member.PropName {
		case "push":
			if recvType.Kind != ctype.KArray {
				t.report(n.Pos, UnsupportedConstruct, ".push is only supported on array-typed variables")
				return "", ctype.VoidPtr(), false
			}
			if len(n.Args) != 1 {
				t.report(n.Pos, UnsupportedConstruct, ".push takes exactly one argument")
				return "", ctype.VoidPtr(), false
			}
			argExpr, _, ok := t.transpileExpr(n.Args[0])
			if !ok {
				return "", ctype.VoidPtr(), false
			}
			t.em.EmitPredefinedHeader(emitter.HeaderArray)
			return fmt.Sprintf("ARRAY_PUSH(%s, %s)", recv, argExpr), ctype.VoidPtr(), true
		case "pop":
			if recvType.Kind != ctype.KArray {
				t.report(n.Pos, UnsupportedConstruct, ".pop is only supported on array-typed variables")
				return "", ctype.VoidPtr(), false
			}
			t.em.EmitPredefinedHeader(emitter.HeaderArrayPop)
			elem := ctype.VoidPtr()
			if recvType.Elem != nil {
				elem = *recvType.Elem
			}
			return fmt.Sprintf("ARRAY_POP(%s)", recv), elem, true
		}
	}

	if ident, ok := n.Callee.(*ast.Ident); ok {
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			argExpr, _, ok := t.transpileExpr(a)
			if !ok {
				return "", ctype.VoidPtr(), false
			}
			args = append(args, argExpr)
		}
		return fmt.Sprintf("%s(%s)", ident.Name, strings.Join(args, ", ")), ctype.VoidPtr(), true
	}

	t.report(n.Pos, UnsupportedConstruct, "unsupported call target")
	return "", ctype.VoidPtr(), false
}

func (t *Transpiler) transpileConsoleLog(n *ast.CallExpr) (string, ctype.CType, bool) {
	t.em.EmitPredefinedHeader(emitter.HeaderStdio)

	if len(n.Args) == 1 {
		cExpr, cType, ok := t.transpileExpr(n.Args[0])
		if !ok {
			return "", ctype.VoidPtr(), false
		}
		if cType.Kind == ctype.KArray {
			if !t.emitArrayConsoleLog(n.Args[0].At(), cExpr, cType) {
				return "", ctype.VoidPtr(), false
			}
			return "", ctype.VoidPtr(), true
		}
		frag, fragArgs, ok := t.printfFragment(n.Args[0].At(), cExpr, cType)
		if !ok {
			return "", ctype.VoidPtr(), false
		}
		call := fmt.Sprintf(`printf("%s\n"`, frag)
		for _, a := range fragArgs {
			call += ", " + a
		}
		call += ")"
		return call, ctype.VoidPtr(), true
	}

	format, args, ok := t.printfParts(n.Args)
	if !ok {
		return "", ctype.VoidPtr(), false
	}
	call := fmt.Sprintf(`printf("%s\n"`, format)
	for _, a := range args {
		call += ", " + a
	}
	call += ")"
	return call, ctype.VoidPtr(), true
}
