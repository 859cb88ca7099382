package typeinfo

import "github.com/scriptc-lang/scriptc/ast"

// provablePushCount counts `varName.push(...)` calls that are statically
// guaranteed to execute exactly once each time body runs: straight-line
// statements only. A push reachable through an IfStmt, loop, or any other
// conditional/repeating construct makes the total unprovable (spec §4.1:
// "if not provable, the array is dynamic"), so the scan stops and reports
// ok=false as soon as it steps into one of those.
func provablePushCount(body *ast.Block, varName string) (count int, ok bool) {
	if body == nil {
		return 0, true
	}
	for _, s := range body.Stmts {
		switch n := s.(type) {
		case *ast.ExprStmt:
			if isPushCall(n.X, varName) {
				count++
			}
		case *ast.VarDecl, *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
			// no push possible here
		default:
			// Any control-flow statement (if/while/for/for-of/for-in/block)
			// makes the push count unprovable.
			return count, false
		}
	}
	return count, true
}

func isPushCall(e ast.Expr, varName string) bool {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return false
	}
	member, ok := call.Callee.(*ast.MemberExpr)
	if !ok || member.Computed || member.PropName != "push" {
		return false
	}
	id, ok := member.X.(*ast.Ident)
	return ok && id.Name == varName
}
