package memory

import (
	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/typeinfo"
)

// escapeGraph is the flow-insensitive assignment graph from spec.md §4.2:
// nodes are variables identified by typeinfo.Key (function + bare name, not
// bare name alone — two functions may each declare their own "x" without
// aliasing one another's), edges are "X may contain (a reference to) Y".
// The graph is undirected for our purposes — aliasing runs both ways, since
// two names that may refer to the same heap allocation must be promoted
// together regardless of which one a return statement names.
type escapeGraph struct {
	adjacency map[typeinfo.Key]map[typeinfo.Key]bool
	sources   map[typeinfo.Key]bool
}

func newEscapeGraph() *escapeGraph {
	return &escapeGraph{
		adjacency: make(map[typeinfo.Key]map[typeinfo.Key]bool),
		sources:   make(map[typeinfo.Key]bool),
	}
}

func (g *escapeGraph) addEdge(a, b typeinfo.Key) {
	if a == b {
		return
	}
	if g.adjacency[a] == nil {
		g.adjacency[a] = make(map[typeinfo.Key]bool)
	}
	if g.adjacency[b] == nil {
		g.adjacency[b] = make(map[typeinfo.Key]bool)
	}
	g.adjacency[a][b] = true
	g.adjacency[b][a] = true
}

func (g *escapeGraph) markSource(key typeinfo.Key) {
	g.sources[key] = true
}

// propagate runs the monotone fixed point: starting from sources, mark every
// reachable node as escaping. Iterates until a full pass adds nothing new.
func (g *escapeGraph) propagate() map[typeinfo.Key]bool {
	escaping := make(map[typeinfo.Key]bool, len(g.sources))
	for key := range g.sources {
		escaping[key] = true
	}
	for changed := true; changed; {
		changed = false
		for key := range escaping {
			for neighbor := range g.adjacency[key] {
				if !escaping[neighbor] {
					escaping[neighbor] = true
					changed = true
				}
			}
		}
	}
	return escaping
}

// walkFunctionBody records every escape edge and escape source reachable
// from a single function body, named fnName: VarDecl initializers and
// assignments (to a variable, or to a field or element of one) alias their
// two sides, `.push(...)` calls alias the pushed value with the container,
// and a return operand seeds the fixed point directly. Every
// node recorded is keyed under fnName, so the same bare name in a
// different function never joins this graph.
func walkFunctionBody(g *escapeGraph, fnName string, body *ast.Block) {
	if body == nil {
		return
	}
	for _, s := range body.Stmts {
		walkStmtForEscape(g, fnName, s)
	}
}

func walkStmtForEscape(g *escapeGraph, fnName string, s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		if n.Init != nil {
			for _, id := range identsIn(n.Init) {
				g.addEdge(typeinfo.Key{Func: fnName, Name: n.Name}, typeinfo.Key{Func: fnName, Name: id})
			}
		}
	case *ast.ExprStmt:
		walkExprForEscape(g, fnName, n.X)
	case *ast.ReturnStmt:
		if n.Value != nil {
			for _, id := range identsIn(n.Value) {
				g.markSource(typeinfo.Key{Func: fnName, Name: id})
			}
		}
	case *ast.Block:
		walkFunctionBody(g, fnName, n)
	case *ast.IfStmt:
		walkFunctionBody(g, fnName, n.Then)
		walkFunctionBody(g, fnName, n.Else)
	case *ast.WhileStmt:
		walkFunctionBody(g, fnName, n.Body)
	case *ast.DoWhileStmt:
		walkFunctionBody(g, fnName, n.Body)
	case *ast.ForStmt:
		for _, v := range n.Init {
			if v.Init != nil {
				for _, id := range identsIn(v.Init) {
					g.addEdge(typeinfo.Key{Func: fnName, Name: v.Name}, typeinfo.Key{Func: fnName, Name: id})
				}
			}
		}
		if n.Post != nil {
			walkExprForEscape(g, fnName, n.Post)
		}
		walkFunctionBody(g, fnName, n.Body)
	case *ast.ForOfStmt:
		walkFunctionBody(g, fnName, n.Body)
	case *ast.ForInStmt:
		walkFunctionBody(g, fnName, n.Body)
	}
}

func walkExprForEscape(g *escapeGraph, fnName string, e ast.Expr) {
	switch n := e.(type) {
	case *ast.AssignExpr:
		// A store into a field or element aliases the value with the
		// variable that owns that field or element.
		lhs := n.LHS
		for m, ok := lhs.(*ast.MemberExpr); ok; m, ok = lhs.(*ast.MemberExpr) {
			lhs = m.X
		}
		if id, ok := lhs.(*ast.Ident); ok {
			for _, rid := range identsIn(n.RHS) {
				g.addEdge(typeinfo.Key{Func: fnName, Name: id.Name}, typeinfo.Key{Func: fnName, Name: rid})
			}
		}
	case *ast.CompoundAssignExpr:
		if id, ok := n.LHS.(*ast.Ident); ok {
			for _, rid := range identsIn(n.RHS) {
				g.addEdge(typeinfo.Key{Func: fnName, Name: id.Name}, typeinfo.Key{Func: fnName, Name: rid})
			}
		}
	case *ast.CallExpr:
		if member, ok := n.Callee.(*ast.MemberExpr); ok && !member.Computed && member.PropName == "push" && len(n.Args) == 1 {
			if arr, ok := member.X.(*ast.Ident); ok {
				for _, id := range identsIn(n.Args[0]) {
					g.addEdge(typeinfo.Key{Func: fnName, Name: arr.Name}, typeinfo.Key{Func: fnName, Name: id})
				}
			}
		}
	}
}

// identsIn collects every identifier reachable from e without crossing a
// call boundary's own declarations — enough to find, e.g., the two field
// values in `return {a: x, b: y}` as sources aliasing the returned struct.
func identsIn(e ast.Expr) []string {
	var out []string
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case nil:
		case *ast.Ident:
			out = append(out, n.Name)
		case *ast.ArrayLit:
			for _, el := range n.Elements {
				walk(el)
			}
		case *ast.ObjectLit:
			for _, name := range n.FieldOrder {
				walk(n.Fields[name])
			}
		case *ast.MemberExpr:
			walk(n.X)
			if n.Computed {
				walk(n.Prop)
			}
		case *ast.BinaryExpr:
			walk(n.L)
			walk(n.R)
		case *ast.LogicalExpr:
			walk(n.L)
			walk(n.R)
		case *ast.TernaryExpr:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *ast.CallExpr:
			walk(n.Callee)
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.PrefixExpr:
			walk(n.X)
		case *ast.PostfixExpr:
			walk(n.X)
		case *ast.AssignExpr:
			walk(n.LHS)
			walk(n.RHS)
		case *ast.CompoundAssignExpr:
			walk(n.LHS)
			walk(n.RHS)
		}
	}
	walk(e)
	return out
}
