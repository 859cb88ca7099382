// Package transpile implements the Transpiler (spec.md §4.4): the
// recursive walk that lowers one ast.Program into C source text, dispatched
// by the registry TypeHelper built and the bookkeeping MemoryManager
// maintains, writing into an Emitter.
package transpile

import (
	"fmt"
	"strings"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
	"github.com/scriptc-lang/scriptc/emitter"
	"github.com/scriptc-lang/scriptc/memory"
	"github.com/scriptc-lang/scriptc/oracle"
	"github.com/scriptc-lang/scriptc/typeinfo"
)

// Transpiler is component D. It never throws: every failure is recorded as
// a Diagnostic and the walk continues, so a caller sees every problem in a
// unit instead of only the first one.
type Transpiler struct {
	th *typeinfo.TypeHelper
	oc oracle.TypeOracle
	mm *memory.MemoryManager
	em *emitter.Emitter

	diags []*Diagnostic
	scope string // current function name; "" only before the first BeginFunction
}

// New builds a Transpiler over an already-populated TypeHelper (its
// registry must already reflect the whole unit) and a MemoryManager that
// has already run Preprocess.
func New(th *typeinfo.TypeHelper, oc oracle.TypeOracle, mm *memory.MemoryManager, em *emitter.Emitter) *Transpiler {
	return &Transpiler{th: th, oc: oc, mm: mm, em: em}
}

// Diagnostics returns every error accumulated so far.
func (t *Transpiler) Diagnostics() []*Diagnostic {
	return t.diags
}

// TranspileProgram lowers every function declaration in unit. Callers
// should check Diagnostics() afterward before trusting anything was
// written to the Emitter.
func (t *Transpiler) TranspileProgram(unit *ast.Program) {
	t.emitTypedefs()
	t.mm.InsertGCVariablesCreationIfNecessary("", t.th.Registry(), t.em)
	for _, fn := range unit.Decls {
		t.transpileFunction(fn)
	}
}

// emitTypedefs walks every variable's CType in the registry and emits one
// typedef per distinct struct or dynamic-array shape, in an order where a
// type using another as a field always follows it (C requires the
// dependency defined first). Two variables with the same struct shape —
// same field names and types, any declaration order — share one typedef,
// since ctype.Struct already canonicalizes the Name by signature.
func (t *Transpiler) emitTypedefs() {
	seen := make(map[string]bool)
	var visit func(ct ctype.CType)
	visit = func(ct ctype.CType) {
		switch ct.Kind {
		case ctype.KStruct:
			for _, f := range ct.Fields {
				visit(f.Type)
			}
			if !seen[ct.Name] {
				seen[ct.Name] = true
				t.em.EmitTo(emitter.TargetGlobals, ctype.StructTypedef(ct))
			}
		case ctype.KArray:
			if ct.Elem != nil {
				visit(*ct.Elem)
			}
			if ct.Dynamic {
				name, decl := ctype.DynamicArrayTypedef(*ct.Elem)
				if !seen[name] {
					seen[name] = true
					t.em.EmitTo(emitter.TargetGlobals, decl)
				}
			}
		case ctype.KPointer:
			if ct.Elem != nil {
				visit(*ct.Elem)
			}
		}
	}
	for _, key := range t.th.Registry().Names() {
		if info, ok := t.th.Registry().Get(key); ok {
			visit(info.Type)
		}
	}
}

func (t *Transpiler) transpileFunction(fn *ast.FunctionDecl) {
	retType := "void "
	if fn.ReturnType != nil {
		retCType := t.th.ConvertType(t.oc.ResolveAnnotation(fn.ReturnType))
		retType = ctype.GetTypeString(retCType)
	}

	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		info, ok := t.th.GetVariableInfo(fn.Name, p.Name)
		if !ok {
			t.report(p.Pos, UnsupportedNodeKind, "parameter %q has no resolved type", p.Name)
			continue
		}
		params = append(params, paramDecl(info.Type, p.Name))
	}

	t.em.BeginFunction(fn.Name)
	t.scope = fn.Name
	t.em.Emit(fmt.Sprintf("%s%s(%s) {\n", retType, fn.Name, joinParams(params)))
	t.em.IncreaseIndent()
	t.em.BeginFunctionBody()

	t.mm.InsertGCVariablesCreationIfNecessary(fn.Name, t.th.Registry(), t.em)
	t.transpileBlock(fn.Body)

	t.em.FinalizeFunction()
	t.mm.InsertDestructorsIfNecessary(fn.Name, t.em)
	t.em.DecreaseIndent()
	t.em.Emit("}\n")
}

func joinParams(params []string) string {
	if len(params) == 0 {
		return "void"
	}
	out := params[0]
	for _, p := range params[1:] {
		out += ", " + p
	}
	return out
}

func paramDecl(ct ctype.CType, name string) string {
	typeStr := ctype.GetTypeString(ct)
	if ct.Kind == ctype.KArray && !ct.Dynamic {
		// Fixed array: GetTypeString returns a "{elem} {var}[{n}]" template.
		return strings.Replace(typeStr, "{var}", name, 1)
	}
	return typeStr + name
}

func (t *Transpiler) transpileBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		t.transpileStmt(s)
	}
}

func (t *Transpiler) transpileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		t.transpileVarDecl(n)
	case *ast.IfStmt:
		t.transpileIf(n)
	case *ast.WhileStmt:
		t.transpileWhile(n)
	case *ast.DoWhileStmt:
		t.transpileDoWhile(n)
	case *ast.ForStmt:
		t.transpileFor(n)
	case *ast.ForOfStmt:
		t.transpileForOf(n)
	case *ast.ForInStmt:
		t.report(n.Pos, UnsupportedConstruct, "for-in loops are not supported")
	case *ast.ReturnStmt:
		t.transpileReturn(n)
	case *ast.ExprStmt:
		t.transpileExprStmt(n)
	case *ast.BreakStmt:
		t.em.Emit("break;\n")
	case *ast.ContinueStmt:
		t.em.Emit("continue;\n")
	case *ast.Block:
		t.em.Emit("{\n")
		t.em.IncreaseIndent()
		t.transpileBlock(n)
		t.em.DecreaseIndent()
		t.em.Emit("}\n")
	default:
		t.report(s.At(), UnsupportedNodeKind, "unsupported statement kind %T", s)
	}
}

// transpileVarDecl places the C declaration in the function prologue,
// allocates if requiresAllocation, and emits the initializer as an
// assignment (spec §4.4).
func (t *Transpiler) transpileVarDecl(v *ast.VarDecl) {
	if _, ok := v.Init.(*ast.DestructuringReturnExpr); ok {
		t.report(v.Pos, UnsupportedConstruct, "multi-value return bindings are not supported")
		return
	}

	info, ok := t.th.GetVariableInfo(t.scope, v.Name)
	if !ok {
		t.report(v.Pos, UnsupportedNodeKind, "variable %q has no resolved type", v.Name)
		return
	}

	t.em.EmitOnceToBeginningOfFunction("decl:"+v.Name, declStatement(info.Type, v.Name))

	if info.RequiresAllocation {
		t.emitAllocation(info)
		t.mm.RegisterAllocation(t.scope, info)
	}

	if v.Init == nil {
		return
	}

	switch init := v.Init.(type) {
	case *ast.ObjectLit:
		t.emitObjectLiteralAssignment(info, init)
	case *ast.ArrayLit:
		t.emitArrayLiteralAssignment(info, init)
	default:
		expr, _, ok := t.transpileExpr(init)
		if !ok {
			return
		}
		t.em.Emit(fmt.Sprintf("%s = %s;\n", v.Name, expr))
	}
}

func declStatement(ct ctype.CType, name string) string {
	typeStr := ctype.GetTypeString(ct)
	if ct.Kind == ctype.KArray && !ct.Dynamic {
		return strings.Replace(typeStr, "{var}", name, 1) + ";\n"
	}
	return typeStr + name + ";\n"
}

func (t *Transpiler) emitAllocation(info *typeinfo.VariableInfo) {
	if info.Type.Kind == ctype.KArray {
		logicalCap := info.Type.Capacity
		physCap := logicalCap * 2
		if physCap < 4 {
			physCap = 4
		}
		t.em.EmitPredefinedHeader(emitter.HeaderArray)
		t.em.Emit(fmt.Sprintf("ARRAY_CREATE(%s, %d, %d);\n", info.Name, physCap, logicalCap))
		return
	}
	t.em.EmitPredefinedHeader(emitter.HeaderStdlib)
	t.em.EmitPredefinedHeader(emitter.HeaderAssert)
	t.em.Emit(fmt.Sprintf("%s = malloc(sizeof(*%s));\n", info.Name, info.Name))
	t.em.Emit(fmt.Sprintf("assert(%s != NULL);\n", info.Name))
}

func (t *Transpiler) emitObjectLiteralAssignment(info *typeinfo.VariableInfo, lit *ast.ObjectLit) {
	for _, name := range lit.FieldOrder {
		expr, _, ok := t.transpileExpr(lit.Fields[name])
		if !ok {
			continue
		}
		t.em.Emit(fmt.Sprintf("%s->%s = %s;\n", info.Name, name, expr))
	}
}

func (t *Transpiler) emitArrayLiteralAssignment(info *typeinfo.VariableInfo, lit *ast.ArrayLit) {
	for i, el := range lit.Elements {
		expr, _, ok := t.transpileExpr(el)
		if !ok {
			continue
		}
		target := fmt.Sprintf("%s[%d]", info.Name, i)
		if info.Type.Dynamic {
			target = fmt.Sprintf("%s.data[%d]", info.Name, i)
		}
		t.em.Emit(fmt.Sprintf("%s = %s;\n", target, expr))
	}
	if info.Type.Dynamic {
		t.em.Emit(fmt.Sprintf("%s.size = %d;\n", info.Name, len(lit.Elements)))
	}
}

func (t *Transpiler) transpileIf(n *ast.IfStmt) {
	cond, _, ok := t.transpileExpr(n.Cond)
	if !ok {
		return
	}
	t.em.Emit(fmt.Sprintf("if (%s) {\n", cond))
	t.em.IncreaseIndent()
	t.transpileBlock(n.Then)
	t.em.DecreaseIndent()
	if n.Else != nil {
		t.em.Emit("} else {\n")
		t.em.IncreaseIndent()
		t.transpileBlock(n.Else)
		t.em.DecreaseIndent()
	}
	t.em.Emit("}\n")
}

func (t *Transpiler) transpileWhile(n *ast.WhileStmt) {
	cond, _, ok := t.transpileExpr(n.Cond)
	if !ok {
		return
	}
	t.em.Emit(fmt.Sprintf("while (%s) {\n", cond))
	t.em.IncreaseIndent()
	t.transpileBlock(n.Body)
	t.em.DecreaseIndent()
	t.em.Emit("}\n")
}

func (t *Transpiler) transpileDoWhile(n *ast.DoWhileStmt) {
	t.em.Emit("do {\n")
	t.em.IncreaseIndent()
	t.transpileBlock(n.Body)
	t.em.DecreaseIndent()
	cond, _, ok := t.transpileExpr(n.Cond)
	if !ok {
		cond = "0"
	}
	t.em.Emit(fmt.Sprintf("} while (%s);\n", cond))
}

// transpileFor hoists every binding in n.Init into the prologue (C89 allows
// only one declaration slot in a for-header) and keeps at most the first
// one inline, per scenario E4.
func (t *Transpiler) transpileFor(n *ast.ForStmt) {
	var headerInit string
	for i, v := range n.Init {
		info, ok := t.th.GetVariableInfo(t.scope, v.Name)
		if !ok {
			t.report(v.Pos, UnsupportedNodeKind, "variable %q has no resolved type", v.Name)
			continue
		}
		t.em.EmitOnceToBeginningOfFunction("decl:"+v.Name, declStatement(info.Type, v.Name))

		if v.Init == nil {
			continue
		}
		expr, _, ok := t.transpileExpr(v.Init)
		if !ok {
			continue
		}
		if i == 0 {
			headerInit = fmt.Sprintf("%s = %s", v.Name, expr)
		} else {
			t.em.Emit(fmt.Sprintf("%s = %s;\n", v.Name, expr))
		}
	}

	cond := ""
	if n.Cond != nil {
		if c, _, ok := t.transpileExpr(n.Cond); ok {
			cond = c
		}
	}
	post := ""
	if n.Post != nil {
		if p, _, ok := t.transpileExpr(n.Post); ok {
			post = p
		}
	}

	t.em.Emit(fmt.Sprintf("for (%s; %s; %s) {\n", headerInit, cond, post))
	t.em.IncreaseIndent()
	t.transpileBlock(n.Body)
	t.em.DecreaseIndent()
	t.em.Emit("}\n")
}

// transpileForOf lowers `for (x of arr)` into an index-counter C loop, per
// scenario E5: the iterand must be a plain identifier naming an array.
func (t *Transpiler) transpileForOf(n *ast.ForOfStmt) {
	ident, ok := n.Iterand.(*ast.Ident)
	if !ok {
		t.report(n.Pos, UnsupportedConstruct, "for-of requires an identifier iterand")
		return
	}
	arrInfo, ok := t.th.GetVariableInfo(t.scope, ident.Name)
	if !ok || arrInfo.Type.Kind != ctype.KArray {
		t.report(n.Pos, UnsupportedConstruct, "for-of iterand %q is not an array", ident.Name)
		return
	}
	elemInfo, ok := t.th.GetVariableInfo(t.scope, n.VarName)
	if !ok {
		t.report(n.Pos, UnsupportedNodeKind, "for-of binding %q has no resolved type", n.VarName)
		return
	}

	iterVar := t.th.AddNewIteratorVariable(t.scope, n)
	t.em.EmitOnceToBeginningOfFunction("decl:"+iterVar, declStatement(ctype.Int16(), iterVar))
	t.em.EmitOnceToBeginningOfFunction("decl:"+n.VarName, declStatement(elemInfo.Type, n.VarName))

	sizeExpr := ident.Name + ".size"
	if !arrInfo.Type.Dynamic {
		sizeExpr = fmt.Sprintf("%d", arrInfo.Type.Capacity)
	}
	elemAccess := fmt.Sprintf("%s[%s]", ident.Name, iterVar)
	if arrInfo.Type.Dynamic {
		elemAccess = fmt.Sprintf("%s.data[%s]", ident.Name, iterVar)
	}

	t.em.Emit(fmt.Sprintf("for (%s = 0; %s < %s; %s++) {\n", iterVar, iterVar, sizeExpr, iterVar))
	t.em.IncreaseIndent()
	t.em.Emit(fmt.Sprintf("%s = %s;\n", n.VarName, elemAccess))
	t.transpileBlock(n.Body)
	t.em.DecreaseIndent()
	t.em.Emit("}\n")
}

// transpileReturn runs every destructor owed at this scope before emitting
// the C return (spec §4.4: "destructors before return").
func (t *Transpiler) transpileReturn(n *ast.ReturnStmt) {
	if n.Value == nil {
		t.mm.InsertDestructorsIfNecessary(t.scope, t.em)
		t.em.Emit("return;\n")
		return
	}
	expr, _, ok := t.transpileExpr(n.Value)
	if !ok {
		return
	}
	if id, ok := n.Value.(*ast.Ident); ok {
		if info, ok := t.th.GetVariableInfo(t.scope, id.Name); ok && info.RequiresAllocation {
			t.mm.InsertGlobalPointerIfNecessary(info, t.em)
		}
	}
	t.mm.InsertDestructorsIfNecessary(t.scope, t.em)
	t.em.Emit(fmt.Sprintf("return %s;\n", expr))
}

// transpileExprStmt is the one context where `lhs = rhs` is legal: as a
// bare statement. Everywhere else AssignExpr is nested inside another
// expression and transpileExpr reports it (spec §4.4, scenario E6).
func (t *Transpiler) transpileExprStmt(n *ast.ExprStmt) {
	if assign, ok := n.X.(*ast.AssignExpr); ok {
		if lhsID, isIdent := assign.LHS.(*ast.Ident); isIdent {
			info, ok := t.th.GetVariableInfo(t.scope, lhsID.Name)
			if ok {
				if objLit, isObj := assign.RHS.(*ast.ObjectLit); isObj {
					t.emitObjectLiteralAssignment(info, objLit)
					return
				}
				if arrLit, isArr := assign.RHS.(*ast.ArrayLit); isArr {
					t.emitArrayLiteralAssignment(info, arrLit)
					return
				}
			}
		}
		expr, ok := t.transpileAssignTopLevel(assign)
		if !ok {
			return
		}
		t.em.Emit(expr + ";\n")
		return
	}
	expr, _, ok := t.transpileExpr(n.X)
	if !ok {
		return
	}
	if expr == "" {
		// The printf sub-transpiler may have already emitted a full
		// runtime loop (array rendering) directly; there is no trailing
		// expression to turn into a statement.
		return
	}
	t.em.Emit(expr + ";\n")
}
