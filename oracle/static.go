package oracle

import "github.com/scriptc-lang/scriptc/ast"

// StaticOracle resolves types directly from declaration-site annotations
// and the shape of literal initializers, with no external type-checker
// dependency. It keeps one flat name->Type table for the whole program: a
// later declaration simply overwrites an earlier same-named entry. Callers
// that need a variable's type to survive past the end of NewStaticOracle's
// single walk (TypeHelper's registry, the escape graph) must not key their
// own state by bare name for this reason — they key by (function, name)
// instead, so a later function's param never clobbers an earlier one's.
type StaticOracle struct {
	vars  map[string]Type
	funcs map[string]Signature
}

// NewStaticOracle builds the oracle by walking prog once, resolving every
// VarDecl, parameter and for-of binding it finds along the way.
func NewStaticOracle(prog *ast.Program) *StaticOracle {
	o := &StaticOracle{vars: make(map[string]Type), funcs: make(map[string]Signature)}
	for _, fn := range prog.Decls {
		sig := o.buildSignature(fn)
		o.funcs[fn.Name] = sig
		for i, p := range fn.Params {
			if i < len(sig.ParamTypes) {
				o.vars[p.Name] = sig.ParamTypes[i]
			}
		}
		o.walkBlock(fn.Body)
	}
	return o
}

func (o *StaticOracle) walkBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		o.walkStmt(s)
	}
}

func (o *StaticOracle) walkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		var t Type
		switch {
		case n.Type != nil:
			t = o.resolveTypeExpr(n.Type)
		case n.Init != nil:
			t, _ = o.TypeOf(n.Init)
		default:
			t = Type{Kind: KindUnknown}
		}
		o.vars[n.Name] = t
	case *ast.Block:
		o.walkBlock(n)
	case *ast.IfStmt:
		o.walkBlock(n.Then)
		o.walkBlock(n.Else)
	case *ast.WhileStmt:
		o.walkBlock(n.Body)
	case *ast.DoWhileStmt:
		o.walkBlock(n.Body)
	case *ast.ForStmt:
		for _, v := range n.Init {
			o.walkStmt(v)
		}
		o.walkBlock(n.Body)
	case *ast.ForOfStmt:
		if it, ok := o.TypeOf(n.Iterand); ok && it.Kind == KindArray && it.Elem != nil {
			o.vars[n.VarName] = *it.Elem
		}
		o.walkBlock(n.Body)
	case *ast.ForInStmt:
		o.walkBlock(n.Body)
	}
}

// TypeOf resolves e from the symbol table built by NewStaticOracle and the
// recursive shape of literal expressions.
func (o *StaticOracle) TypeOf(e ast.Expr) (Type, bool) {
	switch n := e.(type) {
	case nil:
		return Type{}, false
	case *ast.NumberLit:
		return Type{Kind: KindNumber}, true
	case *ast.StringLit:
		return Type{Kind: KindString}, true
	case *ast.BoolLit:
		return Type{Kind: KindBool}, true
	case *ast.NullLit:
		return Type{Kind: KindUnknown}, true
	case *ast.Ident:
		t, ok := o.vars[n.Name]
		return t, ok
	case *ast.ArrayLit:
		elem := Type{Kind: KindUnknown}
		if len(n.Elements) > 0 {
			if t, ok := o.TypeOf(n.Elements[0]); ok {
				elem = t
			}
		}
		return Type{Kind: KindArray, Elem: &elem, Capacity: len(n.Elements)}, true
	case *ast.ObjectLit:
		fields := make([]Field, 0, len(n.FieldOrder))
		for _, name := range n.FieldOrder {
			ft, _ := o.TypeOf(n.Fields[name])
			fields = append(fields, Field{Name: name, Type: ft})
		}
		return Type{Kind: KindObject, Fields: fields}, true
	case *ast.MemberExpr:
		return o.memberType(n)
	case *ast.CallExpr:
		return o.callType(n)
	case *ast.BinaryExpr:
		return o.binaryType(n)
	case *ast.LogicalExpr:
		return Type{Kind: KindBool}, true
	case *ast.TernaryExpr:
		return o.TypeOf(n.Then)
	case *ast.AssignExpr:
		return o.TypeOf(n.LHS)
	case *ast.CompoundAssignExpr:
		return o.TypeOf(n.LHS)
	case *ast.PrefixExpr:
		if n.Op == "!" {
			return Type{Kind: KindBool}, true
		}
		return o.TypeOf(n.X)
	case *ast.PostfixExpr:
		return o.TypeOf(n.X)
	default:
		return Type{}, false
	}
}

func (o *StaticOracle) memberType(n *ast.MemberExpr) (Type, bool) {
	if n.Computed {
		xt, ok := o.TypeOf(n.X)
		if !ok {
			return Type{}, false
		}
		switch xt.Kind {
		case KindArray:
			if xt.Elem != nil {
				return *xt.Elem, true
			}
			return Type{}, false
		case KindObject:
			if sl, ok := n.Prop.(*ast.StringLit); ok {
				for _, f := range xt.Fields {
					if f.Name == sl.Value {
						return f.Type, true
					}
				}
			}
		}
		return Type{Kind: KindUnknown}, true
	}

	if n.PropName == "length" {
		return Type{Kind: KindNumber}, true
	}
	xt, ok := o.TypeOf(n.X)
	if !ok {
		return Type{}, false
	}
	if xt.Kind == KindObject {
		for _, f := range xt.Fields {
			if f.Name == n.PropName {
				return f.Type, true
			}
		}
	}
	return Type{Kind: KindUnknown}, true
}

func (o *StaticOracle) callType(n *ast.CallExpr) (Type, bool) {
	if me, ok := n.Callee.(*ast.MemberExpr); ok && !me.Computed && me.PropName == "pop" {
		if xt, ok := o.TypeOf(me.X); ok && xt.Kind == KindArray && xt.Elem != nil {
			return *xt.Elem, true
		}
	}
	if id, ok := n.Callee.(*ast.Ident); ok {
		if sig, ok := o.funcs[id.Name]; ok {
			return sig.Return, true
		}
	}
	return Type{Kind: KindUnknown}, true
}

func (o *StaticOracle) binaryType(n *ast.BinaryExpr) (Type, bool) {
	switch n.Op {
	case "<", "<=", ">", ">=", "==", "===":
		return Type{Kind: KindBool}, true
	case "+":
		if lt, ok := o.TypeOf(n.L); ok && lt.Kind == KindString {
			return Type{Kind: KindString}, true
		}
		return Type{Kind: KindNumber}, true
	default:
		return Type{Kind: KindNumber}, true
	}
}

// SignatureOf returns the pre-resolved signature computed in NewStaticOracle.
func (o *StaticOracle) SignatureOf(fn *ast.FunctionDecl) (Signature, bool) {
	sig, ok := o.funcs[fn.Name]
	return sig, ok
}

func (o *StaticOracle) buildSignature(fn *ast.FunctionDecl) Signature {
	sig := Signature{
		ParamNames: make([]string, 0, len(fn.Params)),
		ParamTypes: make([]Type, 0, len(fn.Params)),
	}
	for _, p := range fn.Params {
		sig.ParamNames = append(sig.ParamNames, p.Name)
		if p.Type != nil {
			sig.ParamTypes = append(sig.ParamTypes, o.resolveTypeExpr(p.Type))
		} else {
			sig.ParamTypes = append(sig.ParamTypes, Type{Kind: KindUnknown})
		}
	}
	if fn.ReturnType != nil {
		sig.Return = o.resolveTypeExpr(fn.ReturnType)
	} else {
		sig.Return = Type{Kind: KindUnknown}
	}
	return sig
}

// ResolveAnnotation is the exported form of resolveTypeExpr, satisfying
// TypeOracle.ResolveAnnotation.
func (o *StaticOracle) ResolveAnnotation(te ast.TypeExpr) Type {
	return o.resolveTypeExpr(te)
}

func (o *StaticOracle) resolveTypeExpr(te ast.TypeExpr) Type {
	switch t := te.(type) {
	case *ast.NamedType:
		switch t.Name {
		case "number":
			return Type{Kind: KindNumber}
		case "string":
			return Type{Kind: KindString}
		case "bool":
			return Type{Kind: KindBool}
		default:
			return Type{Kind: KindUnknown}
		}
	case *ast.ArrayTypeExpr:
		elem := o.resolveTypeExpr(t.Elem)
		return Type{Kind: KindArray, Elem: &elem, Capacity: t.Capacity}
	case *ast.ObjectTypeExpr:
		fields := make([]Field, 0, len(t.FieldOrder))
		for _, name := range t.FieldOrder {
			fields = append(fields, Field{Name: name, Type: o.resolveTypeExpr(t.Fields[name])})
		}
		return Type{Kind: KindObject, Fields: fields}
	default:
		return Type{Kind: KindUnknown}
	}
}
