// Package typeinfo implements TypeHelper (spec.md §4.1): the single
// whole-compilation-unit walk that assigns every script variable and
// expression a C-level semantic CType, and builds the variable registry
// the rest of the pipeline consults.
package typeinfo

import (
	"fmt"

	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/ctype"
	"github.com/scriptc-lang/scriptc/oracle"
)

// TypeHelper is component A.
type TypeHelper struct {
	oracle      oracle.TypeOracle
	reg         *Registry
	iterCounter int
	done        map[*ast.Program]bool
}

// New builds a TypeHelper backed by oc.
func New(oc oracle.TypeOracle) *TypeHelper {
	return &TypeHelper{
		oracle: oc,
		reg:    NewRegistry(),
		done:   make(map[*ast.Program]bool),
	}
}

// Registry exposes the variable registry populated by
// FigureOutVariablesAndTypes.
func (h *TypeHelper) Registry() *Registry { return h.reg }

// FigureOutVariablesAndTypes populates the variable registry for the whole
// compilation unit. Idempotent: a second call on the same *ast.Program is a
// no-op (spec §4.1).
func (h *TypeHelper) FigureOutVariablesAndTypes(unit *ast.Program) error {
	if h.done[unit] {
		return nil
	}
	for _, fn := range unit.Decls {
		sig, ok := h.oracle.SignatureOf(fn)
		if !ok {
			return fmt.Errorf("typeinfo: could not resolve signature for function %q", fn.Name)
		}
		for i, name := range sig.ParamNames {
			ct := h.ConvertType(sig.ParamTypes[i])
			h.reg.Declare(&VariableInfo{
				Func:               fn.Name,
				Name:               name,
				DeclSite:           fn.Pos,
				Type:               ct,
				RequiresAllocation: ct.RequiresAllocation(),
				IsDynamicArray:     ct.IsDynamicArray(),
			})
		}
		h.walkBlock(fn.Name, fn.Body)
	}
	h.done[unit] = true
	return nil
}

func (h *TypeHelper) walkBlock(fnName string, b *ast.Block) {
	if b == nil {
		return
	}
	for i, s := range b.Stmts {
		if vd, ok := s.(*ast.VarDecl); ok {
			// The remainder of this block is the evidence available for
			// push-count capacity inference (spec §4.1).
			h.declareVar(fnName, vd, &ast.Block{Pos: b.Pos, Stmts: b.Stmts[i+1:]})
			continue
		}
		h.walkStmt(fnName, s)
	}
}

func (h *TypeHelper) walkStmt(fnName string, s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		h.walkBlock(fnName, n)
	case *ast.IfStmt:
		h.walkBlock(fnName, n.Then)
		h.walkBlock(fnName, n.Else)
	case *ast.WhileStmt:
		h.walkBlock(fnName, n.Body)
	case *ast.DoWhileStmt:
		h.walkBlock(fnName, n.Body)
	case *ast.ForStmt:
		for _, v := range n.Init {
			h.declareVar(fnName, v, nil)
		}
		h.walkBlock(fnName, n.Body)
	case *ast.ForOfStmt:
		h.declareForOfVar(fnName, n)
		h.walkBlock(fnName, n.Body)
	case *ast.ForInStmt:
		h.walkBlock(fnName, n.Body)
	}
}

// declareVar registers v under fnName, using followingBody (the remainder
// of v's enclosing block, when known) to provide push-count evidence for
// array capacity inference.
func (h *TypeHelper) declareVar(fnName string, v *ast.VarDecl, followingBody *ast.Block) {
	ct := h.convertVarType(v, followingBody)
	h.reg.Declare(&VariableInfo{
		Func:               fnName,
		Name:               v.Name,
		DeclSite:           v.Pos,
		Type:               ct,
		RequiresAllocation: ct.RequiresAllocation(),
		IsDynamicArray:     ct.IsDynamicArray(),
	})
}

func (h *TypeHelper) declareForOfVar(fnName string, n *ast.ForOfStmt) {
	var elemCType ctype.CType
	if ot, ok := h.oracle.TypeOf(n.Iterand); ok && ot.Kind == oracle.KindArray && ot.Elem != nil {
		elemCType = h.ConvertType(*ot.Elem)
	} else {
		elemCType = ctype.VoidPtr()
	}
	h.reg.Declare(&VariableInfo{
		Func:               fnName,
		Name:               n.VarName,
		DeclSite:           n.Pos,
		Type:               elemCType,
		RequiresAllocation: elemCType.RequiresAllocation(),
		IsDynamicArray:     elemCType.IsDynamicArray(),
	})
}

// ConvertType maps a resolved oracle.Type to its CType per the rules in
// spec.md §4.1. It does not have access to push-count evidence — callers
// that need full array-capacity inference for a declaration go through
// convertVarType instead.
func (h *TypeHelper) ConvertType(t oracle.Type) ctype.CType {
	switch t.Kind {
	case oracle.KindNumber:
		return ctype.Int16()
	case oracle.KindString:
		return ctype.String()
	case oracle.KindBool:
		return ctype.Bool()
	case oracle.KindArray:
		elem := ctype.VoidPtr()
		if t.Elem != nil {
			elem = h.ConvertType(*t.Elem)
		}
		dynamic := t.Capacity == 0
		return ctype.Array(elem, t.Capacity, dynamic)
	case oracle.KindObject:
		fields := make([]ctype.Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, ctype.Field{Name: f.Name, Type: h.ConvertType(f.Type)})
		}
		return ctype.Struct(fields)
	default:
		return ctype.VoidPtr()
	}
}

// convertVarType resolves v's CType, applying spec §4.1's array-capacity
// algorithm: the capacity is the max of the literal initializer length, any
// statically provable push-count upper bound, and the annotated capacity;
// an unprovable push count forces a dynamic array.
func (h *TypeHelper) convertVarType(v *ast.VarDecl, followingBody *ast.Block) ctype.CType {
	var base oracle.Type
	switch {
	case v.Type != nil:
		base = h.oracle.ResolveAnnotation(v.Type)
	case v.Init != nil:
		if t, ok := h.oracle.TypeOf(v.Init); ok {
			base = t
		} else {
			base = oracle.Type{Kind: oracle.KindUnknown}
		}
	default:
		base = oracle.Type{Kind: oracle.KindUnknown}
	}

	if base.Kind != oracle.KindArray {
		return h.ConvertType(base)
	}

	literalCap := 0
	if lit, ok := v.Init.(*ast.ArrayLit); ok {
		literalCap = len(lit.Elements)
	}
	// annotatedCap only reflects an explicit type annotation: base.Capacity
	// also carries the literal initializer's element count when v.Type is
	// nil (oracle.TypeOf's *ast.ArrayLit case), which would otherwise make
	// every non-empty literal look annotated and wrongly force a fixed
	// array (spec §4.1: a literal without an annotation stays dynamic).
	annotatedCap := 0
	if v.Type != nil {
		annotatedCap = base.Capacity
	}

	pushCap, provable := 0, true
	if followingBody != nil {
		pushCap, provable = provablePushCount(followingBody, v.Name)
	}

	elem := ctype.VoidPtr()
	if base.Elem != nil {
		elem = h.ConvertType(*base.Elem)
	}

	if !provable {
		return ctype.Array(elem, maxInt(literalCap, annotatedCap), true)
	}

	logicalCap := maxInt(literalCap, maxInt(annotatedCap, pushCap))
	dynamic := annotatedCap == 0
	if dynamic {
		// Capacity here is the logical bound: the physical (over-)allocation
		// is a transpile-time emission detail (spec §4.1: max(cap*2, 4)),
		// not part of a variable's semantic type.
		return ctype.Array(elem, logicalCap, true)
	}
	return ctype.Array(elem, logicalCap, false)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GetTypeString formats ct per spec §3.
func (h *TypeHelper) GetTypeString(ct ctype.CType) string {
	return ctype.GetTypeString(ct)
}

// GetVariableInfo looks up a previously declared identifier within fnName,
// the name of its enclosing function (spec §9: lookup is keyed by a stable
// per-declaration identity, not by bare name alone, so two functions may
// each declare their own "x" without colliding).
func (h *TypeHelper) GetVariableInfo(fnName, identifier string) (*VariableInfo, bool) {
	return h.reg.Get(Key{Func: fnName, Name: identifier})
}

// AddNewIteratorVariable returns a unique, stable identifier for a
// generated int16_t loop counter, declared under fnName. The name itself is
// already unique across the whole translation unit (spec §4.1), but it is
// still registered per-function so its lookup key matches every other
// variable's.
func (h *TypeHelper) AddNewIteratorVariable(fnName string, loop ast.Node) string {
	h.iterCounter++
	name := fmt.Sprintf("iterator_%d", h.iterCounter)
	h.reg.Declare(&VariableInfo{
		Func:     fnName,
		Name:     name,
		DeclSite: loop.At(),
		Type:     ctype.Int16(),
	})
	return name
}
