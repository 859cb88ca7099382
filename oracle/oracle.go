// Package oracle defines the contract TypeHelper relies on to resolve a
// script expression or function signature to a semantic type, and a
// StaticOracle that satisfies it directly from declaration-site type
// annotations and literal shapes already present in an ast.Program — no
// external type checker is required to exercise the rest of the pipeline.
package oracle

import "github.com/scriptc-lang/scriptc/ast"

// Kind is the semantic type kind the oracle can report. It is coarser than
// ctype.CType: oracle.Type only has to say "this is an object with these
// fields", TypeHelper decides how that maps onto a C representation.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumber
	KindString
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Field is one named, ordered member of an object type.
type Field struct {
	Name string
	Type Type
}

// Type is a resolved semantic type.
type Type struct {
	Kind Kind

	// KindArray only.
	Elem     *Type
	Capacity int // 0 means "not statically bounded" (dynamic array)

	// KindObject only. Fields is ordered; two Types with the same field
	// names+types in the same order are the same canonical struct shape.
	Fields []Field
}

// Signature is a resolved function signature.
type Signature struct {
	ParamNames []string
	ParamTypes []Type
	Return     Type
}

// TypeOracle is the minimum contract TypeHelper needs: resolve an
// expression to its type, and a function declaration to its signature.
type TypeOracle interface {
	TypeOf(e ast.Expr) (Type, bool)
	SignatureOf(fn *ast.FunctionDecl) (Signature, bool)
	// ResolveAnnotation resolves a declaration-site syntax-level type
	// annotation (ast.TypeExpr) to its semantic Type. TypeHelper uses this
	// for every VarDecl that carries an explicit annotation (the annotation
	// wins over the initializer), and the Transpiler for a function's
	// declared return type.
	ResolveAnnotation(te ast.TypeExpr) Type
}
