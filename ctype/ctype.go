// Package ctype implements the CType tagged variant from spec.md §3: the
// C-level semantic type TypeHelper assigns to every script variable and
// expression, plus its string-formatting rules.
package ctype

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

// Kind discriminates the CType variant.
type Kind int

const (
	KInt16 Kind = iota
	KString
	KBool
	KVoidPtr
	KStruct
	KArray
	KPointer
)

// Field is one ordered member of a Struct CType.
type Field struct {
	Name string
	Type CType
}

// CType is the tagged variant described in spec.md §3.
type CType struct {
	Kind Kind

	// KStruct only. Name is the emitted typedef name, derived from the
	// struct's canonical field signature so that two equivalently-shaped
	// object literals share one typedef (spec §4.1).
	Name   string
	Fields []Field

	// KArray | KPointer only.
	Elem *CType

	// KArray only.
	Capacity int
	Dynamic  bool
}

func Int16() CType  { return CType{Kind: KInt16} }
func String() CType { return CType{Kind: KString} }
func Bool() CType   { return CType{Kind: KBool} }
func VoidPtr() CType { return CType{Kind: KVoidPtr} }

func Pointer(to CType) CType {
	t := to
	return CType{Kind: KPointer, Elem: &t}
}

func Array(elem CType, capacity int, dynamic bool) CType {
	e := elem
	return CType{Kind: KArray, Elem: &e, Capacity: capacity, Dynamic: dynamic}
}

// Struct builds a struct CType, canonicalising the field order by name so
// that two object literals with the same field set (in any declaration
// order) produce the same Name and are treated as one typedef.
func Struct(fields []Field) CType {
	ordered := append([]Field(nil), fields...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })
	return CType{Kind: KStruct, Name: signature(ordered), Fields: ordered}
}

// RequiresAllocation reports whether a value of this CType is heap
// allocated in the emitted C: structs and dynamic arrays are, to match
// script's reference semantics; a fixed-size array is a raw C array and is
// not.
func (t CType) RequiresAllocation() bool {
	return t.Kind == KStruct || (t.Kind == KArray && t.Dynamic)
}

// IsDynamicArray reports whether t is an array with a {data,size,capacity}
// backing store, as opposed to a fixed raw C array.
func (t CType) IsDynamicArray() bool {
	return t.Kind == KArray && t.Dynamic
}

// GetTypeString formats t per spec §3: either "<type> " (caller appends the
// variable name) or a template containing the {var} placeholder (used for
// C array declarators, `T name[N]`).
func GetTypeString(t CType) string {
	switch t.Kind {
	case KInt16:
		return "int16_t "
	case KString:
		return "char *"
	case KBool:
		return "uint8_t "
	case KVoidPtr:
		return "void *"
	case KStruct:
		return t.Name + " *"
	case KPointer:
		return strings.TrimSuffix(GetTypeString(*t.Elem), " ") + " *"
	case KArray:
		if t.Dynamic {
			return dynamicArrayStructName(*t.Elem) + " "
		}
		elemStr := strings.TrimSuffix(GetTypeString(*t.Elem), " ")
		return fmt.Sprintf("%s {var}[%d]", elemStr, t.Capacity)
	default:
		return "void *"
	}
}

// dynamicArrayStructName names the generated `{ T *data; int16_t size;
// int16_t capacity; }` struct for a dynamic array of the given element
// type (spec §3).
func dynamicArrayStructName(elem CType) string {
	return "Array_" + elemTag(elem)
}

func elemTag(t CType) string {
	switch t.Kind {
	case KInt16:
		return "int16"
	case KString:
		return "string"
	case KBool:
		return "bool"
	case KVoidPtr:
		return "voidptr"
	case KStruct:
		return t.Name
	case KPointer:
		return "ptr_" + elemTag(*t.Elem)
	case KArray:
		return "arr_" + elemTag(*t.Elem)
	default:
		return "void"
	}
}

// DynamicArrayTypedef returns the C typedef text for a dynamic array's
// backing struct (spec §3: "{ T *data; int16_t size; int16_t capacity; }").
func DynamicArrayTypedef(elem CType) (name, decl string) {
	name = dynamicArrayStructName(elem)
	elemStr := strings.TrimSuffix(GetTypeString(elem), " ")
	decl = fmt.Sprintf("typedef struct {\n  %s *data;\n  int16_t size;\n  int16_t capacity;\n} %s;\n", elemStr, name)
	return name, decl
}

// StructTypedef returns the C typedef text for a struct CType.
func StructTypedef(t CType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "typedef struct {\n")
	for _, f := range t.Fields {
		fmt.Fprintf(&b, "  %s%s;\n", GetTypeString(f.Type), f.Name)
	}
	fmt.Fprintf(&b, "} %s;\n", t.Name)
	return b.String()
}

// signature canonicalises an ordered field list into a stable struct name.
// Using a dedupeOrdered pass over constraints.Ordered keys keeps two
// equivalently-shaped literals (fields supplied in different orders before
// Struct's own sort) from drifting into two different signatures even if a
// caller pre-sorts by a different key.
func signature(ordered []Field) string {
	names := make([]string, 0, len(ordered))
	for _, f := range ordered {
		names = append(names, f.Name)
	}
	names = dedupeOrdered(names)
	return "Struct_" + strings.Join(names, "_")
}

// dedupeOrdered removes adjacent duplicate keys from a sorted slice,
// preserving order. Exercises the same golang.org/x/exp/constraints
// dependency the teacher's wire-format size tables use, here for the
// static type layer instead.
func dedupeOrdered[T constraints.Ordered](xs []T) []T {
	if len(xs) == 0 {
		return xs
	}
	out := make([]T, 0, len(xs))
	out = append(out, xs[0])
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
