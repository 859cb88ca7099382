package ctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresAllocation(t *testing.T) {
	tests := []struct {
		name string
		ct   CType
		want bool
	}{
		{"int16 is stack", Int16(), false},
		{"string is stack", String(), false},
		{"struct always allocates", Struct([]Field{{Name: "x", Type: Int16()}}), true},
		{"dynamic array allocates", Array(Int16(), 0, true), true},
		{"fixed array is a raw C array", Array(Int16(), 4, false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ct.RequiresAllocation())
		})
	}
}

func TestGetTypeString(t *testing.T) {
	assert.Equal(t, "int16_t ", GetTypeString(Int16()))
	assert.Equal(t, "char *", GetTypeString(String()))
	assert.Equal(t, "uint8_t ", GetTypeString(Bool()))

	fixed := Array(Int16(), 4, false)
	assert.Equal(t, "int16_t {var}[4]", GetTypeString(fixed))
}

func TestStructCanonicalizesFieldOrder(t *testing.T) {
	a := Struct([]Field{{Name: "y", Type: Int16()}, {Name: "x", Type: Int16()}})
	b := Struct([]Field{{Name: "x", Type: Int16()}, {Name: "y", Type: Int16()}})
	assert.Equal(t, a.Name, b.Name, "field order must not affect the canonical typedef name")
}

func TestDynamicArrayTypedefNamesByElement(t *testing.T) {
	nameInt, declInt := DynamicArrayTypedef(Int16())
	nameStr, _ := DynamicArrayTypedef(String())

	assert.NotEqual(t, nameInt, nameStr)
	assert.Contains(t, declInt, "int16_t *data;")
	assert.Contains(t, declInt, "int16_t size;")
	assert.Contains(t, declInt, "int16_t capacity;")
}

func TestStructTypedefRendersEachField(t *testing.T) {
	st := Struct([]Field{{Name: "x", Type: Int16()}, {Name: "label", Type: String()}})
	decl := StructTypedef(st)
	assert.Contains(t, decl, "int16_t x;")
	assert.Contains(t, decl, "char *label;")
	assert.Contains(t, decl, st.Name)
}

func TestIsDynamicArray(t *testing.T) {
	assert.True(t, Array(Int16(), 0, true).IsDynamicArray())
	assert.False(t, Array(Int16(), 4, false).IsDynamicArray())
	assert.False(t, Int16().IsDynamicArray())
}
