package emitter

// HeaderKey is a closed enum of every #include (or private runtime header)
// the Transpiler might need. Keeping it closed lets finalize dedupe and
// order headers by enum value instead of by string, so two different
// spellings of the same include can never both survive into the output.
type HeaderKey int

const (
	HeaderStdio HeaderKey = iota
	HeaderStdlib
	HeaderString
	HeaderAssert
	HeaderBool
	HeaderJSEq
	HeaderArray
	HeaderArrayPop
)

var headerLines = map[HeaderKey]string{
	HeaderStdio:    "#include <stdio.h>\n",
	HeaderStdlib:   "#include <stdlib.h>\n",
	HeaderString:   "#include <string.h>\n",
	HeaderAssert:   "#include <assert.h>\n",
	HeaderBool:     "#include \"scriptc_bool.h\"\n",
	HeaderJSEq:     "#include \"scriptc_jseq.h\"\n",
	HeaderArray:    "#include \"scriptc_array.h\"\n",
	HeaderArrayPop: "#include \"scriptc_array_pop.h\"\n",
}
