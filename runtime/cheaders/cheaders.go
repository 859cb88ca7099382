// Package cheaders embeds the C runtime header library the translator's
// emitted #includes name (spec.md §6). The translator itself never reads
// these contents — it only knows the header names it must reference; a
// caller that wants a self-contained build (the CLI's -emit-headers flag)
// asks this package for the text.
package cheaders

import "embed"

//go:embed scriptc_array.h scriptc_array_pop.h scriptc_jseq.h scriptc_bool.h
var content embed.FS

// Names lists every embedded header's filename, in the order a caller
// should write them to disk for a reproducible build directory.
var Names = []string{"scriptc_array.h", "scriptc_array_pop.h", "scriptc_jseq.h", "scriptc_bool.h"}

// Read returns the text of the named embedded header.
func Read(name string) (string, error) {
	b, err := content.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
