package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/scriptc-lang/scriptc"
	"github.com/scriptc-lang/scriptc/ast"
	"github.com/scriptc-lang/scriptc/oracle"
	"github.com/scriptc-lang/scriptc/runtime/cheaders"
)

func main() {
	outFile := flag.String("o", "", "write the generated C to this file (default: stdout)")
	verbose := flag.Bool("v", false, "log each pipeline stage as it runs")
	emitHeaders := flag.Bool("emit-headers", false, "also write the C runtime header library alongside the output file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("Usage: scriptc [-o out.c] [-v] [-emit-headers] <program.json>")
	}
	inputFile := args[0]

	if *verbose {
		log.Printf("reading program: %s", inputFile)
	}
	unit, err := readProgram(inputFile)
	if err != nil {
		log.Fatalf("failed to read %s: %v", inputFile, err)
	}

	if *verbose {
		log.Printf("resolving types for %d function(s)", len(unit.Decls))
	}
	oc := oracle.NewStaticOracle(unit)

	if *verbose {
		log.Print("running translation pipeline")
	}
	code, errs := scriptc.Translate(unit, oc)
	if len(errs) > 0 {
		log.Fatalf("translation failed:\n%s", scriptc.JoinErrors(errs))
	}

	if err := writeOutput(*outFile, code); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}

	if *emitHeaders {
		dir := "."
		if *outFile != "" {
			dir = filepath.Dir(*outFile)
		}
		if err := writeHeaders(dir); err != nil {
			log.Fatalf("failed to write runtime headers: %v", err)
		}
		if *verbose {
			log.Printf("wrote runtime headers to %s", dir)
		}
	}
}

func readProgram(path string) (*ast.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var unit ast.Program
	if err := json.NewDecoder(f).Decode(&unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

func writeOutput(path, code string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, code)
		return err
	}
	return os.WriteFile(path, []byte(code), 0644)
}

func writeHeaders(dir string) error {
	for _, name := range cheaders.Names {
		text, err := cheaders.Read(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0644); err != nil {
			return err
		}
	}
	return nil
}
