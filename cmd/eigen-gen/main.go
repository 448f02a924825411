// eigen-gen compiles IDL schema files into Go message types.
//
// Usage:
//
//	eigen-gen -out pkg/types/nav -pkg nav schemas/nav/*.idl
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("eigen-gen", flag.ExitOnError)
	out := fs.String("out", ".", "Output directory for generated Go files")
	pkg := fs.String("pkg", "", "Go package name (required)")
	dry := fs.Bool("dry-run", false, "Parse and validate only, write nothing")
	_ = fs.Parse(args)

	if *pkg == "" {
		fmt.Fprintln(os.Stderr, "eigen-gen: -pkg is required")
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "eigen-gen: no IDL files given")
		return 2
	}

	var defs []schema.StructDef
	for _, path := range fs.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
			return 1
		}
		parsed, err := schema.ParseIDL(filepath.Base(path), src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
			return 1
		}
		defs = append(defs, parsed...)
	}

	// validate fingerprints resolve before writing anything
	set := schema.NewSet()
	types := make([]*schema.Type, 0, len(defs))
	for _, def := range defs {
		typ, err := set.Add(def)
		if err != nil {
			fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
			return 1
		}
		types = append(types, typ)
	}
	for _, typ := range types {
		fp, err := typ.Fingerprint()
		if err != nil {
			fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
			return 1
		}
		fmt.Printf("%s  %016x\n", typ.Qualified(), fp)
	}

	if *dry {
		return 0
	}

	files, err := schema.GenerateGo(defs, *pkg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
		return 1
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(*out, name), body, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "eigen-gen: %v\n", err)
			return 1
		}
	}
	return 0
}
