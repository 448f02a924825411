package schema

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

const genHeader = "// Code generated by eigen-gen. DO NOT EDIT.\n\n"

// GenerateGo renders struct definitions as Go source for a package named
// pkgName: one file per struct registering it in a shared type Set, plus an
// index.go declaring the Set itself. Keys of the returned map are file
// names.
func GenerateGo(defs []StructDef, pkgName string) (map[string][]byte, error) {
	if pkgName == "" {
		return nil, fmt.Errorf("gengo: empty package name")
	}
	files := make(map[string][]byte, len(defs)+1)
	names := make([]string, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		if err := validate(def); err != nil {
			return nil, err
		}
		fname := def.Name + ".go"
		if _, dup := files[fname]; dup {
			return nil, fmt.Errorf("gengo: duplicate struct %q", def.Name)
		}
		files[fname] = renderStruct(def, pkgName)
		names = append(names, def.Name)
	}
	files["index.go"] = renderIndex(names, pkgName)
	return files, nil
}

func renderStruct(def *StructDef, pkgName string) []byte {
	var b bytes.Buffer
	b.WriteString(genHeader)
	fmt.Fprintf(&b, "package %s\n\n", pkgName)
	b.WriteString("import \"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema\"\n\n")

	goName := GoIdent(def.Name)
	for _, c := range def.Constants {
		fmt.Fprintf(&b, "// %s%s is the %s constant of %s.\n", goName, GoIdent(c.Name), c.Name, def.Qualified())
		fmt.Fprintf(&b, "const %s%s %s = %s\n\n", goName, GoIdent(c.Name), goKindType(c.Kind), c.Value)
	}

	fmt.Fprintf(&b, "// %s is the registered type for %s.\n", goName, def.Qualified())
	fmt.Fprintf(&b, "var %s = Types.MustAdd(schema.StructDef{\n", goName)
	if def.Package != "" {
		fmt.Fprintf(&b, "\tPackage: %q,\n", def.Package)
	}
	fmt.Fprintf(&b, "\tName: %q,\n", def.Name)
	if len(def.Fields) > 0 {
		b.WriteString("\tFields: []schema.Field{\n")
		for i := range def.Fields {
			f := &def.Fields[i]
			fmt.Fprintf(&b, "\t\t{Name: %q, Type: %s%s},\n", f.Name, typeRefExpr(f.Type), dimsExpr(f.Dims))
		}
		b.WriteString("\t},\n")
	}
	if len(def.Constants) > 0 {
		b.WriteString("\tConstants: []schema.Constant{\n")
		for _, c := range def.Constants {
			fmt.Fprintf(&b, "\t\t{Name: %q, Kind: schema.%s, Value: %q},\n", c.Name, kindConstName(c.Kind), c.Value)
		}
		b.WriteString("\t},\n")
	}
	b.WriteString("})\n")
	return b.Bytes()
}

func renderIndex(names []string, pkgName string) []byte {
	sort.Strings(names)
	var b bytes.Buffer
	b.WriteString(genHeader)
	fmt.Fprintf(&b, "// Package %s holds generated message types.\n", pkgName)
	fmt.Fprintf(&b, "package %s\n\n", pkgName)
	b.WriteString("import \"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema\"\n\n")
	b.WriteString("// Types is the set every generated type of this package registers into.\n")
	b.WriteString("var Types = schema.NewSet()\n\n")
	b.WriteString("// All lists the package's types in name order.\n")
	b.WriteString("var All = []*schema.Type{\n")
	for _, n := range names {
		fmt.Fprintf(&b, "\t%s,\n", GoIdent(n))
	}
	b.WriteString("}\n")
	return b.Bytes()
}

func typeRefExpr(r TypeRef) string {
	if r.IsStruct() {
		return fmt.Sprintf("schema.StructRef(%q, %q)", r.Package, r.Name)
	}
	return fmt.Sprintf("schema.Primitive(schema.%s)", kindConstName(r.Kind))
}

func dimsExpr(dims []Dim) string {
	if len(dims) == 0 {
		return ""
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		if d.Variable() {
			parts[i] = fmt.Sprintf("schema.VarDim(%q)", d.Name)
		} else {
			parts[i] = fmt.Sprintf("schema.FixedDim(%d)", d.Size)
		}
	}
	return fmt.Sprintf(", Dims: []schema.Dim{%s}", strings.Join(parts, ", "))
}

func kindConstName(k Kind) string {
	switch k {
	case KindBoolean:
		return "KindBoolean"
	case KindByte:
		return "KindByte"
	case KindDouble:
		return "KindDouble"
	case KindFloat:
		return "KindFloat"
	case KindInt8:
		return "KindInt8"
	case KindInt16:
		return "KindInt16"
	case KindInt32:
		return "KindInt32"
	case KindInt64:
		return "KindInt64"
	case KindString:
		return "KindString"
	}
	return "KindStruct"
}

func goKindType(k Kind) string {
	switch k {
	case KindByte:
		return "byte"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat:
		return "float32"
	case KindDouble:
		return "float64"
	}
	return "int"
}

// GoIdent converts an IDL snake_case name like flag_t into an exported Go
// identifier like FlagT. Upper-case constant names such as MAX_SPEED come
// out as MaxSpeed.
func GoIdent(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}
