// Package schema implements the message interface-definition language of
// the fabric: parsing IDL source, structural fingerprints, and the binary
// wire codec (big-endian, 8-byte fingerprint prefix) used by every channel
// payload and service body.
package schema

import (
	"fmt"
	"strconv"
	"sync"
)

// Kind identifies a field's primitive kind, or KindStruct for a reference
// to another struct definition.
type Kind int

const (
	KindStruct Kind = iota
	KindBoolean
	KindByte
	KindDouble
	KindFloat
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindString
)

// primitive IDL keywords; the exact spellings feed the fingerprint, so they
// must never change.
var kindNames = map[Kind]string{
	KindBoolean: "boolean",
	KindByte:    "byte",
	KindDouble:  "double",
	KindFloat:   "float",
	KindInt8:    "int8_t",
	KindInt16:   "int16_t",
	KindInt32:   "int32_t",
	KindInt64:   "int64_t",
	KindString:  "string",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "struct"
}

// integer reports whether a field of this kind may drive a variable array
// dimension.
func (k Kind) integer() bool {
	switch k {
	case KindByte, KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// TypeRef names a field's type: a primitive kind, or a (package, name)
// reference to another struct.
type TypeRef struct {
	Kind    Kind
	Package string
	Name    string
}

// Primitive returns a TypeRef for a primitive kind.
func Primitive(k Kind) TypeRef { return TypeRef{Kind: k} }

// StructRef returns a TypeRef for a struct type, optionally namespaced.
func StructRef(pkg, name string) TypeRef {
	return TypeRef{Kind: KindStruct, Package: pkg, Name: name}
}

// IsStruct reports whether the reference names a struct type.
func (r TypeRef) IsStruct() bool { return r.Kind == KindStruct }

func (r TypeRef) qualified() string {
	if r.Package != "" {
		return r.Package + "." + r.Name
	}
	return r.Name
}

func (r TypeRef) String() string {
	if r.IsStruct() {
		return r.qualified()
	}
	return r.Kind.String()
}

// Dim is one array dimension: either a literal size or the name of an
// earlier integer field whose runtime value carries the element count.
type Dim struct {
	Name string
	Size int
}

// FixedDim returns a literal-size dimension.
func FixedDim(n int) Dim { return Dim{Size: n} }

// VarDim returns a dimension sized by the named sibling field.
func VarDim(name string) Dim { return Dim{Name: name} }

// Variable reports whether the dimension is sized by a sibling field.
func (d Dim) Variable() bool { return d.Name != "" }

// text is the dimension's textual form as hashed into the fingerprint.
func (d Dim) text() string {
	if d.Variable() {
		return d.Name
	}
	return strconv.Itoa(d.Size)
}

// Field is one field statement of a struct.
type Field struct {
	Name string
	Type TypeRef
	Dims []Dim
}

// Constant is a compile-time numeric constant of a struct. Constants never
// appear on the wire and do not contribute to the fingerprint.
type Constant struct {
	Name  string
	Kind  Kind
	Value string
}

// StructDef is the parsed definition of one message struct.
type StructDef struct {
	Package   string
	Name      string
	Fields    []Field
	Constants []Constant
}

// Qualified returns "package.name", or just the name when unpackaged.
func (d *StructDef) Qualified() string {
	if d.Package != "" {
		return d.Package + "." + d.Name
	}
	return d.Name
}

// Set owns a group of struct definitions that may reference each other.
// Lookup keys are qualified names.
type Set struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewSet creates an empty type set.
func NewSet() *Set { return &Set{types: make(map[string]*Type)} }

// Add validates def and registers it. References to structs that are not
// in the set yet are allowed; they must resolve by the time a fingerprint
// or codec touches them.
func (s *Set) Add(def StructDef) (*Type, error) {
	if err := validate(&def); err != nil {
		return nil, err
	}
	t := &Type{set: s, def: def}
	s.mu.Lock()
	defer s.mu.Unlock()
	q := def.Qualified()
	if _, exists := s.types[q]; exists {
		return nil, fmt.Errorf("schema: duplicate struct %q", q)
	}
	s.types[q] = t
	return t, nil
}

// MustAdd is Add for generated code; definitions emitted by eigen-gen have
// already been validated once at generation time.
func (s *Set) MustAdd(def StructDef) *Type {
	t, err := s.Add(def)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup finds a type by qualified name.
func (s *Set) Lookup(qualified string) (*Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[qualified]
	return t, ok
}

// AddIDL parses IDL source and adds every struct it defines, returning the
// new types in declaration order.
func (s *Set) AddIDL(filename string, src []byte) ([]*Type, error) {
	defs, err := ParseIDL(filename, src)
	if err != nil {
		return nil, err
	}
	out := make([]*Type, 0, len(defs))
	for _, def := range defs {
		t, err := s.Add(def)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func validate(def *StructDef) error {
	if def.Name == "" {
		return fmt.Errorf("schema: struct with empty name")
	}
	byName := make(map[string]*Field, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		if _, dup := byName[f.Name]; dup {
			return fmt.Errorf("schema: %s: duplicate field %q", def.Qualified(), f.Name)
		}
		if len(f.Dims) > 1 {
			return fmt.Errorf("schema: %s.%s: multi-dimensional arrays are not supported", def.Qualified(), f.Name)
		}
		if len(f.Dims) == 1 {
			if f.Type.Kind == KindString {
				return fmt.Errorf("schema: %s.%s: arrays of string are not supported", def.Qualified(), f.Name)
			}
			d := f.Dims[0]
			if d.Variable() {
				size, ok := byName[d.Name]
				if !ok {
					return fmt.Errorf("schema: %s.%s: size field %q must be declared before the array", def.Qualified(), f.Name, d.Name)
				}
				if !size.Type.Kind.integer() || len(size.Dims) != 0 {
					return fmt.Errorf("schema: %s.%s: size field %q must be a scalar integer", def.Qualified(), f.Name, d.Name)
				}
			} else if d.Size < 0 {
				return fmt.Errorf("schema: %s.%s: negative array size %d", def.Qualified(), f.Name, d.Size)
			}
		}
		byName[f.Name] = f
	}
	return nil
}

// Type is a registered struct definition with its memoized fingerprint.
type Type struct {
	set *Set
	def StructDef

	fpOnce sync.Once
	fp     uint64
	fpErr  error
}

// Name returns the unqualified struct name.
func (t *Type) Name() string { return t.def.Name }

// Package returns the struct's namespace, possibly empty.
func (t *Type) Package() string { return t.def.Package }

// Qualified returns the lookup key of the type within its set.
func (t *Type) Qualified() string { return t.def.Qualified() }

// Def returns a copy of the underlying definition.
func (t *Type) Def() StructDef { return t.def }

func (t *Type) String() string { return t.Qualified() }

// resolve maps a struct TypeRef of this type's fields to its Type.
func (t *Type) resolve(r TypeRef) (*Type, error) {
	ft, ok := t.set.Lookup(r.qualified())
	if !ok {
		return nil, fmt.Errorf("schema: unresolved type %q referenced by %s", r.qualified(), t.Qualified())
	}
	return ft, nil
}
