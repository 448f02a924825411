package schema

import "testing"

func mustType(t *testing.T, s *Set, def StructDef) *Type {
	t.Helper()
	typ, err := s.Add(def)
	if err != nil {
		t.Fatalf("add %s: %v", def.Qualified(), err)
	}
	return typ
}

func TestFingerprintEmptyStruct(t *testing.T) {
	s := NewSet()
	typ := mustType(t, s, StructDef{Name: "empty_t"})
	fp, err := typ.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	// seed rotated left once: fields contribute nothing for an empty struct
	if fp != 0x2468ACF0 {
		t.Fatalf("empty struct fingerprint = %#x, want 0x2468ACF0", fp)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := StructDef{Package: "p", Name: "a_t", Fields: []Field{
		{Name: "count", Type: Primitive(KindInt32)},
		{Name: "vals", Type: Primitive(KindDouble), Dims: []Dim{VarDim("count")}},
	}}

	fpOf := func(def StructDef) uint64 {
		t.Helper()
		fp, err := mustType(t, NewSet(), def).Fingerprint()
		if err != nil {
			t.Fatalf("fingerprint: %v", err)
		}
		return fp
	}

	ref := fpOf(base)

	renamed := base
	renamed.Fields = append([]Field(nil), base.Fields...)
	renamed.Fields[0].Name = "total"
	renamed.Fields[1].Dims = []Dim{VarDim("total")}
	if fpOf(renamed) == ref {
		t.Fatalf("field rename must change the fingerprint")
	}

	retyped := base
	retyped.Fields = append([]Field(nil), base.Fields...)
	retyped.Fields[1].Type = Primitive(KindFloat)
	if fpOf(retyped) == ref {
		t.Fatalf("type change must change the fingerprint")
	}

	fixed := base
	fixed.Fields = append([]Field(nil), base.Fields...)
	fixed.Fields[1].Dims = []Dim{FixedDim(4)}
	if fpOf(fixed) == ref {
		t.Fatalf("dimension change must change the fingerprint")
	}

	// struct name itself is not hashed; only the field layout is
	alias := base
	alias.Name = "b_t"
	if fpOf(alias) != ref {
		t.Fatalf("struct rename with identical layout must keep the fingerprint")
	}
}

func TestFingerprintNestedAndRecursive(t *testing.T) {
	s := NewSet()
	leaf := mustType(t, s, StructDef{Package: "p", Name: "leaf_t", Fields: []Field{
		{Name: "v", Type: Primitive(KindInt64)},
	}})
	node := mustType(t, s, StructDef{Package: "p", Name: "node_t", Fields: []Field{
		{Name: "leaf", Type: StructRef("p", "leaf_t")},
		{Name: "next", Type: StructRef("p", "node_t")},
	}})

	if _, err := node.Fingerprint(); err != nil {
		t.Fatalf("self-referential fingerprint must terminate: %v", err)
	}

	// nested hash is folded in: changing the leaf changes the parent
	s2 := NewSet()
	mustType(t, s2, StructDef{Package: "p", Name: "leaf_t", Fields: []Field{
		{Name: "v", Type: Primitive(KindInt32)},
	}})
	node2 := mustType(t, s2, StructDef{Package: "p", Name: "node_t", Fields: []Field{
		{Name: "leaf", Type: StructRef("p", "leaf_t")},
		{Name: "next", Type: StructRef("p", "node_t")},
	}})
	fp1, _ := node.Fingerprint()
	fp2, err := node2.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fp1 == fp2 {
		t.Fatalf("changing a referenced struct must change the parent fingerprint")
	}

	_ = leaf
}

func TestFingerprintUnresolvedReference(t *testing.T) {
	s := NewSet()
	typ := mustType(t, s, StructDef{Package: "p", Name: "a_t", Fields: []Field{
		{Name: "x", Type: StructRef("p", "missing_t")},
	}})
	if _, err := typ.Fingerprint(); err == nil {
		t.Fatalf("unresolved reference must be reported")
	}
}

func TestFingerprintMemoized(t *testing.T) {
	s := NewSet()
	typ := mustType(t, s, StructDef{Name: "m_t", Fields: []Field{
		{Name: "a", Type: Primitive(KindInt16)},
	}})
	a, err := typ.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := typ.Fingerprint()
	if err != nil || a != b {
		t.Fatalf("memoized fingerprint changed: %#x vs %#x (%v)", a, b, err)
	}
}
