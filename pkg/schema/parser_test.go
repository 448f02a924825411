package schema

import (
	"strings"
	"testing"
)

const poseIDL = `
package nav;

/* pose sample published by the odometry node */
struct pose_t {
    const int32_t REVISION = 3, LEGACY = -1;
    const double MAX_SPEED = 2.5;

    int64_t timestamp;      // microseconds
    double position[3];
    float heading;
    string frame;
    int32_t n_tags;
    nav.tag_t tags[n_tags];
    boolean valid;
}

struct tag_t {
    int32_t id;
}
`

func TestParseIDL(t *testing.T) {
	defs, err := ParseIDL("pose.idl", []byte(poseIDL))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 structs, got %d", len(defs))
	}
	pose := defs[0]
	if pose.Package != "nav" || pose.Name != "pose_t" {
		t.Fatalf("bad struct identity: %+v", pose)
	}
	if len(pose.Constants) != 3 {
		t.Fatalf("expected 3 constants, got %+v", pose.Constants)
	}
	if pose.Constants[1].Name != "LEGACY" || pose.Constants[1].Value != "-1" {
		t.Fatalf("comma-list constant lost: %+v", pose.Constants[1])
	}
	if len(pose.Fields) != 7 {
		t.Fatalf("expected 7 fields, got %d", len(pose.Fields))
	}
	pos := pose.Fields[1]
	if pos.Name != "position" || len(pos.Dims) != 1 || pos.Dims[0].Variable() || pos.Dims[0].Size != 3 {
		t.Fatalf("fixed array field wrong: %+v", pos)
	}
	tags := pose.Fields[5]
	if !tags.Type.IsStruct() || tags.Type.Package != "nav" || tags.Type.Name != "tag_t" {
		t.Fatalf("struct field wrong: %+v", tags)
	}
	if len(tags.Dims) != 1 || tags.Dims[0].Name != "n_tags" {
		t.Fatalf("variable dim wrong: %+v", tags.Dims)
	}
}

func TestParseUnqualifiedStructDefaultsToPackage(t *testing.T) {
	src := "package geo;\nstruct line_t { point_t a; point_t b; }\nstruct point_t { double x; double y; }\n"
	defs, err := ParseIDL("line.idl", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if defs[0].Fields[0].Type.Package != "geo" {
		t.Fatalf("unqualified reference should inherit package: %+v", defs[0].Fields[0].Type)
	}
}

func TestParseCommaFieldList(t *testing.T) {
	src := "struct vec_t { double x, y, z; }"
	defs, err := ParseIDL("vec.idl", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(defs[0].Fields) != 3 || defs[0].Fields[2].Name != "z" {
		t.Fatalf("comma field list wrong: %+v", defs[0].Fields)
	}
}

func TestParseErrorsCarryFileAndLine(t *testing.T) {
	src := "package p;\nstruct broken_t {\n    int32_t a\n}\n"
	_, err := ParseIDL("broken.idl", []byte(src))
	if err == nil {
		t.Fatalf("missing semicolon must fail")
	}
	if !strings.HasPrefix(err.Error(), "broken.idl:4:") {
		t.Fatalf("error should point at broken.idl:4, got %q", err)
	}
}

func TestParseBlockCommentKeepsLineNumbers(t *testing.T) {
	src := "/* one\ntwo\nthree */\nstruct ok_t { int8_t v; }\nnope"
	_, err := ParseIDL("c.idl", []byte(src))
	if err == nil || !strings.HasPrefix(err.Error(), "c.idl:5:") {
		t.Fatalf("expected error at c.idl:5, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"string array", "struct s_t { int32_t n; string words[n]; }"},
		{"multi dim", "struct s_t { int32_t grid[2][2]; }"},
		{"size after array", "struct s_t { int32_t vals[n]; int32_t n; }"},
		{"non-integer size", "struct s_t { double n; int32_t vals[n]; }"},
		{"duplicate field", "struct s_t { int32_t a; int32_t a; }"},
	}
	for _, tc := range cases {
		defs, err := ParseIDL(tc.name+".idl", []byte(tc.src))
		if err != nil {
			continue // rejected at parse is fine too
		}
		s := NewSet()
		if _, err := s.Add(defs[0]); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestSetDuplicateAdd(t *testing.T) {
	s := NewSet()
	def := StructDef{Package: "p", Name: "a_t"}
	if _, err := s.Add(def); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := s.Add(def); err == nil {
		t.Fatalf("duplicate qualified name must be rejected")
	}
}
