package schema

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

func sampleSet(t *testing.T) (*Set, *Type) {
	t.Helper()
	s := NewSet()
	src := `
package nav;

struct tag_t {
    int32_t id;
    float weight;
}

struct pose_t {
    int64_t timestamp;
    double position[3];
    string frame;
    boolean valid;
    byte flags;
    int8_t level;
    int16_t seq;
    int32_t n_tags;
    nav.tag_t tags[n_tags];
    nav.tag_t best;
}
`
	types, err := s.AddIDL("sample.idl", []byte(src))
	if err != nil {
		t.Fatalf("add idl: %v", err)
	}
	return s, types[1]
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	_, pose := sampleSet(t)
	m := pose.New()
	m.MustSet("timestamp", int64(1724761830000123))
	m.MustSet("position", []float64{1.5, -2.25, 0.125})
	m.MustSet("frame", "base_link")
	m.MustSet("valid", true)
	m.MustSet("flags", 0xA5)
	m.MustSet("level", -7)
	m.MustSet("seq", 512)
	m.MustSet("n_tags", 2)

	tagType, _ := pose.set.Lookup("nav.tag_t")
	tags := []*Message{tagType.New(), tagType.New()}
	tags[0].MustSet("id", 11)
	tags[0].MustSet("weight", float32(0.75))
	tags[1].MustSet("id", 22)
	tags[1].MustSet("weight", float32(0.25))
	m.MustSet("tags", tags)
	best := tagType.New()
	best.MustSet("id", 99)
	m.MustSet("best", best)

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := pose.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ts, _ := got.Int("timestamp"); ts != 1724761830000123 {
		t.Fatalf("timestamp = %d", ts)
	}
	pos, _ := got.Get("position")
	p := pos.([]float64)
	if len(p) != 3 || math.Abs(p[1]+2.25) > 1e-12 {
		t.Fatalf("position = %v", p)
	}
	if fr, _ := got.Str("frame"); fr != "base_link" {
		t.Fatalf("frame = %q", fr)
	}
	if ok, _ := got.Bool("valid"); !ok {
		t.Fatalf("valid lost")
	}
	if lv, _ := got.Int("level"); lv != -7 {
		t.Fatalf("level = %d", lv)
	}
	gotTags, err := got.Msgs("tags")
	if err != nil || len(gotTags) != 2 {
		t.Fatalf("tags = %v (%v)", gotTags, err)
	}
	if id, _ := gotTags[1].Int("id"); id != 22 {
		t.Fatalf("tags[1].id = %d", id)
	}
	if w, _ := gotTags[0].Float("weight"); math.Abs(w-0.75) > 1e-6 {
		t.Fatalf("tags[0].weight = %v", w)
	}
	gotBest, _ := got.Msg("best")
	if id, _ := gotBest.Int("id"); id != 99 {
		t.Fatalf("best.id = %d", id)
	}
}

func TestEncodeEmptyStringAndDefaults(t *testing.T) {
	_, pose := sampleSet(t)
	m := pose.New()
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode defaults: %v", err)
	}
	got, err := pose.Decode(data)
	if err != nil {
		t.Fatalf("decode defaults: %v", err)
	}
	if fr, _ := got.Str("frame"); fr != "" {
		t.Fatalf("empty string round trip broke: %q", fr)
	}
	if n, _ := got.Int("n_tags"); n != 0 {
		t.Fatalf("n_tags = %d", n)
	}
}

func TestDecodeFingerprintMismatch(t *testing.T) {
	_, pose := sampleSet(t)
	data, err := pose.New().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// every one of the 8 prefix bytes is load bearing
	for i := 0; i < 8; i++ {
		bad := append([]byte(nil), data...)
		bad[i] ^= 0x01
		if _, err := pose.Decode(bad); !errors.Is(err, ErrFingerprintMismatch) {
			t.Fatalf("flipping prefix byte %d: got %v, want ErrFingerprintMismatch", i, err)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, pose := sampleSet(t)
	data, err := pose.New().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, n := range []int{0, 4, 8, len(data) - 1} {
		if _, err := pose.Decode(data[:n]); !errors.Is(err, ErrTruncated) {
			t.Fatalf("decode of %d bytes: got %v, want ErrTruncated", n, err)
		}
	}
}

func TestDecodeCorruptArrayCount(t *testing.T) {
	s := NewSet()
	types, err := s.AddIDL("blob.idl", []byte("struct blob_t { int64_t n; int64_t vals[n]; }"))
	if err != nil {
		t.Fatalf("add idl: %v", err)
	}
	blob := types[0]

	m := blob.New()
	m.MustSet("n", int64(2))
	m.MustSet("vals", []int64{10, 20})
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// overwrite the size field (first body field, right after the
	// fingerprint) while leaving the fingerprint intact; the bogus counts
	// must surface as decode errors, never as huge allocations or a panic
	for _, bogus := range []int64{1 << 61, 1 << 30, 3} {
		corrupt := append([]byte(nil), data...)
		binary.BigEndian.PutUint64(corrupt[8:16], uint64(bogus))
		if _, err := blob.Decode(corrupt); !errors.Is(err, ErrTruncated) {
			t.Fatalf("count %d: got %v, want ErrTruncated", bogus, err)
		}
	}

	if _, err := blob.Decode(data); err != nil {
		t.Fatalf("untouched payload must still decode: %v", err)
	}
}

func TestVariableArrayLengthPolicy(t *testing.T) {
	_, pose := sampleSet(t)
	tagType, _ := pose.set.Lookup("nav.tag_t")

	short := pose.New()
	short.MustSet("n_tags", 3)
	short.MustSet("tags", []*Message{tagType.New()})
	if _, err := short.Encode(); err == nil {
		t.Fatalf("slice shorter than size field must fail to encode")
	}

	long := pose.New()
	long.MustSet("n_tags", 1)
	a, b := tagType.New(), tagType.New()
	a.MustSet("id", 1)
	b.MustSet("id", 2)
	long.MustSet("tags", []*Message{a, b})
	data, err := long.Encode()
	if err != nil {
		t.Fatalf("longer slice must truncate, got %v", err)
	}
	got, err := pose.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tags, _ := got.Msgs("tags")
	if len(tags) != 1 {
		t.Fatalf("wire should carry exactly n_tags elements, got %d", len(tags))
	}
}

func TestNestedFingerprintChecked(t *testing.T) {
	s, pose := sampleSet(t)
	other, err := s.AddIDL("other.idl", []byte("package nav;\nstruct other_t { int32_t id; float weight; double extra; }\n"))
	if err != nil {
		t.Fatalf("add idl: %v", err)
	}
	m := pose.New()
	if err := m.Set("best", other[0].New()); err == nil {
		t.Fatalf("assigning a different struct type must be rejected")
	}
	_ = other
}

func TestSetTypeChecking(t *testing.T) {
	_, pose := sampleSet(t)
	m := pose.New()
	if err := m.Set("timestamp", "not a number"); err == nil {
		t.Fatalf("string into int64 field must fail")
	}
	if err := m.Set("level", 300); err == nil {
		t.Fatalf("out-of-range int8 must fail")
	}
	if err := m.Set("nope", 1); err == nil {
		t.Fatalf("unknown field must fail")
	}
	if err := m.Set("seq", 1000); err != nil {
		t.Fatalf("plain int into int16 should coerce: %v", err)
	}
}

func TestGenerateGo(t *testing.T) {
	defs, err := ParseIDL("flag.idl", []byte("package std;\nstruct flag_t { boolean flag; }\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, err := GenerateGo(defs, "std")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, ok := files["flag_t.go"]; !ok {
		t.Fatalf("missing flag_t.go: %v", keysOf(files))
	}
	if _, ok := files["index.go"]; !ok {
		t.Fatalf("missing index.go")
	}
	body := string(files["flag_t.go"])
	for _, want := range []string{"DO NOT EDIT", "package std", "var FlagT = Types.MustAdd", `Name: "flag_t"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("generated file missing %q:\n%s", want, body)
		}
	}
}

func keysOf(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
