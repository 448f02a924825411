package schema

import "encoding/binary"

// The fingerprint is the wire compatibility check: two processes exchange a
// type's 8-byte fingerprint ahead of every payload, and a single changed
// field name, type, or dimension must change it. The fold below is fixed;
// altering it breaks compatibility with every deployed peer.

const fingerprintSeed = 0x12345678

// baseHash folds the struct's own field layout: per field, its name, its
// primitive type name (structs omitted), the dimension count, and per
// dimension a variable/literal tag plus the textual dimension.
func baseHash(def *StructDef) uint64 {
	var b []byte
	pushInt := func(x int) { b = append(b, byte(x%256)) }
	pushStr := func(s string) {
		b = append(b, byte(len(s)%256))
		b = append(b, s...)
	}
	for i := range def.Fields {
		f := &def.Fields[i]
		pushStr(f.Name)
		if !f.Type.IsStruct() {
			pushStr(f.Type.Kind.String())
		}
		pushInt(len(f.Dims))
		for _, d := range f.Dims {
			if d.Variable() {
				pushInt(1)
			} else {
				pushInt(0)
			}
			pushStr(d.text())
		}
	}

	// each byte is folded as a signed 8-bit value; int64 arithmetic gives
	// the required mod-2^64 wrapping and arithmetic right shift
	v := int64(fingerprintSeed)
	for _, c := range b {
		v = ((v << 8) ^ (v >> 55)) + int64(int8(c))
	}
	return uint64(v)
}

// hashRecursive combines the base hash with the hashes of referenced struct
// types. ancestors carries the recursion chain explicitly; a type already
// on the chain contributes 0, which terminates self-referential schemas.
func (t *Type) hashRecursive(ancestors []*Type) (uint64, error) {
	for _, a := range ancestors {
		if a == t {
			return 0, nil
		}
	}
	chain := append(append([]*Type(nil), ancestors...), t)

	sum := baseHash(&t.def)
	seen := make(map[string]struct{})
	for i := range t.def.Fields {
		ref := t.def.Fields[i].Type
		if !ref.IsStruct() {
			continue
		}
		q := ref.qualified()
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		ft, err := t.resolve(ref)
		if err != nil {
			return 0, err
		}
		h, err := ft.hashRecursive(chain)
		if err != nil {
			return 0, err
		}
		sum += h
	}
	// 1-bit left rotation
	return (sum << 1) | (sum >> 63), nil
}

// Fingerprint returns the type's 64-bit structural hash. It is computed on
// first use and memoized for the process lifetime.
func (t *Type) Fingerprint() (uint64, error) {
	t.fpOnce.Do(func() {
		t.fp, t.fpErr = t.hashRecursive(nil)
	})
	return t.fp, t.fpErr
}

// PackedFingerprint returns the big-endian wire form of the fingerprint.
func (t *Type) PackedFingerprint() ([8]byte, error) {
	var out [8]byte
	fp, err := t.Fingerprint()
	if err != nil {
		return out, err
	}
	binary.BigEndian.PutUint64(out[:], fp)
	return out, nil
}
