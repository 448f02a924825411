package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrFingerprintMismatch is returned when a payload's leading 8 bytes do
	// not equal the decoding type's fingerprint.
	ErrFingerprintMismatch = errors.New("schema: fingerprint mismatch")

	// ErrTruncated is returned when a payload ends before the schema says it
	// should.
	ErrTruncated = errors.New("schema: truncated payload")
)

// Decode deserializes a wire payload produced by Message.Encode for this
// type. The 8-byte fingerprint prefix is verified before any field is read.
func (t *Type) Decode(data []byte) (*Message, error) {
	want, err := t.PackedFingerprint()
	if err != nil {
		return nil, err
	}
	if len(data) < len(want) {
		return nil, fmt.Errorf("%w: %d bytes is too short for a fingerprint", ErrTruncated, len(data))
	}
	if [8]byte(data[:8]) != want {
		return nil, fmt.Errorf("%w: payload %x, %s expects %x", ErrFingerprintMismatch, data[:8], t.Qualified(), want[:])
	}
	r := &reader{buf: data[8:]}
	m, err := t.decodeBody(r)
	if err != nil {
		return nil, err
	}
	return m, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (t *Type) decodeBody(r *reader) (*Message, error) {
	m := &Message{t: t, vals: make(map[string]any, len(t.def.Fields))}
	for i := range t.def.Fields {
		f := &t.def.Fields[i]
		if len(f.Dims) == 0 {
			if f.Type.IsStruct() {
				ft, err := t.resolve(f.Type)
				if err != nil {
					return nil, err
				}
				n, err := ft.decodeBody(r)
				if err != nil {
					return nil, err
				}
				m.vals[f.Name] = n
				continue
			}
			v, err := decodeScalar(r, f.Type.Kind)
			if err != nil {
				return nil, fmt.Errorf("schema: %s.%s: %w", t.Qualified(), f.Name, err)
			}
			m.vals[f.Name] = v
			continue
		}
		count, err := m.arrayCount(f)
		if err != nil {
			return nil, err
		}
		// every element takes at least one byte, so a count beyond the
		// remaining payload is corrupt; reject it before allocating
		if count > len(r.buf)-r.off {
			return nil, fmt.Errorf("%w: %s.%s claims %d elements with %d bytes remaining",
				ErrTruncated, t.Qualified(), f.Name, count, len(r.buf)-r.off)
		}
		if f.Type.IsStruct() {
			ft, err := t.resolve(f.Type)
			if err != nil {
				return nil, err
			}
			s := make([]*Message, count)
			for j := range s {
				n, err := ft.decodeBody(r)
				if err != nil {
					return nil, err
				}
				s[j] = n
			}
			m.vals[f.Name] = s
			continue
		}
		s, err := decodeSlice(r, f.Type.Kind, count)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", t.Qualified(), f.Name, err)
		}
		m.vals[f.Name] = s
	}
	return m, nil
}

func decodeScalar(r *reader, k Kind) (any, error) {
	switch k {
	case KindBoolean:
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case KindByte:
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case KindInt8:
		b, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case KindInt16:
		b, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.BigEndian.Uint16(b)), nil
	case KindInt32:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	case KindInt64:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case KindFloat:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	case KindDouble:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case KindString:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint32(b)
		if n == 0 {
			return "", nil
		}
		body, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		// drop the trailing NUL
		return string(body[:n-1]), nil
	}
	return nil, fmt.Errorf("unsupported scalar kind %v", k)
}

func decodeSlice(r *reader, k Kind, n int) (any, error) {
	switch k {
	case KindByte:
		b, err := r.take(n)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, b)
		return out, nil
	case KindBoolean:
		out := make([]bool, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(bool)
		}
		return out, nil
	case KindInt8:
		out := make([]int8, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(int8)
		}
		return out, nil
	case KindInt16:
		out := make([]int16, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(int16)
		}
		return out, nil
	case KindInt32:
		out := make([]int32, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(int32)
		}
		return out, nil
	case KindInt64:
		out := make([]int64, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(int64)
		}
		return out, nil
	case KindFloat:
		out := make([]float32, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(float32)
		}
		return out, nil
	case KindDouble:
		out := make([]float64, n)
		for i := range out {
			v, err := decodeScalar(r, k)
			if err != nil {
				return nil, err
			}
			out[i] = v.(float64)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported array element kind %v", k)
}
