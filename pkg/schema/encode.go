package schema

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes the message to its wire form: the type's 8-byte
// big-endian fingerprint followed by the body. Variable arrays take their
// element count from the sibling size field; a slice shorter than the count
// is an error, a longer one is truncated.
func (m *Message) Encode() ([]byte, error) {
	fp, err := m.t.PackedFingerprint()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(fp[:])
	if err := m.encodeBody(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Message) encodeBody(buf *bytes.Buffer) error {
	for i := range m.t.def.Fields {
		f := &m.t.def.Fields[i]
		v := m.vals[f.Name]
		if len(f.Dims) == 0 {
			if f.Type.IsStruct() {
				if err := m.encodeStruct(buf, f, v); err != nil {
					return err
				}
				continue
			}
			if err := encodeScalar(buf, f.Type.Kind, v); err != nil {
				return fmt.Errorf("schema: %s.%s: %w", m.t.Qualified(), f.Name, err)
			}
			continue
		}
		if err := m.encodeArray(buf, f, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Message) encodeStruct(buf *bytes.Buffer, f *Field, v any) error {
	n, _ := v.(*Message)
	if n == nil {
		return fmt.Errorf("schema: %s.%s: nil struct value", m.t.Qualified(), f.Name)
	}
	want, err := m.t.resolve(f.Type)
	if err != nil {
		return err
	}
	wfp, err := want.Fingerprint()
	if err != nil {
		return err
	}
	hfp, err := n.t.Fingerprint()
	if err != nil {
		return err
	}
	if wfp != hfp {
		return fmt.Errorf("schema: %s.%s: value type %s (%016x) does not match declared type %s (%016x)",
			m.t.Qualified(), f.Name, n.t.Qualified(), hfp, want.Qualified(), wfp)
	}
	return n.encodeBody(buf)
}

// arrayCount resolves the on-wire element count for a field's dimension.
func (m *Message) arrayCount(f *Field) (int, error) {
	d := f.Dims[0]
	if !d.Variable() {
		return d.Size, nil
	}
	n, err := m.Int(d.Name)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("schema: %s.%s: size field %q is negative (%d)", m.t.Qualified(), f.Name, d.Name, n)
	}
	return int(n), nil
}

func (m *Message) encodeArray(buf *bytes.Buffer, f *Field, v any) error {
	count, err := m.arrayCount(f)
	if err != nil {
		return err
	}
	length := sliceLen(v)
	if length < count {
		return fmt.Errorf("schema: %s.%s: array has %d elements but %d are required", m.t.Qualified(), f.Name, length, count)
	}
	if f.Type.IsStruct() {
		s := v.([]*Message)
		for i := 0; i < count; i++ {
			if err := m.encodeStruct(buf, f, s[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; i < count; i++ {
		if err := encodeScalar(buf, f.Type.Kind, sliceIndex(v, i)); err != nil {
			return fmt.Errorf("schema: %s.%s[%d]: %w", m.t.Qualified(), f.Name, i, err)
		}
	}
	return nil
}

func sliceLen(v any) int {
	switch s := v.(type) {
	case []bool:
		return len(s)
	case []byte:
		return len(s)
	case []int8:
		return len(s)
	case []int16:
		return len(s)
	case []int32:
		return len(s)
	case []int64:
		return len(s)
	case []float32:
		return len(s)
	case []float64:
		return len(s)
	case []*Message:
		return len(s)
	}
	return 0
}

func sliceIndex(v any, i int) any {
	switch s := v.(type) {
	case []bool:
		return s[i]
	case []byte:
		return s[i]
	case []int8:
		return s[i]
	case []int16:
		return s[i]
	case []int32:
		return s[i]
	case []int64:
		return s[i]
	case []float32:
		return s[i]
	case []float64:
		return s[i]
	}
	return nil
}

func encodeScalar(buf *bytes.Buffer, k Kind, v any) error {
	switch k {
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, have %T", v)
		}
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindByte:
		x, ok := v.(byte)
		if !ok {
			return fmt.Errorf("expected byte, have %T", v)
		}
		buf.WriteByte(x)
	case KindInt8:
		x, ok := v.(int8)
		if !ok {
			return fmt.Errorf("expected int8, have %T", v)
		}
		buf.WriteByte(byte(x))
	case KindInt16:
		x, ok := v.(int16)
		if !ok {
			return fmt.Errorf("expected int16, have %T", v)
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(x))
		buf.Write(b[:])
	case KindInt32:
		x, ok := v.(int32)
		if !ok {
			return fmt.Errorf("expected int32, have %T", v)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(x))
		buf.Write(b[:])
	case KindInt64:
		x, ok := v.(int64)
		if !ok {
			return fmt.Errorf("expected int64, have %T", v)
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(x))
		buf.Write(b[:])
	case KindFloat:
		x, ok := v.(float32)
		if !ok {
			return fmt.Errorf("expected float32, have %T", v)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(x))
		buf.Write(b[:])
	case KindDouble:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected float64, have %T", v)
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(x))
		buf.Write(b[:])
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, have %T", v)
		}
		// length prefix counts the trailing NUL
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(len(s)+1))
		buf.Write(b[:])
		buf.WriteString(s)
		buf.WriteByte(0)
	default:
		return fmt.Errorf("unsupported scalar kind %v", k)
	}
	return nil
}
