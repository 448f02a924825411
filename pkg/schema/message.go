package schema

import "fmt"

// Message is an in-memory instance of a struct type. Scalar and array
// fields are owned by value; nested struct fields are held as their own
// Message values (composition, not shared references).
type Message struct {
	t    *Type
	vals map[string]any
}

// New returns a message with every field set to its default: zero scalars,
// empty strings, zero-filled fixed arrays, recursively constructed nested
// structs, and empty variable arrays.
func (t *Type) New() *Message {
	m := &Message{t: t, vals: make(map[string]any, len(t.def.Fields))}
	for i := range t.def.Fields {
		f := &t.def.Fields[i]
		m.vals[f.Name] = t.defaultValue(f)
	}
	return m
}

func (t *Type) defaultValue(f *Field) any {
	if len(f.Dims) == 0 {
		if f.Type.IsStruct() {
			if ft, err := t.resolve(f.Type); err == nil {
				return ft.New()
			}
			return (*Message)(nil) // unresolved; Encode reports it
		}
		return zeroScalar(f.Type.Kind)
	}
	n := 0
	if !f.Dims[0].Variable() {
		n = f.Dims[0].Size
	}
	if f.Type.IsStruct() {
		s := make([]*Message, n)
		if ft, err := t.resolve(f.Type); err == nil {
			for i := range s {
				s[i] = ft.New()
			}
		}
		return s
	}
	return zeroSlice(f.Type.Kind, n)
}

func zeroScalar(k Kind) any {
	switch k {
	case KindBoolean:
		return false
	case KindByte:
		return byte(0)
	case KindInt8:
		return int8(0)
	case KindInt16:
		return int16(0)
	case KindInt32:
		return int32(0)
	case KindInt64:
		return int64(0)
	case KindFloat:
		return float32(0)
	case KindDouble:
		return float64(0)
	case KindString:
		return ""
	}
	return nil
}

func zeroSlice(k Kind, n int) any {
	switch k {
	case KindBoolean:
		return make([]bool, n)
	case KindByte:
		return make([]byte, n)
	case KindInt8:
		return make([]int8, n)
	case KindInt16:
		return make([]int16, n)
	case KindInt32:
		return make([]int32, n)
	case KindInt64:
		return make([]int64, n)
	case KindFloat:
		return make([]float32, n)
	case KindDouble:
		return make([]float64, n)
	}
	return nil
}

// Type returns the message's declared type.
func (m *Message) Type() *Type { return m.t }

func (m *Message) field(name string) (*Field, error) {
	for i := range m.t.def.Fields {
		if m.t.def.Fields[i].Name == name {
			return &m.t.def.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("schema: %s has no field %q", m.t.Qualified(), name)
}

// Set assigns a field value. Integer fields additionally accept plain int;
// float fields accept float64. Everything else must match the field's Go
// representation exactly.
func (m *Message) Set(name string, v any) error {
	f, err := m.field(name)
	if err != nil {
		return err
	}
	cv, err := coerce(f, v)
	if err != nil {
		return fmt.Errorf("schema: %s.%s: %w", m.t.Qualified(), name, err)
	}
	m.vals[name] = cv
	return nil
}

// MustSet is Set that panics; for tests and generated examples.
func (m *Message) MustSet(name string, v any) {
	if err := m.Set(name, v); err != nil {
		panic(err)
	}
}

// Get returns the current value of a field.
func (m *Message) Get(name string) (any, error) {
	if _, err := m.field(name); err != nil {
		return nil, err
	}
	return m.vals[name], nil
}

// Int returns an integer field widened to int64.
func (m *Message) Int(name string) (int64, error) {
	v, err := m.Get(name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case byte:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	}
	return 0, fmt.Errorf("schema: %s.%s is not an integer field", m.t.Qualified(), name)
}

// Float returns a float or double field widened to float64.
func (m *Message) Float(name string) (float64, error) {
	v, err := m.Get(name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	return 0, fmt.Errorf("schema: %s.%s is not a float field", m.t.Qualified(), name)
}

// Str returns a string field.
func (m *Message) Str(name string) (string, error) {
	v, err := m.Get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("schema: %s.%s is not a string field", m.t.Qualified(), name)
	}
	return s, nil
}

// Bool returns a boolean field.
func (m *Message) Bool(name string) (bool, error) {
	v, err := m.Get(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("schema: %s.%s is not a boolean field", m.t.Qualified(), name)
	}
	return b, nil
}

// Msg returns a nested struct field.
func (m *Message) Msg(name string) (*Message, error) {
	v, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Message)
	if !ok {
		return nil, fmt.Errorf("schema: %s.%s is not a struct field", m.t.Qualified(), name)
	}
	return n, nil
}

// Msgs returns a struct-array field.
func (m *Message) Msgs(name string) ([]*Message, error) {
	v, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]*Message)
	if !ok {
		return nil, fmt.Errorf("schema: %s.%s is not a struct array field", m.t.Qualified(), name)
	}
	return s, nil
}

func coerce(f *Field, v any) (any, error) {
	if len(f.Dims) > 0 {
		return coerceSlice(f, v)
	}
	if f.Type.IsStruct() {
		n, ok := v.(*Message)
		if !ok || n == nil {
			return nil, fmt.Errorf("expected *Message of type %s", f.Type.qualified())
		}
		if n.t.Qualified() != f.Type.qualified() {
			return nil, fmt.Errorf("message type %s does not match declared type %s", n.t.Qualified(), f.Type.qualified())
		}
		return n, nil
	}
	return coerceScalar(f.Type.Kind, v)
}

func coerceScalar(k Kind, v any) (any, error) {
	switch k {
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindByte:
		switch x := v.(type) {
		case byte:
			return x, nil
		case int:
			if x < 0 || x > 255 {
				return nil, fmt.Errorf("value %d out of range for byte", x)
			}
			return byte(x), nil
		}
	case KindInt8:
		switch x := v.(type) {
		case int8:
			return x, nil
		case int:
			if x < -128 || x > 127 {
				return nil, fmt.Errorf("value %d out of range for int8_t", x)
			}
			return int8(x), nil
		}
	case KindInt16:
		switch x := v.(type) {
		case int16:
			return x, nil
		case int:
			if x < -32768 || x > 32767 {
				return nil, fmt.Errorf("value %d out of range for int16_t", x)
			}
			return int16(x), nil
		}
	case KindInt32:
		switch x := v.(type) {
		case int32:
			return x, nil
		case int:
			if x < -1<<31 || x > 1<<31-1 {
				return nil, fmt.Errorf("value %d out of range for int32_t", x)
			}
			return int32(x), nil
		}
	case KindInt64:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		}
	case KindFloat:
		switch x := v.(type) {
		case float32:
			return x, nil
		case float64:
			return float32(x), nil
		}
	case KindDouble:
		if x, ok := v.(float64); ok {
			return x, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("cannot assign %T to %s field", v, k)
}

func coerceSlice(f *Field, v any) (any, error) {
	if f.Type.IsStruct() {
		s, ok := v.([]*Message)
		if !ok {
			return nil, fmt.Errorf("expected []*Message of type %s", f.Type.qualified())
		}
		for i, el := range s {
			if el == nil {
				return nil, fmt.Errorf("element %d is nil", i)
			}
			if el.t.Qualified() != f.Type.qualified() {
				return nil, fmt.Errorf("element %d type %s does not match declared type %s", i, el.t.Qualified(), f.Type.qualified())
			}
		}
		return s, nil
	}
	switch f.Type.Kind {
	case KindBoolean:
		if s, ok := v.([]bool); ok {
			return s, nil
		}
	case KindByte:
		if s, ok := v.([]byte); ok {
			return s, nil
		}
	case KindInt8:
		if s, ok := v.([]int8); ok {
			return s, nil
		}
	case KindInt16:
		if s, ok := v.([]int16); ok {
			return s, nil
		}
		if s, ok := v.([]int); ok {
			return intsTo(s, func(x int) int16 { return int16(x) }), nil
		}
	case KindInt32:
		if s, ok := v.([]int32); ok {
			return s, nil
		}
		if s, ok := v.([]int); ok {
			return intsTo(s, func(x int) int32 { return int32(x) }), nil
		}
	case KindInt64:
		if s, ok := v.([]int64); ok {
			return s, nil
		}
		if s, ok := v.([]int); ok {
			return intsTo(s, func(x int) int64 { return int64(x) }), nil
		}
	case KindFloat:
		if s, ok := v.([]float32); ok {
			return s, nil
		}
	case KindDouble:
		if s, ok := v.([]float64); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("cannot assign %T to %s array field", v, f.Type.Kind)
}

func intsTo[T int16 | int32 | int64](in []int, conv func(int) T) []T {
	out := make([]T, len(in))
	for i, x := range in {
		out[i] = conv(x)
	}
	return out
}
