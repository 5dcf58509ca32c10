package pnwkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVariable
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindVariable:
		return "Variable"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// Value is the tagged union described by the value model: None, Bool,
// Int (signed 64-bit), Float (64-bit), String, Variable (a reference, not
// a literal), Object, and Array. A Variable never appears in a Value
// received from the network; it only exists to be rendered as a GraphQL
// `$name` reference inside argument trees built by callers.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	vt   VariableType
	obj  *Object
	arr  []Value
}

// NewNone returns the None value.
func NewNone() Value { return Value{kind: KindNone} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewInt wraps a signed 64-bit integer.
func NewInt(i int64) Value { return Value{kind: KindInt, i: i} }

// NewFloat wraps a 64-bit float.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewVariableValue wraps a reference to a named, typed variable. It
// renders as `$name` and must never be sent as literal request/response
// data.
func NewVariableValue(v Variable) Value {
	return Value{kind: KindVariable, s: v.Name, vt: v.Type}
}

// NewObjectValue wraps an Object.
func NewObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// NewArrayValue wraps a slice of Values.
func NewArrayValue(a []Value) Value { return Value{kind: KindArray, arr: a} }

// NewUUIDValue wraps a uuid.UUID as its canonical string form. The wire
// representation of a UUID scalar is always a JSON string, so this is a
// String-kind Value underneath; AsUUID is the reciprocal coercion.
func NewUUIDValue(id uuid.UUID) Value { return NewString(id.String()) }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// FromAny builds a Value from a dynamically-typed Go value produced by,
// e.g., decoding JSON into interface{}. It accepts nil, bool, the integer
// and float kinds, json.Number, string, map[string]any, []any, *Object,
// []Value, and Value itself.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return NewNone()
	case Value:
		return t
	case bool:
		return NewBool(t)
	case int:
		return NewInt(int64(t))
	case int8:
		return NewInt(int64(t))
	case int16:
		return NewInt(int64(t))
	case int32:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case uint:
		return NewInt(int64(t))
	case uint8:
		return NewInt(int64(t))
	case uint16:
		return NewInt(int64(t))
	case uint32:
		return NewInt(int64(t))
	case uint64:
		return NewInt(int64(t))
	case float32:
		return NewFloat(float64(t))
	case float64:
		return NewFloat(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return NewInt(i)
		}
		f, _ := t.Float64()
		return NewFloat(f)
	case string:
		return NewString(t)
	case *Object:
		return NewObjectValue(t)
	case map[string]any:
		o := NewObject()
		for k, e := range t {
			o.Set(k, FromAny(e))
		}
		return NewObjectValue(o)
	case []Value:
		return NewArrayValue(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromAny(e)
		}
		return NewArrayValue(out)
	default:
		return NewString(fmt.Sprintf("%v", t))
	}
}

// AsBool coerces v to a bool. Bool returns directly; Int is truthy for
// any non-zero value, falsy for zero. Every other kind fails.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i != 0, true
	default:
		return false, false
	}
}

// AsInt coerces v to an int64. Int returns directly; String is parsed as
// a fallback. Every other kind fails.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// AsFloat coerces v to a float64. Float and Int return directly (Int
// widened); String is parsed as a fallback. Every other kind fails.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString returns the wrapped string. Only the String kind succeeds; no
// numeric stringification is performed.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsObject returns the wrapped Object. Only the Object kind succeeds; use
// ParseObject to also accept a JSON-encoded string.
func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// AsArray returns the wrapped slice. Only the Array kind succeeds.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsVariable returns the wrapped Variable reference. Only the Variable
// kind succeeds.
func (v Value) AsVariable() (Variable, bool) {
	if v.kind != KindVariable {
		return Variable{}, false
	}
	return Variable{Name: v.s, Type: v.vt}, true
}

// AsUUID parses a String-kind value as a UUID.
func (v Value) AsUUID() (uuid.UUID, bool) {
	s, ok := v.AsString()
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// ParseObject accepts an Object directly, or a String that is itself a
// JSON encoding of an object.
func (v Value) ParseObject() (*Object, bool) {
	if o, ok := v.AsObject(); ok {
		return o, true
	}
	s, ok := v.AsString()
	if !ok {
		return nil, false
	}
	var parsed Value
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, false
	}
	return parsed.AsObject()
}

// StringToValue parses a String-kind value as JSON and returns the
// result; for any other kind it returns v unchanged. It never errors: a
// String that fails to parse as JSON is returned as-is too.
func (v Value) StringToValue() Value {
	if v.kind != KindString {
		return v
	}
	var parsed Value
	if err := json.Unmarshal([]byte(v.s), &parsed); err != nil {
		return v
	}
	return parsed
}

// Equal reports deep equality. Object equality is key-set + per-key value
// equality (order-independent); Array equality is order-sensitive.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindVariable:
		return v.s == other.s && v.vt == other.vt
	case KindObject:
		if v.obj == nil || other.obj == nil {
			return v.obj == other.obj
		}
		return v.obj.Equal(other.obj)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// GraphQLLiteral renders v as a GraphQL literal, per §4.1: None -> null,
// Bool -> true/false, Int/Float -> decimal, String -> double-quoted with
// JSON escaping, Variable -> $name, Object -> "{ k: v, ... }", Array ->
// "[v, v, ...]".
func (v Value) GraphQLLiteral() string {
	var b strings.Builder
	v.writeGraphQLLiteral(&b)
	return b.String()
}

func (v Value) writeGraphQLLiteral(b *strings.Builder) {
	switch v.kind {
	case KindNone:
		b.WriteString("null")
	case KindBool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		quoted, _ := json.Marshal(v.s)
		b.Write(quoted)
	case KindVariable:
		b.WriteByte('$')
		b.WriteString(v.s)
	case KindObject:
		b.WriteString("{ ")
		first := true
		if v.obj != nil {
			v.obj.Range(func(k string, val Value) bool {
				if !first {
					b.WriteString(", ")
				}
				first = false
				b.WriteString(k)
				b.WriteString(": ")
				val.writeGraphQLLiteral(b)
				return true
			})
		}
		b.WriteString(" }")
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteString(", ")
			}
			e.writeGraphQLLiteral(b)
		}
		b.WriteByte(']')
	}
}

// MarshalJSON encodes v for network transport. Variable never appears in
// network-bound data, so marshaling one is an error rather than a silent
// coercion.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNone:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindVariable:
		return nil, fmt.Errorf("pnwkit: cannot JSON-marshal a Variable value ($%s)", v.s)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		var buf bytes.Buffer
		buf.WriteByte('{')
		first := true
		var encErr error
		v.obj.Range(func(k string, val Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyJSON, _ := json.Marshal(k)
			buf.Write(keyJSON)
			buf.WriteByte(':')
			valJSON, err := val.MarshalJSON()
			if err != nil {
				encErr = err
				return false
			}
			buf.Write(valJSON)
			return true
		})
		if encErr != nil {
			return nil, encErr
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			elemJSON, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(elemJSON)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("pnwkit: unknown value kind %v", v.kind)
	}
}

// UnmarshalJSON decodes network data into v. Both signed and unsigned
// integer widths, as well as bool and f64, fold into Int/Float/Bool;
// null/absent data becomes None.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = decodeAny(raw)
	return nil
}

func decodeAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return NewNone()
	case bool:
		return NewBool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return NewInt(i)
		}
		f, _ := t.Float64()
		return NewFloat(f)
	case string:
		return NewString(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = decodeAny(e)
		}
		return NewArrayValue(out)
	case map[string]any:
		// encoding/json already discards source key order when decoding
		// into map[string]any, so there is no original order left to
		// preserve; sort for deterministic re-rendering instead.
		o := NewObject()
		for _, k := range sortedMapKeys(t) {
			o.Set(k, decodeAny(t[k]))
		}
		return NewObjectValue(o)
	default:
		return NewNone()
	}
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
