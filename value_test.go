package pnwkit

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueCoercions(t *testing.T) {
	assert.Equal(t, KindNone, NewNone().Kind())

	b, ok := NewBool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	i, ok := NewInt(5).AsBool()
	assert.True(t, ok)
	assert.True(t, i)

	i2, ok := NewInt(0).AsBool()
	assert.True(t, ok)
	assert.False(t, i2)

	_, ok = NewString("x").AsBool()
	assert.False(t, ok)

	n, ok := NewString("42").AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	f, ok := NewString("3.5").AsFloat()
	require.True(t, ok)
	assert.Equal(t, 3.5, f)

	f2, ok := NewInt(7).AsFloat()
	require.True(t, ok)
	assert.Equal(t, 7.0, f2)

	_, ok = NewInt(1).AsString()
	assert.False(t, ok, "AsString must not stringify numbers")
}

func TestValueUUID(t *testing.T) {
	id := uuid.New()
	v := NewUUIDValue(id)
	got, ok := v.AsUUID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = NewString("not-a-uuid").AsUUID()
	assert.False(t, ok)
}

func TestValueGraphQLLiteral(t *testing.T) {
	obj := NewObject()
	obj.Set("a", NewInt(1))
	obj.Set("b", NewString("hi"))

	cases := []struct {
		v    Value
		want string
	}{
		{NewNone(), "null"},
		{NewBool(true), "true"},
		{NewBool(false), "false"},
		{NewInt(-7), "-7"},
		{NewFloat(1.5), "1.5"},
		{NewString(`he said "hi"`), `"he said \"hi\""`},
		{NewVariableValue(Variable{Name: "foo", Type: VarInt}), "$foo"},
		{NewArrayValue([]Value{NewInt(1), NewInt(2)}), "[1, 2]"},
		{NewObjectValue(obj), `{ a: 1, b: "hi" }`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.GraphQLLiteral())
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	obj := NewObject()
	obj.Set("id", NewInt(10))
	obj.Set("name", NewString("alliance"))
	obj.Set("active", NewBool(true))
	obj.Set("score", NewFloat(12.25))
	src := NewObjectValue(obj)

	payload, err := json.Marshal(src)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(payload, &decoded))

	got, ok := decoded.AsObject()
	require.True(t, ok)

	idVal, ok := got.Get("id")
	require.True(t, ok)
	n, ok := idVal.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(10), n)

	nameVal, ok := got.Get("name")
	require.True(t, ok)
	s, ok := nameVal.AsString()
	require.True(t, ok)
	assert.Equal(t, "alliance", s)
}

func TestValueMarshalVariableFails(t *testing.T) {
	v := NewVariableValue(Variable{Name: "page", Type: VarInt})
	_, err := json.Marshal(v)
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	o1 := NewObject()
	o1.Set("a", NewInt(1))
	o1.Set("b", NewInt(2))
	o2 := NewObject()
	o2.Set("b", NewInt(2))
	o2.Set("a", NewInt(1))

	assert.True(t, NewObjectValue(o1).Equal(NewObjectValue(o2)), "object equality is order-independent")

	a1 := NewArrayValue([]Value{NewInt(1), NewInt(2)})
	a2 := NewArrayValue([]Value{NewInt(2), NewInt(1)})
	assert.False(t, a1.Equal(a2), "array equality is order-sensitive")
}

func TestStringToValue(t *testing.T) {
	parsed := NewString(`{"a": 1}`).StringToValue()
	obj, ok := parsed.AsObject()
	require.True(t, ok)
	v, ok := obj.Get("a")
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, int64(1), n)

	unparseable := NewString("not json").StringToValue()
	s, ok := unparseable.AsString()
	require.True(t, ok)
	assert.Equal(t, "not json", s)
}
