package pnwkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableString(t *testing.T) {
	v := Variable{Name: "id", Type: VarInt}
	assert.Equal(t, "$id: Int", v.String())
}

func TestVariablesValid(t *testing.T) {
	vs := NewVariables()
	vs.Set("id", NewInt(1))

	assert.NoError(t, vs.Valid([]string{"id"}))
	assert.Error(t, vs.Valid([]string{"missing"}))
	assert.Error(t, vs.Valid([]string{""}))
}

func TestVariablesValidIgnoresValueContent(t *testing.T) {
	vs := NewVariables()
	vs.Set("name", NewString(""))
	assert.NoError(t, vs.Valid([]string{"name"}), "presence, not value emptiness, is what Valid checks")
}

func TestVariablesPageInit(t *testing.T) {
	vs := NewVariables()
	vs.PageInit()
	v, ok := vs.Get(pageVariableName)
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, int64(1), n)

	vs.Set(pageVariableName, NewInt(5))
	vs.PageInit()
	v, ok = vs.Get(pageVariableName)
	require.True(t, ok)
	n, _ = v.AsInt()
	assert.Equal(t, int64(5), n, "PageInit must not overwrite an already-present __page")
}
