package pnwkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryValidEmpty(t *testing.T) {
	q := NewQuery()
	assert.Error(t, q.Valid())
}

func TestMutationKind(t *testing.T) {
	f := NewField("createBankrec").AddLeaf("id")
	q := NewMutation(f)
	assert.Equal(t, `mutation { createBankrec{__typename id} }`, q.Resolve())
}

func TestQueryMultipleTopFields(t *testing.T) {
	a := NewField("me").AddLeaf("id")
	b := NewField("nations").AddLeaf("id")
	q := NewQuery(a, b)
	assert.Equal(t, `query { me{__typename id} nations{__typename id} }`, q.Resolve())
}

func TestQueryExplicitVariable(t *testing.T) {
	f := NewField("nation").WithArgument("id", NewVariableValue(Variable{Name: "id", Type: VarInt})).AddLeaf("id")
	q := NewQuery(f)
	assert.Equal(t, `query($id: Int) { nation(id: $id){__typename id} }`, q.Resolve())
}
