package pnwkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValid(t *testing.T) {
	f := NewField("nations").AddLeaf("id")
	assert.NoError(t, f.Valid())

	empty := NewField("")
	assert.Error(t, empty.Valid())

	bad := &Field{Name: "x", Arguments: NewObject(), PaginateAlias: true}
	assert.Error(t, bad.Valid(), "paginate_alias without paginate is invalid")
}

func TestFieldRenderPlain(t *testing.T) {
	f := NewField("nations").AddLeaf("id").AddLeaf("name")
	q := NewQuery(f)
	assert.Equal(t, `query { nations{__typename id name} }`, q.Resolve())
}

func TestFieldRenderWithArgumentsAndAlias(t *testing.T) {
	f := NewField("nation").As("n").WithArgument("id", NewInt(1)).AddLeaf("id")
	q := NewQuery(f)
	assert.Equal(t, `query { n:nation(id: 1){__typename id} }`, q.Resolve())
}

func TestFieldRenderPagination(t *testing.T) {
	f := NewField("nations").WillPaginate().AddLeaf("id")
	q := NewQuery(f)
	want := `query($__page: Int) { __paginate:nations(page: $__page){__typename data{__typename id} paginatorInfo{__typename count currentPage firstItem hasMorePages lastItem lastPage perPage total}} }`
	assert.Equal(t, want, q.Resolve())
}

func TestFieldCollectVariables(t *testing.T) {
	f := NewField("nation").
		WithArgument("id", NewVariableValue(Variable{Name: "id", Type: VarInt})).
		WithArgument("also", NewVariableValue(Variable{Name: "id", Type: VarInt})).
		AddLeaf("id")
	vars := f.collectVariables(nil, map[string]bool{})
	require.Len(t, vars, 1, "repeated references to the same variable must be de-duplicated")
	assert.Equal(t, "id", vars[0].Name)
}

func TestFieldWillPaginateTree(t *testing.T) {
	child := NewField("cities").WillPaginate().AddLeaf("id")
	parent := NewField("nation").AddField(child)
	assert.True(t, parent.WillPaginateTree())
	assert.False(t, parent.Paginate)
}
