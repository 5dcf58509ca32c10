package pnwkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatorDrainsAllPages(t *testing.T) {
	client := &scriptedHTTPClient{steps: []func() (HTTPResponse, error){
		func() (HTTPResponse, error) {
			return jsonResponse(200, `{"data":{"__paginate":{
				"data":[{"id":"1"},{"id":"2"}],
				"paginatorInfo":{"count":2,"currentPage":1,"firstItem":1,"hasMorePages":true,"lastItem":2,"lastPage":2,"perPage":2,"total":3}
			}}}`)
		},
		func() (HTTPResponse, error) {
			return jsonResponse(200, `{"data":{"__paginate":{
				"data":[{"id":"3"}],
				"paginatorInfo":{"count":1,"currentPage":2,"firstItem":3,"hasMorePages":false,"lastItem":3,"lastPage":2,"perPage":2,"total":3}
			}}}`)
		},
	}}
	engine := NewEngine(testConfig(client, fixedClock{now: 1000}, &recordingSleeper{}))

	field := NewField("nations").WillPaginate().AddLeaf("id")
	p := NewPaginator(NewQuery(field))

	ctx := context.Background()
	var ids []string
	for {
		item, ok := p.Next(ctx, engine)
		if !ok {
			break
		}
		obj, ok := item.AsObject()
		require.True(t, ok)
		id, ok := obj.Get("id")
		require.True(t, ok)
		s, _ := id.AsString()
		ids = append(ids, s)
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids)
	require.NotNil(t, p.PaginatorInfo)
	assert.Equal(t, int64(3), p.PaginatorInfo.Total)
	assert.False(t, p.PaginatorInfo.HasMorePages)
}

func TestPaginatorPageIncrementsReservedVariable(t *testing.T) {
	p := NewPaginator(NewQuery(NewField("nations").WillPaginate().AddLeaf("id")))
	v, ok := p.variables.Get(pageVariableName)
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, int64(0), n)

	exhausted, err := p.page()
	require.NoError(t, err)
	assert.False(t, exhausted)

	v, ok = p.variables.Get(pageVariableName)
	require.True(t, ok)
	n, _ = v.AsInt()
	assert.Equal(t, int64(1), n)
}

func TestPaginatorPageExhaustedWhenNoMorePages(t *testing.T) {
	p := NewPaginator(NewQuery(NewField("nations").WillPaginate().AddLeaf("id")))
	p.PaginatorInfo = &PaginatorInfo{HasMorePages: false}
	exhausted, err := p.page()
	require.NoError(t, err)
	assert.True(t, exhausted)
}

func TestPaginatorWithCapacityPreallocatesQueue(t *testing.T) {
	p := NewPaginatorWithCapacity(NewQuery(NewField("nations").WillPaginate().AddLeaf("id")), 16)
	assert.Equal(t, 0, len(p.queue))
	assert.Equal(t, 16, cap(p.queue))
}

func TestPaginatorNextSurfacesFillErrorWithoutCorruptingQueue(t *testing.T) {
	client := &scriptedHTTPClient{steps: []func() (HTTPResponse, error){
		func() (HTTPResponse, error) {
			return jsonResponse(200, `{"data":{"__paginate":{"paginatorInfo":{"hasMorePages":true}}}}`)
		},
	}}
	engine := NewEngine(testConfig(client, fixedClock{now: 1000}, &recordingSleeper{}))
	p := NewPaginator(NewQuery(NewField("nations").WillPaginate().AddLeaf("id")))

	ctx := context.Background()
	_, ok := p.Next(ctx, engine)
	assert.False(t, ok)
	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "missing data")
	assert.Empty(t, p.queue, "a failed fill must not corrupt the queue")
}

func TestPaginatorAbsorbRejectsMissingKeys(t *testing.T) {
	p := NewPaginator(NewQuery(NewField("nations").WillPaginate().AddLeaf("id")))
	missingData := NewObject()
	missingData.Set("paginatorInfo", NewObjectValue(NewObject()))
	err := p.absorb(NewObjectValue(missingData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing data")

	missingInfo := NewObject()
	missingInfo.Set("data", NewArrayValue(nil))
	err = p.absorb(NewObjectValue(missingInfo))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing paginatorInfo")
}
