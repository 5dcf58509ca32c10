package pnwkit

import (
	"context"
	"fmt"
)

// PaginatorInfo mirrors the GraphQL `paginatorInfo` block returned
// alongside a paginated field's `data` array.
type PaginatorInfo struct {
	Count        int64
	CurrentPage  int64
	FirstItem    int64
	HasMorePages bool
	LastItem     int64
	LastPage     int64
	PerPage      int64
	Total        int64
}

func (p *PaginatorInfo) update(v Value) {
	obj, ok := v.AsObject()
	if !ok {
		return
	}
	obj.Range(func(k string, val Value) bool {
		switch k {
		case "count":
			p.Count, _ = val.AsInt()
		case "currentPage":
			p.CurrentPage, _ = val.AsInt()
		case "firstItem":
			p.FirstItem, _ = val.AsInt()
		case "hasMorePages":
			p.HasMorePages, _ = val.AsBool()
		case "lastItem":
			p.LastItem, _ = val.AsInt()
		case "lastPage":
			p.LastPage, _ = val.AsInt()
		case "perPage":
			p.PerPage, _ = val.AsInt()
		case "total":
			p.Total, _ = val.AsInt()
		}
		return true
	})
}

func paginatorInfoFromValue(v Value) *PaginatorInfo {
	p := &PaginatorInfo{}
	p.update(v)
	return p
}

// Paginator drains a paginated field's result set one page at a time,
// re-issuing the underlying query with an incremented reserved __page
// variable and buffering each page's items in an internal queue.
type Paginator struct {
	PaginatorInfo *PaginatorInfo

	query     *Query
	variables *Variables
	queue     []Value
	lastErr   error
}

// NewPaginator builds a Paginator over query, with no caller-supplied
// variables.
func NewPaginator(query *Query) *Paginator {
	return NewPaginatorWithVariables(query, NewVariables())
}

// NewPaginatorWithCapacity preallocates the internal queue to capacity
// items.
func NewPaginatorWithCapacity(query *Query, capacity int) *Paginator {
	p := NewPaginator(query)
	p.queue = make([]Value, 0, capacity)
	return p
}

// NewPaginatorWithVariables builds a Paginator over query using the
// caller-supplied variables, seeding the reserved __page variable at 0
// (meaning "no page fetched yet").
func NewPaginatorWithVariables(query *Query, variables *Variables) *Paginator {
	variables.Set(pageVariableName, NewInt(0))
	return &Paginator{query: query, variables: variables}
}

// NewPaginatorWithCapacityAndVariables combines NewPaginatorWithCapacity
// and NewPaginatorWithVariables.
func NewPaginatorWithCapacityAndVariables(query *Query, capacity int, variables *Variables) *Paginator {
	p := NewPaginatorWithVariables(query, variables)
	p.queue = make([]Value, 0, capacity)
	return p
}

// page advances the reserved __page variable and reports whether the
// paginator is already exhausted (no further fetch should be attempted).
func (p *Paginator) page() (exhausted bool, err error) {
	if p.PaginatorInfo != nil && !p.PaginatorInfo.HasMorePages {
		return true, nil
	}
	cur, ok := p.variables.Get(pageVariableName)
	if !ok {
		return false, fmt.Errorf("invalid paginator variable")
	}
	page, ok := cur.AsInt()
	if !ok {
		if p.PaginatorInfo == nil {
			return false, fmt.Errorf("invalid paginator variable")
		}
		page = p.PaginatorInfo.CurrentPage
	}
	p.variables.Set(pageVariableName, NewInt(page+1))
	return false, nil
}

func (p *Paginator) absorb(result Value) error {
	obj, ok := result.AsObject()
	if !ok {
		return fmt.Errorf("paginated result is not an object")
	}
	infoVal, ok := obj.Get("paginatorInfo")
	if !ok {
		return fmt.Errorf("paginated result missing paginatorInfo")
	}
	if p.PaginatorInfo == nil {
		p.PaginatorInfo = paginatorInfoFromValue(infoVal)
	} else {
		p.PaginatorInfo.update(infoVal)
	}

	dataVal, ok := obj.Get("data")
	if !ok {
		return fmt.Errorf("paginated result missing data")
	}
	items, _ := dataVal.AsArray()
	p.queue = append(p.queue, items...)
	return nil
}

// Fill fetches the next page and appends its items to the internal
// queue, unless the paginator is already exhausted. It does not check
// whether the queue is empty, so calling it directly prefetches; Next
// calls it automatically when the queue is empty.
func (p *Paginator) Fill(ctx context.Context, engine *Engine) error {
	exhausted, err := p.page()
	if err != nil {
		return err
	}
	if exhausted {
		return nil
	}
	result, err := engine.GetWithVariables(ctx, p.query, p.variables)
	if err != nil {
		return err
	}
	obj, ok := result.AsObject()
	if !ok {
		return fmt.Errorf("query result is not an object")
	}
	paginated, ok := obj.Get("__paginate")
	if !ok {
		return fmt.Errorf("query result missing __paginate entry")
	}
	return p.absorb(paginated)
}

// Next pops the next buffered item, filling the queue first if it is
// empty. It returns ok=false once the result set is exhausted or a fetch
// fails; a failure does not corrupt the queue (the partially-filled or
// still-empty queue is left exactly as it was) and is retrievable via
// Err until the next Next call that does not fail.
func (p *Paginator) Next(ctx context.Context, engine *Engine) (Value, bool) {
	if len(p.queue) == 0 {
		if err := p.Fill(ctx, engine); err != nil {
			p.lastErr = err
			return Value{}, false
		}
	}
	p.lastErr = nil
	if len(p.queue) == 0 {
		return Value{}, false
	}
	item := p.queue[0]
	p.queue = p.queue[1:]
	return item, true
}

// Err returns the error from the most recent Next call whose fill failed,
// or nil if the most recent Next call did not fail (including a clean,
// non-error exhaustion). A direct Fill call returns its error and does
// not change Err.
func (p *Paginator) Err() error {
	return p.lastErr
}
