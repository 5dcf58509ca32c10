package pnwkit

import (
	"fmt"
	"strings"
)

// QueryKind discriminates a GraphQL document as a query or a mutation.
type QueryKind int

const (
	QueryKindQuery QueryKind = iota
	QueryKindMutation
)

func (k QueryKind) String() string {
	if k == QueryKindMutation {
		return "mutation"
	}
	return "query"
}

// Query is a full GraphQL document: a kind and one or more top-level
// field selections.
type Query struct {
	Kind      QueryKind
	TopFields []*Field
}

// NewQuery builds a query-kind Query over the given top-level fields.
func NewQuery(fields ...*Field) *Query {
	return &Query{Kind: QueryKindQuery, TopFields: fields}
}

// NewMutation builds a mutation-kind Query over the given top-level
// fields.
func NewMutation(fields ...*Field) *Query {
	return &Query{Kind: QueryKindMutation, TopFields: fields}
}

// Valid reports "no fields" when TopFields is empty, or the first
// invalid field's error otherwise.
func (q *Query) Valid() error {
	if len(q.TopFields) == 0 {
		return fmt.Errorf("no fields")
	}
	for _, f := range q.TopFields {
		if err := f.Valid(); err != nil {
			return err
		}
	}
	return nil
}

// WillPaginate reports whether any top-level field (or descendant) will
// paginate.
func (q *Query) WillPaginate() bool {
	for _, f := range q.TopFields {
		if f.WillPaginateTree() {
			return true
		}
	}
	return false
}

// collectVariables walks every field in the document, harvesting
// Value::Variable arguments in first-seen order, then appends a synthetic
// __page: Int declaration when the document will paginate and no field
// already declared one explicitly.
func (q *Query) collectVariables() []Variable {
	var vars []Variable
	seen := map[string]bool{}
	for _, f := range q.TopFields {
		vars = f.collectVariables(vars, seen)
	}
	if q.WillPaginate() && !seen[pageVariableName] {
		vars = append(vars, PageVariable())
	}
	return vars
}

// Resolve renders the document to a GraphQL request string:
// "kind vars_block { top_fields }".
func (q *Query) Resolve() string {
	kind := q.Kind.String()

	varsBlock := ""
	if vars := q.collectVariables(); len(vars) > 0 {
		parts := make([]string, len(vars))
		for i, v := range vars {
			parts[i] = v.String()
		}
		varsBlock = "(" + strings.Join(parts, ", ") + ")"
	}

	fields := make([]string, len(q.TopFields))
	for i, f := range q.TopFields {
		fields[i] = f.render()
	}

	return kind + varsBlock + " { " + strings.Join(fields, " ") + " }"
}
