package pnwkit

import (
	"fmt"
	"strings"
)

// FieldChild is either a bare leaf selection (a scalar field with no
// sub-selection) or a Node wrapping a full Field (which may itself have
// arguments, children, and pagination).
type FieldChild struct {
	leafName string
	node     *Field
}

// LeafChild builds a bare scalar selection.
func LeafChild(name string) FieldChild { return FieldChild{leafName: name} }

// NodeChild wraps a full sub-Field selection.
func NodeChild(f *Field) FieldChild { return FieldChild{node: f} }

// IsLeaf reports whether this child is a bare leaf selection.
func (c FieldChild) IsLeaf() bool { return c.node == nil }

const paginatorInfoFields = "__typename count currentPage firstItem hasMorePages lastItem lastPage perPage total"

// Field is one selection in a GraphQL document: a name, optional alias,
// an argument set, child selections, and pagination flags.
type Field struct {
	Name          string
	Alias         string
	Arguments     *Object
	Children      []FieldChild
	Paginate      bool
	PaginateAlias bool
}

// NewField constructs a Field with an empty argument set.
func NewField(name string) *Field {
	return &Field{Name: name, Arguments: NewObject()}
}

// As sets the rendering alias (ignored when PaginateAlias is set, since
// that label takes precedence per §4.2).
func (f *Field) As(alias string) *Field {
	f.Alias = alias
	return f
}

// WithArgument binds name -> v in the field's argument set and returns f
// for chaining.
func (f *Field) WithArgument(name string, v Value) *Field {
	f.Arguments.Set(name, v)
	return f
}

// AddLeaf appends a bare scalar child selection.
func (f *Field) AddLeaf(name string) *Field {
	f.Children = append(f.Children, LeafChild(name))
	return f
}

// AddField appends a full sub-Field selection.
func (f *Field) AddField(child *Field) *Field {
	f.Children = append(f.Children, NodeChild(child))
	return f
}

// WillPaginate marks f as a paginated selection: its rendered label
// becomes `__paginate:<name>` and its body is wrapped in `data { ... }`
// plus a `paginatorInfo { ... }` block, per §4.2.
func (f *Field) WillPaginate() *Field {
	f.Paginate = true
	f.PaginateAlias = true
	return f
}

// Valid reports the first validation failure found in f or any of its
// descendants: an empty name, or PaginateAlias set without Paginate.
func (f *Field) Valid() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if f.PaginateAlias && !f.Paginate {
		return fmt.Errorf("field %q: paginate_alias set without paginate", f.Name)
	}
	for _, c := range f.Children {
		if c.IsLeaf() {
			if strings.TrimSpace(c.leafName) == "" {
				return fmt.Errorf("field name cannot be empty")
			}
			continue
		}
		if err := c.node.Valid(); err != nil {
			return err
		}
	}
	return nil
}

// WillPaginateTree reports whether f or any descendant has Paginate set.
func (f *Field) WillPaginateTree() bool {
	if f.Paginate {
		return true
	}
	for _, c := range f.Children {
		if !c.IsLeaf() && c.node.WillPaginateTree() {
			return true
		}
	}
	return false
}

// collectVariables appends every Value::Variable found in f's arguments
// (and recursively in descendant Fields) onto out, preserving first-seen
// order and de-duplicating by name.
func (f *Field) collectVariables(out []Variable, seen map[string]bool) []Variable {
	f.Arguments.Range(func(_ string, v Value) bool {
		if ref, ok := v.AsVariable(); ok && !seen[ref.Name] {
			seen[ref.Name] = true
			out = append(out, ref)
		}
		return true
	})
	for _, c := range f.Children {
		if !c.IsLeaf() {
			out = c.node.collectVariables(out, seen)
		}
	}
	return out
}

// label picks the rendered selection label: __paginate:<name> takes
// precedence, then alias:<name>, then the bare name.
func (f *Field) label() string {
	if f.PaginateAlias {
		return "__paginate:" + f.Name
	}
	if f.Alias != "" {
		return f.Alias + ":" + f.Name
	}
	return f.Name
}

// renderArgs renders "(k: v, ...)", injecting a synthetic page: $__page
// argument for a paginated field that doesn't already declare one
// (without mutating the field's own, possibly shared, Arguments object).
func (f *Field) renderArgs() string {
	keys := f.Arguments.Keys()
	hasPage := false
	for _, k := range keys {
		if k == "page" {
			hasPage = true
			break
		}
	}
	if len(keys) == 0 && !(f.Paginate && !hasPage) {
		return ""
	}
	var parts []string
	for _, k := range keys {
		v, _ := f.Arguments.Get(k)
		parts = append(parts, k+": "+v.GraphQLLiteral())
	}
	if f.Paginate && !hasPage {
		parts = append(parts, "page: "+NewVariableValue(PageVariable()).GraphQLLiteral())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// renderChildren joins every child selection with a single space: bare
// names for leaves, full recursive renders for nodes.
func (f *Field) renderChildren() string {
	parts := make([]string, 0, len(f.Children))
	for _, c := range f.Children {
		if c.IsLeaf() {
			parts = append(parts, c.leafName)
		} else {
			parts = append(parts, c.node.render())
		}
	}
	return strings.Join(parts, " ")
}

// wrapSelection renders "label(args){__typename body}", always requesting
// __typename so callers can disambiguate union results.
func wrapSelection(label, args, body string) string {
	var b strings.Builder
	b.WriteString(label)
	b.WriteString(args)
	b.WriteByte('{')
	b.WriteString("__typename")
	if body != "" {
		b.WriteByte(' ')
		b.WriteString(body)
	}
	b.WriteByte('}')
	return b.String()
}

// render produces this field's full selection text.
func (f *Field) render() string {
	label := f.label()
	args := f.renderArgs()

	if !f.Paginate {
		return wrapSelection(label, args, f.renderChildren())
	}

	dataSel := wrapSelection("data", "", f.renderChildren())
	piSel := wrapSelection("paginatorInfo", "", strings.TrimPrefix(paginatorInfoFields, "__typename "))
	return wrapSelection(label, args, dataSel+" "+piSel)
}
