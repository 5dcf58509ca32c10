package pnwkit

import "fmt"

// VariableType is the GraphQL scalar type declared for a Variable: only
// Int and String are needed by this client (the reserved __page variable
// is always Int; every caller-declared variable used in practice is
// String or Int).
type VariableType int

const (
	VarInt VariableType = iota
	VarString
)

func (t VariableType) String() string {
	switch t {
	case VarInt:
		return "Int"
	case VarString:
		return "String"
	default:
		return "Unknown"
	}
}

// Variable is a named, typed GraphQL variable declaration. Name must be
// non-empty. Two Variables sharing a name but declaring different types
// is a caller bug this package does not detect; it will not silently
// coerce one type into the other, so a query built that way simply
// renders whichever declaration the walk encountered.
type Variable struct {
	Name string
	Type VariableType
}

func (v Variable) String() string {
	return fmt.Sprintf("$%s: %s", v.Name, v.Type)
}

// pageVariableName is the reserved pagination cursor variable name.
const pageVariableName = "__page"

// PageVariable is the reserved pagination cursor variable, always Int.
func PageVariable() Variable {
	return Variable{Name: pageVariableName, Type: VarInt}
}

// Variables is an ordered mapping from variable name to Value, submitted
// alongside a resolved Query document.
type Variables struct {
	obj *Object
}

// NewVariables returns an empty Variables set.
func NewVariables() *Variables {
	return &Variables{obj: NewObject()}
}

// Set installs name -> v.
func (vs *Variables) Set(name string, v Value) {
	vs.obj.Set(name, v)
}

// Get returns the value bound to name, if any.
func (vs *Variables) Get(name string) (Value, bool) {
	return vs.obj.Get(name)
}

// Len reports how many variables are bound.
func (vs *Variables) Len() int {
	return vs.obj.Len()
}

// Range visits every bound name/value pair in insertion order.
func (vs *Variables) Range(f func(name string, v Value) bool) {
	vs.obj.Range(f)
}

// PageInit installs __page = 1 when it is absent. It is idempotent:
// calling it twice is indistinguishable from calling it once, since the
// second call observes __page already present and does nothing.
func (vs *Variables) PageInit() {
	if _, ok := vs.Get(pageVariableName); !ok {
		vs.Set(pageVariableName, NewInt(1))
	}
}

// Valid reports whether every name in required is a non-empty name that
// is present in vs. It returns a descriptive error naming the first
// offending variable.
func (vs *Variables) Valid(required []string) error {
	for _, name := range required {
		if name == "" {
			return fmt.Errorf("empty variable name")
		}
		if _, ok := vs.Get(name); !ok {
			return fmt.Errorf("missing variable: %s", name)
		}
	}
	return nil
}

// MarshalJSON encodes the bound variables as a JSON object, the shape
// sent as the request's "variables" field.
func (vs *Variables) MarshalJSON() ([]byte, error) {
	return NewObjectValue(vs.obj).MarshalJSON()
}
