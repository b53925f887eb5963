package types

// Array is a homogeneous sequence of an element type.  String is the same
// storage shape specialised to a character element (spec.md §3.1); rather
// than a separate Go type, IsString simply marks that specialisation so
// the schema-DSL's "character[]" and a user-declared "string" alias of it
// behave identically everywhere that matters (load, projection printing).
type Array struct {
	Name    string
	Element *TypeRef
	// IsString marks this array as the string specialisation: the builtin
	// "string" type or a "character[]" spelling. Storage and reference
	// width are unaffected; load returns a Go string rather than a []any,
	// and encode also accepts a Go string.
	IsString bool
}

// NewArray constructs a named array type over the given element type.
func NewArray(name string, element *TypeRef) *Array {
	return &Array{Name: name, Element: element}
}

// NewString constructs the string specialisation of Array over a
// character element type.
func NewString(name string, character *TypeRef) *Array {
	return &Array{Name: name, Element: character, IsString: true}
}

// TypeName implements Type.
func (a *Array) TypeName() string { return a.Name }

// FieldWidth implements Type: an array/string field is always a
// (start_index:uint64, length:uint64) pair, 16 bytes, regardless of its
// element type (spec.md §3.3).
func (a *Array) FieldWidth() (uint, error) { return 16, nil }
