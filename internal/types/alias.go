package types

// Alias is a named indirection to another type.  It is transparent under
// all semantics except storage: an alias gets its own named table
// (spec.md §3.1, §4.4), so two aliases of the same base type are stored
// separately.
type Alias struct {
	Name string
	Base *TypeRef
}

// NewAlias constructs an alias named name over base.
func NewAlias(name string, base *TypeRef) *Alias {
	return &Alias{Name: name, Base: base}
}

// TypeName implements Type.
func (a *Alias) TypeName() string { return a.Name }

// FieldWidth implements Type: transparent to the base type's field width.
func (a *Alias) FieldWidth() (uint, error) { return a.Base.FieldWidth() }

// ResolveBase follows the alias chain to the first non-alias type.
func ResolveBase(t Type) Type {
	for {
		a, ok := t.(*Alias)
		if !ok {
			return t
		}

		base := a.Base.Resolved()
		if base == nil {
			return t
		}

		t = base
	}
}
