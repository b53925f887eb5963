// Package types implements spec.md §3.1's type system: the closed set of
// primitives plus the Alias/Array/String/Composite/Enum/Interface/Fraction
// variants, and the §3.3 reference-width computation that lets a type with
// logically variable-size values (arrays, composites, interfaces) still
// produce a fixed-width field inside a parent composite.
package types

import "github.com/curious-machines/typed-tables/internal/ttcore"

// Type is implemented by every variant in the type system.  A Type may be
// incompletely resolved (a dangling forward declaration); FieldWidth
// reports that as an error rather than panicking.
type Type interface {
	// TypeName returns the declared name of this type.
	TypeName() string
	// FieldWidth returns the number of bytes a field of this type costs
	// inside a parent composite's on-disk record (spec.md §3.3).
	FieldWidth() (uint, error)
}

// TypeRef is a mutable, shared indirection to a Type.  Two definitions that
// reference the same name before it is fully defined share a single
// *TypeRef; resolving a forward declaration updates that one cell in
// place, which is what lets self- and mutually-referential composites
// (spec.md §4.5, §9) be represented without needing an already-built Type
// graph up front.
type TypeRef struct {
	name     string
	resolved Type
}

// NewTypeRef constructs an unresolved reference to the named type.
func NewTypeRef(name string) *TypeRef {
	return &TypeRef{name: name}
}

// NewResolvedTypeRef constructs a reference that is already resolved.
func NewResolvedTypeRef(t Type) *TypeRef {
	return &TypeRef{name: t.TypeName(), resolved: t}
}

// Name returns the referenced type's declared name.
func (r *TypeRef) Name() string { return r.name }

// Resolved returns the type this reference currently points at, or nil if
// it is still a dangling forward declaration.
func (r *TypeRef) Resolved() Type { return r.resolved }

// Resolve updates this reference in place to point at t.  Every other
// field/element/variant that shares this *TypeRef observes the update
// immediately, since they all hold the same pointer.
func (r *TypeRef) Resolve(t Type) { r.resolved = t }

// IsResolved reports whether Resolve has been called.
func (r *TypeRef) IsResolved() bool { return r.resolved != nil }

// FieldWidth dereferences the ref and delegates to the resolved type's
// FieldWidth, or reports an UnresolvedTypeError if the ref is dangling.
func (r *TypeRef) FieldWidth() (uint, error) {
	if r.resolved == nil {
		return 0, &ttcore.UnresolvedTypeError{Names: []string{r.name}}
	}

	return r.resolved.FieldWidth()
}
