// Package instance implements spec.md §4.7–§4.8: the Schema facade that
// binds a registry to a storage manager, constructing and loading typed
// instances by decomposing/reassembling composite dicts into per-type
// table rows and cross-table references.
package instance

import "fmt"

// Ref is the public handle for a stored value: a type name plus the row
// index returned by that type's own table (spec.md glossary "Instance
// reference").
type Ref struct {
	TypeName string
	Index    int
}

// String renders a Ref as "TypeName#Index", mainly for logging/debugging.
func (r Ref) String() string { return fmt.Sprintf("%s#%d", r.TypeName, r.Index) }

// ArrayRef is the raw (start_index,length) pair backing an array/string
// field, returned by Load when resolveReferences is false.
type ArrayRef struct {
	Start  int
	Length int
}

// EnumValue is both the input shape for constructing an enum-typed value
// and the resolved output shape of loading one: a variant name plus
// (when that variant carries a payload) the payload fields.
// Payload is a map[string]any when references are resolved, a Ref when
// they are not (resolveReferences=false debug mode), or nil for a
// payload-free variant.
type EnumValue struct {
	Variant string
	Payload any
}

// InterfaceValue is the input shape for constructing an interface-typed
// field: the name of a concrete composite implementing the interface,
// plus that composite's field values.
type InterfaceValue struct {
	Concrete string
	Fields   map[string]any
}

// FractionValue is the input/output shape for a Fraction-typed value.
type FractionValue struct {
	Numerator   any
	Denominator any
}
