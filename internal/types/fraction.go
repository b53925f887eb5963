package types

// Fraction is a rational number whose numerator and denominator share a
// single named primitive integer type (spec.md §3.1).
type Fraction struct {
	Name    string
	IntType *TypeRef
}

// NewFraction constructs a named fraction type over the given integer
// base type.
func NewFraction(name string, intType *TypeRef) *Fraction {
	return &Fraction{Name: name, IntType: intType}
}

// TypeName implements Type.
func (f *Fraction) TypeName() string { return f.Name }

// FieldWidth implements Type: twice the width of the underlying integer
// type, one copy each for numerator and denominator (spec.md §3.3).
func (f *Fraction) FieldWidth() (uint, error) {
	w, err := f.IntType.FieldWidth()
	if err != nil {
		return 0, err
	}

	return 2 * w, nil
}
