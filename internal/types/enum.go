package types

// Variant is one named case of an Enum.  Payload is nil for a tag-only
// variant, or a reference to the composite type carrying its payload.
type Variant struct {
	Name    string
	Payload *TypeRef
}

// Enum is a closed set of named variants, each either payload-free or
// carrying a single composite payload.  On disk it is stored as
// (tag:uintN, payload_ref:uint64?) per spec.md §3.1.
type Enum struct {
	Name     string
	Variants []Variant
}

// NewEnum constructs a named enum type with the given variants.
func NewEnum(name string, variants []Variant) *Enum {
	return &Enum{Name: name, Variants: variants}
}

// TypeName implements Type.
func (e *Enum) TypeName() string { return e.Name }

// TagByteWidth returns the number of bytes needed to hold a tag wide
// enough to distinguish every variant, rounded up to 1/2/4/8 bytes per
// spec.md §3.3.
func (e *Enum) TagByteWidth() uint {
	k := uint(len(e.Variants))

	bits := uint(0)
	for (uint(1) << bits) < k {
		bits++
	}

	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

// HasPayload reports whether any variant of this enum carries a payload.
func (e *Enum) HasPayload() bool {
	for _, v := range e.Variants {
		if v.Payload != nil {
			return true
		}
	}

	return false
}

// GetVariant returns the variant with the given name, its index, and
// whether it was found.
func (e *Enum) GetVariant(name string) (Variant, int, bool) {
	for i, v := range e.Variants {
		if v.Name == name {
			return v, i, true
		}
	}

	return Variant{}, -1, false
}

// FieldWidth implements Type: tag width, plus 8 bytes for a payload row
// index if any variant carries one (spec.md §3.3).
func (e *Enum) FieldWidth() (uint, error) {
	width := e.TagByteWidth()
	if e.HasPayload() {
		width += 8
	}

	return width, nil
}
