package types

// Field is one named, typed member of a Composite, in declared order.
type Field struct {
	Name string
	Type *TypeRef
}

// Composite is an ordered list of named fields.  Its on-disk record width
// is the sum of each field's reference width (spec.md §3.3) — never the
// width of the referenced values themselves, which is what allows a
// composite to reference itself (directly or transitively) without an
// infinite or even self-dependent width computation (spec.md §3.2 inv. 3,
// §9).
type Composite struct {
	Name   string
	Fields []Field
}

// NewComposite constructs a named composite type with the given fields.
func NewComposite(name string, fields []Field) *Composite {
	return &Composite{Name: name, Fields: fields}
}

// TypeName implements Type.
func (c *Composite) TypeName() string { return c.Name }

// FieldWidth implements Type: a composite field costs one uint64 row
// index into that composite's own table (spec.md §3.3).
func (c *Composite) FieldWidth() (uint, error) { return 8, nil }

// GetField returns the field with the given name, or (Field{}, false).
func (c *Composite) GetField(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// RecordWidth computes the fixed on-disk width of one row of this
// composite's own table: the sum of every field's reference width. This
// is distinct from FieldWidth, which is always 8 regardless of how many
// fields this composite has — RecordWidth is what Table uses to size
// records in this composite's *own* file.
func (c *Composite) RecordWidth() (uint, error) {
	var total uint

	for _, f := range c.Fields {
		w, err := f.Type.FieldWidth()
		if err != nil {
			return 0, err
		}

		total += w
	}

	return total, nil
}
