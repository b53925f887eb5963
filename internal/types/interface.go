package types

// Interface declares a set of named, typed members every implementer must
// supply (spec.md §4.6's interface_def reuses the same field grammar as a
// composite body).  An interface-typed field stores a (concrete_type_tag,
// index) pair; dispatch at the data layer is a type-tag lookup, never
// virtual-table traversal (spec.md §9).
type Interface struct {
	Name    string
	Members []Field
}

// NewInterface constructs a named interface type with the given required
// members.
func NewInterface(name string, members []Field) *Interface {
	return &Interface{Name: name, Members: members}
}

// TypeName implements Type.
func (i *Interface) TypeName() string { return i.Name }

// FieldWidth implements Type: a (uint64 type-tag, uint64 row index) pair,
// 16 bytes (spec.md §3.3).
func (i *Interface) FieldWidth() (uint, error) { return 16, nil }

// Implements checks whether the given composite supplies every member
// this interface requires, by name (member types are not currently
// structurally checked beyond presence — spec.md leaves the exact
// contract-checking depth open).
func (i *Interface) Implements(c *Composite) bool {
	for _, member := range i.Members {
		if _, ok := c.GetField(member.Name); !ok {
			return false
		}
	}

	return true
}
