// Package registry implements spec.md §4.5's type registry: a name→Type
// mapping with forward-declaration support so self- and mutually
// recursive composites can be defined (spec.md §3.2 inv. 2, §9), plus the
// small-integer type-tag allocation interface dispatch needs (spec.md §9's
// "Interface dispatch → type-tag table").
package registry

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// Registry holds every named type definition for one schema, along with
// any forward declarations still awaiting their real definition.
type Registry struct {
	refs     map[string]*types.TypeRef
	forwards map[string]bool
	order    []string

	tagsByName map[string]uint32
	tagsInUse  *bitset.BitSet
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		refs:       make(map[string]*types.TypeRef),
		forwards:   make(map[string]bool),
		tagsByName: make(map[string]uint32),
		tagsInUse:  bitset.New(64),
	}
}

// Ref returns the shared *types.TypeRef cell for name, creating an
// unresolved one if this is the first time name has been mentioned. Every
// field, element or variant that refers to the same name by this method
// shares one cell, so resolving it later (Define) updates every holder at
// once — this is what makes forward references and recursive types work
// without a second pass over already-built field lists.
func (r *Registry) Ref(name string) *types.TypeRef {
	if ref, ok := r.refs[name]; ok {
		return ref
	}

	ref := types.NewTypeRef(name)
	r.refs[name] = ref

	return ref
}

// Forward declares name as a placeholder that other definitions may
// reference ahead of its real body (spec.md §4.5). Declaring the same
// name twice is not an error; declaring a name that is already fully
// defined is.
func (r *Registry) Forward(name string) error {
	if ref, ok := r.refs[name]; ok && ref.IsResolved() {
		return ttcore.NewTypeError(name, "cannot forward-declare an already-defined type")
	}

	r.Ref(name)
	r.forwards[name] = true

	return nil
}

// Define binds name to t. Redefining a name that already has a resolved
// type is a TypeError (spec.md §4.5's "Redefinition → TypeError"); binding
// a name for the first time, or resolving a prior forward declaration, is
// not.
func (r *Registry) Define(t types.Type) error {
	name := t.TypeName()

	ref, exists := r.refs[name]
	if exists && ref.IsResolved() {
		return ttcore.NewTypeError(name, "type already defined")
	}

	if !exists {
		ref = r.Ref(name)
	}

	ref.Resolve(t)
	delete(r.forwards, name)
	r.order = append(r.order, name)

	return nil
}

// Get returns the type bound to name, if it has been defined; a name that
// is unknown or only referenced/forward-declared reports false.
func (r *Registry) Get(name string) (types.Type, bool) {
	ref, ok := r.refs[name]
	if !ok || !ref.IsResolved() {
		return nil, false
	}

	return ref.Resolved(), true
}

// GetOrRaise returns the type bound to name, or an UnresolvedTypeError if
// it does not exist or is still a dangling forward declaration.
func (r *Registry) GetOrRaise(name string) (types.Type, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, &ttcore.UnresolvedTypeError{Names: []string{name}}
	}

	return t, nil
}

// Contains reports whether name has been mentioned at all (defined or
// merely forward-declared).
func (r *Registry) Contains(name string) bool {
	_, ok := r.refs[name]
	return ok
}

// Types returns every defined type, in definition order.
func (r *Registry) Types() []types.Type {
	result := make([]types.Type, 0, len(r.order))

	for _, name := range r.order {
		if t, ok := r.Get(name); ok {
			result = append(result, t)
		}
	}

	return result
}

// Finalize checks that every referenced or forward-declared name has been
// defined. Call this once at end-of-parse (spec.md §4.5's "Unresolved
// forwards at end-of-parse → UnresolvedTypeError").
func (r *Registry) Finalize() error {
	var dangling []string

	for name, ref := range r.refs {
		if !ref.IsResolved() {
			dangling = append(dangling, name)
		}
	}

	if len(dangling) > 0 {
		return &ttcore.UnresolvedTypeError{Names: dangling}
	}

	return nil
}

// TagFor lazily assigns and returns the stable small-integer type-tag for
// name (spec.md §9). The same name always gets the same tag; each new
// name takes the first unset bit of tagsInUse.
func (r *Registry) TagFor(name string) uint32 {
	if tag, ok := r.tagsByName[name]; ok {
		return tag
	}

	next, _ := r.tagsInUse.NextClear(0)
	tag := uint32(next)
	r.tagsByName[name] = tag
	r.tagsInUse.Set(next)

	return tag
}

// NameForTag reverse-looks-up the type name for a previously assigned tag.
func (r *Registry) NameForTag(tag uint32) (string, bool) {
	for name, t := range r.tagsByName {
		if t == tag {
			return name, true
		}
	}

	return "", false
}
