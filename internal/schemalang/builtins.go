package schemalang

import (
	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/types"
)

// CharacterByteWidth is the fixed per-character byte slot used by every
// schema, per spec.md §4.1 ("typically 4 for UTF-32"). The schema DSL does
// not currently expose a way to override it.
const CharacterByteWidth = 4

// RegisterBuiltins populates r with spec.md §3.1's closed set of
// primitives plus the built-in "string" type (character[]), so that
// schema source never needs to declare them itself.
func RegisterBuiltins(r *registry.Registry) error {
	for _, w := range []uint{1, 8, 16, 32, 64, 128} {
		t, err := types.NewUint(w)
		if err != nil {
			return err
		}

		if err := r.Define(t); err != nil {
			return err
		}
	}

	for _, w := range []uint{8, 16, 32, 64, 128} {
		t, err := types.NewInt(w)
		if err != nil {
			return err
		}

		if err := r.Define(t); err != nil {
			return err
		}
	}

	for _, w := range []uint{32, 64} {
		t, err := types.NewFloat(w)
		if err != nil {
			return err
		}

		if err := r.Define(t); err != nil {
			return err
		}
	}

	if err := r.Define(types.Bit()); err != nil {
		return err
	}

	character := types.NewCharacter(CharacterByteWidth)
	if err := r.Define(character); err != nil {
		return err
	}

	str := types.NewString("string", r.Ref("character"))

	return r.Define(str)
}

// builtinNames is the closed set of names RegisterBuiltins defines. It lets
// schema.meta serialisation (internal/storage) tell a user-defined type
// from a builtin one without redefining the primitive table here.
var builtinNames = func() map[string]bool {
	names := map[string]bool{"bit": true, "character": true, "string": true}

	for _, w := range []uint{1, 8, 16, 32, 64, 128} {
		names[(types.Primitive{Kind: types.KindUint, Bits: w}).Name()] = true
	}

	for _, w := range []uint{8, 16, 32, 64, 128} {
		names[(types.Primitive{Kind: types.KindInt, Bits: w}).Name()] = true
	}

	for _, w := range []uint{32, 64} {
		names[(types.Primitive{Kind: types.KindFloat, Bits: w}).Name()] = true
	}

	return names
}()

// IsBuiltinName reports whether name is one of RegisterBuiltins' fixed set
// of primitive/string types, as opposed to a user-defined one.
func IsBuiltinName(name string) bool { return builtinNames[name] }
