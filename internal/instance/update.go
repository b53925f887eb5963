package instance

import (
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// UpdateInstance overwrites a subset of ref's fields in place (spec.md
// §3.4: updates replace a record's bytes at its existing index, they
// never append). Fields not named in patch keep their current raw
// bytes untouched.
func (s *Schema) UpdateInstance(ref Ref, patch map[string]any) error {
	def, err := s.reg.GetOrRaise(ref.TypeName)
	if err != nil {
		return err
	}

	composite, ok := types.ResolveBase(def).(*types.Composite)
	if !ok {
		return ttcore.NewTypeError(ref.TypeName, "only composite instances can be updated")
	}

	table, err := s.sto.GetTableFor(ref.TypeName, def)
	if err != nil {
		return err
	}

	raw, err := table.Get(ref.Index)
	if err != nil {
		return err
	}

	row := make([]byte, 0, len(raw))
	offset := uint(0)

	for _, f := range composite.Fields {
		w, err := f.Type.FieldWidth()
		if err != nil {
			return err
		}

		if value, ok := patch[f.Name]; ok {
			chunk, err := s.encodeFieldRef(f.Type, value)
			if err != nil {
				return err
			}

			row = append(row, chunk...)
		} else {
			row = append(row, raw[offset:offset+w]...)
		}

		offset += w
	}

	return table.Update(ref.Index, row)
}
