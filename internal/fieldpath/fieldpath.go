// Package fieldpath resolves a dotted field path (e.g. "address.city")
// against a loaded record, walking nested composite/enum maps the same
// way instance.Schema.Load assembles them.
package fieldpath

import (
	"fmt"

	"github.com/curious-machines/typed-tables/internal/instance"
)

// Resolve walks path against record, which must be the shape returned
// by instance.Schema.Load(ref, true): a map[string]any for composites,
// with nested composite/enum/interface fields already resolved into
// further maps (or instance.EnumValue for enums).
func Resolve(record any, path []string) (any, error) {
	current := record

	for i, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			if ev, isEnum := current.(instance.EnumValue); isEnum {
				m, ok = ev.Payload.(map[string]any)
			}

			if !ok {
				return nil, fmt.Errorf("field path %q: %q is not a composite at segment %d", joinPath(path), segment, i)
			}
		}

		val, present := m[segment]
		if !present {
			return nil, fmt.Errorf("field path %q: no such field %q", joinPath(path), segment)
		}

		current = val
	}

	return current, nil
}

func joinPath(path []string) string {
	out := ""

	for i, p := range path {
		if i > 0 {
			out += "."
		}

		out += p
	}

	return out
}
