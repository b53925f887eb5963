package instance

import (
	"github.com/curious-machines/typed-tables/internal/codec"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// Load implements spec.md §4.8: reassembles the logical value a Ref
// points at. With resolveReferences=false, nested composite/interface
// fields are returned as unresolved Refs (or ArrayRef for array/string
// fields) rather than recursively loaded — a debug/inspection mode.
//
// Cycles in stored data are impossible (an instance can only reference
// instances created strictly before it), so this recursion always
// terminates.
func (s *Schema) Load(ref Ref, resolveReferences bool) (any, error) {
	def, err := s.reg.GetOrRaise(ref.TypeName)
	if err != nil {
		return nil, err
	}

	switch t := types.ResolveBase(def).(type) {
	case types.Primitive:
		table, err := s.sto.GetTableFor(ref.TypeName, def)
		if err != nil {
			return nil, err
		}

		raw, err := table.Get(ref.Index)
		if err != nil {
			return nil, err
		}

		return codec.Decode(raw, t)

	case *types.Composite:
		table, err := s.sto.GetTableFor(ref.TypeName, def)
		if err != nil {
			return nil, err
		}

		raw, err := table.Get(ref.Index)
		if err != nil {
			return nil, err
		}

		return s.decodeComposite(t, raw, resolveReferences)

	case *types.Enum:
		table, err := s.sto.GetTableFor(ref.TypeName, def)
		if err != nil {
			return nil, err
		}

		raw, err := table.Get(ref.Index)
		if err != nil {
			return nil, err
		}

		return s.decodeEnumRow(t, raw, resolveReferences)

	case *types.Fraction:
		table, err := s.sto.GetTableFor(ref.TypeName, def)
		if err != nil {
			return nil, err
		}

		raw, err := table.Get(ref.Index)
		if err != nil {
			return nil, err
		}

		return s.decodeFraction(t, raw)

	default:
		return nil, ttcore.NewTypeError(ref.TypeName, "array/interface types are not directly loadable; load them through a composite field")
	}
}

// decodeComposite splits raw into each field's reference-width slice, in
// declared order, and decodes each per decodeFieldRef.
func (s *Schema) decodeComposite(def *types.Composite, raw []byte, resolveReferences bool) (map[string]any, error) {
	result := make(map[string]any, len(def.Fields))

	offset := uint(0)

	for _, f := range def.Fields {
		w, err := f.Type.FieldWidth()
		if err != nil {
			return nil, err
		}

		chunk := raw[offset : offset+w]

		val, err := s.decodeFieldRef(f.Type, chunk, resolveReferences)
		if err != nil {
			return nil, err
		}

		result[f.Name] = val
		offset += w
	}

	return result, nil
}

// decodeFieldRef is encodeFieldRef's inverse: given the reference-width
// bytes a composite field occupies, reconstructs that field's logical
// value (or its raw reference, in debug mode).
func (s *Schema) decodeFieldRef(ref *types.TypeRef, chunk []byte, resolveReferences bool) (any, error) {
	name := ref.Name()
	base := types.ResolveBase(ref.Resolved())

	switch t := base.(type) {
	case types.Primitive:
		return codec.Decode(chunk, t)

	case *types.Array:
		start := int(getUint64LE(chunk[0:8]))
		length := int(getUint64LE(chunk[8:16]))

		if !resolveReferences {
			return ArrayRef{Start: start, Length: length}, nil
		}

		arrTable, err := s.sto.GetArrayTableFor(name, t)
		if err != nil {
			return nil, err
		}

		blobs, err := arrTable.Get(start, length)
		if err != nil {
			return nil, err
		}

		if t.IsString {
			runes := make([]rune, len(blobs))

			for i, blob := range blobs {
				val, err := s.decodeFieldRef(t.Element, blob, resolveReferences)
				if err != nil {
					return nil, err
				}

				r, ok := val.(rune)
				if !ok {
					return nil, ttcore.NewTypeError(name, "string element did not decode to a character")
				}

				runes[i] = r
			}

			return string(runes), nil
		}

		elements := make([]any, len(blobs))

		for i, blob := range blobs {
			val, err := s.decodeFieldRef(t.Element, blob, resolveReferences)
			if err != nil {
				return nil, err
			}

			elements[i] = val
		}

		return elements, nil

	case *types.Composite:
		idx := int(getUint64LE(chunk))
		sub := Ref{TypeName: name, Index: idx}

		if !resolveReferences {
			return sub, nil
		}

		return s.Load(sub, resolveReferences)

	case *types.Enum:
		return s.decodeEnumRow(t, chunk, resolveReferences)

	case *types.Interface:
		tag := uint32(getUint64LE(chunk[0:8]))
		idx := int(getUint64LE(chunk[8:16]))

		concreteName, ok := s.reg.NameForTag(tag)
		if !ok {
			return nil, ttcore.NewTypeError(name, "no type registered for tag %d", tag)
		}

		sub := Ref{TypeName: concreteName, Index: idx}
		if !resolveReferences {
			return sub, nil
		}

		return s.Load(sub, resolveReferences)

	case *types.Fraction:
		return s.decodeFraction(t, chunk)

	default:
		return nil, ttcore.NewTypeError(name, "unknown type variant")
	}
}

// decodeEnumRow is encodeEnumRow's inverse.
func (s *Schema) decodeEnumRow(def *types.Enum, raw []byte, resolveReferences bool) (EnumValue, error) {
	tagWidth := def.TagByteWidth()
	tagVal := int(getUintLE(raw[:tagWidth]))

	if tagVal < 0 || tagVal >= len(def.Variants) {
		return EnumValue{}, ttcore.NewTypeError(def.Name, "tag %d out of range", tagVal)
	}

	variant := def.Variants[tagVal]
	result := EnumValue{Variant: variant.Name}

	if !def.HasPayload() || variant.Payload == nil {
		return result, nil
	}

	payloadIdx := int(getUint64LE(raw[tagWidth : tagWidth+8]))
	sub := Ref{TypeName: variant.Payload.Name(), Index: payloadIdx}

	if !resolveReferences {
		result.Payload = sub
		return result, nil
	}

	loaded, err := s.Load(sub, resolveReferences)
	if err != nil {
		return EnumValue{}, err
	}

	fields, ok := loaded.(map[string]any)
	if !ok {
		return EnumValue{}, ttcore.NewTypeError(def.Name, "variant %q payload did not decode to a dict", variant.Name)
	}

	result.Payload = fields

	return result, nil
}

// decodeFraction is encodeFraction's inverse.
func (s *Schema) decodeFraction(def *types.Fraction, raw []byte) (FractionValue, error) {
	intPrim, ok := def.IntType.Resolved().(types.Primitive)
	if !ok {
		return FractionValue{}, ttcore.NewTypeError(def.Name, "fraction base type must be a primitive integer")
	}

	w := intPrim.ByteWidth()

	num, err := codec.Decode(raw[:w], intPrim)
	if err != nil {
		return FractionValue{}, err
	}

	den, err := codec.Decode(raw[w:2*w], intPrim)
	if err != nil {
		return FractionValue{}, err
	}

	return FractionValue{Numerator: num, Denominator: den}, nil
}
