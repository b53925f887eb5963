package instance

import (
	"github.com/curious-machines/typed-tables/internal/codec"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// toElementSlice normalises an array/string field's input value into a
// []any of elements: a Go string is accepted for string-typed fields (one
// element per rune), everything else must already be a []any.
func toElementSlice(value any, isString bool) ([]any, bool) {
	if isString {
		if str, ok := value.(string); ok {
			runes := []rune(str)
			elems := make([]any, len(runes))

			for i, r := range runes {
				elems[i] = r
			}

			return elems, true
		}
	}

	elems, ok := value.([]any)

	return elems, ok
}

// CreateInstance implements spec.md §4.7 for composites (the dict-shaped
// construction the spec describes directly) and extends the same
// reference-encoding machinery to the other top-level-constructible type
// variants: primitives/aliases-of-primitives (a bare scalar), enums (an
// EnumValue) and fractions (a FractionValue). Arrays/strings and
// interfaces have no top-level construction — they only exist as
// composite fields (an interface field names the concrete composite to
// construct; an array field takes its elements directly).
func (s *Schema) CreateInstance(typeName string, value any) (Ref, error) {
	def, err := s.reg.GetOrRaise(typeName)
	if err != nil {
		return Ref{}, err
	}

	switch t := types.ResolveBase(def).(type) {
	case types.Primitive:
		table, err := s.sto.GetTableFor(typeName, def)
		if err != nil {
			return Ref{}, err
		}

		encoded, err := codec.Encode(value, t)
		if err != nil {
			return Ref{}, err
		}

		idx, err := table.Insert(encoded)
		if err != nil {
			return Ref{}, err
		}

		return Ref{TypeName: typeName, Index: idx}, nil

	case *types.Composite:
		dict, ok := value.(map[string]any)
		if !ok {
			return Ref{}, ttcore.NewTypeError(typeName, "composite instances require a field=value dict")
		}

		return s.createComposite(typeName, t, dict)

	case *types.Enum:
		ev, ok := value.(EnumValue)
		if !ok {
			return Ref{}, ttcore.NewTypeError(typeName, "enum instances require an EnumValue")
		}

		row, err := s.encodeEnumRow(t, ev)
		if err != nil {
			return Ref{}, err
		}

		table, err := s.sto.GetTableFor(typeName, def)
		if err != nil {
			return Ref{}, err
		}

		idx, err := table.Insert(row)
		if err != nil {
			return Ref{}, err
		}

		return Ref{TypeName: typeName, Index: idx}, nil

	case *types.Fraction:
		fv, ok := value.(FractionValue)
		if !ok {
			return Ref{}, ttcore.NewTypeError(typeName, "fraction instances require a FractionValue")
		}

		row, err := s.encodeFraction(t, fv)
		if err != nil {
			return Ref{}, err
		}

		table, err := s.sto.GetTableFor(typeName, def)
		if err != nil {
			return Ref{}, err
		}

		idx, err := table.Insert(row)
		if err != nil {
			return Ref{}, err
		}

		return Ref{TypeName: typeName, Index: idx}, nil

	case *types.Array:
		return Ref{}, ttcore.NewTypeError(typeName, "array/string types are not directly instantiable; use them as a composite field")

	case *types.Interface:
		return Ref{}, ttcore.NewTypeError(typeName, "interface types are abstract; construct an implementing composite instead")

	default:
		return Ref{}, ttcore.NewTypeError(typeName, "unknown type variant")
	}
}

// createComposite validates dict against def's field set (spec.md §9:
// reject missing or extra field names), then encodes each field's
// reference in declared order and appends the concatenated row to
// typeName's own table.
func (s *Schema) createComposite(typeName string, def *types.Composite, dict map[string]any) (Ref, error) {
	if len(dict) != len(def.Fields) {
		return Ref{}, ttcore.NewTypeError(typeName, "expected %d fields, got %d", len(def.Fields), len(dict))
	}

	var row []byte

	for _, f := range def.Fields {
		v, ok := dict[f.Name]
		if !ok {
			return Ref{}, ttcore.NewTypeError(typeName, "missing field %q", f.Name)
		}

		encoded, err := s.encodeFieldRef(f.Type, v)
		if err != nil {
			return Ref{}, err
		}

		row = append(row, encoded...)
	}

	table, err := s.sto.GetTableFor(typeName, def)
	if err != nil {
		return Ref{}, err
	}

	idx, err := table.Insert(row)
	if err != nil {
		return Ref{}, err
	}

	return Ref{TypeName: typeName, Index: idx}, nil
}

// resolveOrCreateComposite produces the row index a composite-typed field
// or array element contributes to its parent's reference bytes. A
// field=value dict constructs a brand-new row (the original behaviour);
// a Ref or bare int instead points at an *already-created* instance of
// typeName, per spec.md §8 S6 ("root := {value:9, children:[ref0,ref1,
// ref2]}" stores the indices of three pre-existing leaf Nodes rather than
// creating fresh rows for them).
func (s *Schema) resolveOrCreateComposite(typeName string, def *types.Composite, value any) (int, error) {
	switch v := value.(type) {
	case Ref:
		if v.TypeName != typeName {
			return 0, ttcore.NewTypeError(typeName, "reference has type %q, expected %q", v.TypeName, typeName)
		}

		return v.Index, nil

	case int:
		return v, nil

	case map[string]any:
		ref, err := s.createComposite(typeName, def, v)
		if err != nil {
			return 0, err
		}

		return ref.Index, nil

	default:
		return 0, ttcore.NewTypeError(typeName, "composite field requires a field=value dict or a Ref/int to an existing instance")
	}
}

// encodeFieldRef produces the exact bytes a field of type ref contributes
// to its parent composite's row, per spec.md §3.3's reference-width
// table. Primitives and fractions are inlined directly; enums are inlined
// as tag+payload_ref bytes identical to what that enum's own table would
// store; other variants are backed by a table insert, except a composite
// given as a Ref/int, which points at its existing row.
func (s *Schema) encodeFieldRef(ref *types.TypeRef, value any) ([]byte, error) {
	name := ref.Name()
	base := types.ResolveBase(ref.Resolved())

	switch t := base.(type) {
	case types.Primitive:
		return codec.Encode(value, t)

	case *types.Array:
		elems, ok := toElementSlice(value, t.IsString)
		if !ok {
			return nil, ttcore.NewTypeError(name, "array/string field requires a []any (or, for strings, a string) value")
		}

		elemRefs := make([][]byte, len(elems))

		for i, e := range elems {
			encoded, err := s.encodeFieldRef(t.Element, e)
			if err != nil {
				return nil, err
			}

			elemRefs[i] = encoded
		}

		arrTable, err := s.sto.GetArrayTableFor(name, t)
		if err != nil {
			return nil, err
		}

		start, length, err := arrTable.Insert(elemRefs)
		if err != nil {
			return nil, err
		}

		buf := make([]byte, 16)
		putUint64LE(buf[0:8], uint64(start))
		putUint64LE(buf[8:16], uint64(length))

		return buf, nil

	case *types.Composite:
		idx, err := s.resolveOrCreateComposite(name, t, value)
		if err != nil {
			return nil, err
		}

		buf := make([]byte, 8)
		putUint64LE(buf, uint64(idx))

		return buf, nil

	case *types.Enum:
		ev, ok := value.(EnumValue)
		if !ok {
			return nil, ttcore.NewTypeError(name, "enum field requires an EnumValue")
		}

		return s.encodeEnumRow(t, ev)

	case *types.Interface:
		iv, ok := value.(InterfaceValue)
		if !ok {
			return nil, ttcore.NewTypeError(name, "interface field requires an InterfaceValue")
		}

		concreteDef, err := s.reg.GetOrRaise(iv.Concrete)
		if err != nil {
			return nil, err
		}

		composite, ok := concreteDef.(*types.Composite)
		if !ok {
			return nil, ttcore.NewTypeError(iv.Concrete, "interface value must name a composite type")
		}

		if !t.Implements(composite) {
			return nil, ttcore.NewTypeError(iv.Concrete, "does not implement interface %s", t.Name)
		}

		instRef, err := s.createComposite(iv.Concrete, composite, iv.Fields)
		if err != nil {
			return nil, err
		}

		buf := make([]byte, 16)
		putUint64LE(buf[0:8], uint64(s.reg.TagFor(iv.Concrete)))
		putUint64LE(buf[8:16], uint64(instRef.Index))

		return buf, nil

	case *types.Fraction:
		fv, ok := value.(FractionValue)
		if !ok {
			return nil, ttcore.NewTypeError(name, "fraction field requires a FractionValue")
		}

		return s.encodeFraction(t, fv)

	default:
		return nil, ttcore.NewTypeError(name, "unknown type variant")
	}
}

// encodeEnumRow builds the (tag, payload_ref?) bytes shared by both an
// enum's own table row and its inline representation as a composite
// field (spec.md §3.1).
func (s *Schema) encodeEnumRow(def *types.Enum, ev EnumValue) ([]byte, error) {
	variant, idx, ok := def.GetVariant(ev.Variant)
	if !ok {
		return nil, ttcore.NewTypeError(def.Name, "no such variant %q", ev.Variant)
	}

	tagWidth := def.TagByteWidth()
	tagBuf := make([]byte, tagWidth)
	putUintLE(tagBuf, uint64(idx))

	if !def.HasPayload() {
		return tagBuf, nil
	}

	payloadBuf := make([]byte, 8)

	if variant.Payload != nil {
		payloadDef, ok := variant.Payload.Resolved().(*types.Composite)
		if !ok {
			return nil, ttcore.NewTypeError(def.Name, "variant %q has a non-composite payload", ev.Variant)
		}

		payloadDict, ok := ev.Payload.(map[string]any)
		if !ok {
			return nil, ttcore.NewTypeError(def.Name, "variant %q requires payload fields", ev.Variant)
		}

		ref, err := s.createComposite(variant.Payload.Name(), payloadDef, payloadDict)
		if err != nil {
			return nil, err
		}

		putUint64LE(payloadBuf, uint64(ref.Index))
	}

	return append(tagBuf, payloadBuf...), nil
}

// encodeFraction encodes a FractionValue as two back-to-back encodings of
// def's shared integer type: numerator then denominator.
func (s *Schema) encodeFraction(def *types.Fraction, fv FractionValue) ([]byte, error) {
	intPrim, ok := def.IntType.Resolved().(types.Primitive)
	if !ok {
		return nil, ttcore.NewTypeError(def.Name, "fraction base type must be a primitive integer")
	}

	num, err := codec.Encode(fv.Numerator, intPrim)
	if err != nil {
		return nil, err
	}

	den, err := codec.Encode(fv.Denominator, intPrim)
	if err != nil {
		return nil, err
	}

	return append(num, den...), nil
}
