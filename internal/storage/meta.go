package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/schemalang"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/ttlog"
	"github.com/curious-machines/typed-tables/internal/types"
)

// MetaFileName is the fixed name of a data directory's self-describing
// registry snapshot (spec.md §4.4, §6.1).
const MetaFileName = "schema.meta"

// metaMagic and metaVersion are carried in the header object that opens
// every schema.meta JSON document, per spec.md §6.1 ("must be versioned by
// a leading magic+version").
const metaMagic = "TTBM"
const metaVersion = 1

// metaHeader is the fixed-shape prefix of a schema.meta file. InstanceID is
// a random id stamped at dump time purely for debug/log correlation across
// tooling invocations against the same directory (SPEC_FULL.md §3) — it is
// never consulted by any on-disk reference.
type metaHeader struct {
	Magic      string    `json:"magic"`
	Version    int       `json:"version"`
	InstanceID uuid.UUID `json:"instance_id"`
}

// fieldDescriptor is one named, typed member of a composite/interface/enum
// variant payload, serialised by referenced-type name.
type fieldDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// variantDescriptor is one enum variant: a name plus the type name of its
// payload composite, or "" for a payload-free variant.
type variantDescriptor struct {
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

// typeDescriptor is the JSON-serialisable shape of one user-defined type.
// Exactly one of the variant-specific field groups is populated, selected
// by Kind.
type typeDescriptor struct {
	Kind string `json:"kind"`
	Name string `json:"name"`

	// alias
	Base string `json:"base,omitempty"`

	// array / string
	Element  string `json:"element,omitempty"`
	IsString bool   `json:"is_string,omitempty"`

	// composite / interface
	Fields []fieldDescriptor `json:"fields,omitempty"`

	// enum
	Variants []variantDescriptor `json:"variants,omitempty"`

	// fraction
	IntType string `json:"int_type,omitempty"`
}

// metaDocument is the full on-disk shape: header plus every user-defined
// type, in definition order (so forward references are always satisfied by
// the time a later descriptor needs them, matching how the schema DSL
// itself accumulates definitions).
type metaDocument struct {
	Header metaHeader       `json:"header"`
	Types  []typeDescriptor `json:"types"`
}

// describeType converts a resolved, user-defined types.Type into its
// serialisable descriptor. Builtins are never passed in — DumpRegistry
// filters them out first.
func describeType(t types.Type) (typeDescriptor, error) {
	switch v := t.(type) {
	case *types.Alias:
		return typeDescriptor{Kind: "alias", Name: v.Name, Base: v.Base.Name()}, nil

	case *types.Array:
		return typeDescriptor{
			Kind: "array", Name: v.Name, Element: v.Element.Name(), IsString: v.IsString,
		}, nil

	case *types.Composite:
		return typeDescriptor{Kind: "composite", Name: v.Name, Fields: describeFields(v.Fields)}, nil

	case *types.Interface:
		return typeDescriptor{Kind: "interface", Name: v.Name, Fields: describeFields(v.Members)}, nil

	case *types.Enum:
		variants := make([]variantDescriptor, len(v.Variants))

		for i, variant := range v.Variants {
			vd := variantDescriptor{Name: variant.Name}
			if variant.Payload != nil {
				vd.Payload = variant.Payload.Name()
			}

			variants[i] = vd
		}

		return typeDescriptor{Kind: "enum", Name: v.Name, Variants: variants}, nil

	case *types.Fraction:
		return typeDescriptor{Kind: "fraction", Name: v.Name, IntType: v.IntType.Name()}, nil

	default:
		return typeDescriptor{}, ttcore.NewTypeError(t.TypeName(), "type variant cannot be serialised to schema.meta")
	}
}

func describeFields(fields []types.Field) []fieldDescriptor {
	out := make([]fieldDescriptor, len(fields))

	for i, f := range fields {
		out[i] = fieldDescriptor{Name: f.Name, Type: f.Type.Name()}
	}

	return out
}

// DumpRegistry serialises every user-defined type in reg (builtins are
// reconstructed by RegisterBuiltins on load, so they are never written) to
// <dir>/schema.meta, per spec.md §4.4's metadata-file bullet and §6.1's
// on-disk layout.
func DumpRegistry(reg *registry.Registry, dir string) error {
	path := filepath.Join(dir, MetaFileName)

	doc := metaDocument{
		Header: metaHeader{Magic: metaMagic, Version: metaVersion, InstanceID: uuid.New()},
	}

	for _, t := range reg.Types() {
		if schemalang.IsBuiltinName(t.TypeName()) {
			continue
		}

		descriptor, err := describeType(t)
		if err != nil {
			return err
		}

		doc.Types = append(doc.Types, descriptor)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ttcore.NewStorageError("marshal", path, err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return ttcore.NewStorageError("write", path, err)
	}

	ttlog.Storage(dir).WithField("instance_id", doc.Header.InstanceID).
		WithField("types", len(doc.Types)).Debug("registry dumped to schema.meta")

	return nil
}

// LoadRegistryFromMetadata reconstructs a registry from <dir>/schema.meta
// without needing the original schema-DSL source text, per spec.md §4.4
// and SPEC_FULL.md §5's dump/import feature. Builtins are registered
// first; user-defined types are forward-declared in a first pass (so
// self- and mutually-recursive composites resolve regardless of
// declaration order) and then built in a second pass, matching the
// two-pass strategy spec.md §9 recommends for registries that cannot
// update a placeholder in place — here we can, but it costs nothing to do
// both passes consistently with how the schema-DSL parser itself relies
// on Registry.Ref returning a shared cell.
func LoadRegistryFromMetadata(dir string) (*registry.Registry, error) {
	path := filepath.Join(dir, MetaFileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ttcore.NewStorageError("read", path, err)
	}

	var doc metaDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ttcore.NewStorageError("unmarshal", path, err)
	}

	if doc.Header.Magic != metaMagic {
		return nil, ttcore.NewStorageError("read", path, fmt.Errorf("bad magic %q", doc.Header.Magic))
	}

	if doc.Header.Version != metaVersion {
		return nil, ttcore.NewStorageError("read", path, fmt.Errorf("unsupported schema.meta version %d", doc.Header.Version))
	}

	reg := registry.New()
	if err := schemalang.RegisterBuiltins(reg); err != nil {
		return nil, err
	}

	for _, d := range doc.Types {
		if err := reg.Forward(d.Name); err != nil {
			return nil, err
		}
	}

	for _, d := range doc.Types {
		t, err := buildType(reg, d)
		if err != nil {
			return nil, err
		}

		if err := reg.Define(t); err != nil {
			return nil, err
		}
	}

	if err := reg.Finalize(); err != nil {
		return nil, err
	}

	ttlog.Storage(dir).WithField("instance_id", doc.Header.InstanceID).
		WithField("types", len(doc.Types)).Debug("registry loaded from schema.meta")

	return reg, nil
}

func buildType(reg *registry.Registry, d typeDescriptor) (types.Type, error) {
	switch d.Kind {
	case "alias":
		return types.NewAlias(d.Name, reg.Ref(d.Base)), nil

	case "array":
		if d.IsString {
			return types.NewString(d.Name, reg.Ref(d.Element)), nil
		}

		return types.NewArray(d.Name, reg.Ref(d.Element)), nil

	case "composite":
		return types.NewComposite(d.Name, buildFields(reg, d.Fields)), nil

	case "interface":
		return types.NewInterface(d.Name, buildFields(reg, d.Fields)), nil

	case "enum":
		variants := make([]types.Variant, len(d.Variants))

		for i, vd := range d.Variants {
			v := types.Variant{Name: vd.Name}
			if vd.Payload != "" {
				v.Payload = reg.Ref(vd.Payload)
			}

			variants[i] = v
		}

		return types.NewEnum(d.Name, variants), nil

	case "fraction":
		return types.NewFraction(d.Name, reg.Ref(d.IntType)), nil

	default:
		return nil, ttcore.NewTypeError(d.Name, "unknown schema.meta type kind %q", d.Kind)
	}
}

func buildFields(reg *registry.Registry, fields []fieldDescriptor) []types.Field {
	out := make([]types.Field, len(fields))

	for i, f := range fields {
		out[i] = types.Field{Name: f.Name, Type: reg.Ref(f.Type)}
	}

	return out
}
