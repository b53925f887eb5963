package instance

import (
	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/schemalang"
	"github.com/curious-machines/typed-tables/internal/storage"
	"github.com/curious-machines/typed-tables/internal/ttlog"
)

// Schema is the scoped facade spec.md §6.2 names: it owns both the parsed
// registry and the storage manager for one data directory, and is the
// sole entry point user code uses to create and load instances. Per
// spec.md §5, acquiring one opens the storage manager; Close releases
// every table handle on every exit path.
type Schema struct {
	reg *registry.Registry
	sto *storage.Manager
}

// Parse parses source as schema-DSL text and opens (creating if
// necessary) a storage manager rooted at dir.
func Parse(source, dir string) (*Schema, error) {
	reg, err := schemalang.ParseWithBuiltins(source)
	if err != nil {
		return nil, err
	}

	return Open(reg, dir)
}

// Open binds an already-parsed registry to a storage manager rooted at
// dir, e.g. when the registry was reconstructed from a schema.meta file
// rather than re-parsed from source.
func Open(reg *registry.Registry, dir string) (*Schema, error) {
	sto, err := storage.New(dir, reg)
	if err != nil {
		return nil, err
	}

	ttlog.Storage(dir).Info("schema opened")

	return &Schema{reg: reg, sto: sto}, nil
}

// Registry exposes the bound type registry.
func (s *Schema) Registry() *registry.Registry { return s.reg }

// Storage exposes the bound storage manager.
func (s *Schema) Storage() *storage.Manager { return s.sto }

// Close releases every table handle this schema has opened.
func (s *Schema) Close() error { return s.sto.Close() }

// GetInstance returns a Ref to the row already stored at (typeName,
// index), without touching storage — existence is checked lazily by the
// first Load call.
func (s *Schema) GetInstance(typeName string, index int) Ref {
	return Ref{TypeName: typeName, Index: index}
}
