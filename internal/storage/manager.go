package storage

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/ttlog"
	"github.com/curious-machines/typed-tables/internal/types"
)

// Manager owns a directory of per-type Tables and ArrayTables, per
// spec.md §4.4. Tables are opened lazily on first access and held until
// Close.
type Manager struct {
	dir         string
	reg         *registry.Registry
	tables      map[string]*Table
	arrayTables map[string]*ArrayTable
}

// New constructs a Manager rooted at dir, creating the directory if
// necessary. reg supplies type definitions used to size new tables.
func New(dir string, reg *registry.Registry) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, ttcore.NewStorageError("mkdir", dir, err)
	}

	ttlog.Storage(dir).Debug("storage manager opened")

	return &Manager{
		dir:         dir,
		reg:         reg,
		tables:      make(map[string]*Table),
		arrayTables: make(map[string]*ArrayTable),
	}, nil
}

// Dir returns the backing directory.
func (m *Manager) Dir() string { return m.dir }

// Registry returns the registry this manager was constructed with.
func (m *Manager) Registry() *registry.Registry { return m.reg }

// tableFileName sanitizes a (possibly synthetic, e.g. "Node[]") type name
// into a filesystem-safe table name.
func tableFileName(name string) string {
	return strings.ReplaceAll(name, "[]", "")
}

// GetTable lazily opens (or returns the already-open) primary table for
// the named type: "<name>.bin" per spec.md §6.1. name must resolve (via
// this manager's registry) to a primitive, alias, composite, enum,
// interface or fraction — arrays/strings have no primary table (use
// GetArrayTable).
func (m *Manager) GetTable(name string) (*Table, error) {
	def, err := m.reg.GetOrRaise(name)
	if err != nil {
		return nil, err
	}

	return m.GetTableFor(name, def)
}

// GetTableFor is GetTable's registry-free counterpart: it sizes and
// opens/returns name's primary table using the already-resolved def
// directly, rather than looking name up in the registry, for callers that
// already hold the definition. Array/string definitions are rejected:
// they have no primary table.
func (m *Manager) GetTableFor(name string, def types.Type) (*Table, error) {
	if t, ok := m.tables[name]; ok {
		return t, nil
	}

	width, err := ownRecordWidth(def)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(m.dir, tableFileName(name)+".bin")

	table, err := OpenTable(path, width)
	if err != nil {
		return nil, err
	}

	ttlog.Table(name).WithField("width", width).Debug("table opened")
	m.tables[name] = table

	return table, nil
}

// GetArrayTable lazily opens the elements table for the named array (or
// alias-to-array/string) type: "<name>_elements.bin" per spec.md §6.1.
func (m *Manager) GetArrayTable(name string) (*ArrayTable, error) {
	def, err := m.reg.GetOrRaise(name)
	if err != nil {
		return nil, err
	}

	arr, ok := types.ResolveBase(def).(*types.Array)
	if !ok {
		return nil, ttcore.NewTypeError(name, "not an array or string type")
	}

	return m.GetArrayTableFor(name, arr)
}

// GetArrayTableFor is GetArrayTable's registry-free counterpart, for
// callers that already hold the resolved array definition.
func (m *Manager) GetArrayTableFor(name string, arr *types.Array) (*ArrayTable, error) {
	if t, ok := m.arrayTables[name]; ok {
		return t, nil
	}

	elementWidth, err := arr.Element.FieldWidth()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(m.dir, tableFileName(name)+"_elements.bin")

	elements, err := OpenTable(path, elementWidth)
	if err != nil {
		return nil, err
	}

	table := NewArrayTable(elements)
	m.arrayTables[name] = table

	return table, nil
}

// ownRecordWidth computes the fixed width of one row in def's own primary
// table — distinct from def.FieldWidth(), which is the (generally
// smaller) width def costs as someone else's field.
func ownRecordWidth(def types.Type) (uint, error) {
	switch t := def.(type) {
	case types.Primitive:
		return t.ByteWidth(), nil
	case *types.Alias:
		base := t.Base.Resolved()
		if base == nil {
			return 0, &ttcore.UnresolvedTypeError{Names: []string{t.Base.Name()}}
		}

		return ownRecordWidth(base)
	case *types.Composite:
		return t.RecordWidth()
	case *types.Enum:
		return t.FieldWidth()
	case *types.Interface:
		return t.FieldWidth()
	case *types.Array:
		return 0, ttcore.NewTypeError(def.TypeName(), "array/string types have no primary table")
	case *types.Fraction:
		return t.FieldWidth()
	default:
		return 0, ttcore.NewTypeError(def.TypeName(), "unknown type variant")
	}
}

// Close closes every open table and array-elements table. Closes run
// concurrently via errgroup — safe because each table owns a distinct
// file handle and Close on one has no bearing on another — and the first
// error encountered is returned, matching spec.md §5's requirement that
// every exit path closes every open table.
func (m *Manager) Close() error {
	var g errgroup.Group

	for _, t := range m.tables {
		t := t
		g.Go(t.Close)
	}

	for _, a := range m.arrayTables {
		a := a
		g.Go(a.Close)
	}

	return g.Wait()
}
