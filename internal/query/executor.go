// Package query implements spec.md §4.9's execution model: running a
// parsed TTQ statement (internal/querylang) against a bound
// instance.Schema and producing one of the concrete Result kinds.
package query

import (
	"errors"
	"os"

	"github.com/curious-machines/typed-tables/internal/instance"
	"github.com/curious-machines/typed-tables/internal/querylang"
	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/schemalang"
	"github.com/curious-machines/typed-tables/internal/storage"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// Executor runs a stream of TTQ statements against whatever data
// directory the last "use"/"import" statement bound, per spec.md §6.2.
// Scheduling is single-threaded and cooperative (spec.md §5): an Executor
// is not safe for concurrent use.
type Executor struct {
	schema *instance.Schema
}

// New constructs an Executor with no database bound; the first "use" or
// "import" statement must open one before any other statement kind runs.
func New() *Executor { return &Executor{} }

// NewWithSchema constructs an Executor already bound to schema, e.g. when
// the caller opened it directly via instance.Parse rather than through a
// "use" statement.
func NewWithSchema(schema *instance.Schema) *Executor { return &Executor{schema: schema} }

// Schema exposes the currently bound schema, or nil if none is open.
func (e *Executor) Schema() *instance.Schema { return e.schema }

// Close releases the currently bound schema's storage, if any.
func (e *Executor) Close() error {
	if e.schema == nil {
		return nil
	}

	return e.schema.Close()
}

// Execute dispatches stmt to the handler for its concrete kind and
// returns the corresponding Result, per spec.md §6.2's "execute(ast) →
// result" contract.
func (e *Executor) Execute(stmt querylang.Stmt) (Result, error) {
	switch s := stmt.(type) {
	case *querylang.UseStmt:
		return e.executeUse(s)
	case *querylang.TypeStmt:
		return e.executeType(s)
	case *querylang.CreateStmt:
		return e.executeCreate(s)
	case *querylang.FromStmt:
		return e.executeFrom(s)
	case *querylang.UpdateStmt:
		return e.executeUpdate(s)
	case *querylang.ExecuteStmt:
		return e.executeExecute(s)
	case *querylang.DumpStmt:
		return e.executeDump(s)
	case *querylang.ImportStmt:
		return e.executeImport(s)
	default:
		return nil, ttcore.NewQueryError("unsupported statement kind")
	}
}

func (e *Executor) requireSchema() error {
	if e.schema == nil {
		return ttcore.NewQueryError("no database in use; run a 'use' statement first")
	}

	return nil
}

// executeUse opens (or re-opens) the data directory at stmt.Path,
// reconstructing its registry from schema.meta when present (spec.md
// §4.4) or starting from an empty, builtins-only registry otherwise —
// later "type" statements populate it. Temporary-directory cleanup is the
// out-of-scope REPL's job (SPEC_FULL.md §5); the executor only reports
// the flag back.
func (e *Executor) executeUse(stmt *querylang.UseStmt) (Result, error) {
	reg, err := storage.LoadRegistryFromMetadata(stmt.Path)
	if err != nil {
		var notFound *ttcore.StorageError
		if !errors.As(err, &notFound) || !errors.Is(notFound.Unwrap(), os.ErrNotExist) {
			return nil, err
		}

		reg = registry.New()
		if err := schemalang.RegisterBuiltins(reg); err != nil {
			return nil, err
		}
	}

	schema, err := instance.Open(reg, stmt.Path)
	if err != nil {
		return nil, err
	}

	if e.schema != nil {
		if err := e.schema.Close(); err != nil {
			return nil, err
		}
	}

	e.schema = schema

	return &UseResult{Path: stmt.Path, Temporary: stmt.Temporary}, nil
}

// executeType parses stmt's captured body as a schema-DSL composite
// definition ("type " is re-prepended, since the TTQ parser strips the
// leading keyword while capturing the raw text) into the bound schema's
// live registry.
func (e *Executor) executeType(stmt *querylang.TypeStmt) (Result, error) {
	if err := e.requireSchema(); err != nil {
		return nil, err
	}

	if err := schemalang.Parse("type "+stmt.Source, e.schema.Registry()); err != nil {
		return nil, err
	}

	return &TypeResult{}, nil
}

// executeCreate implements spec.md §4.9's "create" statement, and its
// SPEC_FULL.md §5 extension for enum instances: a bare variant-name
// argument selects the variant, remaining field=expr pairs become its
// payload.
func (e *Executor) executeCreate(stmt *querylang.CreateStmt) (Result, error) {
	if err := e.requireSchema(); err != nil {
		return nil, err
	}

	def, err := e.schema.Registry().GetOrRaise(stmt.TypeName)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(stmt.Fields))

	for _, fa := range stmt.Fields {
		v, err := eval(fa.Value, nil)
		if err != nil {
			return nil, err
		}

		fields[fa.Field] = v
	}

	var ref instance.Ref

	if _, isEnum := types.ResolveBase(def).(*types.Enum); isEnum {
		if stmt.Variant == "" {
			return nil, ttcore.NewQueryError("create %s(...) is an enum type and requires a variant argument", stmt.TypeName)
		}

		var payload any
		if len(fields) > 0 {
			payload = fields
		}

		ref, err = e.schema.CreateInstance(stmt.TypeName, instance.EnumValue{Variant: stmt.Variant, Payload: payload})
	} else {
		if stmt.Variant != "" {
			return nil, ttcore.NewQueryError("create %s(...) is not an enum type; remove the bare variant argument", stmt.TypeName)
		}

		ref, err = e.schema.CreateInstance(stmt.TypeName, fields)
	}

	if err != nil {
		return nil, err
	}

	return &CreateResult{Ref: ref}, nil
}

// executeUpdate implements spec.md §4.9's "update ... set ... where ...":
// every surviving row is overwritten in place at its existing index
// (spec.md §3.4), so Count reports how many rows matched.
func (e *Executor) executeUpdate(stmt *querylang.UpdateStmt) (Result, error) {
	if err := e.requireSchema(); err != nil {
		return nil, err
	}

	table, err := e.schema.Storage().GetTable(stmt.TypeName)
	if err != nil {
		return nil, err
	}

	count, err := table.Count()
	if err != nil {
		return nil, err
	}

	updated := 0

	for i := 0; i < count; i++ {
		ref := e.schema.GetInstance(stmt.TypeName, i)

		row, err := e.schema.Load(ref, true)
		if err != nil {
			return nil, err
		}

		if stmt.Where != nil {
			ok, err := evalBool(stmt.Where, row)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}
		}

		patch := make(map[string]any, len(stmt.Sets))

		for _, fa := range stmt.Sets {
			v, err := eval(fa.Value, row)
			if err != nil {
				return nil, err
			}

			patch[fa.Field] = v
		}

		if err := e.schema.UpdateInstance(ref, patch); err != nil {
			return nil, err
		}

		updated++
	}

	return &UpdateResult{Count: updated}, nil
}

// executeExecute runs every statement of another TTQ program file in
// order against this same Executor (and therefore the same bound
// schema), per spec.md §4.9's "execute <file>;".
func (e *Executor) executeExecute(stmt *querylang.ExecuteStmt) (Result, error) {
	raw, err := os.ReadFile(stmt.File)
	if err != nil {
		return nil, ttcore.NewStorageError("read", stmt.File, err)
	}

	stmts, err := querylang.ParseProgram(string(raw))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(stmts))

	for _, s := range stmts {
		r, err := e.Execute(s)
		if err != nil {
			return nil, err
		}

		results = append(results, r)
	}

	return &ExecuteResult{Results: results}, nil
}

// executeDump serialises the bound schema's registry to
// <path>/schema.meta (SPEC_FULL.md §5).
func (e *Executor) executeDump(stmt *querylang.DumpStmt) (Result, error) {
	if err := e.requireSchema(); err != nil {
		return nil, err
	}

	if err := storage.DumpRegistry(e.schema.Registry(), stmt.Path); err != nil {
		return nil, err
	}

	return &DumpResult{Path: stmt.Path}, nil
}

// executeImport loads a registry from <path>/schema.meta and switches
// the Executor to it, closing whatever schema was previously bound
// (SPEC_FULL.md §5).
func (e *Executor) executeImport(stmt *querylang.ImportStmt) (Result, error) {
	reg, err := storage.LoadRegistryFromMetadata(stmt.Path)
	if err != nil {
		return nil, err
	}

	schema, err := instance.Open(reg, stmt.Path)
	if err != nil {
		return nil, err
	}

	if e.schema != nil {
		if err := e.schema.Close(); err != nil {
			return nil, err
		}
	}

	e.schema = schema

	return &ImportResult{Path: stmt.Path}, nil
}
