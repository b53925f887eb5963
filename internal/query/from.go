package query

import (
	"sort"

	"github.com/curious-machines/typed-tables/internal/querylang"
	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// bucket is one group of rows sharing a common group-by key (spec.md
// §4.9's "group by"). keyRow is the first row that fell into the bucket,
// used to resolve group-key field projections and non-aggregate sort
// expressions; ungrouped queries (no "group by") produce exactly one
// bucket holding every surviving row, with keyRow nil.
type bucket struct {
	keyRow any
	rows   []any
}

// executeFrom implements spec.md §4.9's "from" statement: scan, filter,
// group, sort, then project.
func (e *Executor) executeFrom(stmt *querylang.FromStmt) (Result, error) {
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

	rows := make([]any, 0, count)

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

		rows = append(rows, row)
	}

	hasAggregate := false

	for _, proj := range stmt.Projections {
		if proj.Aggregate != "" {
			hasAggregate = true
			break
		}
	}

	if stmt.GroupBy != nil || hasAggregate {
		return e.executeGroupedFrom(stmt, rows)
	}

	return e.executeFlatFrom(stmt, rows)
}

// executeFlatFrom handles the common case: no "group by" and no
// aggregate projection, so rows pass through one at a time.
func (e *Executor) executeFlatFrom(stmt *querylang.FromStmt, rows []any) (Result, error) {
	if stmt.Sort != nil {
		if err := sortRows(rows, stmt.Sort); err != nil {
			return nil, err
		}
	}

	columns, projector := buildRowProjector(stmt.Projections, rows, compositeFieldOrder(e.schema.Registry(), stmt.TypeName))

	out := make([][]any, 0, len(rows))

	for _, row := range rows {
		values, err := projector(row)
		if err != nil {
			return nil, err
		}

		out = append(out, values)
	}

	return &QueryResult{Columns: columns, Rows: out}, nil
}

// executeGroupedFrom handles "group by" and/or any aggregate projection:
// rows are partitioned into buckets, an aggregate fold runs per bucket,
// non-aggregate projections must name the grouping field itself (spec.md
// §4.9's "select columns must be either the group key or an aggregate").
func (e *Executor) executeGroupedFrom(stmt *querylang.FromStmt, rows []any) (Result, error) {
	buckets, err := partitionBuckets(rows, stmt.GroupBy)
	if err != nil {
		return nil, err
	}

	for _, proj := range stmt.Projections {
		if err := validateGroupProjection(proj, stmt.GroupBy); err != nil {
			return nil, err
		}
	}

	if stmt.Sort != nil {
		if err := sortBuckets(buckets, stmt.Sort); err != nil {
			return nil, err
		}
	}

	columns := projectionColumns(stmt.Projections)
	out := make([][]any, 0, len(buckets))

	for _, b := range buckets {
		values := make([]any, len(stmt.Projections))

		for i, proj := range stmt.Projections {
			if proj.Aggregate != "" {
				v, err := foldAggregate(proj.Aggregate, proj.Arg, b.rows)
				if err != nil {
					return nil, err
				}

				values[i] = v

				continue
			}

			v, err := eval(&querylang.FieldRef{Path: proj.Path}, b.keyRow)
			if err != nil {
				return nil, err
			}

			values[i] = v
		}

		out = append(out, values)
	}

	return &QueryResult{Columns: columns, Rows: out}, nil
}

// partitionBuckets groups rows by groupBy's evaluated value, preserving
// first-appearance order. A nil groupBy (aggregate-only, no "group by"
// clause) produces one bucket holding every row.
func partitionBuckets(rows []any, groupBy querylang.Expr) ([]*bucket, error) {
	if groupBy == nil {
		return []*bucket{{rows: rows}}, nil
	}

	var buckets []*bucket
	index := make(map[string]int)

	for _, row := range rows {
		key, err := eval(groupBy, row)
		if err != nil {
			return nil, err
		}

		k := groupKey(key)

		if i, ok := index[k]; ok {
			buckets[i].rows = append(buckets[i].rows, row)
			continue
		}

		index[k] = len(buckets)
		buckets = append(buckets, &bucket{keyRow: row, rows: []any{row}})
	}

	return buckets, nil
}

// validateGroupProjection enforces that every non-aggregate column in a
// grouped "select" is the grouping field itself: any other field would
// vary within the bucket and have no well-defined single value.
func validateGroupProjection(proj querylang.Projection, groupBy querylang.Expr) error {
	if proj.Aggregate != "" {
		return nil
	}

	if proj.Star {
		return ttcore.NewQueryError("select * cannot be combined with group by or an aggregate projection")
	}

	fieldGroup, ok := groupBy.(*querylang.FieldRef)
	if !ok {
		return ttcore.NewQueryError("projected field %q is not the group-by key", joinPath(proj.Path))
	}

	if joinPath(proj.Path) != joinPath(fieldGroup.Path) {
		return ttcore.NewQueryError("projected field %q is not the group-by key %q", joinPath(proj.Path), joinPath(fieldGroup.Path))
	}

	return nil
}

// sortRows orders flat (non-bucketed) rows by spec's sort expression,
// stable so ties keep their scan order. It returns an evaluation or
// comparison error met while sorting.
func sortRows(rows []any, spec *querylang.SortSpec) error {
	var sortErr error

	sort.SliceStable(rows, func(i, j int) bool {
		vi, erri := eval(spec.Expr, rows[i])
		vj, errj := eval(spec.Expr, rows[j])

		if erri != nil || errj != nil {
			if erri == nil {
				erri = errj
			}
			sortErr = erri
			return false
		}

		cmp, err := compareOrdered(vi, vj)
		if err != nil {
			sortErr = err
			return false
		}

		if spec.Desc {
			return cmp > 0
		}

		return cmp < 0
	})

	return sortErr
}

// sortBuckets orders grouped buckets by spec's sort expression, which may
// be an aggregate (folded per bucket) or the group-key field itself
// (resolved against the bucket's keyRow).
func sortBuckets(buckets []*bucket, spec *querylang.SortSpec) error {
	keys := make([]any, len(buckets))

	for i, b := range buckets {
		v, err := evalBucketSort(spec.Expr, b)
		if err != nil {
			return err
		}

		keys[i] = v
	}

	type indexed struct {
		bucket *bucket
		key    any
	}

	paired := make([]indexed, len(buckets))
	for i := range buckets {
		paired[i] = indexed{buckets[i], keys[i]}
	}

	var sortErr error

	sort.SliceStable(paired, func(i, j int) bool {
		cmp, err := compareOrdered(paired[i].key, paired[j].key)
		if err != nil {
			sortErr = err
			return false
		}

		if spec.Desc {
			return cmp > 0
		}

		return cmp < 0
	})

	if sortErr != nil {
		return sortErr
	}

	for i, p := range paired {
		buckets[i] = p.bucket
	}

	return nil
}

// evalBucketSort evaluates a sort expression against a bucket: an
// aggregate call folds over every row in the bucket, anything else is
// resolved against the bucket's representative keyRow.
func evalBucketSort(expr querylang.Expr, b *bucket) (any, error) {
	if agg, ok := expr.(*querylang.AggregateExpr); ok {
		return foldAggregate(agg.Func, agg.Arg, b.rows)
	}

	return eval(expr, b.keyRow)
}

// projectionColumns derives the QueryResult.Columns header from a
// "select" clause's projections, preferring an explicit alias.
func projectionColumns(projections []querylang.Projection) []string {
	columns := make([]string, len(projections))

	for i, proj := range projections {
		switch {
		case proj.Alias != "":
			columns[i] = proj.Alias
		case proj.Aggregate != "":
			columns[i] = proj.Aggregate
		default:
			columns[i] = joinPath(proj.Path)
		}
	}

	return columns
}

// compositeFieldOrder returns typeName's declared field names, in schema
// order, for use as "select *"'s column order. It returns nil (triggering
// buildRowProjector's alphabetical fallback) when typeName doesn't resolve
// to a composite, e.g. an interface or enum scan.
func compositeFieldOrder(reg *registry.Registry, typeName string) []string {
	t, ok := reg.Get(typeName)
	if !ok {
		return nil
	}

	composite, ok := types.ResolveBase(t).(*types.Composite)
	if !ok {
		return nil
	}

	names := make([]string, len(composite.Fields))
	for i, f := range composite.Fields {
		names[i] = f.Name
	}

	return names
}

// buildRowProjector compiles a "select" clause's projections into a
// column-header list and a per-row evaluator, for the flat (ungrouped,
// non-aggregate) case. A bare "select *" (or an absent "select" clause)
// uses fieldOrder — the scanned composite's declared field order — when
// given; it falls back to the first surviving row's sorted map keys only
// when fieldOrder is empty (e.g. the registry lookup failed).
func buildRowProjector(projections []querylang.Projection, rows []any, fieldOrder []string) ([]string, func(row any) ([]any, error)) {
	if len(projections) == 0 || (len(projections) == 1 && projections[0].Star) {
		keys := fieldOrder

		if len(keys) == 0 && len(rows) > 0 {
			if m, ok := rows[0].(map[string]any); ok {
				keys = make([]string, 0, len(m))
				for k := range m {
					keys = append(keys, k)
				}

				sort.Strings(keys)
			}
		}

		return keys, func(row any) ([]any, error) {
			m, ok := row.(map[string]any)
			if !ok {
				return []any{row}, nil
			}

			values := make([]any, len(keys))
			for i, k := range keys {
				values[i] = m[k]
			}

			return values, nil
		}
	}

	columns := projectionColumns(projections)

	return columns, func(row any) ([]any, error) {
		values := make([]any, len(projections))

		for i, proj := range projections {
			expr := proj.Arg
			if expr == nil {
				expr = &querylang.FieldRef{Path: proj.Path}
			}

			v, err := eval(expr, row)
			if err != nil {
				return nil, err
			}

			values[i] = v
		}

		return values, nil
	}
}
