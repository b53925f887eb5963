package query_test

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/query"
	"github.com/curious-machines/typed-tables/internal/querylang"
)

func runProgram(t *testing.T, dir, program string) []query.Result {
	t.Helper()

	stmts, err := querylang.ParseProgram(program)
	require.NoError(t, err)

	exec := query.New()

	defer func() {
		require.NoError(t, exec.Close())
	}()

	results := make([]query.Result, 0, len(stmts))

	for _, stmt := range stmts {
		r, err := exec.Execute(stmt)
		require.NoError(t, err)
		results = append(results, r)
	}

	return results
}

func TestExecutorCreateAndSelectPerson(t *testing.T) {
	dir := t.TempDir()

	results := runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], age: uint8 }
		create Person(name="Alice", age=30)
		create Person(name="Bob", age=25)
		from Person select name, age sort by age asc
	`)

	qr, ok := results[len(results)-1].(*query.QueryResult)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "age"}, qr.Columns)
	require.Len(t, qr.Rows, 2)
	assert.Equal(t, "Bob", qr.Rows[0][0])
	assert.Equal(t, "Alice", qr.Rows[1][0])
}

func TestExecutorWhereFiltersRows(t *testing.T) {
	dir := t.TempDir()

	results := runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], age: uint8 }
		create Person(name="Alice", age=30)
		create Person(name="Bob", age=17)
		from Person select name where age >= 18
	`)

	qr := results[len(results)-1].(*query.QueryResult)
	require.Len(t, qr.Rows, 1)
	assert.Equal(t, "Alice", qr.Rows[0][0])
}

func TestExecutorGroupByCount(t *testing.T) {
	dir := t.TempDir()

	results := runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], department: character[] }
		create Person(name="Alice", department="Eng")
		create Person(name="Bob", department="Eng")
		create Person(name="Carol", department="Sales")
		from Person select department, count() group by department sort by department asc
	`)

	qr := results[len(results)-1].(*query.QueryResult)
	require.Len(t, qr.Rows, 2)
	assert.Equal(t, "Eng", qr.Rows[0][0])
	assert.Equal(t, 2, qr.Rows[0][1])
	assert.Equal(t, "Sales", qr.Rows[1][0])
	assert.Equal(t, 1, qr.Rows[1][1])
}

func TestExecutorAverageAggregate(t *testing.T) {
	dir := t.TempDir()

	results := runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], age: uint8 }
		create Person(name="Alice", age=30)
		create Person(name="Bob", age=20)
		from Person select average(age)
	`)

	qr := results[len(results)-1].(*query.QueryResult)
	require.Len(t, qr.Rows, 1)
	assert.Equal(t, 25.0, qr.Rows[0][0])
}

func TestExecutorUpdateStatement(t *testing.T) {
	dir := t.TempDir()

	results := runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], age: uint8 }
		create Person(name="Alice", age=30)
		update Person set age=31 where name = "Alice"
		from Person select age
	`)

	up := results[3].(*query.UpdateResult)
	assert.Equal(t, 1, up.Count)

	qr := results[4].(*query.QueryResult)
	require.Len(t, qr.Rows, 1)
}

func TestExecutorRangeErrorRejected(t *testing.T) {
	dir := t.TempDir()

	stmts, err := querylang.ParseProgram(`
		use "` + dir + `"
		type Person { age: uint8 }
		create Person(age=300)
	`)
	require.NoError(t, err)

	exec := query.New()
	defer exec.Close()

	_, err = exec.Execute(stmts[0])
	require.NoError(t, err)
	_, err = exec.Execute(stmts[1])
	require.NoError(t, err)

	_, err = exec.Execute(stmts[2])
	require.Error(t, err)
}

func TestExecutorTypedLiteralEnforcesPinnedWidth(t *testing.T) {
	dir := t.TempDir()

	results := runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], age: uint32 }
		create Person(name="Alice", age=30u8)
	`)
	cr, ok := results[len(results)-1].(*query.CreateResult)
	require.True(t, ok)
	assert.Equal(t, "Person", cr.Ref.TypeName)

	stmts, err := querylang.ParseProgram(`
		use "` + dir + `"
		type Person { name: character[], age: uint32 }
		create Person(name="Bob", age=300u8)
	`)
	require.NoError(t, err)

	exec := query.New()
	defer exec.Close()

	_, err = exec.Execute(stmts[0])
	require.NoError(t, err)
	_, err = exec.Execute(stmts[1])
	require.NoError(t, err)

	// age's declared type is uint32 (which 300 fits easily), but the
	// literal itself is pinned to u8 and must be rejected on that basis.
	_, err = exec.Execute(stmts[2])
	require.Error(t, err)
}

func TestExecutorRecursiveNodeType(t *testing.T) {
	dir := t.TempDir()

	stmts, err := querylang.ParseProgram(`
		use "` + dir + `"
		type Node { value: uint32, children: Node[] }
	`)
	require.NoError(t, err)

	exec := query.New()
	defer exec.Close()

	for _, s := range stmts {
		_, err := exec.Execute(s)
		require.NoError(t, err)
	}

	ref, err := exec.Schema().CreateInstance("Node", map[string]any{
		"value":    big.NewInt(1),
		"children": []any{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Node", ref.TypeName)
}

func TestExecutorDumpAndImportRoundTrip(t *testing.T) {
	dir := t.TempDir()

	runProgram(t, dir, `
		use "`+dir+`"
		type Person { name: character[], age: uint8 }
		create Person(name="Alice", age=30)
		dump "`+dir+`"
	`)

	metaPath := filepath.Join(dir, "schema.meta")
	assert.FileExists(t, metaPath)

	results := runProgram(t, dir, `
		import "`+dir+`"
		from Person select name
	`)

	qr := results[len(results)-1].(*query.QueryResult)
	require.Len(t, qr.Rows, 1)
	assert.Equal(t, "Alice", qr.Rows[0][0])
}
