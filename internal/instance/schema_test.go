package instance_test

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/instance"
	"github.com/curious-machines/typed-tables/internal/ttcore"
)

const personSchema = `
	alias uuid as uint128
	alias name as character[]
	alias age as uint8

	type Person {
		id: uuid,
		name,
		age
	}
`

func TestCreateAndLoadPerson(t *testing.T) {
	schema, err := instance.Parse(personSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	_, err = schema.CreateInstance("Person", map[string]any{
		"id": big.NewInt(1), "name": "Alice", "age": big.NewInt(30),
	})
	require.NoError(t, err)

	ref2, err := schema.CreateInstance("Person", map[string]any{
		"id": big.NewInt(2), "name": "Bob", "age": big.NewInt(25),
	})
	require.NoError(t, err)

	loaded, err := schema.Load(schema.GetInstance("Person", ref2.Index), true)
	require.NoError(t, err)

	record := loaded.(map[string]any)
	assert.Equal(t, big.NewInt(2), record["id"])
	assert.Equal(t, "Bob", record["name"])
	assert.Equal(t, big.NewInt(25), record["age"])
}

func TestPersonTableSizeMatchesSpecScenario(t *testing.T) {
	schema, err := instance.Parse(personSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	_, err = schema.CreateInstance("Person", map[string]any{
		"id": big.NewInt(1), "name": "Alice", "age": big.NewInt(30),
	})
	require.NoError(t, err)
	_, err = schema.CreateInstance("Person", map[string]any{
		"id": big.NewInt(2), "name": "Bob", "age": big.NewInt(25),
	})
	require.NoError(t, err)

	table, err := schema.Storage().GetTable("Person")
	require.NoError(t, err)
	assert.EqualValues(t, 33, table.Width()) // 16 (uuid) + 16 (name ref) + 1 (age)

	count, err := table.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRangeErrorRejectsOutOfRangeAge(t *testing.T) {
	schema, err := instance.Parse(personSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	_, err = schema.CreateInstance("Person", map[string]any{
		"id": big.NewInt(1), "name": "Overflow", "age": big.NewInt(300),
	})
	require.Error(t, err)

	var rangeErr *ttcore.RangeError
	assert.ErrorAs(t, err, &rangeErr)

	table, err := schema.Storage().GetTable("Person")
	require.NoError(t, err)

	count, err := table.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

const nodeSchema = `
	type Node {
		value: uint8,
		children: Node[]
	}
`

func TestRecursiveNodeCreateAndLoad(t *testing.T) {
	schema, err := instance.Parse(nodeSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	leaf0, err := schema.CreateInstance("Node", map[string]any{"value": big.NewInt(0), "children": []any{}})
	require.NoError(t, err)
	leaf1, err := schema.CreateInstance("Node", map[string]any{"value": big.NewInt(1), "children": []any{}})
	require.NoError(t, err)
	leaf2, err := schema.CreateInstance("Node", map[string]any{"value": big.NewInt(2), "children": []any{}})
	require.NoError(t, err)

	assert.Equal(t, 0, leaf0.Index)
	assert.Equal(t, 1, leaf1.Index)
	assert.Equal(t, 2, leaf2.Index)

	// spec.md §8 S6: root's children reference the three already-created
	// leaf Nodes by index, rather than constructing fresh rows for them.
	root, err := schema.CreateInstance("Node", map[string]any{
		"value":    big.NewInt(9),
		"children": []any{leaf0, leaf1, leaf2},
	})
	require.NoError(t, err)

	table, err := schema.Storage().GetTable("Node")
	require.NoError(t, err)
	assert.EqualValues(t, 17, table.Width())

	count, err := table.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count) // 3 leaves + root, no extra rows created for children

	arrTable, err := schema.Storage().GetArrayTable("Node[]")
	require.NoError(t, err)

	loaded, err := schema.Load(root, true)
	require.NoError(t, err)

	record := loaded.(map[string]any)
	assert.Equal(t, big.NewInt(9), record["value"])
	children := record["children"].([]any)
	require.Len(t, children, 3)
	assert.Equal(t, big.NewInt(0), children[0].(map[string]any)["value"])
	assert.Equal(t, big.NewInt(1), children[1].(map[string]any)["value"])
	assert.Equal(t, big.NewInt(2), children[2].(map[string]any)["value"])

	// The elements table holds the raw row indices 0,1,2 of the
	// pre-existing leaves, not freshly-inserted rows.
	elementsTable := arrTable.Elements()
	rowCount, err := elementsTable.Count()
	require.NoError(t, err)
	require.Equal(t, 3, rowCount)

	for i, want := range []int{0, 1, 2} {
		row, err := elementsTable.Get(i)
		require.NoError(t, err)
		require.Len(t, row, 8)
		assert.EqualValues(t, want, binary.LittleEndian.Uint64(row))
	}
}

const shapeSchema = `
	interface Shaped {
		area: float64
	}

	type Circle {
		radius: float64,
		area: float64
	}
`

func TestInterfaceFieldDispatch(t *testing.T) {
	schema, err := instance.Parse(shapeSchema+`
		type Holder {
			shape: Shaped
		}
	`, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	ref, err := schema.CreateInstance("Holder", map[string]any{
		"shape": instance.InterfaceValue{
			Concrete: "Circle",
			Fields:   map[string]any{"radius": 2.0, "area": 12.566},
		},
	})
	require.NoError(t, err)

	loaded, err := schema.Load(ref, true)
	require.NoError(t, err)

	record := loaded.(map[string]any)
	shape := record["shape"].(map[string]any)
	assert.Equal(t, 2.0, shape["radius"])
}

const resultSchema = `
	enum Result {
		Ok(amount: uint32),
		Err
	}

	type Wrapper {
		result: Result
	}
`

func TestEnumFieldWithPayload(t *testing.T) {
	schema, err := instance.Parse(resultSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	ref, err := schema.CreateInstance("Wrapper", map[string]any{
		"result": instance.EnumValue{Variant: "Ok", Payload: map[string]any{"amount": big.NewInt(42)}},
	})
	require.NoError(t, err)

	loaded, err := schema.Load(ref, true)
	require.NoError(t, err)

	wrapper := loaded.(map[string]any)
	result := wrapper["result"].(instance.EnumValue)
	assert.Equal(t, "Ok", result.Variant)
	assert.Equal(t, big.NewInt(42), result.Payload.(map[string]any)["amount"])
}

func TestEnumFieldWithoutPayload(t *testing.T) {
	schema, err := instance.Parse(resultSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	ref, err := schema.CreateInstance("Wrapper", map[string]any{
		"result": instance.EnumValue{Variant: "Err"},
	})
	require.NoError(t, err)

	loaded, err := schema.Load(ref, true)
	require.NoError(t, err)

	wrapper := loaded.(map[string]any)
	result := wrapper["result"].(instance.EnumValue)
	assert.Equal(t, "Err", result.Variant)
	assert.Nil(t, result.Payload)
}

func TestInterfaceFieldRoundTripsWholeRecord(t *testing.T) {
	schema, err := instance.Parse(shapeSchema+`
		type Holder {
			shape: Shaped
		}
	`, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	want := map[string]any{
		"shape": map[string]any{"radius": 3.0, "area": 28.274},
	}

	ref, err := schema.CreateInstance("Holder", map[string]any{
		"shape": instance.InterfaceValue{Concrete: "Circle", Fields: want["shape"].(map[string]any)},
	})
	require.NoError(t, err)

	loaded, err := schema.Load(ref, true)
	require.NoError(t, err)

	if diff := cmp.Diff(want, loaded.(map[string]any)); diff != "" {
		t.Errorf("loaded record mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateCompositeRejectsMissingField(t *testing.T) {
	schema, err := instance.Parse(personSchema, t.TempDir())
	require.NoError(t, err)
	defer schema.Close()

	_, err = schema.CreateInstance("Person", map[string]any{
		"id": big.NewInt(1), "age": big.NewInt(30),
	})
	require.Error(t, err)
}
