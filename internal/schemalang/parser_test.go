package schemalang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/schemalang"
	"github.com/curious-machines/typed-tables/internal/types"
)

func TestParseAlias(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins("alias uuid as uint128")
	require.NoError(t, err)
	assert.True(t, reg.Contains("uuid"))

	ty, err := reg.GetOrRaise("uuid")
	require.NoError(t, err)

	alias, ok := ty.(*types.Alias)
	require.True(t, ok)
	assert.Equal(t, "uint128", alias.Base.Name())
}

func TestParseArrayAlias(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins("alias name as character[]")
	require.NoError(t, err)

	ty, err := reg.GetOrRaise("name")
	require.NoError(t, err)

	alias := ty.(*types.Alias)
	_, ok := alias.Base.Resolved().(*types.Array)
	assert.True(t, ok)
}

func TestParseSimpleComposite(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		type Point {
			x: uint32,
			y: uint32
		}
	`)
	require.NoError(t, err)

	ty, err := reg.GetOrRaise("Point")
	require.NoError(t, err)

	point := ty.(*types.Composite)
	require.Len(t, point.Fields, 2)
	assert.Equal(t, "x", point.Fields[0].Name)
	assert.Equal(t, "y", point.Fields[1].Name)
}

func TestParseExample(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		alias uuid as uint128

		type Person {
			id: uuid,
			name: string
		}
	`)
	require.NoError(t, err)
	assert.True(t, reg.Contains("uuid"))
	assert.True(t, reg.Contains("Person"))

	person, err := reg.GetOrRaise("Person")
	require.NoError(t, err)

	composite := person.(*types.Composite)
	require.Len(t, composite.Fields, 2)

	idField, ok := composite.GetField("id")
	require.True(t, ok)
	assert.Equal(t, "uuid", idField.Type.Name())

	nameField, ok := composite.GetField("name")
	require.True(t, ok)
	assert.Equal(t, "string", nameField.Type.Name())
}

func TestParseEmptyComposite(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins("type Empty { }")
	require.NoError(t, err)

	ty, err := reg.GetOrRaise("Empty")
	require.NoError(t, err)
	assert.Len(t, ty.(*types.Composite).Fields, 0)
}

func TestUndefinedTypeErrorAtFinalize(t *testing.T) {
	_, err := schemalang.ParseWithBuiltins(`
		type Person {
			name: undefined_type
		}
	`)
	require.Error(t, err)
}

func TestSyntaxErrorOnTrailingColon(t *testing.T) {
	_, err := schemalang.ParseWithBuiltins("type Person { name: }")
	require.Error(t, err)
}

func TestSelfReferentialComposite(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		type Node {
			value: uint8,
			children: Node[]
		}
	`)
	require.NoError(t, err)

	ty, err := reg.GetOrRaise("Node")
	require.NoError(t, err)

	node := ty.(*types.Composite)
	require.Len(t, node.Fields, 2)
	assert.Equal(t, "value", node.Fields[0].Name)
	assert.Equal(t, "children", node.Fields[1].Name)

	childrenType := node.Fields[1].Type.Resolved()
	arr, ok := childrenType.(*types.Array)
	require.True(t, ok)
	assert.Same(t, node, arr.Element.Resolved())

	w, err := node.RecordWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(17), w)
}

func TestMutualReferenceComposites(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		forward A
		forward B

		type A {
			value: uint8,
			b: B
		}

		type B {
			value: uint8,
			a: A
		}
	`)
	require.NoError(t, err)

	a, err := reg.GetOrRaise("A")
	require.NoError(t, err)
	b, err := reg.GetOrRaise("B")
	require.NoError(t, err)

	aDef := a.(*types.Composite)
	bDef := b.(*types.Composite)

	assert.Same(t, bDef, aDef.Fields[1].Type.Resolved())
	assert.Same(t, aDef, bDef.Fields[1].Type.Resolved())
}

func TestEnumDefinition(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		type Payload { amount: uint32 }

		enum Result {
			Ok(amount: uint32),
			Err
		}
	`)
	require.NoError(t, err)

	ty, err := reg.GetOrRaise("Result")
	require.NoError(t, err)

	result := ty.(*types.Enum)
	require.Len(t, result.Variants, 2)
	assert.True(t, result.HasPayload())
	assert.Equal(t, uint(1), result.TagByteWidth())
}

func TestInterfaceDefinition(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		interface Shaped {
			area: float64
		}
	`)
	require.NoError(t, err)

	ty, err := reg.GetOrRaise("Shaped")
	require.NoError(t, err)
	assert.Len(t, ty.(*types.Interface).Members, 1)
}

func TestCommentsAreIgnored(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		# a leading comment
		-- another style
		alias uuid as uint128 # trailing comment
	`)
	require.NoError(t, err)
	assert.True(t, reg.Contains("uuid"))
}
