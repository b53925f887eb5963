package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/types"
)

func TestPrimitiveFieldWidth(t *testing.T) {
	u8, err := types.NewUint(8)
	require.NoError(t, err)
	w, err := u8.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(1), w)

	u128, err := types.NewUint(128)
	require.NoError(t, err)
	w, err = u128.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(16), w)
}

func TestAliasFieldWidthTransparent(t *testing.T) {
	u128, _ := types.NewUint(128)
	base := types.NewResolvedTypeRef(u128)
	alias := types.NewAlias("uuid", base)

	w, err := alias.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(16), w)
}

func TestArrayFieldWidthIsSixteen(t *testing.T) {
	u8, _ := types.NewUint(8)
	elem := types.NewResolvedTypeRef(u8)
	arr := types.NewArray("bytes", elem)

	w, err := arr.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(16), w)
}

func TestCompositeFieldWidthIsEight(t *testing.T) {
	c := types.NewComposite("Point", nil)

	w, err := c.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(8), w)
}

func TestCompositeRecordWidth(t *testing.T) {
	u32, _ := types.NewUint(32)
	x := types.Field{Name: "x", Type: types.NewResolvedTypeRef(u32)}
	y := types.Field{Name: "y", Type: types.NewResolvedTypeRef(u32)}
	point := types.NewComposite("Point", []types.Field{x, y})

	w, err := point.RecordWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(8), w)
}

// TestSelfReferentialWidthTerminates covers spec.md §9: a composite field
// referencing its own enclosing type (via an array) contributes a fixed
// reference width, so RecordWidth computation terminates even though the
// composite is recursive.
func TestSelfReferentialWidthTerminates(t *testing.T) {
	ref := types.NewTypeRef("Node")
	u8, _ := types.NewUint(8)
	children := types.NewArray("Node[]", ref)

	node := types.NewComposite("Node", []types.Field{
		{Name: "value", Type: types.NewResolvedTypeRef(u8)},
		{Name: "children", Type: types.NewResolvedTypeRef(children)},
	})
	ref.Resolve(node)

	w, err := node.RecordWidth()
	require.NoError(t, err)
	// 1 byte value + 16 bytes (start,len) array ref = 17
	assert.Equal(t, uint(17), w)
}

func TestMutualReferenceWidths(t *testing.T) {
	aRef := types.NewTypeRef("A")
	bRef := types.NewTypeRef("B")
	u8, _ := types.NewUint(8)

	a := types.NewComposite("A", []types.Field{
		{Name: "value", Type: types.NewResolvedTypeRef(u8)},
		{Name: "b", Type: bRef},
	})
	b := types.NewComposite("B", []types.Field{
		{Name: "value", Type: types.NewResolvedTypeRef(u8)},
		{Name: "a", Type: aRef},
	})
	aRef.Resolve(a)
	bRef.Resolve(b)

	aw, err := a.RecordWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(9), aw)

	bw, err := b.RecordWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(9), bw)
}

func TestEnumTagWidth(t *testing.T) {
	e2 := types.NewEnum("Tiny", []types.Variant{{Name: "A"}, {Name: "B"}})
	assert.Equal(t, uint(1), e2.TagByteWidth())

	variants := make([]types.Variant, 300)
	for i := range variants {
		variants[i] = types.Variant{Name: "V"}
	}

	e300 := types.NewEnum("Big", variants)
	assert.Equal(t, uint(2), e300.TagByteWidth())
}

func TestEnumFieldWidthWithPayload(t *testing.T) {
	payload := types.NewComposite("Payload", nil)
	e := types.NewEnum("Result", []types.Variant{
		{Name: "Ok", Payload: types.NewResolvedTypeRef(payload)},
		{Name: "Err"},
	})

	w, err := e.FieldWidth()
	require.NoError(t, err)
	// 1-byte tag + 8-byte payload row index
	assert.Equal(t, uint(9), w)
}

func TestInterfaceFieldWidthIsSixteen(t *testing.T) {
	iface := types.NewInterface("Shape", []types.Field{{Name: "area"}})

	w, err := iface.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(16), w)
}

func TestFractionFieldWidth(t *testing.T) {
	u32, _ := types.NewUint(32)
	frac := types.NewFraction("ratio", types.NewResolvedTypeRef(u32))

	w, err := frac.FieldWidth()
	require.NoError(t, err)
	assert.Equal(t, uint(8), w)
}

func TestUnresolvedForwardDeclFieldWidthErrors(t *testing.T) {
	ref := types.NewTypeRef("Ghost")

	_, err := ref.FieldWidth()
	require.Error(t, err)
}
