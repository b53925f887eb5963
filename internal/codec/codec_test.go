package codec_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/codec"
	"github.com/curious-machines/typed-tables/internal/types"
)

func TestUintRoundTrip(t *testing.T) {
	p, err := types.NewUint(8)
	require.NoError(t, err)

	for _, v := range []int64{0, 1, 127, 255} {
		buf, err := codec.Encode(big.NewInt(v), p)
		require.NoError(t, err)
		assert.Len(t, buf, 1)

		got, err := codec.Decode(buf, p)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(v), got)
	}
}

func TestUint128RoundTrip(t *testing.T) {
	p, err := types.NewUint(128)
	require.NoError(t, err)

	v := new(big.Int)
	v.SetString("00000001000000000000000000000001", 16)

	buf, err := codec.Encode(v, p)
	require.NoError(t, err)
	assert.Len(t, buf, 16)

	got, err := codec.Decode(buf, p)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(got.(*big.Int)))
}

func TestUintRangeError(t *testing.T) {
	p, err := types.NewUint(8)
	require.NoError(t, err)

	_, err = codec.Encode(big.NewInt(256), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range error")
}

func TestUintNegativeRangeError(t *testing.T) {
	p, _ := types.NewUint(8)
	_, err := codec.Encode(big.NewInt(-1), p)
	require.Error(t, err)
}

func TestIntTwosComplementRoundTrip(t *testing.T) {
	p, err := types.NewInt(8)
	require.NoError(t, err)

	for _, v := range []int64{-128, -1, 0, 1, 127} {
		buf, err := codec.Encode(big.NewInt(v), p)
		require.NoError(t, err)

		got, err := codec.Decode(buf, p)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(v), got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	p32, _ := types.NewFloat(32)
	p64, _ := types.NewFloat(64)

	buf, err := codec.Encode(float64(3.5), p32)
	require.NoError(t, err)
	assert.Len(t, buf, 4)

	got, err := codec.Decode(buf, p32)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)

	buf, err = codec.Encode(float64(3.14159265358979), p64)
	require.NoError(t, err)
	assert.Len(t, buf, 8)

	got, err = codec.Decode(buf, p64)
	require.NoError(t, err)
	assert.Equal(t, 3.14159265358979, got)
}

func TestBitRoundTrip(t *testing.T) {
	b := types.Bit()

	buf, err := codec.Encode(true, b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, buf)

	buf, err = codec.Encode(false, b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, buf)

	v, err := codec.Decode([]byte{0x01}, b)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestBitDecodeAnyNonZeroIsTrue(t *testing.T) {
	b := types.Bit()

	v, err := codec.Decode([]byte{0x7f}, b)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestCharacterRoundTrip(t *testing.T) {
	c := types.NewCharacter(4)

	buf, err := codec.Encode('A', c)
	require.NoError(t, err)
	assert.Len(t, buf, 4)

	v, err := codec.Decode(buf, c)
	require.NoError(t, err)
	assert.Equal(t, 'A', v)
}

func TestWidthMismatch(t *testing.T) {
	p, _ := types.NewUint(32)

	_, err := codec.Decode([]byte{0x01, 0x02}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width mismatch")
}

func TestLittleEndianOrdering(t *testing.T) {
	p, _ := types.NewUint(32)

	buf, err := codec.Encode(big.NewInt(0x01020304), p)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
}
