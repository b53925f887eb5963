// Package codec implements spec.md §4.1's primitive codec: encoding and
// decoding of fixed-width primitive values to/from little-endian byte
// slices, with range and width checking at both boundaries.
package codec

import (
	"math"
	"math/big"

	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// Encode converts value into exactly p.ByteWidth() little-endian bytes.
//
// Accepted Go representations of value:
//   - KindUint / KindInt: *big.Int (also accepts int, int64, uint64 for
//     convenience, converted internally)
//   - KindFloat: float64 (or float32 for 32-bit floats)
//   - KindBit: bool
//   - KindCharacter: rune (or int32)
func Encode(value any, p types.Primitive) ([]byte, error) {
	switch p.Kind {
	case types.KindUint, types.KindInt:
		return encodeInteger(value, p)
	case types.KindFloat:
		return encodeFloat(value, p)
	case types.KindBit:
		return encodeBit(value)
	case types.KindCharacter:
		return encodeCharacter(value, p)
	default:
		return nil, ttcore.NewTypeError(p.Name(), "unknown primitive kind")
	}
}

// Decode reconstructs a value of the Go representations documented on
// Encode from exactly p.ByteWidth() little-endian bytes.
func Decode(buf []byte, p types.Primitive) (any, error) {
	if uint(len(buf)) != p.ByteWidth() {
		return nil, &ttcore.WidthMismatchError{Expected: int(p.ByteWidth()), Actual: len(buf)}
	}

	switch p.Kind {
	case types.KindUint, types.KindInt:
		return decodeInteger(buf, p), nil
	case types.KindFloat:
		return decodeFloat(buf, p), nil
	case types.KindBit:
		return buf[0] != 0x00, nil
	case types.KindCharacter:
		return decodeCharacter(buf), nil
	default:
		return nil, ttcore.NewTypeError(p.Name(), "unknown primitive kind")
	}
}

func asBigInt(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		return v, true
	case big.Int:
		return &v, true
	case int:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	default:
		return nil, false
	}
}

func encodeInteger(value any, p types.Primitive) ([]byte, error) {
	n, ok := asBigInt(value)
	if !ok {
		return nil, ttcore.NewTypeError(p.Name(), "value %v is not an integer", value)
	}

	if n.Cmp(p.Min()) < 0 || n.Cmp(p.Max()) > 0 {
		return nil, &ttcore.RangeError{TypeName: p.Name(), Value: n, Min: p.Min(), Max: p.Max()}
	}

	width := p.ByteWidth()
	buf := make([]byte, width)

	// Two's complement: shift negative values into the unsigned range of
	// this width before emitting raw bytes (little-endian).
	unsigned := n
	if n.Sign() < 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), width*8)
		unsigned = new(big.Int).Add(n, modulus)
	}

	b := unsigned.Bytes() // big-endian, no leading zeros
	for i := 0; i < len(b); i++ {
		buf[i] = b[len(b)-1-i]
	}

	return buf, nil
}

func decodeInteger(buf []byte, p types.Primitive) *big.Int {
	be := make([]byte, len(buf))
	for i, b := range buf {
		be[len(buf)-1-i] = b
	}

	n := new(big.Int).SetBytes(be)

	if n.Sign() == 0 {
		// A fresh zero Int, so a decoded zero compares deeply equal to big.NewInt(0).
		return new(big.Int)
	}

	if p.Kind == types.KindInt {
		width := p.ByteWidth()
		signBit := new(big.Int).Lsh(big.NewInt(1), width*8-1)

		if n.Cmp(signBit) >= 0 {
			modulus := new(big.Int).Lsh(big.NewInt(1), width*8)
			n = new(big.Int).Sub(n, modulus)
		}
	}

	return n
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

func encodeFloat(value any, p types.Primitive) ([]byte, error) {
	f, ok := asFloat64(value)
	if !ok {
		return nil, ttcore.NewTypeError(p.Name(), "value %v is not a float", value)
	}

	buf := make([]byte, p.ByteWidth())

	switch p.Bits {
	case 32:
		putUint32LE(buf, math.Float32bits(float32(f)))
	case 64:
		putUint64LE(buf, math.Float64bits(f))
	default:
		return nil, ttcore.NewTypeError(p.Name(), "unsupported float width %d", p.Bits)
	}

	return buf, nil
}

func decodeFloat(buf []byte, p types.Primitive) float64 {
	switch p.Bits {
	case 32:
		return float64(math.Float32frombits(getUint32LE(buf)))
	default:
		return math.Float64frombits(getUint64LE(buf))
	}
}

func encodeBit(value any) ([]byte, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, ttcore.NewTypeError("bit", "value %v is not a bool", value)
	}

	if b {
		return []byte{0x01}, nil
	}

	return []byte{0x00}, nil
}

func encodeCharacter(value any, p types.Primitive) ([]byte, error) {
	var r rune

	switch v := value.(type) {
	case rune:
		r = v
	case int32:
		r = rune(v)
	case int:
		r = rune(v)
	default:
		return nil, ttcore.NewTypeError(p.Name(), "value %v is not a character", value)
	}

	width := p.ByteWidth()
	buf := make([]byte, width)
	v := uint64(uint32(r))

	for i := uint(0); i < width; i++ {
		buf[i] = byte(v >> (8 * i))
	}

	return buf, nil
}

func decodeCharacter(buf []byte) rune {
	var v uint64
	for i, b := range buf {
		v |= uint64(b) << (8 * i)
	}

	return rune(uint32(v))
}

func putUint32LE(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func getUint32LE(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

func putUint64LE(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func getUint64LE(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}

	return v
}
