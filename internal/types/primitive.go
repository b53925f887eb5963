package types

import (
	"fmt"
	"math/big"
)

// PrimitiveKind identifies which family of primitive a Primitive type
// belongs to, per spec.md §3.1's closed set.
type PrimitiveKind uint8

const (
	// KindUint is an unsigned integer of some bit width.
	KindUint PrimitiveKind = iota
	// KindInt is a two's-complement signed integer of some bit width.
	KindInt
	// KindFloat is an IEEE-754 binary32/binary64 value.
	KindFloat
	// KindBit is a one-bit boolean, stored in a single byte on disk.
	KindBit
	// KindCharacter is one UTF-8 code unit slot of fixed byte width.
	KindCharacter
)

// String returns a human-readable name for the kind, used in type names
// such as "uint8" or "float64".
func (k PrimitiveKind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBit:
		return "bit"
	case KindCharacter:
		return "character"
	default:
		return "unknown"
	}
}

// Primitive is the fixed-width, closed-set leaf of the type system.  Every
// other Type variant eventually bottoms out at a reference width computed
// from one or more Primitives (see FieldWidth in type.go).
type Primitive struct {
	Kind PrimitiveKind
	// Bits is the declared bit width (e.g. 8,16,32,64,128 for uint; 32,64
	// for float; ignored for Bit; a byte count x8 for Character).
	Bits uint
}

// allowedUintWidths and allowedIntWidths enumerate spec.md §3.1's closed
// set of supported widths.
var allowedUintWidths = map[uint]bool{1: true, 8: true, 16: true, 32: true, 64: true, 128: true}
var allowedIntWidths = map[uint]bool{8: true, 16: true, 32: true, 64: true, 128: true}
var allowedFloatWidths = map[uint]bool{32: true, 64: true}

// NewUint constructs an unsigned integer primitive of the given bit width,
// validating it against the closed set of supported widths.
func NewUint(bits uint) (Primitive, error) {
	if !allowedUintWidths[bits] {
		return Primitive{}, fmt.Errorf("unsupported uint width: %d", bits)
	}

	return Primitive{KindUint, bits}, nil
}

// NewInt constructs a signed integer primitive of the given bit width.
func NewInt(bits uint) (Primitive, error) {
	if !allowedIntWidths[bits] {
		return Primitive{}, fmt.Errorf("unsupported int width: %d", bits)
	}

	return Primitive{KindInt, bits}, nil
}

// NewFloat constructs a floating-point primitive of the given bit width.
func NewFloat(bits uint) (Primitive, error) {
	if !allowedFloatWidths[bits] {
		return Primitive{}, fmt.Errorf("unsupported float width: %d", bits)
	}

	return Primitive{KindFloat, bits}, nil
}

// Bit constructs the single one-bit boolean primitive.
func Bit() Primitive { return Primitive{KindBit, 1} }

// NewCharacter constructs a character primitive occupying byteWidth bytes
// per code unit (typically 4, for UTF-32 storage).
func NewCharacter(byteWidth uint) Primitive {
	return Primitive{KindCharacter, byteWidth * 8}
}

// ByteWidth returns the number of bytes a value of this primitive occupies
// on disk: ceil(Bits/8), per spec.md §4.1.
func (p Primitive) ByteWidth() uint {
	if p.Kind == KindBit {
		return 1
	}

	m := p.Bits / 8
	if p.Bits%8 != 0 {
		m++
	}

	return m
}

// Name returns the canonical type name, e.g. "uint8", "int128", "float64",
// "bit", "character".
func (p Primitive) Name() string {
	switch p.Kind {
	case KindBit:
		return "bit"
	case KindCharacter:
		return "character"
	default:
		return fmt.Sprintf("%s%d", p.Kind, p.Bits)
	}
}

// Min returns the minimum representable value of this primitive as a
// big.Int.  Floats and characters report 0.
func (p Primitive) Min() *big.Int {
	switch p.Kind {
	case KindInt:
		bound := new(big.Int).Lsh(big.NewInt(1), p.Bits-1)
		return new(big.Int).Neg(bound)
	default:
		return big.NewInt(0)
	}
}

// TypeName implements Type.
func (p Primitive) TypeName() string { return p.Name() }

// FieldWidth implements Type: a primitive's reference width, when used as
// a composite field, is simply its own byte width (spec.md §3.3).
func (p Primitive) FieldWidth() (uint, error) { return p.ByteWidth(), nil }

// Max returns the maximum representable value of this primitive as a
// big.Int.  Bit reports 1; Float/Character report 0 (range checks do not
// apply to them).
func (p Primitive) Max() *big.Int {
	switch p.Kind {
	case KindUint:
		bound := new(big.Int).Lsh(big.NewInt(1), p.Bits)
		return new(big.Int).Sub(bound, big.NewInt(1))
	case KindInt:
		bound := new(big.Int).Lsh(big.NewInt(1), p.Bits-1)
		return new(big.Int).Sub(bound, big.NewInt(1))
	case KindBit:
		return big.NewInt(1)
	default:
		return big.NewInt(0)
	}
}
