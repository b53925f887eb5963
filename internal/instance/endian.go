package instance

// putUint64LE/getUint64LE and putUintLE/getUintLE pack/unpack the small
// fixed-width reference integers (row indices, type tags, enum tags)
// this package inlines directly into composite rows — distinct from the
// primitive codec, which handles user-facing scalar values.

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

// putUintLE packs v into len(buf) little-endian bytes (used for enum tags,
// whose width is 1/2/4/8 bytes per Enum.TagByteWidth).
func putUintLE(buf []byte, v uint64) {
	for i := range buf {
		buf[i] = byte(v >> (8 * uint(i)))
	}
}

func getUintLE(buf []byte) uint64 {
	var v uint64
	for i, b := range buf {
		v |= uint64(b) << (8 * uint(i))
	}

	return v
}
