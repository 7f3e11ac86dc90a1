// Package hbytes implements the fixed-width scalar encodings used for cell
// values and row-key segments: big-endian two's-complement integers and
// IEEE-754 bit patterns, matching the store's own byte utilities so values
// written by other clients decode identically.
package hbytes

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrLength = errors.New("hbytes: wrong buffer length")

func lengthErr(want, got int) error {
	return fmt.Errorf("%w: want %d bytes, got %d", ErrLength, want, got)
}

func PutInt8(v int8) []byte { return []byte{byte(v)} }

func Int8(b []byte) (int8, error) {
	if len(b) != 1 {
		return 0, lengthErr(1, len(b))
	}
	return int8(b[0]), nil
}

func PutInt16(v int16) []byte {
	var u [2]byte
	binary.BigEndian.PutUint16(u[:], uint16(v))
	return u[:]
}

func Int16(b []byte) (int16, error) {
	if len(b) != 2 {
		return 0, lengthErr(2, len(b))
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func PutInt32(v int32) []byte {
	var u [4]byte
	binary.BigEndian.PutUint32(u[:], uint32(v))
	return u[:]
}

func Int32(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, lengthErr(4, len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func PutInt64(v int64) []byte {
	var u [8]byte
	binary.BigEndian.PutUint64(u[:], uint64(v))
	return u[:]
}

func Int64(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, lengthErr(8, len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func PutFloat32(v float32) []byte {
	var u [4]byte
	binary.BigEndian.PutUint32(u[:], math.Float32bits(v))
	return u[:]
}

func Float32(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, lengthErr(4, len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func PutFloat64(v float64) []byte {
	var u [8]byte
	binary.BigEndian.PutUint64(u[:], math.Float64bits(v))
	return u[:]
}

func Float64(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, lengthErr(8, len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// PutBool encodes true as 0xFF and false as 0x00, the store's convention.
func PutBool(v bool) []byte {
	if v {
		return []byte{0xFF}
	}
	return []byte{0x00}
}

// Bool accepts any non-zero byte as true.
func Bool(b []byte) (bool, error) {
	if len(b) != 1 {
		return false, lengthErr(1, len(b))
	}
	return b[0] != 0, nil
}
