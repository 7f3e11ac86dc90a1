package coder

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/horton-works-spark/shc/internal/hbytes"
	"github.com/horton-works-spark/shc/sqltype"
)

// Phoenix implements the columnar SQL layer's order-preserving scalar
// encodings: encoded bytes compare (unsigned, lexicographic) exactly like
// the values they encode, which is what makes range scans over encoded row
// keys work. Integers are big-endian with the sign bit flipped; floats use
// the memcomparable IEEE-754 transform; booleans are 0x00/0x01.
type Phoenix struct {
	typ sqltype.Type
}

const namePhoenix = "phoenix"

func NewPhoenix(t sqltype.Type) (Phoenix, error) {
	switch t.Kind() {
	case sqltype.KindStruct, sqltype.KindArray, sqltype.KindMap, sqltype.KindInvalid:
		return Phoenix{}, &UnsupportedTypeError{Coder: namePhoenix, Type: t}
	}
	return Phoenix{typ: t}, nil
}

func (c Phoenix) Type() sqltype.Type { return c.typ }

func (c Phoenix) FixedWidth() int { return sqltype.Width(c.typ) }

func (c Phoenix) ToBytes(v any) ([]byte, error) {
	switch c.typ.Kind() {
	case sqltype.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, valueErr(namePhoenix, c.typ, v)
		}
		if b {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil
	case sqltype.KindTinyint:
		n, err := asInt64(namePhoenix, c.typ, v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return nil, err
		}
		return flipSign(hbytes.PutInt8(int8(n))), nil
	case sqltype.KindSmallint:
		n, err := asInt64(namePhoenix, c.typ, v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		return flipSign(hbytes.PutInt16(int16(n))), nil
	case sqltype.KindInt:
		n, err := asInt64(namePhoenix, c.typ, v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return flipSign(hbytes.PutInt32(int32(n))), nil
	case sqltype.KindBigint:
		n, err := asInt64(namePhoenix, c.typ, v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return flipSign(hbytes.PutInt64(n)), nil
	case sqltype.KindFloat:
		f, ok := v.(float32)
		if !ok {
			return nil, valueErr(namePhoenix, c.typ, v)
		}
		var u [4]byte
		binary.BigEndian.PutUint32(u[:], encodeFloatBits32(math.Float32bits(f)))
		return u[:], nil
	case sqltype.KindDouble:
		f, ok := v.(float64)
		if !ok {
			return nil, valueErr(namePhoenix, c.typ, v)
		}
		var u [8]byte
		binary.BigEndian.PutUint64(u[:], encodeFloatBits64(math.Float64bits(f)))
		return u[:], nil
	case sqltype.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, valueErr(namePhoenix, c.typ, v)
		}
		return []byte(s), nil
	case sqltype.KindBinary:
		b, ok := v.([]byte)
		if !ok {
			return nil, valueErr(namePhoenix, c.typ, v)
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case sqltype.KindDate, sqltype.KindTimestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return nil, valueErr(namePhoenix, c.typ, v)
		}
		return flipSign(hbytes.PutInt64(ts.UnixMilli())), nil
	}
	return nil, &UnsupportedTypeError{Coder: namePhoenix, Type: c.typ}
}

func (c Phoenix) FromBytes(b []byte) (any, error) {
	switch c.typ.Kind() {
	case sqltype.KindBoolean:
		if len(b) != 1 {
			return nil, hbytesLen(1, b)
		}
		return b[0] != 0, nil
	case sqltype.KindTinyint:
		return decodeSigned(b, 1, func(u []byte) (any, error) { return hbytes.Int8(u) })
	case sqltype.KindSmallint:
		return decodeSigned(b, 2, func(u []byte) (any, error) { return hbytes.Int16(u) })
	case sqltype.KindInt:
		return decodeSigned(b, 4, func(u []byte) (any, error) { return hbytes.Int32(u) })
	case sqltype.KindBigint:
		return decodeSigned(b, 8, func(u []byte) (any, error) { return hbytes.Int64(u) })
	case sqltype.KindFloat:
		if len(b) != 4 {
			return nil, hbytesLen(4, b)
		}
		return math.Float32frombits(decodeFloatBits32(binary.BigEndian.Uint32(b))), nil
	case sqltype.KindDouble:
		if len(b) != 8 {
			return nil, hbytesLen(8, b)
		}
		return math.Float64frombits(decodeFloatBits64(binary.BigEndian.Uint64(b))), nil
	case sqltype.KindString:
		return string(b), nil
	case sqltype.KindBinary:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case sqltype.KindDate, sqltype.KindTimestamp:
		v, err := decodeSigned(b, 8, func(u []byte) (any, error) { return hbytes.Int64(u) })
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(v.(int64)).UTC(), nil
	}
	return nil, &UnsupportedTypeError{Coder: namePhoenix, Type: c.typ}
}

// flipSign inverts the sign bit of a big-endian two's-complement buffer so
// negative values sort below positives byte-wise.
func flipSign(b []byte) []byte {
	b[0] ^= 0x80
	return b
}

func decodeSigned(b []byte, width int, read func([]byte) (any, error)) (any, error) {
	if len(b) != width {
		return nil, hbytesLen(width, b)
	}
	u := make([]byte, width)
	copy(u, b)
	u[0] ^= 0x80
	return read(u)
}

// Memcomparable float transform: non-negative values get the sign bit set,
// negative values have all bits inverted.
func encodeFloatBits32(u uint32) uint32 {
	if u&0x80000000 != 0 {
		return ^u
	}
	return u | 0x80000000
}

func decodeFloatBits32(u uint32) uint32 {
	if u&0x80000000 != 0 {
		return u &^ 0x80000000
	}
	return ^u
}

func encodeFloatBits64(u uint64) uint64 {
	if u&0x8000000000000000 != 0 {
		return ^u
	}
	return u | 0x8000000000000000
}

func decodeFloatBits64(u uint64) uint64 {
	if u&0x8000000000000000 != 0 {
		return u &^ 0x8000000000000000
	}
	return ^u
}

func hbytesLen(want int, b []byte) error {
	return fmt.Errorf("%w: want %d bytes, got %d", hbytes.ErrLength, want, len(b))
}
