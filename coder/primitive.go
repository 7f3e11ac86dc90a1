package coder

import (
	"fmt"
	"math"
	"time"

	"github.com/horton-works-spark/shc/internal/hbytes"
	"github.com/horton-works-spark/shc/sqltype"
)

// Primitive is the store-native scalar coder: big-endian two's-complement
// integers, IEEE-754 bit patterns, single-byte booleans (0xFF/0x00), UTF-8
// strings and raw binary. Date and Timestamp travel as epoch milliseconds.
// It matches the byte utilities of the store's own client, so cells written
// by other tooling decode without translation.
type Primitive struct {
	typ sqltype.Type
}

const namePrimitive = "primitive"

// NewPrimitive builds a scalar coder for t. Structural types have no
// store-native encoding and are rejected.
func NewPrimitive(t sqltype.Type) (Primitive, error) {
	switch t.Kind() {
	case sqltype.KindStruct, sqltype.KindArray, sqltype.KindMap, sqltype.KindInvalid:
		return Primitive{}, &UnsupportedTypeError{Coder: namePrimitive, Type: t}
	}
	return Primitive{typ: t}, nil
}

func (c Primitive) Type() sqltype.Type { return c.typ }

func (c Primitive) FixedWidth() int { return sqltype.Width(c.typ) }

func (c Primitive) ToBytes(v any) ([]byte, error) {
	switch c.typ.Kind() {
	case sqltype.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, valueErr(namePrimitive, c.typ, v)
		}
		return hbytes.PutBool(b), nil
	case sqltype.KindTinyint:
		n, err := asInt64(namePrimitive, c.typ, v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return nil, err
		}
		return hbytes.PutInt8(int8(n)), nil
	case sqltype.KindSmallint:
		n, err := asInt64(namePrimitive, c.typ, v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		return hbytes.PutInt16(int16(n)), nil
	case sqltype.KindInt:
		n, err := asInt64(namePrimitive, c.typ, v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return hbytes.PutInt32(int32(n)), nil
	case sqltype.KindBigint:
		n, err := asInt64(namePrimitive, c.typ, v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return hbytes.PutInt64(n), nil
	case sqltype.KindFloat:
		f, ok := v.(float32)
		if !ok {
			return nil, valueErr(namePrimitive, c.typ, v)
		}
		return hbytes.PutFloat32(f), nil
	case sqltype.KindDouble:
		f, ok := v.(float64)
		if !ok {
			return nil, valueErr(namePrimitive, c.typ, v)
		}
		return hbytes.PutFloat64(f), nil
	case sqltype.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, valueErr(namePrimitive, c.typ, v)
		}
		return []byte(s), nil
	case sqltype.KindBinary:
		b, ok := v.([]byte)
		if !ok {
			return nil, valueErr(namePrimitive, c.typ, v)
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case sqltype.KindDate, sqltype.KindTimestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return nil, valueErr(namePrimitive, c.typ, v)
		}
		return hbytes.PutInt64(ts.UnixMilli()), nil
	}
	return nil, &UnsupportedTypeError{Coder: namePrimitive, Type: c.typ}
}

func (c Primitive) FromBytes(b []byte) (any, error) {
	switch c.typ.Kind() {
	case sqltype.KindBoolean:
		return hbytes.Bool(b)
	case sqltype.KindTinyint:
		return hbytes.Int8(b)
	case sqltype.KindSmallint:
		return hbytes.Int16(b)
	case sqltype.KindInt:
		return hbytes.Int32(b)
	case sqltype.KindBigint:
		return hbytes.Int64(b)
	case sqltype.KindFloat:
		return hbytes.Float32(b)
	case sqltype.KindDouble:
		return hbytes.Float64(b)
	case sqltype.KindString:
		return string(b), nil
	case sqltype.KindBinary:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case sqltype.KindDate, sqltype.KindTimestamp:
		ms, err := hbytes.Int64(b)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	return nil, &UnsupportedTypeError{Coder: namePrimitive, Type: c.typ}
}

// asInt64 widens any Go integer value to int64 and range-checks it against
// the target column width.
func asInt64(coder string, t sqltype.Type, v any, min, max int64) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case int:
		n = int64(x)
	default:
		return 0, valueErr(coder, t, v)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("coder: %s: value %d out of range for %s", coder, n, t)
	}
	return n, nil
}
