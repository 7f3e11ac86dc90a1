package coder

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horton-works-spark/shc/sqltype"
)

func mustPhoenix(t *testing.T, typ sqltype.Type) Phoenix {
	t.Helper()
	c, err := NewPhoenix(typ)
	require.NoError(t, err)
	return c
}

func TestPhoenixKnownVectors(t *testing.T) {
	cases := []struct {
		name string
		typ  sqltype.Type
		v    any
		want []byte
	}{
		{"int 0", sqltype.Int, int32(0), []byte{0x80, 0x00, 0x00, 0x00}},
		{"int 1", sqltype.Int, int32(1), []byte{0x80, 0x00, 0x00, 0x01}},
		{"int -1", sqltype.Int, int32(-1), []byte{0x7F, 0xFF, 0xFF, 0xFF}},
		{"int min", sqltype.Int, int32(math.MinInt32), []byte{0x00, 0x00, 0x00, 0x00}},
		{"int max", sqltype.Int, int32(math.MaxInt32), []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"bigint 0", sqltype.Bigint, int64(0), []byte{0x80, 0, 0, 0, 0, 0, 0, 0}},
		{"bool true", sqltype.Boolean, true, []byte{0x01}},
		{"bool false", sqltype.Boolean, false, []byte{0x00}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := mustPhoenix(t, tc.typ)
			enc, err := c.ToBytes(tc.v)
			require.NoError(t, err)
			assert.Equal(t, tc.want, enc)

			dec, err := c.FromBytes(enc)
			require.NoError(t, err)
			assert.Equal(t, tc.v, dec)
		})
	}
}

func TestPhoenixRoundTrip(t *testing.T) {
	c := mustPhoenix(t, sqltype.Double)
	for _, v := range []float64{0, -0.0, 1.5, -1.5, math.MaxFloat64, -math.MaxFloat64} {
		enc, err := c.ToBytes(v)
		require.NoError(t, err)
		dec, err := c.FromBytes(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec, "value %v", v)
	}

	ts := mustPhoenix(t, sqltype.Timestamp)
	now := time.Date(2023, 11, 2, 8, 0, 0, 0, time.UTC)
	enc, err := ts.ToBytes(now)
	require.NoError(t, err)
	dec, err := ts.FromBytes(enc)
	require.NoError(t, err)
	assert.Equal(t, now, dec)
}

// Encoded bytes must compare like the values they encode; that is the whole
// point of this format.
func TestPhoenixPreservesOrder(t *testing.T) {
	t.Run("int32", func(t *testing.T) {
		c := mustPhoenix(t, sqltype.Int)
		vals := []int32{math.MinInt32, -100000, -1, 0, 1, 42, 100000, math.MaxInt32}
		assertOrdered(t, c, toAnySlice(vals))
	})
	t.Run("int64", func(t *testing.T) {
		c := mustPhoenix(t, sqltype.Bigint)
		vals := []int64{math.MinInt64, -1 << 40, -2, 0, 3, 1 << 40, math.MaxInt64}
		assertOrdered(t, c, toAnySlice(vals))
	})
	t.Run("float64", func(t *testing.T) {
		c := mustPhoenix(t, sqltype.Double)
		vals := []float64{math.Inf(-1), -math.MaxFloat64, -1.5, -math.SmallestNonzeroFloat64, 0, 2.25, math.MaxFloat64, math.Inf(1)}
		assertOrdered(t, c, toAnySlice(vals))
	})
	t.Run("float32", func(t *testing.T) {
		c := mustPhoenix(t, sqltype.Float)
		vals := []float32{-math.MaxFloat32, -2.5, 0, 0.5, math.MaxFloat32}
		assertOrdered(t, c, toAnySlice(vals))
	})
	t.Run("smallint", func(t *testing.T) {
		c := mustPhoenix(t, sqltype.Smallint)
		vals := []int16{math.MinInt16, -7, 0, 7, math.MaxInt16}
		assertOrdered(t, c, toAnySlice(vals))
	})
}

// assertOrdered encodes the ascending vals and checks the byte order agrees.
func assertOrdered(t *testing.T, c Coder, vals []any) {
	t.Helper()
	var prev []byte
	for i, v := range vals {
		enc, err := c.ToBytes(v)
		require.NoError(t, err)
		if i > 0 {
			require.Negative(t, bytes.Compare(prev, enc),
				"encoding of %v must sort below %v", vals[i-1], v)
		}
		prev = enc
	}
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func TestPhoenixRejectsStructuralTypes(t *testing.T) {
	_, err := NewPhoenix(sqltype.ArrayType{Elem: sqltype.Int})
	var ute *UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "phoenix", ute.Coder)
}

func TestPhoenixWrongLengthRejected(t *testing.T) {
	c := mustPhoenix(t, sqltype.Int)
	_, err := c.FromBytes([]byte{0x80, 0x00})
	require.Error(t, err)
}
