package coder

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// CBOR serializes values that have no store-native encoding (struct, array
// and map columns without a record schema). Encoding is deterministic
// (RFC 8949 Core Deterministic) so equal values always produce equal cell
// bytes, and times travel as RFC3339Nano.
//
// The zero value is NOT ready to use. Construct with NewCBOR.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBOR() (CBOR, error) {
	eo := cbor.CoreDetEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

func (c CBOR) FixedWidth() int { return -1 }

func (c CBOR) ToBytes(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR) FromBytes(b []byte) (any, error) {
	var v any
	err := c.dec.Unmarshal(b, &v)
	return v, err
}

// Msgpack is the compact alternative serialized-column coder.
// The zero value is ready to use.
type Msgpack struct{}

func (Msgpack) FixedWidth() int { return -1 }

func (Msgpack) ToBytes(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (Msgpack) FromBytes(b []byte) (any, error) {
	var v any
	err := msgpack.Unmarshal(b, &v)
	return v, err
}

// Limit wraps another coder to cap the accepted cell size at decode time.
// ToBytes is forwarded to Inner unchanged. If MaxDecode <= 0 the cap is
// disabled. Use it in front of serialized-column coders when reading tables
// other writers share.
type Limit struct {
	Inner     Coder
	MaxDecode int
}

func (c Limit) FixedWidth() int { return c.Inner.FixedWidth() }

func (c Limit) ToBytes(v any) ([]byte, error) { return c.Inner.ToBytes(v) }

func (c Limit) FromBytes(b []byte) (any, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return nil, fmt.Errorf("coder: cell too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.FromBytes(b)
}
