// Package coder converts single column values to and from their wire bytes.
// Each Coder implements one wire format; the host picks one per column at
// catalog-parse time and reuses it for every row. Coders are independent of
// one another and safe for concurrent use.
package coder

import (
	"fmt"

	"github.com/horton-works-spark/shc/sqltype"
)

// Coder encodes/decodes one column value.
//
// ToBytes accepts the Go representation of the column's logical type
// (bool, int8..int64, float32/float64, string, []byte, time.Time, and
// []any / map[string]any for structural types). FromBytes returns the same
// representation. Buffers passed to FromBytes are only read; returned
// buffers are owned by the caller.
type Coder interface {
	ToBytes(v any) ([]byte, error)
	FromBytes(b []byte) (any, error)

	// FixedWidth returns the wire width in bytes when every encoded value
	// has the same length, or -1 for variable-width formats. Fixed-width
	// coders may be packed into composite row keys by offset.
	FixedWidth() int
}

// UnsupportedTypeError reports a column type a coder cannot encode.
type UnsupportedTypeError struct {
	Coder string
	Type  sqltype.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("coder: %s does not support column type %s", e.Coder, e.Type)
}

func valueErr(coder string, t sqltype.Type, v any) error {
	return fmt.Errorf("coder: %s: cannot encode %T as %s", coder, v, t)
}
