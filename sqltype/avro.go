package sqltype

import (
	"fmt"

	"github.com/hamba/avro/v2"
)

// FromAvro maps an Avro schema to the logical type its decoded values carry.
// The second return reports nullability (a two-branch union with "null").
// Unions other than [null, T] and the decimal/duration logical types have no
// logical-type equivalent and fail descriptively.
func FromAvro(s avro.Schema) (Type, bool, error) {
	switch s.Type() {
	case avro.Boolean:
		return Boolean, false, nil
	case avro.Int:
		if isLogical(s, avro.Date) {
			return Date, false, nil
		}
		if hasLogical(s) {
			return nil, false, logicalErr(s)
		}
		return Int, false, nil
	case avro.Long:
		if isLogical(s, avro.TimestampMillis) || isLogical(s, avro.TimestampMicros) {
			return Timestamp, false, nil
		}
		if hasLogical(s) {
			return nil, false, logicalErr(s)
		}
		return Bigint, false, nil
	case avro.Float:
		return Float, false, nil
	case avro.Double:
		return Double, false, nil
	case avro.String:
		return String, false, nil
	case avro.Bytes:
		if hasLogical(s) {
			return nil, false, logicalErr(s)
		}
		return Binary, false, nil
	case avro.Fixed:
		if hasLogical(s) {
			return nil, false, logicalErr(s)
		}
		return Binary, false, nil
	case avro.Enum:
		return String, false, nil
	case avro.Record:
		rec := s.(*avro.RecordSchema)
		fields := make([]StructField, len(rec.Fields()))
		for i, f := range rec.Fields() {
			ft, nullable, err := FromAvro(f.Type())
			if err != nil {
				return nil, false, fmt.Errorf("field %q: %w", f.Name(), err)
			}
			fields[i] = StructField{Name: f.Name(), Type: ft, Nullable: nullable}
		}
		return StructType{Fields: fields}, false, nil
	case avro.Array:
		elem, nullable, err := FromAvro(s.(*avro.ArraySchema).Items())
		if err != nil {
			return nil, false, fmt.Errorf("array items: %w", err)
		}
		return ArrayType{Elem: elem, ContainsNull: nullable}, false, nil
	case avro.Map:
		val, nullable, err := FromAvro(s.(*avro.MapSchema).Values())
		if err != nil {
			return nil, false, fmt.Errorf("map values: %w", err)
		}
		return MapType{Value: val, ContainsNull: nullable}, false, nil
	case avro.Union:
		u := s.(*avro.UnionSchema)
		if !u.Nullable() {
			return nil, false, fmt.Errorf("sqltype: unsupported avro union %s (only [null, T] unions map to a column type)", u)
		}
		for _, b := range u.Types() {
			if b.Type() != avro.Null {
				t, _, err := FromAvro(b)
				return t, true, err
			}
		}
		return nil, false, fmt.Errorf("sqltype: union %s has no non-null branch", u)
	case avro.Ref:
		return FromAvro(s.(*avro.RefSchema).Schema())
	default:
		return nil, false, fmt.Errorf("sqltype: unsupported avro type %q", s.Type())
	}
}

func logicalSchema(s avro.Schema) avro.LogicalSchema {
	ls, ok := s.(avro.LogicalTypeSchema)
	if !ok {
		return nil
	}
	return ls.Logical()
}

func hasLogical(s avro.Schema) bool { return logicalSchema(s) != nil }

func isLogical(s avro.Schema, lt avro.LogicalType) bool {
	l := logicalSchema(s)
	return l != nil && l.Type() == lt
}

func logicalErr(s avro.Schema) error {
	return fmt.Errorf("sqltype: unsupported avro logical type %q", logicalSchema(s).Type())
}
