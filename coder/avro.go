package coder

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/hamba/avro/v2"

	"github.com/horton-works-spark/shc/internal/schemareg"
	"github.com/horton-works-spark/shc/sqltype"
)

// Avro encodes column values as schema-driven binary records. The schema is
// parsed once (through the process-wide schema registry) and drives a
// recursive mapping between the SQL value shapes (structs as ordered []any,
// arrays as []any, maps as map[string]any) and the record format's generic
// representation. Nullable fields are [null, T] unions; other unions have no
// SQL equivalent and are rejected at construction.
type Avro struct {
	schema   avro.Schema
	typ      sqltype.Type
	nullable bool
}

const nameAvro = "avro"

func NewAvro(schemaDoc string) (*Avro, error) {
	s, err := schemareg.Parse(schemaDoc)
	if err != nil {
		return nil, err
	}
	t, nullable, err := sqltype.FromAvro(s)
	if err != nil {
		return nil, err
	}
	return &Avro{schema: s, typ: t, nullable: nullable}, nil
}

func (c *Avro) Type() sqltype.Type { return c.typ }
func (c *Avro) Nullable() bool     { return c.nullable }
func (c *Avro) FixedWidth() int    { return -1 }

func (c *Avro) ToBytes(v any) ([]byte, error) {
	native, err := toAvroNative(c.schema, v)
	if err != nil {
		return nil, err
	}
	b, err := avro.Marshal(c.schema, native)
	if err != nil {
		return nil, fmt.Errorf("coder: avro encode: %w", err)
	}
	return b, nil
}

func (c *Avro) FromBytes(b []byte) (any, error) {
	var native any
	if err := avro.Unmarshal(c.schema, b, &native); err != nil {
		return nil, fmt.Errorf("coder: avro decode: %w", err)
	}
	return fromAvroNative(c.schema, native)
}

// fromAvroNative maps the record format's generic decoded value to the SQL
// value shape for schema s. It tolerates the several spellings the decoder
// may produce for unions (nil, bare value, pointer, single-entry map) and
// fixed values (byte slice or byte array).
func fromAvroNative(s avro.Schema, v any) (any, error) {
	switch s.Type() {
	case avro.Ref:
		return fromAvroNative(s.(*avro.RefSchema).Schema(), v)
	case avro.Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, nativeErr(s, v)
		}
		return b, nil
	case avro.Int:
		if ts, ok := v.(time.Time); ok {
			return ts.UTC(), nil
		}
		n, err := asInt64(nameAvro, sqltype.Int, v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case avro.Long:
		if ts, ok := v.(time.Time); ok {
			return ts.UTC(), nil
		}
		n, err := asInt64(nameAvro, sqltype.Bigint, v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case avro.Float:
		f, ok := v.(float32)
		if !ok {
			return nil, nativeErr(s, v)
		}
		return f, nil
	case avro.Double:
		f, ok := v.(float64)
		if !ok {
			return nil, nativeErr(s, v)
		}
		return f, nil
	case avro.String, avro.Enum:
		str, ok := v.(string)
		if !ok {
			return nil, nativeErr(s, v)
		}
		return str, nil
	case avro.Bytes, avro.Fixed:
		return byteSlice(s, v)
	case avro.Record:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, nativeErr(s, v)
		}
		rec := s.(*avro.RecordSchema)
		row := make([]any, len(rec.Fields()))
		for i, f := range rec.Fields() {
			fv, present := m[f.Name()]
			if !present || fv == nil {
				row[i] = nil
				continue
			}
			sv, err := fromAvroNative(f.Type(), fv)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name(), err)
			}
			row[i] = sv
		}
		return row, nil
	case avro.Array:
		items, ok := v.([]any)
		if !ok {
			return nil, nativeErr(s, v)
		}
		elem := s.(*avro.ArraySchema).Items()
		out := make([]any, len(items))
		for i, it := range items {
			if it == nil {
				continue
			}
			sv, err := fromAvroNative(elem, it)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = sv
		}
		return out, nil
	case avro.Map:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, nativeErr(s, v)
		}
		val := s.(*avro.MapSchema).Values()
		out := make(map[string]any, len(m))
		for k, mv := range m {
			if mv == nil {
				out[k] = nil
				continue
			}
			sv, err := fromAvroNative(val, mv)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			out[k] = sv
		}
		return out, nil
	case avro.Union:
		if v == nil {
			return nil, nil
		}
		branch := nonNullBranch(s.(*avro.UnionSchema))
		if branch == nil {
			return nil, nativeErr(s, v)
		}
		// single-entry map spelling, keyed by the branch type name
		if m, ok := v.(map[string]any); ok && len(m) == 1 {
			if inner, ok := m[unionKey(branch)]; ok {
				return fromAvroNative(branch, inner)
			}
		}
		// pointer spelling
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, nil
			}
			return fromAvroNative(branch, rv.Elem().Interface())
		}
		return fromAvroNative(branch, v)
	default:
		return nil, nativeErr(s, v)
	}
}

// toAvroNative maps a SQL value to the generic shape the record encoder
// accepts for schema s.
func toAvroNative(s avro.Schema, v any) (any, error) {
	switch s.Type() {
	case avro.Ref:
		return toAvroNative(s.(*avro.RefSchema).Schema(), v)
	case avro.Boolean:
		if _, ok := v.(bool); !ok {
			return nil, nativeErr(s, v)
		}
		return v, nil
	case avro.Int:
		if isLogicalSchema(s, avro.Date) {
			ts, ok := v.(time.Time)
			if !ok {
				return nil, nativeErr(s, v)
			}
			return ts, nil
		}
		n, err := asInt64(nameAvro, sqltype.Int, v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case avro.Long:
		if isLogicalSchema(s, avro.TimestampMillis) || isLogicalSchema(s, avro.TimestampMicros) {
			ts, ok := v.(time.Time)
			if !ok {
				return nil, nativeErr(s, v)
			}
			return ts, nil
		}
		n, err := asInt64(nameAvro, sqltype.Bigint, v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case avro.Float:
		if _, ok := v.(float32); !ok {
			return nil, nativeErr(s, v)
		}
		return v, nil
	case avro.Double:
		if _, ok := v.(float64); !ok {
			return nil, nativeErr(s, v)
		}
		return v, nil
	case avro.String, avro.Enum:
		if _, ok := v.(string); !ok {
			return nil, nativeErr(s, v)
		}
		return v, nil
	case avro.Bytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, nativeErr(s, v)
		}
		return b, nil
	case avro.Fixed:
		b, ok := v.([]byte)
		if !ok {
			return nil, nativeErr(s, v)
		}
		fixed := s.(*avro.FixedSchema)
		if len(b) != fixed.Size() {
			return nil, fmt.Errorf("coder: avro fixed %q needs %d bytes, got %d", fixed.Name(), fixed.Size(), len(b))
		}
		arr := reflect.New(reflect.ArrayOf(fixed.Size(), reflect.TypeOf(byte(0)))).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case avro.Record:
		row, ok := v.([]any)
		if !ok {
			return nil, nativeErr(s, v)
		}
		rec := s.(*avro.RecordSchema)
		if len(row) != len(rec.Fields()) {
			return nil, fmt.Errorf("coder: avro record %q has %d fields, value has %d", rec.Name(), len(rec.Fields()), len(row))
		}
		m := make(map[string]any, len(row))
		for i, f := range rec.Fields() {
			fv, err := toAvroNative(f.Type(), row[i])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name(), err)
			}
			m[f.Name()] = fv
		}
		return m, nil
	case avro.Array:
		items, ok := v.([]any)
		if !ok {
			return nil, nativeErr(s, v)
		}
		elem := s.(*avro.ArraySchema).Items()
		out := make([]any, len(items))
		for i, it := range items {
			nv, err := toAvroNative(elem, it)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	case avro.Map:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, nativeErr(s, v)
		}
		val := s.(*avro.MapSchema).Values()
		out := make(map[string]any, len(m))
		for k, mv := range m {
			nv, err := toAvroNative(val, mv)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			out[k] = nv
		}
		return out, nil
	case avro.Union:
		if v == nil {
			return nil, nil
		}
		branch := nonNullBranch(s.(*avro.UnionSchema))
		if branch == nil {
			return nil, nativeErr(s, v)
		}
		native, err := toAvroNative(branch, v)
		if err != nil {
			return nil, err
		}
		// nullable unions encode from a typed pointer
		ptr := reflect.New(reflect.TypeOf(native))
		ptr.Elem().Set(reflect.ValueOf(native))
		return ptr.Interface(), nil
	default:
		return nil, nativeErr(s, v)
	}
}

// unionKey is the name a generic decoder keys a union branch by: the full
// name for named types, the plain type name otherwise.
func unionKey(s avro.Schema) string {
	if n, ok := s.(avro.NamedSchema); ok {
		return n.FullName()
	}
	return string(s.Type())
}

// nonNullBranch returns the single non-null branch of a nullable union.
func nonNullBranch(u *avro.UnionSchema) avro.Schema {
	if !u.Nullable() {
		return nil
	}
	for _, b := range u.Types() {
		if b.Type() != avro.Null {
			return b
		}
	}
	return nil
}

// byteSlice normalizes bytes/fixed decoder output to []byte.
func byteSlice(s avro.Schema, v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}
	return nil, nativeErr(s, v)
}

func isLogicalSchema(s avro.Schema, lt avro.LogicalType) bool {
	ls, ok := s.(avro.LogicalTypeSchema)
	if !ok {
		return false
	}
	l := ls.Logical()
	return l != nil && l.Type() == lt
}

func nativeErr(s avro.Schema, v any) error {
	return fmt.Errorf("coder: avro: value %T does not match schema type %q", v, s.Type())
}
