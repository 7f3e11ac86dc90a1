// Package sqltype defines the logical column type system shared by all
// coders: primitive SQL types plus structural Struct/Array/Map shapes for
// nested record columns. Types are immutable; build them once per catalog
// and reuse them for every row.
package sqltype

import (
	"fmt"
	"strings"
)

// Kind tags a logical type. Primitive kinds map 1:1 to a wire width; the
// structural kinds (Struct, Array, Map) are variable-width by definition.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBoolean
	KindTinyint
	KindSmallint
	KindInt
	KindBigint
	KindFloat
	KindDouble
	KindString
	KindBinary
	KindDate
	KindTimestamp
	KindStruct
	KindArray
	KindMap
)

var kindNames = map[Kind]string{
	KindBoolean:   "boolean",
	KindTinyint:   "tinyint",
	KindSmallint:  "smallint",
	KindInt:       "int",
	KindBigint:    "bigint",
	KindFloat:     "float",
	KindDouble:    "double",
	KindString:    "string",
	KindBinary:    "binary",
	KindDate:      "date",
	KindTimestamp: "timestamp",
	KindStruct:    "struct",
	KindArray:     "array",
	KindMap:       "map",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Type is a logical column type. Primitives are package-level singletons;
// structural types carry their element types.
type Type interface {
	Kind() Kind
	String() string
}

type primitive Kind

func (p primitive) Kind() Kind     { return Kind(p) }
func (p primitive) String() string { return Kind(p).String() }

var (
	Boolean   Type = primitive(KindBoolean)
	Tinyint   Type = primitive(KindTinyint)
	Smallint  Type = primitive(KindSmallint)
	Int       Type = primitive(KindInt)
	Bigint    Type = primitive(KindBigint)
	Float     Type = primitive(KindFloat)
	Double    Type = primitive(KindDouble)
	String    Type = primitive(KindString)
	Binary    Type = primitive(KindBinary)
	Date      Type = primitive(KindDate)
	Timestamp Type = primitive(KindTimestamp)
)

// StructField is one named member of a StructType. Struct values are
// represented as []any ordered exactly like Fields.
type StructField struct {
	Name     string
	Type     Type
	Nullable bool
}

type StructType struct {
	Fields []StructField
}

func (StructType) Kind() Kind { return KindStruct }
func (t StructType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + ":" + f.Type.String()
	}
	return "struct<" + strings.Join(parts, ",") + ">"
}

// Field returns the index of the named member, or -1.
func (t StructType) Field(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

type ArrayType struct {
	Elem         Type
	ContainsNull bool
}

func (ArrayType) Kind() Kind       { return KindArray }
func (t ArrayType) String() string { return "array<" + t.Elem.String() + ">" }

// MapType maps string keys to values; the wide-column formats we speak have
// no non-string key encoding.
type MapType struct {
	Value        Type
	ContainsNull bool
}

func (MapType) Kind() Kind       { return KindMap }
func (t MapType) String() string { return "map<string," + t.Value.String() + ">" }

// aliases accepted by Parse in addition to the canonical names.
var parseAliases = map[string]Kind{
	"bool":      KindBoolean,
	"byte":      KindTinyint,
	"short":     KindSmallint,
	"integer":   KindInt,
	"long":      KindBigint,
	"varchar":   KindString,
	"bytes":     KindBinary,
	"bytearray": KindBinary,
}

// Parse resolves a catalog type name to a logical type. The structural names
// "struct", "array" and "map" parse to opaque shapes whose element types are
// unknown; only the serialized coders accept those. Fully-typed structural
// shapes arise from record schemas, never from catalog names.
func Parse(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "struct":
		return StructType{}, nil
	case "array":
		return ArrayType{Elem: Binary}, nil
	case "map":
		return MapType{Value: Binary}, nil
	}
	for k, kn := range kindNames {
		if kn == n && k < KindStruct {
			return primitive(k), nil
		}
	}
	if k, ok := parseAliases[n]; ok {
		return primitive(k), nil
	}
	return nil, fmt.Errorf("sqltype: unknown type name %q", name)
}

// Width returns the fixed wire width in bytes of t under the scalar
// encodings, or -1 when the encoding is variable-width.
func Width(t Type) int {
	switch t.Kind() {
	case KindBoolean, KindTinyint:
		return 1
	case KindSmallint:
		return 2
	case KindInt, KindFloat:
		return 4
	case KindBigint, KindDouble, KindDate, KindTimestamp:
		return 8
	default:
		return -1
	}
}
