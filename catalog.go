package shc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/horton-works-spark/shc/internal/schemareg"
	"github.com/horton-works-spark/shc/sqltype"
)

// Coder tags accepted in catalogs. A column picks its wire format with the
// "coder" entry; columns carrying a record schema always use CoderAvro.
const (
	CoderPrimitive = "primitive"
	CoderPhoenix   = "phoenix"
	CoderAvro      = "avro"
	CoderCBOR      = "cbor"
	CoderMsgpack   = "msgpack"
	CoderProtobuf  = "protobuf"
)

var knownCoders = map[string]bool{
	CoderPrimitive: true,
	CoderPhoenix:   true,
	CoderAvro:      true,
	CoderCBOR:      true,
	CoderMsgpack:   true,
	CoderProtobuf:  true,
}

// RowKeyFamily is the reserved column family marking row-key columns.
const RowKeyFamily = "rowkey"

// Field describes one SQL column and where its bytes live in the store.
// Fields are immutable once the catalog is parsed.
type Field struct {
	Name      string       // SQL column name
	Family    string       // column family; RowKeyFamily for key columns
	Qualifier string       // column qualifier, or key name for key columns
	Type      sqltype.Type // logical type
	Coder     string       // resolved coder tag
	Avro      string       // record schema document, "" when none

	// Composite row-key placement. KeyIndex and Start are -1 for non-key
	// columns. Len is the fixed segment width in bytes, -1 when the
	// segment is variable-width (only legal in the last key position).
	KeyIndex int
	Start    int
	Len      int
}

func (f *Field) IsRowKey() bool { return f.KeyIndex >= 0 }

// Catalog is the parsed table mapping: every SQL column, in catalog order,
// plus the composite row-key layout.
type Catalog struct {
	Namespace string
	Name      string
	Fields    []*Field // catalog document order
	Keys      []*Field // row-key order

	byName map[string]*Field
}

// Field returns the column named name.
func (c *Catalog) Field(name string) (*Field, bool) {
	f, ok := c.byName[name]
	return f, ok
}

type tableDoc struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Coder     string `json:"tableCoder"`
}

type columnDoc struct {
	CF     string `json:"cf"`
	Col    string `json:"col"`
	Type   string `json:"type"`
	Avro   string `json:"avro"`
	Coder  string `json:"coder"`
	Length int    `json:"length"`
}

type catalogDoc struct {
	Table   tableDoc        `json:"table"`
	RowKey  string          `json:"rowkey"`
	Columns json.RawMessage `json:"columns"`
}

// ParseCatalog parses the JSON table catalog the host engine passes as an
// option. schemas resolves named record schemas referenced by "avro"
// entries; an entry whose value itself is a JSON document is used inline.
//
// Column order in the document is preserved: it defines the row shape used
// by RowConverter.EncodeRow/DecodeRow.
func ParseCatalog(doc string, schemas map[string]string) (*Catalog, error) {
	var cd catalogDoc
	if err := json.Unmarshal([]byte(doc), &cd); err != nil {
		return nil, &CatalogError{Reason: "malformed catalog document", Err: err}
	}
	table := cd.Table.Name
	if table == "" {
		return nil, &CatalogError{Reason: "table name is required"}
	}
	if len(cd.Columns) == 0 {
		return nil, &CatalogError{Table: table, Reason: "columns are required"}
	}
	if strings.TrimSpace(cd.RowKey) == "" {
		return nil, &CatalogError{Table: table, Reason: "rowkey is required"}
	}

	defaultCoder := cd.Table.Coder
	if defaultCoder == "" {
		defaultCoder = CoderPrimitive
	}
	if !knownCoders[defaultCoder] {
		return nil, &CatalogError{Table: table, Reason: fmt.Sprintf("unknown table coder %q", defaultCoder)}
	}

	names, cols, err := parseColumns(cd.Columns)
	if err != nil {
		return nil, &CatalogError{Table: table, Reason: "malformed columns", Err: err}
	}

	cat := &Catalog{
		Namespace: cd.Table.Namespace,
		Name:      table,
		byName:    make(map[string]*Field, len(names)),
	}
	seen := make(map[string]string, len(names)) // cf:col -> column name
	for _, name := range names {
		col := cols[name]
		f, err := parseField(table, name, col, defaultCoder, schemas)
		if err != nil {
			return nil, err
		}
		loc := f.Family + ":" + f.Qualifier
		if prev, dup := seen[loc]; dup {
			return nil, &CatalogError{Table: table, Column: name,
				Reason: fmt.Sprintf("cell %s already mapped by column %q", loc, prev)}
		}
		seen[loc] = name
		if col.Length > 0 {
			if f.Len > 0 && f.Len != col.Length {
				return nil, &CatalogError{Table: table, Column: name,
					Reason: fmt.Sprintf("declared length %d conflicts with %s width %d", col.Length, f.Type, f.Len)}
			}
			f.Len = col.Length
		}
		cat.Fields = append(cat.Fields, f)
		cat.byName[name] = f
	}

	if err := resolveRowKey(cat, cd.RowKey); err != nil {
		return nil, err
	}
	return cat, nil
}

func parseField(table, name string, col columnDoc, defaultCoder string, schemas map[string]string) (*Field, error) {
	if col.CF == "" || col.Col == "" {
		return nil, &CatalogError{Table: table, Column: name, Reason: "cf and col are required"}
	}

	f := &Field{
		Name:      name,
		Family:    col.CF,
		Qualifier: col.Col,
		KeyIndex:  -1,
		Start:     -1,
		Len:       -1,
	}

	if col.Avro != "" {
		schemaDoc, ok := schemas[col.Avro]
		if !ok {
			if looksLikeSchema(col.Avro) {
				schemaDoc = col.Avro
			} else {
				return nil, &CatalogError{Table: table, Column: name,
					Reason: fmt.Sprintf("record schema %q is not registered", col.Avro)}
			}
		}
		if col.Coder != "" && col.Coder != CoderAvro {
			return nil, &CatalogError{Table: table, Column: name,
				Reason: fmt.Sprintf("column with a record schema cannot use coder %q", col.Coder)}
		}
		s, err := schemareg.Parse(schemaDoc)
		if err != nil {
			return nil, &CatalogError{Table: table, Column: name, Reason: "invalid record schema", Err: err}
		}
		t, _, err := sqltype.FromAvro(s)
		if err != nil {
			return nil, &CatalogError{Table: table, Column: name, Reason: "unsupported record schema", Err: err}
		}
		f.Type = t
		f.Coder = CoderAvro
		f.Avro = schemaDoc
		return f, nil
	}

	if col.Type == "" {
		return nil, &CatalogError{Table: table, Column: name, Reason: "either type or avro is required"}
	}
	t, err := sqltype.Parse(col.Type)
	if err != nil {
		return nil, &CatalogError{Table: table, Column: name, Reason: "unknown type", Err: err}
	}
	f.Type = t

	f.Coder = col.Coder
	if f.Coder == "" {
		f.Coder = defaultCoder
	}
	if !knownCoders[f.Coder] {
		return nil, &CatalogError{Table: table, Column: name,
			Reason: fmt.Sprintf("unknown coder %q", f.Coder)}
	}
	if f.Coder == CoderAvro {
		return nil, &CatalogError{Table: table, Column: name, Reason: "avro coder needs a record schema"}
	}
	f.Len = coderWidth(f.Coder, t)
	return f, nil
}

// resolveRowKey binds the colon-separated key list to fields and lays the
// segments out by byte offset. Every segment before the last must be
// fixed-width so the key slices deterministically.
func resolveRowKey(cat *Catalog, rowkey string) error {
	parts := strings.Split(rowkey, ":")
	start := 0
	for i, keyName := range parts {
		f := findKeyField(cat, keyName)
		if f == nil {
			return &CatalogError{Table: cat.Name,
				Reason: fmt.Sprintf("rowkey part %q has no column with cf %q", keyName, RowKeyFamily)}
		}
		if f.KeyIndex >= 0 {
			return &CatalogError{Table: cat.Name, Column: f.Name,
				Reason: fmt.Sprintf("rowkey part %q listed twice", keyName)}
		}
		if f.Len < 0 && i != len(parts)-1 {
			return &CatalogError{Table: cat.Name, Column: f.Name,
				Reason: "variable-width key column must be the last rowkey part"}
		}
		f.KeyIndex = i
		f.Start = start
		if f.Len > 0 {
			start += f.Len
		}
		cat.Keys = append(cat.Keys, f)
	}
	for _, f := range cat.Fields {
		if f.Family == RowKeyFamily && f.KeyIndex < 0 {
			return &CatalogError{Table: cat.Name, Column: f.Name,
				Reason: "column uses the rowkey family but is not part of the rowkey"}
		}
	}
	return nil
}

func findKeyField(cat *Catalog, keyName string) *Field {
	for _, f := range cat.Fields {
		if f.Family == RowKeyFamily && f.Qualifier == keyName {
			return f
		}
	}
	return nil
}

// coderWidth reports the fixed wire width a coder produces for t, -1 when
// variable. Only the scalar coders are fixed-width.
func coderWidth(coderTag string, t sqltype.Type) int {
	switch coderTag {
	case CoderPrimitive, CoderPhoenix:
		return sqltype.Width(t)
	default:
		return -1
	}
}

func looksLikeSchema(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`)
}

// parseColumns decodes the columns object preserving document order, which
// encoding/json drops for maps.
func parseColumns(raw json.RawMessage) ([]string, map[string]columnDoc, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("columns must be an object")
	}

	var names []string
	cols := make(map[string]columnDoc)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var col columnDoc
		if err := dec.Decode(&col); err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", name, err)
		}
		if _, dup := cols[name]; dup {
			return nil, nil, fmt.Errorf("column %q defined twice", name)
		}
		names = append(names, name)
		cols[name] = col
	}
	return names, cols, nil
}
