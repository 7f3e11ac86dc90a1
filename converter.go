package shc

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/horton-works-spark/shc/coder"
)

// Cell is one column value on the wire: which family/qualifier it lives
// under and its encoded bytes.
type Cell struct {
	Family    string
	Qualifier string
	Value     []byte
}

// CellKey is the map key used for decoded cell lookups: "family:qualifier".
func CellKey(family, qualifier string) string { return family + ":" + qualifier }

// Options tune a RowConverter. Everything is optional.
type Options struct {
	Logger Logger // nil => NopLogger

	// ProtoMessages registers a message constructor per protobuf-coded
	// column, keyed by SQL column name. Required for CoderProtobuf columns.
	ProtoMessages map[string]func() proto.Message

	// MaxCellBytes caps the accepted cell size when decoding through
	// variable-width coders. 0 disables the cap.
	MaxCellBytes int
}

// RowConverter turns SQL rows into store cells and back for one table. The
// per-column coders are built once from the catalog and reused for every
// row; a converter is immutable and safe for concurrent use.
//
// Rows are []any aligned with Catalog.Fields. NULL is nil: an absent cell
// decodes to nil, and a nil value encodes to no cell at all.
type RowConverter struct {
	cat    *Catalog
	coders []coder.Coder // aligned with cat.Fields
	index  map[string]int
	log    Logger
}

func NewRowConverter(cat *Catalog, opts Options) (*RowConverter, error) {
	if cat == nil {
		return nil, fmt.Errorf("shc: catalog is required")
	}
	log := coalesce[Logger](opts.Logger, NopLogger{})

	rc := &RowConverter{
		cat:    cat,
		coders: make([]coder.Coder, len(cat.Fields)),
		index:  make(map[string]int, len(cat.Fields)),
		log:    log,
	}
	for i, f := range cat.Fields {
		c, err := newCoder(cat, f, opts)
		if err != nil {
			return nil, err
		}
		rc.coders[i] = c
		rc.index[f.Name] = i
	}

	log.Debug("row converter ready", Fields{
		"table":   cat.Name,
		"columns": len(cat.Fields),
		"keys":    len(cat.Keys),
	})
	return rc, nil
}

func (rc *RowConverter) Catalog() *Catalog { return rc.cat }

// newCoder is the dispatch the whole package exists for: one coder per
// column, picked by its resolved coder tag.
func newCoder(cat *Catalog, f *Field, opts Options) (coder.Coder, error) {
	var (
		c   coder.Coder
		err error
	)
	switch f.Coder {
	case CoderPrimitive:
		c, err = coder.NewPrimitive(f.Type)
	case CoderPhoenix:
		c, err = coder.NewPhoenix(f.Type)
	case CoderAvro:
		c, err = coder.NewAvro(f.Avro)
	case CoderCBOR:
		c, err = coder.NewCBOR()
	case CoderMsgpack:
		c = coder.Msgpack{}
	case CoderProtobuf:
		ctor := opts.ProtoMessages[f.Name]
		if ctor == nil {
			return nil, &CatalogError{Table: cat.Name, Column: f.Name,
				Reason: "no protobuf message registered for column"}
		}
		c, err = coder.NewProtobuf(ctor)
	default:
		err = fmt.Errorf("unknown coder %q", f.Coder)
	}
	if err != nil {
		return nil, &CatalogError{Table: cat.Name, Column: f.Name, Reason: "cannot build coder", Err: err}
	}
	if opts.MaxCellBytes > 0 && c.FixedWidth() < 0 {
		c = coder.Limit{Inner: c, MaxDecode: opts.MaxCellBytes}
	}
	return c, nil
}

// EncodeCell encodes one column value.
func (rc *RowConverter) EncodeCell(column string, v any) (Cell, error) {
	i, ok := rc.index[column]
	if !ok {
		return Cell{}, fmt.Errorf("shc: unknown column %q", column)
	}
	b, err := rc.coders[i].ToBytes(v)
	if err != nil {
		return Cell{}, &ConvertError{Column: column, Op: "encode", Err: err}
	}
	f := rc.cat.Fields[i]
	return Cell{Family: f.Family, Qualifier: f.Qualifier, Value: b}, nil
}

// DecodeCell decodes one column's cell bytes.
func (rc *RowConverter) DecodeCell(column string, b []byte) (any, error) {
	i, ok := rc.index[column]
	if !ok {
		return nil, fmt.Errorf("shc: unknown column %q", column)
	}
	v, err := rc.coders[i].FromBytes(b)
	if err != nil {
		return nil, &ConvertError{Column: column, Op: "decode", Err: err}
	}
	return v, nil
}

// EncodeRowKey builds the composite row key from a full row. Key values may
// not be nil, and fixed-width segments must encode to their declared width.
func (rc *RowConverter) EncodeRowKey(row []any) ([]byte, error) {
	if len(row) != len(rc.cat.Fields) {
		return nil, rc.rowShapeErr(len(row))
	}
	var key []byte
	for _, f := range rc.cat.Keys {
		i := rc.index[f.Name]
		v := row[i]
		if v == nil {
			return nil, &ConvertError{Column: f.Name, Op: "encode",
				Err: fmt.Errorf("rowkey column cannot be NULL")}
		}
		b, err := rc.coders[i].ToBytes(v)
		if err != nil {
			return nil, &ConvertError{Column: f.Name, Op: "encode", Err: err}
		}
		if f.Len >= 0 && len(b) != f.Len {
			return nil, &ConvertError{Column: f.Name, Op: "encode",
				Err: fmt.Errorf("rowkey segment is %d bytes, declared %d", len(b), f.Len)}
		}
		key = append(key, b...)
	}
	return key, nil
}

// DecodeRowKey splits a composite row key by the catalog's offsets and
// decodes each segment. Values come back in row-key order (Catalog.Keys).
func (rc *RowConverter) DecodeRowKey(key []byte) ([]any, error) {
	out := make([]any, len(rc.cat.Keys))
	for ki, f := range rc.cat.Keys {
		seg, err := keySegment(key, f)
		if err != nil {
			return nil, &ConvertError{Column: f.Name, Op: "decode", Err: err}
		}
		v, err := rc.coders[rc.index[f.Name]].FromBytes(seg)
		if err != nil {
			return nil, &ConvertError{Column: f.Name, Op: "decode", Err: err}
		}
		out[ki] = v
	}
	return out, nil
}

// EncodeRow converts a full row into a row key plus one cell per non-NULL,
// non-key column.
func (rc *RowConverter) EncodeRow(row []any) ([]byte, []Cell, error) {
	if len(row) != len(rc.cat.Fields) {
		return nil, nil, rc.rowShapeErr(len(row))
	}
	key, err := rc.EncodeRowKey(row)
	if err != nil {
		return nil, nil, err
	}
	cells := make([]Cell, 0, len(rc.cat.Fields)-len(rc.cat.Keys))
	for i, f := range rc.cat.Fields {
		if f.IsRowKey() || row[i] == nil {
			continue
		}
		b, err := rc.coders[i].ToBytes(row[i])
		if err != nil {
			return nil, nil, &ConvertError{Column: f.Name, Op: "encode", Err: err}
		}
		cells = append(cells, Cell{Family: f.Family, Qualifier: f.Qualifier, Value: b})
	}
	return key, cells, nil
}

// DecodeRow rebuilds a row from a row key and the fetched cells, keyed by
// CellKey. Columns with no cell decode to nil.
func (rc *RowConverter) DecodeRow(key []byte, cells map[string][]byte) ([]any, error) {
	row := make([]any, len(rc.cat.Fields))
	for i, f := range rc.cat.Fields {
		if f.IsRowKey() {
			seg, err := keySegment(key, f)
			if err != nil {
				return nil, &ConvertError{Column: f.Name, Op: "decode", Err: err}
			}
			v, err := rc.coders[i].FromBytes(seg)
			if err != nil {
				return nil, &ConvertError{Column: f.Name, Op: "decode", Err: err}
			}
			row[i] = v
			continue
		}
		b, ok := cells[CellKey(f.Family, f.Qualifier)]
		if !ok {
			continue // sparse store: absent cell is NULL
		}
		v, err := rc.coders[i].FromBytes(b)
		if err != nil {
			return nil, &ConvertError{Column: f.Name, Op: "decode", Err: err}
		}
		row[i] = v
	}
	return row, nil
}

func keySegment(key []byte, f *Field) ([]byte, error) {
	if f.Len < 0 {
		if f.Start > len(key) {
			return nil, fmt.Errorf("row key is %d bytes, segment starts at %d", len(key), f.Start)
		}
		return key[f.Start:], nil
	}
	if f.Start+f.Len > len(key) {
		return nil, fmt.Errorf("row key is %d bytes, segment needs [%d:%d]", len(key), f.Start, f.Start+f.Len)
	}
	return key[f.Start : f.Start+f.Len], nil
}

func (rc *RowConverter) rowShapeErr(got int) error {
	return fmt.Errorf("shc: table %q has %d columns, row has %d", rc.cat.Name, len(rc.cat.Fields), got)
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
