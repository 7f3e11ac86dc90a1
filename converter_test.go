package shc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	shc "github.com/horton-works-spark/shc"
	logzap "github.com/horton-works-spark/shc/log/zap"
)

const eventsCatalog = `{
	"table": {"namespace": "default", "name": "events"},
	"rowkey": "tenant:name",
	"columns": {
		"tenant":  {"cf": "rowkey", "col": "tenant", "type": "int", "coder": "phoenix"},
		"name":    {"cf": "rowkey", "col": "name", "type": "string"},
		"active":  {"cf": "m", "col": "a", "type": "boolean"},
		"score":   {"cf": "m", "col": "s", "type": "double"},
		"seen":    {"cf": "m", "col": "t", "type": "timestamp"},
		"payload": {"cf": "d", "col": "p", "avro": "event"},
		"extra":   {"cf": "d", "col": "x", "type": "map", "coder": "cbor"},
		"raw":     {"cf": "d", "col": "r", "type": "binary", "coder": "msgpack"},
		"proto":   {"cf": "d", "col": "pb", "type": "string", "coder": "protobuf"}
	}
}`

var eventSchemas = map[string]string{
	"event": `{
		"type": "record", "name": "event",
		"fields": [
			{"name": "kind", "type": "string"},
			{"name": "count", "type": "long"}
		]
	}`,
}

func newTestConverter(t *testing.T) *shc.RowConverter {
	t.Helper()
	cat, err := shc.ParseCatalog(eventsCatalog, eventSchemas)
	require.NoError(t, err)
	rc, err := shc.NewRowConverter(cat, shc.Options{
		Logger: logzap.ZapLogger{L: zap.NewNop()},
		ProtoMessages: map[string]func() proto.Message{
			"proto": func() proto.Message { return &wrapperspb.StringValue{} },
		},
	})
	require.NoError(t, err)
	return rc
}

func testRow() []any {
	return []any{
		int32(7),                     // tenant
		"login",                      // name
		true,                         // active
		9.5,                          // score
		time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), // seen
		[]any{"click", int64(3)},     // payload
		map[string]any{"ua": "test"}, // extra
		"anything",                   // raw (msgpack takes any value)
		wrapperspb.String("pb"),      // proto
	}
}

func TestEncodeDecodeRowRoundTrip(t *testing.T) {
	rc := newTestConverter(t)
	row := testRow()

	key, cells, err := rc.EncodeRow(row)
	require.NoError(t, err)
	require.NotEmpty(t, key)
	require.Len(t, cells, 7) // all non-key columns set

	fetched := make(map[string][]byte, len(cells))
	for _, c := range cells {
		fetched[shc.CellKey(c.Family, c.Qualifier)] = c.Value
	}
	got, err := rc.DecodeRow(key, fetched)
	require.NoError(t, err)

	require.Len(t, got, len(row))
	assert.Equal(t, row[0], got[0])
	assert.Equal(t, row[1], got[1])
	assert.Equal(t, row[2], got[2])
	assert.Equal(t, row[3], got[3])
	assert.Equal(t, row[4], got[4])
	assert.Equal(t, row[5], got[5])
	assert.Equal(t, row[6], got[6])
	assert.Equal(t, row[7], got[7])
	require.True(t, proto.Equal(row[8].(proto.Message), got[8].(proto.Message)))
}

func TestDecodeRowMissingCellIsNull(t *testing.T) {
	rc := newTestConverter(t)
	row := testRow()

	key, cells, err := rc.EncodeRow(row)
	require.NoError(t, err)

	fetched := make(map[string][]byte)
	for _, c := range cells {
		if c.Qualifier == "s" {
			continue // drop score
		}
		fetched[shc.CellKey(c.Family, c.Qualifier)] = c.Value
	}
	got, err := rc.DecodeRow(key, fetched)
	require.NoError(t, err)
	assert.Nil(t, got[3])
	assert.Equal(t, row[2], got[2])
}

func TestEncodeRowSkipsNilCells(t *testing.T) {
	rc := newTestConverter(t)
	row := testRow()
	row[3] = nil // score
	row[6] = nil // extra

	_, cells, err := rc.EncodeRow(row)
	require.NoError(t, err)
	require.Len(t, cells, 5)
	for _, c := range cells {
		assert.NotEqual(t, "s", c.Qualifier)
		assert.NotEqual(t, "x", c.Qualifier)
	}
}

func TestRowKeyLayout(t *testing.T) {
	rc := newTestConverter(t)
	row := testRow()

	key, err := rc.EncodeRowKey(row)
	require.NoError(t, err)
	// phoenix int(4) | variable string tail
	require.Len(t, key, 4+len("login"))
	assert.Equal(t, byte(0x80), key[0]) // sign-flipped positive int
	assert.Equal(t, []byte("login"), key[4:])

	vals, err := rc.DecodeRowKey(key)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, int32(7), vals[0])
	assert.Equal(t, "login", vals[1])
}

func TestEncodeRowKeyRejectsNilKey(t *testing.T) {
	rc := newTestConverter(t)
	row := testRow()
	row[0] = nil
	_, err := rc.EncodeRowKey(row)
	var ce *shc.ConvertError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "tenant", ce.Column)
	assert.Contains(t, err.Error(), "NULL")
}

func TestDecodeRowKeyTooShort(t *testing.T) {
	rc := newTestConverter(t)
	_, err := rc.DecodeRowKey([]byte{0x80})
	var ce *shc.ConvertError
	require.ErrorAs(t, err, &ce)
}

func TestEncodeDecodeCell(t *testing.T) {
	rc := newTestConverter(t)

	cell, err := rc.EncodeCell("score", 4.25)
	require.NoError(t, err)
	assert.Equal(t, "m", cell.Family)
	assert.Equal(t, "s", cell.Qualifier)

	v, err := rc.DecodeCell("score", cell.Value)
	require.NoError(t, err)
	assert.Equal(t, 4.25, v)

	_, err = rc.EncodeCell("nope", 1)
	require.ErrorContains(t, err, "unknown column")
	_, err = rc.DecodeCell("nope", nil)
	require.ErrorContains(t, err, "unknown column")
}

func TestEncodeCellTypeMismatch(t *testing.T) {
	rc := newTestConverter(t)
	_, err := rc.EncodeCell("active", "not a bool")
	var ce *shc.ConvertError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "active", ce.Column)
	assert.Equal(t, "encode", ce.Op)
}

func TestRowShapeMismatch(t *testing.T) {
	rc := newTestConverter(t)
	_, _, err := rc.EncodeRow([]any{1, 2})
	require.ErrorContains(t, err, "columns")
}

func TestMaxCellBytes(t *testing.T) {
	cat, err := shc.ParseCatalog(eventsCatalog, eventSchemas)
	require.NoError(t, err)
	rc, err := shc.NewRowConverter(cat, shc.Options{
		MaxCellBytes: 8,
		ProtoMessages: map[string]func() proto.Message{
			"proto": func() proto.Message { return &wrapperspb.StringValue{} },
		},
	})
	require.NoError(t, err)

	cell, err := rc.EncodeCell("extra", map[string]any{"k": "a much longer value than eight bytes"})
	require.NoError(t, err) // encode is uncapped
	_, err = rc.DecodeCell("extra", cell.Value)
	require.ErrorContains(t, err, "too large")

	// fixed-width columns are not wrapped
	c2, err := rc.EncodeCell("seen", time.Unix(0, 0).UTC())
	require.NoError(t, err)
	_, err = rc.DecodeCell("seen", c2.Value)
	require.NoError(t, err)
}

func TestProtobufColumnNeedsRegistration(t *testing.T) {
	cat, err := shc.ParseCatalog(eventsCatalog, eventSchemas)
	require.NoError(t, err)
	_, err = shc.NewRowConverter(cat, shc.Options{})
	var ce *shc.CatalogError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "proto", ce.Column)
}
