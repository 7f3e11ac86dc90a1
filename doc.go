// Package shc converts SQL rows to and from wide-column store cells. It is
// the type-conversion layer of a connector: the host engine hands it a JSON
// table catalog, and it builds one coder per column that turns values into
// wire bytes and back.
//
// Components:
//   - Catalog: parsed per-table column metadata (family, qualifier, logical
//     type, coder tag, row-key offsets). Immutable once parsed.
//   - coder.Coder: one wire format per implementation - store-native scalars
//     (primitive), order-preserving scalars (phoenix), schema-driven binary
//     records (avro), plus serialized-column coders (cbor, msgpack,
//     protobuf).
//   - RowConverter: per-table bundle of coders; encodes/decodes single
//     cells, composite row keys and whole rows.
//
// Typical use:
//
//	cat, _ := shc.ParseCatalog(doc, schemas)
//	rc, _  := shc.NewRowConverter(cat, shc.Options{})
//	key, cells, _ := rc.EncodeRow(row)
//
// A column's coder is its "coder" entry when present, "avro" when it carries
// a record schema, otherwise the table default.
package shc
