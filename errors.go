package shc

import (
	"fmt"
)

// CatalogError reports a malformed or inconsistent table catalog. Column is
// empty for table-level problems.
type CatalogError struct {
	Table  string
	Column string
	Reason string
	Err    error
}

func (e *CatalogError) Error() string {
	switch {
	case e.Column != "" && e.Err != nil:
		return fmt.Sprintf("catalog %q: column %q: %s: %v", e.Table, e.Column, e.Reason, e.Err)
	case e.Column != "":
		return fmt.Sprintf("catalog %q: column %q: %s", e.Table, e.Column, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("catalog %q: %s: %v", e.Table, e.Reason, e.Err)
	default:
		return fmt.Sprintf("catalog %q: %s", e.Table, e.Reason)
	}
}

func (e *CatalogError) Unwrap() error { return e.Err }

// ConvertError reports a cell or row-key conversion failure for one column.
type ConvertError struct {
	Column string
	Op     string // "encode" or "decode"
	Err    error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("%s column %q: %v", e.Op, e.Column, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }
