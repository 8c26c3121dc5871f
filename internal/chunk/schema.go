// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chunk

import "github.com/ccstorage/tsdbwritecore/internal/column"

// InfluxType is a column's logical type as exposed to schema consumers
// a tag, a typed field, or the reserved timestamp.
type InfluxType int

const (
	InfluxTag InfluxType = iota
	InfluxFieldF64
	InfluxFieldI64
	InfluxFieldU64
	InfluxFieldBool
	InfluxFieldString
	InfluxTimestamp
)

func influxTypeOf(name string, kind column.Kind, logical column.LogicalType) InfluxType {
	if name == timeColumnName {
		return InfluxTimestamp
	}
	if logical == column.LogicalTag {
		return InfluxTag
	}
	switch kind {
	case column.F64:
		return InfluxFieldF64
	case column.I64:
		return InfluxFieldI64
	case column.U64:
		return InfluxFieldU64
	case column.Bool:
		return InfluxFieldBool
	default:
		return InfluxFieldString
	}
}

// ColumnSummary is one column's schema entry plus its frozen statistics.
type ColumnSummary struct {
	Name       string
	InfluxType InfluxType
	Stats      column.StatSummary
}

// TableSummary is one table's frozen schema and per-column statistics,
// produced by MutableChunk.Freeze.
type TableSummary struct {
	Name    string
	Columns []ColumnSummary
}

// Schema is the ordered column-name/type list for one table, independent
// of statistics — the shape TableSchema callers ask for under a
// selection.
type Schema struct {
	Columns []SchemaColumn
}

type SchemaColumn struct {
	Name       string
	InfluxType InfluxType
}

// TimestampRange is the inclusive [Min, Max] span of the reserved time
// column, in nanoseconds since epoch.
type TimestampRange struct {
	Min int64
	Max int64
}

// Overlaps reports whether r and other share at least one nanosecond.
func (r TimestampRange) Overlaps(other TimestampRange) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}
