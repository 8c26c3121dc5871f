// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package parsedline

import (
	"github.com/ccstorage/tsdbwritecore/internal/column"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// ToColumnValue adapts a decoded lineprotocol.Value into the typed-column
// union used by the storage core. Strings always land as a field column.Value
// here; tag strings take a separate path (chunk.MutableChunk.Write passes
// them to table.Batch.AppendRow as TagEntry values, which AppendRow wraps
// in column.TagValue), since the parser exposes tags and fields through
// separate iterators.
func ToColumnValue(v lineprotocol.Value) (column.Value, error) {
	switch v.Kind() {
	case lineprotocol.Float:
		return column.F64Value(v.FloatV()), nil
	case lineprotocol.Int:
		return column.I64Value(v.IntV()), nil
	case lineprotocol.Uint:
		return column.U64Value(v.UintV()), nil
	case lineprotocol.Bool:
		return column.BoolValue(v.BoolV()), nil
	case lineprotocol.String:
		return column.StringValue(v.StringV()), nil
	default:
		return column.Value{}, storeerr.New(storeerr.UnknownColumnType)
	}
}
