// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package persist supplies the concrete persisted-column-file reader and
// writer. It offers two interchangeable encodings for the same
// long-format row — one column value per record: Avro OCF checkpointing
// and Parquet retention.
package persist

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"sort"

	"github.com/ccstorage/tsdbwritecore/internal/chunk"
	"github.com/ccstorage/tsdbwritecore/internal/column"
	"github.com/linkedin/goavro/v2"
)

// avroRowSchema is fixed rather than generated per table: a table's
// column set is not known ahead of encoding time, so every row carries
// its own column name and a kind-tagged union of possible values
// instead of one Avro field per column.
const avroRowSchema = `{
  "type": "record",
  "name": "ColumnCell",
  "fields": [
    {"name": "table", "type": "string"},
    {"name": "row", "type": "long"},
    {"name": "column", "type": "string"},
    {"name": "kind", "type": "int"},
    {"name": "logical", "type": "int"},
    {"name": "null", "type": "boolean"},
    {"name": "f64", "type": "double", "default": 0.0},
    {"name": "i64", "type": "long", "default": 0},
    {"name": "u64", "type": "long", "default": 0},
    {"name": "bool", "type": "boolean", "default": false},
    {"name": "str", "type": "string", "default": ""}
  ]
}`

// WriteAvro persists a table's rows as one deflate-compressed Avro OCF
// file, one record per (row, column) cell. rows is typically the output
// of an ImmutableChunk's ReadFilter(tableName, nil, chunk.AllColumns{}).
func WriteAvro(path, tableName string, rows []chunk.RowView) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("persist: create avro file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20)

	codec, err := goavro.NewCodec(avroRowSchema)
	if err != nil {
		return fmt.Errorf("persist: build avro codec: %w", err)
	}

	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               bw,
		Codec:           codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return fmt.Errorf("persist: create ocf writer: %w", err)
	}

	records := avroRecordsFromRows(tableName, rows)
	if len(records) > 0 {
		if err := writer.Append(records); err != nil {
			return fmt.Errorf("persist: append avro records: %w", err)
		}
	}

	return bw.Flush()
}

func avroRecordsFromRows(tableName string, rows []chunk.RowView) []map[string]any {
	records := make([]map[string]any, 0, len(rows))
	for rowNum, row := range rows {
		for colName, v := range row {
			records = append(records, avroRecordFromValue(tableName, colName, rowNum, v))
		}
	}
	return records
}

func avroRecordFromValue(tableName, columnName string, row int, v column.Value) map[string]any {
	return map[string]any{
		"table":   tableName,
		"row":     int64(row),
		"column":  columnName,
		"kind":    int32(v.Kind),
		"logical": int32(v.Logical),
		"null":    v.Null,
		"f64":     v.F64,
		"i64":     v.I64,
		"u64":     int64(v.U64),
		"bool":    v.Bool,
		"str":     v.Str,
	}
}

func valueFromAvroRecord(rec map[string]any) column.Value {
	return column.Value{
		Kind:    column.Kind(rec["kind"].(int32)),
		Logical: column.LogicalType(rec["logical"].(int32)),
		Null:    rec["null"].(bool),
		F64:     rec["f64"].(float64),
		I64:     rec["i64"].(int64),
		U64:     uint64(rec["u64"].(int64)),
		Bool:    rec["bool"].(bool),
		Str:     rec["str"].(string),
	}
}

// AvroReader implements chunk.PersistedReader by scanning Avro OCF files
// written by WriteAvro and regrouping their flat cell records back into
// RecordBatch rows.
type AvroReader struct{}

var _ chunk.PersistedReader = AvroReader{}

func (AvroReader) ReadFilter(path, tableName string, selection chunk.Selection) (iter.Seq[chunk.RecordBatch], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persist: open avro file: %w", err)
	}

	rows, err := readAvroRows(f, tableName, selection)
	closeErr := f.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, fmt.Errorf("persist: close avro file: %w", closeErr)
	}

	batch := chunk.RecordBatch{TableName: tableName, Rows: rows}
	return func(yield func(chunk.RecordBatch) bool) {
		if len(rows) == 0 {
			return
		}
		yield(batch)
	}, nil
}

func readAvroRows(f *os.File, tableName string, selection chunk.Selection) ([]chunk.RowView, error) {
	br := bufio.NewReader(f)
	ocfReader, err := goavro.NewOCFReader(br)
	if err != nil {
		return nil, fmt.Errorf("persist: create ocf reader: %w", err)
	}

	byRow := make(map[int64]chunk.RowView)
	var order []int64

	for ocfReader.Scan() {
		raw, err := ocfReader.Read()
		if err != nil {
			return nil, fmt.Errorf("persist: read avro record: %w", err)
		}
		rec := raw.(map[string]any)
		if rec["table"].(string) != tableName {
			continue
		}
		colName := rec["column"].(string)
		if selection != nil && !selection.Includes(colName) {
			continue
		}
		rowNum := rec["row"].(int64)
		row, ok := byRow[rowNum]
		if !ok {
			row = chunk.RowView{}
			byRow[rowNum] = row
			order = append(order, rowNum)
		}
		row[colName] = valueFromAvroRecord(rec)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]chunk.RowView, 0, len(order))
	for _, rowNum := range order {
		out = append(out, byRow[rowNum])
	}
	return out, nil
}
