// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package persist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"sort"

	"github.com/ccstorage/tsdbwritecore/internal/chunk"
	"github.com/ccstorage/tsdbwritecore/internal/column"
	pq "github.com/parquet-go/parquet-go"
)

// ParquetCell is the long-format row for one (row, column) cell of a
// table batch, sorted by (table, column, row) so runs of the same
// column compress well.
type ParquetCell struct {
	Table   string  `parquet:"table"`
	Row     int64   `parquet:"row"`
	Column  string  `parquet:"column"`
	Kind    int32   `parquet:"kind"`
	Logical int32   `parquet:"logical"`
	Null    bool    `parquet:"null"`
	F64     float64 `parquet:"f64"`
	I64     int64   `parquet:"i64"`
	U64     int64   `parquet:"u64"`
	Bool    bool    `parquet:"bool"`
	Str     string  `parquet:"str"`
}

func cellsFromRows(tableName string, rows []chunk.RowView) []ParquetCell {
	cells := make([]ParquetCell, 0, len(rows))
	for rowNum, row := range rows {
		for colName, v := range row {
			cells = append(cells, ParquetCell{
				Table:   tableName,
				Row:     int64(rowNum),
				Column:  colName,
				Kind:    int32(v.Kind),
				Logical: int32(v.Logical),
				Null:    v.Null,
				F64:     v.F64,
				I64:     v.I64,
				U64:     int64(v.U64),
				Bool:    v.Bool,
				Str:     v.Str,
			})
		}
	}
	return cells
}

func valueFromCell(c ParquetCell) column.Value {
	return column.Value{
		Kind:    column.Kind(c.Kind),
		Logical: column.LogicalType(c.Logical),
		Null:    c.Null,
		F64:     c.F64,
		I64:     c.I64,
		U64:     uint64(c.U64),
		Bool:    c.Bool,
		Str:     c.Str,
	}
}

// WriteParquet persists a table's rows as a single Zstd-compressed
// Parquet file, one row per cell. rows is typically the output of an
// ImmutableChunk's ReadFilter(tableName, nil, chunk.AllColumns{}).
func WriteParquet(path, tableName string, rows []chunk.RowView) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("persist: create parquet file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := writeParquetCells(bw, cellsFromRows(tableName, rows)); err != nil {
		return err
	}
	return bw.Flush()
}

func writeParquetCells(w io.Writer, cells []ParquetCell) error {
	writer := pq.NewGenericWriter[ParquetCell](w,
		pq.Compression(&pq.Zstd),
		pq.SortingWriterConfig(pq.SortingColumns(
			pq.Ascending("table"),
			pq.Ascending("column"),
			pq.Ascending("row"),
		)),
	)

	if len(cells) > 0 {
		if _, err := writer.Write(cells); err != nil {
			return fmt.Errorf("persist: write parquet cells: %w", err)
		}
	}
	return writer.Close()
}

// parquetCellsFromBytes reads every ParquetCell back out of Parquet-encoded bytes.
func parquetCellsFromBytes(data []byte) ([]ParquetCell, error) {
	file, err := pq.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("persist: open parquet: %w", err)
	}

	reader := pq.NewGenericReader[ParquetCell](file)
	defer reader.Close()

	cells := make([]ParquetCell, file.NumRows())
	n, err := reader.Read(cells)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("persist: read parquet cells: %w", err)
	}
	return cells[:n], nil
}

// ParquetReader implements chunk.PersistedReader over files written by
// WriteParquet.
type ParquetReader struct{}

var _ chunk.PersistedReader = ParquetReader{}

func (ParquetReader) ReadFilter(path, tableName string, selection chunk.Selection) (iter.Seq[chunk.RecordBatch], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: read parquet file: %w", err)
	}

	cells, err := parquetCellsFromBytes(data)
	if err != nil {
		return nil, err
	}

	rows := rowsFromCells(cells, tableName, selection)
	batch := chunk.RecordBatch{TableName: tableName, Rows: rows}
	return func(yield func(chunk.RecordBatch) bool) {
		if len(rows) == 0 {
			return
		}
		yield(batch)
	}, nil
}

func rowsFromCells(cells []ParquetCell, tableName string, selection chunk.Selection) []chunk.RowView {
	byRow := make(map[int64]chunk.RowView)
	var order []int64

	for _, c := range cells {
		if c.Table != tableName {
			continue
		}
		if selection != nil && !selection.Includes(c.Column) {
			continue
		}
		row, ok := byRow[c.Row]
		if !ok {
			row = chunk.RowView{}
			byRow[c.Row] = row
			order = append(order, c.Row)
		}
		row[c.Column] = valueFromCell(c)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]chunk.RowView, 0, len(order))
	for _, rowNum := range order {
		out = append(out, byRow[rowNum])
	}
	return out
}
