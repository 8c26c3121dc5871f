// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package table implements the Table Batch: a named,
// insertion-ordered set of columns that all share one row count. Rows
// arrive one at a time (AppendRow) or pre-grouped by column
// (PushTypedColumns); either path keeps every column the same length.
package table

import (
	"github.com/ccstorage/tsdbwritecore/internal/column"
	"github.com/ccstorage/tsdbwritecore/internal/dict"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
)

// TimeColumn is the fixed domain constant naming the reserved timestamp
// column, always column.I64.
const TimeColumn = "time"

// Batch is one measurement's columns within a chunk.
type Batch struct {
	name string
	dict *dict.Dictionary

	order []string
	cols  map[string]*column.Column

	rows int
}

// NewBatch returns an empty batch for the given measurement name, sharing
// dict for any Tag columns it creates.
func NewBatch(name string, d *dict.Dictionary) *Batch {
	return &Batch{
		name: name,
		dict: d,
		cols: make(map[string]*column.Column),
	}
}

func (b *Batch) Name() string  { return b.name }
func (b *Batch) RowCount() int { return b.rows }

// ColumnNames returns column names in first-seen order.
func (b *Batch) ColumnNames() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Column returns the named column, or nil if it does not exist.
func (b *Batch) Column(name string) *column.Column { return b.cols[name] }

// EnsureColumn creates name null-padded to the current row count if
// absent, otherwise returns the existing column — which must already be
// of kind/logical, else TypeMismatch.
func (b *Batch) EnsureColumn(name string, kind column.Kind, logical column.LogicalType) (*column.Column, error) {
	if c, ok := b.cols[name]; ok {
		if c.Kind() != kind {
			return nil, storeerr.New(storeerr.TypeMismatch).
				WithTable(b.name).WithColumn(name).
				WithTypes(c.Kind().TypeDescription(), kind.TypeDescription())
		}
		return c, nil
	}

	c, err := column.NewFromTypedValues(b.dict, b.rows, logical, kind, nil)
	if err != nil {
		return nil, err
	}
	b.cols[name] = c
	b.order = append(b.order, name)
	return c, nil
}

type pendingPush struct {
	name    string
	col     *column.Column
	logical column.LogicalType
	val     column.Value
}

// TagEntry is one tag name/value pair in a row, ordered as it appeared
// on input.
type TagEntry struct {
	Name  string
	Value string
}

// FieldEntry is one field name/value pair in a row, ordered as it
// appeared on input.
type FieldEntry struct {
	Name  string
	Value column.Value
}

// AppendRow appends one row: tags and fields are written, in the order
// given, to their (created-on-first-write) columns, every other
// pre-existing column is null-padded, and timeNs lands in the reserved
// time column. Input order determines the order in which any new
// columns are created — ColumnNames() reflects first-seen order, not
// map iteration order. The whole row is transactional — if any tag/
// field name collides with an existing column of a different kind, no
// column is mutated and any column newly created for this row is
// removed.
func (b *Batch) AppendRow(tags []TagEntry, fields []FieldEntry, timeNs int64) error {
	var newCols []string
	rollback := func() {
		for _, name := range newCols {
			delete(b.cols, name)
			for i, n := range b.order {
				if n == name {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		}
	}

	ensure := func(name string, kind column.Kind, logical column.LogicalType) (*column.Column, error) {
		if c, ok := b.cols[name]; ok {
			if c.Kind() != kind {
				return nil, storeerr.New(storeerr.TypeMismatch).
					WithTable(b.name).WithColumn(name).
					WithTypes(c.Kind().TypeDescription(), kind.TypeDescription())
			}
			return c, nil
		}
		c, err := column.NewFromTypedValues(b.dict, b.rows, logical, kind, nil)
		if err != nil {
			return nil, err
		}
		b.cols[name] = c
		b.order = append(b.order, name)
		newCols = append(newCols, name)
		return c, nil
	}

	var toPush []pendingPush

	for _, tag := range tags {
		c, err := ensure(tag.Name, column.Tag, column.LogicalTag)
		if err != nil {
			rollback()
			return err
		}
		toPush = append(toPush, pendingPush{tag.Name, c, column.LogicalTag, column.TagValue(tag.Value)})
	}

	for _, field := range fields {
		c, err := ensure(field.Name, field.Value.Kind, field.Value.Logical)
		if err != nil {
			rollback()
			return err
		}
		toPush = append(toPush, pendingPush{field.Name, c, field.Value.Logical, field.Value})
	}

	timeCol, err := ensure(TimeColumn, column.I64, column.LogicalField)
	if err != nil {
		rollback()
		return err
	}
	toPush = append(toPush, pendingPush{TimeColumn, timeCol, column.LogicalField, column.I64Value(timeNs)})

	touched := make(map[string]bool, len(toPush))
	for _, p := range toPush {
		if err := p.col.PushTypedValues(p.logical, []column.Value{p.val}); err != nil {
			// Kinds were already validated by ensure above, so this path
			// is defensive: roll back any newly created (still-empty,
			// stats-untouched) columns and surface the error unresolved.
			rollback()
			return err
		}
		touched[p.name] = true
	}

	newRowCount := b.rows + 1
	for _, name := range b.order {
		if !touched[name] {
			b.cols[name].PushNullsToLen(newRowCount)
		}
	}
	b.rows = newRowCount
	return nil
}

// ColumnGroup is one column's worth of pre-grouped values for the bulk
// PushTypedColumns path.
type ColumnGroup struct {
	Kind    column.Kind
	Logical column.LogicalType
	Values  []column.Value
}

// PushTypedColumns appends pre-grouped values per named column,
// maintaining the all-columns-equal-length invariant by null-padding
// every column (touched or not) to the batch's new maximum row count.
func (b *Batch) PushTypedColumns(columns map[string]ColumnGroup) error {
	var newCols []string
	rollback := func() {
		for _, name := range newCols {
			delete(b.cols, name)
			for i, n := range b.order {
				if n == name {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		}
	}

	newRowCount := b.rows
	for name, group := range columns {
		c, ok := b.cols[name]
		if !ok {
			var err error
			c, err = column.NewFromTypedValues(b.dict, b.rows, group.Logical, group.Kind, group.Values)
			if err != nil {
				rollback()
				return err
			}
			b.cols[name] = c
			b.order = append(b.order, name)
			newCols = append(newCols, name)
		} else {
			if c.Kind() != group.Kind {
				rollback()
				return storeerr.New(storeerr.TypeMismatch).
					WithTable(b.name).WithColumn(name).
					WithTypes(c.Kind().TypeDescription(), group.Kind.TypeDescription())
			}
			if err := c.PushTypedValues(group.Logical, group.Values); err != nil {
				rollback()
				return err
			}
		}
		if c.Len() > newRowCount {
			newRowCount = c.Len()
		}
	}

	for _, name := range b.order {
		b.cols[name].PushNullsToLen(newRowCount)
	}
	b.rows = newRowCount
	return nil
}

// Size sums every column's Size(), excluding dictionary bytes (those are
// charged once per chunk via dict.Dictionary.SizeBytes()).
func (b *Batch) Size() int64 {
	var total int64
	for _, name := range b.order {
		total += b.cols[name].Size()
	}
	return total
}
