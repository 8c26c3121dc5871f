// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package table

import (
	"testing"

	"github.com/ccstorage/tsdbwritecore/internal/column"
	"github.com/ccstorage/tsdbwritecore/internal/dict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRowPadsAbsentColumns(t *testing.T) {
	b := NewBatch("cpu", dict.New())

	require.NoError(t, b.AppendRow(
		[]TagEntry{{Name: "host", Value: "a"}},
		[]FieldEntry{{Name: "usage", Value: column.F64Value(1.0)}},
		100,
	))
	require.NoError(t, b.AppendRow(
		[]TagEntry{{Name: "host", Value: "a"}},
		[]FieldEntry{{Name: "temp", Value: column.F64Value(42.0)}},
		200,
	))

	assert.Equal(t, 2, b.RowCount())
	usage := b.Column("usage")
	require.NotNil(t, usage)
	assert.Equal(t, 2, usage.Len())

	temp := b.Column("temp")
	require.NotNil(t, temp)
	assert.Equal(t, 2, temp.Len())

	tcol := b.Column(TimeColumn)
	require.NotNil(t, tcol)
	assert.Equal(t, column.I64, tcol.Kind())
	assert.Equal(t, 2, tcol.Len())
}

func TestAppendRowKindMismatchRollsBackNewColumn(t *testing.T) {
	b := NewBatch("cpu", dict.New())
	require.NoError(t, b.AppendRow(nil, []FieldEntry{{Name: "usage", Value: column.F64Value(1.0)}}, 1))

	err := b.AppendRow(nil, []FieldEntry{
		{Name: "fresh", Value: column.F64Value(5.0)},
		{Name: "usage", Value: column.I64Value(2)},
	}, 2)
	require.Error(t, err)
	// the row must not be partially applied: row count stays at 1 and no
	// stray column survives the failed attempt.
	assert.Equal(t, 1, b.RowCount())
	assert.Equal(t, 2, len(b.ColumnNames())) // usage + time only
}

func TestEnsureColumnTypeMismatch(t *testing.T) {
	b := NewBatch("cpu", dict.New())
	_, err := b.EnsureColumn("usage", column.F64, column.LogicalField)
	require.NoError(t, err)

	_, err = b.EnsureColumn("usage", column.I64, column.LogicalField)
	require.Error(t, err)
}

func TestPushTypedColumnsPadsToMaxLen(t *testing.T) {
	b := NewBatch("cpu", dict.New())
	err := b.PushTypedColumns(map[string]ColumnGroup{
		"usage": {Kind: column.F64, Logical: column.LogicalField, Values: []column.Value{
			column.F64Value(1), column.F64Value(2), column.F64Value(3),
		}},
		"temp": {Kind: column.F64, Logical: column.LogicalField, Values: []column.Value{
			column.F64Value(10),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, b.RowCount())
	assert.Equal(t, 3, b.Column("usage").Len())
	assert.Equal(t, 3, b.Column("temp").Len())
}

func TestAllColumnsEqualLengthInvariant(t *testing.T) {
	b := NewBatch("cpu", dict.New())
	for i := 0; i < 5; i++ {
		require.NoError(t, b.AppendRow(
			[]TagEntry{{Name: "host", Value: "a"}},
			[]FieldEntry{{Name: "usage", Value: column.F64Value(float64(i))}},
			int64(i),
		))
	}
	n := b.Column("host").Len()
	for _, name := range b.ColumnNames() {
		assert.Equal(t, n, b.Column(name).Len(), "column %s length diverged", name)
	}
}

// TestAppendRowColumnOrderFollowsInputOrder guards against a regression
// back to map-keyed tags/fields: when one row introduces several new
// columns at once, ColumnNames() must reflect the order they appeared
// in the row, not an incidental map iteration order.
func TestAppendRowColumnOrderFollowsInputOrder(t *testing.T) {
	b := NewBatch("cpu", dict.New())
	for i := 0; i < 20; i++ {
		require.NoError(t, b.AppendRow(
			[]TagEntry{{Name: "zone", Value: "a"}, {Name: "rack", Value: "b"}, {Name: "host", Value: "c"}},
			[]FieldEntry{
				{Name: "delta", Value: column.F64Value(1)},
				{Name: "charlie", Value: column.F64Value(2)},
				{Name: "bravo", Value: column.F64Value(3)},
				{Name: "alpha", Value: column.F64Value(4)},
			},
			int64(i),
		))
	}

	want := []string{"zone", "rack", "host", "delta", "charlie", "bravo", "alpha", TimeColumn}
	assert.Equal(t, want, b.ColumnNames())
}

// TestAppendRowDuplicateTagAndFieldKeyFails covers the boundary behavior
// where a line's tag key duplicates a field key within the same
// measurement: the second write to that name must fail with a kind
// mismatch rather than silently overwriting the first column.
func TestAppendRowDuplicateTagAndFieldKeyFails(t *testing.T) {
	b := NewBatch("cpu", dict.New())
	err := b.AppendRow(
		[]TagEntry{{Name: "host", Value: "a"}},
		[]FieldEntry{{Name: "host", Value: column.F64Value(1.0)}},
		1,
	)
	require.Error(t, err)
}
