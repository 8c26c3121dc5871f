// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package column

import (
	"testing"

	"github.com/ccstorage/tsdbwritecore/internal/dict"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromTypedValuesF64(t *testing.T) {
	c, err := NewFromTypedValues(nil, 0, LogicalField, F64, []Value{
		F64Value(1.5), NullValue(F64), F64Value(-2.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, -2.0, c.f64St.Min)
	assert.Equal(t, 1.5, c.f64St.Max)
	assert.EqualValues(t, 1, c.f64St.NullCount)
}

func TestNewFromTypedValuesEmptyAllNull(t *testing.T) {
	_, err := NewFromTypedValues(nil, 0, LogicalField, I64, []Value{
		NullValue(I64), NullValue(I64),
	})
	require.Error(t, err)
	assert.True(t, storeerr_Is(err, storeerr.EmptyTypedInsert))
}

func TestNewFromTypedValuesPrePadsExisting(t *testing.T) {
	c, err := NewFromTypedValues(nil, 3, LogicalField, Bool, []Value{BoolValue(true)})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())
	assert.EqualValues(t, 1, c.boolSt.Count)
}

func TestPushTypedValuesTagInterning(t *testing.T) {
	d := dict.New()
	c, err := NewFromTypedValues(d, 0, LogicalTag, Tag, []Value{TagValue("host01")})
	require.NoError(t, err)

	err = c.PushTypedValues(LogicalTag, []Value{TagValue("host01"), TagValue("host02")})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, d.Len())
	id0, ok := d.Lookup("host01")
	require.True(t, ok)
	assert.Equal(t, id0, c.tag.values[0])
	assert.Equal(t, id0, c.tag.values[1])
}

func TestPushTypedValuesKindMismatchRollsBack(t *testing.T) {
	c, err := NewFromTypedValues(nil, 0, LogicalField, I64, []Value{I64Value(1)})
	require.NoError(t, err)

	err = c.PushTypedValues(LogicalField, []Value{I64Value(2), F64Value(3.0)})
	require.Error(t, err)
	assert.True(t, storeerr_Is(err, storeerr.TypeMismatch))
	// the valid I64Value(2) preceding the bad entry must not remain.
	assert.Equal(t, 1, c.Len())
}

func TestPushTypedValuesStringVsTagLogicalMismatch(t *testing.T) {
	c, err := NewFromTypedValues(nil, 0, LogicalField, String, []Value{StringValue("ok")})
	require.NoError(t, err)

	err = c.PushTypedValues(LogicalTag, []Value{TagValue("nope")})
	require.Error(t, err)
	assert.True(t, storeerr_Is(err, storeerr.TypeMismatch))
	assert.Equal(t, 1, c.Len())
}

func TestPushNullsToLenNeverTruncatesAndSkipsNullCount(t *testing.T) {
	c, err := NewFromTypedValues(nil, 0, LogicalField, U64, []Value{U64Value(7)})
	require.NoError(t, err)

	c.PushNullsToLen(5)
	assert.Equal(t, 5, c.Len())
	assert.EqualValues(t, 0, c.u64St.NullCount)

	c.PushNullsToLen(2) // smaller than current length: no-op
	assert.Equal(t, 5, c.Len())
}

func TestSizeExcludesDictionaryBytesForTagColumns(t *testing.T) {
	d := dict.New()
	longTag := "a-very-long-tag-value-that-would-dominate-size-if-charged-here"
	c, err := NewFromTypedValues(d, 0, LogicalTag, Tag, []Value{TagValue(longTag)})
	require.NoError(t, err)

	// a tag column's Size() only accounts for the fixed id slot, not the
	// interned string — that cost is reported via Dictionary.SizeBytes().
	assert.Equal(t, int64(optionTagIDBytes)+48, c.Size())
	assert.Greater(t, d.SizeBytes(), int64(len(longTag)))
}

func TestTypeDescription(t *testing.T) {
	c, err := NewFromTypedValues(nil, 0, LogicalField, String, []Value{StringValue("x")})
	require.NoError(t, err)
	assert.Equal(t, "String", c.TypeDescription())
}

// storeerr_Is is a small local helper so tests read naturally without
// importing errors.Is at every call site.
func storeerr_Is(err error, kind storeerr.Kind) bool {
	se, ok := err.(*storeerr.Error)
	return ok && se.Kind == kind
}
