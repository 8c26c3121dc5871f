// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package column implements the Typed Column and its running
// Column Statistics: a discriminated union over
// {F64,I64,U64,Bool,String,Tag}, each pairing a nullable value sequence
// with kind-specific stats. Append paths are type-specialized per the
// source's preference for a tagged union over a polymorphic interface.
package column

import (
	"github.com/ccstorage/tsdbwritecore/internal/dict"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
)

// nullable is a value sequence plus a parallel validity bitmap. Preserves
// 1:1 input order; a false entry in valid means the corresponding values
// slot is a zero value placeholder, not real data.
type nullable[T any] struct {
	values []T
	valid  []bool
}

func (n *nullable[T]) len() int { return len(n.valid) }

func (n *nullable[T]) pushNullsToLen(target int) {
	var zero T
	for n.len() < target {
		n.values = append(n.values, zero)
		n.valid = append(n.valid, false)
	}
}

func (n *nullable[T]) push(v T) {
	n.values = append(n.values, v)
	n.valid = append(n.valid, true)
}

func (n *nullable[T]) pushNull() {
	var zero T
	n.values = append(n.values, zero)
	n.valid = append(n.valid, false)
}

// Column is one table column's storage: exactly one of the typed fields
// below is populated, selected by Kind.
type Column struct {
	kind Kind

	dict *dict.Dictionary // non-nil only when kind == Tag

	f64   nullable[float64]
	f64St Stats[float64]

	i64   nullable[int64]
	i64St Stats[int64]

	u64   nullable[uint64]
	u64St Stats[uint64]

	boolv  nullable[bool]
	boolSt BoolStats

	str   nullable[string]
	strSt Stats[string]

	tag   nullable[dict.ID]
	tagSt Stats[string]
}

// Kind returns the column's fixed storage variant.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the column's row count.
func (c *Column) Len() int {
	switch c.kind {
	case F64:
		return c.f64.len()
	case I64:
		return c.i64.len()
	case U64:
		return c.u64.len()
	case Bool:
		return c.boolv.len()
	case String:
		return c.str.len()
	case Tag:
		return c.tag.len()
	default:
		return 0
	}
}

// TypeDescription is the stable short name used in diagnostics.
func (c *Column) TypeDescription() string { return c.kind.TypeDescription() }

// NewFromTypedValues creates a column pre-padded with existingRowCount
// nulls (each counted in NullCount), then appends values, updating
// stats. logical disambiguates a
// String input's Kind into Tag (interned via dict) vs inline String.
// Fails with EmptyTypedInsert if every supplied value is null — a column
// cannot be sealed without at least one non-null value to initialize
// stats from.
func NewFromTypedValues(d *dict.Dictionary, existingRowCount int, logical LogicalType, kind Kind, values []Value) (*Column, error) {
	c := &Column{kind: kind}
	if kind == Tag {
		c.dict = d
	}

	anyNonNull := false
	for _, v := range values {
		if !v.Null {
			anyNonNull = true
			break
		}
	}
	if len(values) > 0 && !anyNonNull {
		return nil, storeerr.New(storeerr.EmptyTypedInsert).WithTypes(kind.TypeDescription(), "all-null")
	}

	c.padToLen(existingRowCount)
	for i := 0; i < existingRowCount; i++ {
		c.nullCountFor(kind)
	}
	if err := c.pushTypedValues(logical, values); err != nil {
		return nil, err
	}
	return c, nil
}

// PushTypedValues appends to an existing column. Fails with TypeMismatch
// if the value kind disagrees with the column kind, or if a string
// input's logical type disagrees with whether this column is Tag or
// String. Transactional at the row-of-values boundary: on error, no
// partial append is retained (the caller passes one row's worth at a
// time; see table.Batch.AppendRow).
func (c *Column) PushTypedValues(logical LogicalType, values []Value) error {
	return c.pushTypedValues(logical, values)
}

func (c *Column) pushTypedValues(logical LogicalType, values []Value) error {
	// Snapshot lengths so a mid-batch type error can be rolled back,
	// keeping the append transactional at this call's boundary.
	f64n, i64n, u64n, booln, strn, tagn := c.f64.len(), c.i64.len(), c.u64.len(), c.boolv.len(), c.str.len(), c.tag.len()
	f64St, i64St, u64St, boolSt, strSt, tagSt := c.f64St, c.i64St, c.u64St, c.boolSt, c.strSt, c.tagSt

	for _, v := range values {
		if err := c.pushOne(logical, v); err != nil {
			c.truncateTo(f64n, i64n, u64n, booln, strn, tagn)
			c.f64St, c.i64St, c.u64St, c.boolSt, c.strSt, c.tagSt = f64St, i64St, u64St, boolSt, strSt, tagSt
			return err
		}
	}
	return nil
}

func (c *Column) truncateTo(f64n, i64n, u64n, booln, strn, tagn int) {
	c.f64.values, c.f64.valid = c.f64.values[:f64n], c.f64.valid[:f64n]
	c.i64.values, c.i64.valid = c.i64.values[:i64n], c.i64.valid[:i64n]
	c.u64.values, c.u64.valid = c.u64.values[:u64n], c.u64.valid[:u64n]
	c.boolv.values, c.boolv.valid = c.boolv.values[:booln], c.boolv.valid[:booln]
	c.str.values, c.str.valid = c.str.values[:strn], c.str.valid[:strn]
	c.tag.values, c.tag.valid = c.tag.values[:tagn], c.tag.valid[:tagn]
}

func (c *Column) pushOne(logical LogicalType, v Value) error {
	if v.Null {
		switch c.kind {
		case F64:
			c.f64.pushNull()
		case I64:
			c.i64.pushNull()
		case U64:
			c.u64.pushNull()
		case Bool:
			c.boolv.pushNull()
		case String:
			c.str.pushNull()
		case Tag:
			c.tag.pushNull()
		default:
			return storeerr.New(storeerr.UnknownColumnType)
		}
		c.nullCountFor(c.kind)
		return nil
	}

	if v.Kind != c.kind {
		return storeerr.New(storeerr.TypeMismatch).
			WithTypes(c.kind.TypeDescription(), v.Kind.TypeDescription())
	}

	switch c.kind {
	case F64:
		c.f64.push(v.F64)
		c.f64St.Update(v.F64)
	case I64:
		c.i64.push(v.I64)
		c.i64St.Update(v.I64)
	case U64:
		c.u64.push(v.U64)
		c.u64St.Update(v.U64)
	case Bool:
		c.boolv.push(v.Bool)
		c.boolSt.Update(v.Bool)
	case String:
		if v.Logical != LogicalField || logical != LogicalField {
			return storeerr.New(storeerr.TypeMismatch).
				WithTypes("String", "Tag")
		}
		c.str.push(v.Str)
		c.strSt.Update(v.Str)
	case Tag:
		if v.Logical != LogicalTag || logical != LogicalTag {
			return storeerr.New(storeerr.TypeMismatch).
				WithTypes("Tag", "String")
		}
		id := c.dict.LookupOrInsert(v.Str)
		c.tag.push(id)
		c.tagSt.Update(v.Str)
	default:
		return storeerr.New(storeerr.UnknownColumnType)
	}
	return nil
}

// nullCountFor bumps the corresponding stats' NullCount. Reached through
// an explicit push of a Value{Null:true} and through the creation-time
// pre-padding in NewFromTypedValues, never through PushNullsToLen
// padding of an existing column (see DESIGN.md Open Question notes).
func (c *Column) nullCountFor(kind Kind) {
	switch kind {
	case F64:
		c.f64St.UpdateNull()
	case I64:
		c.i64St.UpdateNull()
	case U64:
		c.u64St.UpdateNull()
	case Bool:
		c.boolSt.UpdateNull()
	case String:
		c.strSt.UpdateNull()
	case Tag:
		c.tagSt.UpdateNull()
	}
}

// Truncate shortens the column back to n rows. Stats are not recomputed,
// so the removed tail's Update/UpdateNull effects remain in them. Nothing
// in this module calls it: table.Batch.AppendRow unwinds a failed row by
// deleting the columns it created instead.
func (c *Column) Truncate(n int) {
	switch c.kind {
	case F64:
		c.f64.values, c.f64.valid = c.f64.values[:n], c.f64.valid[:n]
	case I64:
		c.i64.values, c.i64.valid = c.i64.values[:n], c.i64.valid[:n]
	case U64:
		c.u64.values, c.u64.valid = c.u64.values[:n], c.u64.valid[:n]
	case Bool:
		c.boolv.values, c.boolv.valid = c.boolv.values[:n], c.boolv.valid[:n]
	case String:
		c.str.values, c.str.valid = c.str.values[:n], c.str.valid[:n]
	case Tag:
		c.tag.values, c.tag.valid = c.tag.values[:n], c.tag.valid[:n]
	}
}

// PushNullsToLen extends the column with null entries up to exactly n.
// Never truncates; a no-op when n <= Len(). Nulls added this way precede
// any subsequent append in the column's sequence and do not advance
// NullCount (see nullCountFor).
func (c *Column) PushNullsToLen(n int) { c.padToLen(n) }

func (c *Column) padToLen(n int) {
	switch c.kind {
	case F64:
		c.f64.pushNullsToLen(n)
	case I64:
		c.i64.pushNullsToLen(n)
	case U64:
		c.u64.pushNullsToLen(n)
	case Bool:
		c.boolv.pushNullsToLen(n)
	case String:
		c.str.pushNullsToLen(n)
	case Tag:
		c.tag.pushNullsToLen(n)
	}
}

// At returns the value stored at row i, a Null Value with this column's
// Kind if that slot's validity bit is unset.
func (c *Column) At(i int) Value {
	switch c.kind {
	case F64:
		if !c.f64.valid[i] {
			return NullValue(F64)
		}
		return F64Value(c.f64.values[i])
	case I64:
		if !c.i64.valid[i] {
			return NullValue(I64)
		}
		return I64Value(c.i64.values[i])
	case U64:
		if !c.u64.valid[i] {
			return NullValue(U64)
		}
		return U64Value(c.u64.values[i])
	case Bool:
		if !c.boolv.valid[i] {
			return NullValue(Bool)
		}
		return BoolValue(c.boolv.values[i])
	case String:
		if !c.str.valid[i] {
			return NullValue(String)
		}
		return StringValue(c.str.values[i])
	case Tag:
		if !c.tag.valid[i] {
			return NullValue(Tag)
		}
		s, _ := c.dict.ValueOf(c.tag.values[i])
		return TagValue(s)
	default:
		return Value{}
	}
}

// StatSummary is a kind-tagged snapshot of a column's running statistics
// shaped like Value so callers branch on Kind once rather
// than type-asserting per numeric type.
type StatSummary struct {
	Kind        Kind
	Initialized bool
	Count       int64
	NullCount   int64

	MinF64, MaxF64   float64
	MinI64, MaxI64   int64
	MinU64, MaxU64   uint64
	MinBool, MaxBool bool
	MinStr, MaxStr   string // String and Tag kinds share this pair
}

// StatsSummary snapshots the column's current running statistics.
func (c *Column) StatsSummary() StatSummary {
	switch c.kind {
	case F64:
		return StatSummary{Kind: F64, Initialized: c.f64St.Initialized, Count: c.f64St.Count, NullCount: c.f64St.NullCount, MinF64: c.f64St.Min, MaxF64: c.f64St.Max}
	case I64:
		return StatSummary{Kind: I64, Initialized: c.i64St.Initialized, Count: c.i64St.Count, NullCount: c.i64St.NullCount, MinI64: c.i64St.Min, MaxI64: c.i64St.Max}
	case U64:
		return StatSummary{Kind: U64, Initialized: c.u64St.Initialized, Count: c.u64St.Count, NullCount: c.u64St.NullCount, MinU64: c.u64St.Min, MaxU64: c.u64St.Max}
	case Bool:
		return StatSummary{Kind: Bool, Initialized: c.boolSt.Initialized, Count: c.boolSt.Count, NullCount: c.boolSt.NullCount, MinBool: c.boolSt.Min, MaxBool: c.boolSt.Max}
	case String:
		return StatSummary{Kind: String, Initialized: c.strSt.Initialized, Count: c.strSt.Count, NullCount: c.strSt.NullCount, MinStr: c.strSt.Min, MaxStr: c.strSt.Max}
	case Tag:
		return StatSummary{Kind: Tag, Initialized: c.tagSt.Initialized, Count: c.tagSt.Count, NullCount: c.tagSt.NullCount, MinStr: c.tagSt.Min, MaxStr: c.tagSt.Max}
	default:
		return StatSummary{Kind: c.kind}
	}
}

// Approximate per-slot byte costs used by Size(). These stand in for
// Rust's sizeof(Option<T>) — a tag byte plus the payload, rounded to the
// platform's natural alignment.
const (
	optionNumericBytes = 16 // f64/i64/u64 value + validity + padding
	optionBoolBytes    = 2
	optionTagIDBytes   = 8
)

// Size returns the column's approximate byte footprint: a fixed per-slot
// cost times Len(), plus the stats struct, plus (for String) the summed
// UTF-8 length of non-null entries. Tag columns do not charge the
// dictionary's interned string bytes here — those are reported by
// Dictionary.SizeBytes() instead.
func (c *Column) Size() int64 {
	const statsOverhead = 48
	switch c.kind {
	case F64:
		return int64(c.f64.len())*optionNumericBytes + statsOverhead
	case I64:
		return int64(c.i64.len())*optionNumericBytes + statsOverhead
	case U64:
		return int64(c.u64.len())*optionNumericBytes + statsOverhead
	case Bool:
		return int64(c.boolv.len())*optionBoolBytes + statsOverhead
	case String:
		total := int64(c.str.len())*optionNumericBytes + statsOverhead
		for i, ok := range c.str.valid {
			if ok {
				total += int64(len(c.str.values[i]))
			}
		}
		return total
	case Tag:
		return int64(c.tag.len())*optionTagIDBytes + statsOverhead
	default:
		return 0
	}
}
