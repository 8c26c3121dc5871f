// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package column

// Kind is the discriminant of a Typed Column's storage variant.
// A column's Kind is fixed at creation; later appends of a mismatched kind
// fail with TypeMismatch rather than silently coercing.
type Kind int8

const (
	F64 Kind = iota
	I64
	U64
	Bool
	String // inline field string
	Tag    // dictionary-interned tag string
)

// TypeDescription returns the stable short name used in error messages,
// matching the original source's Column::type_description() strings.
func (k Kind) TypeDescription() string {
	switch k {
	case F64:
		return "f64"
	case I64:
		return "i64"
	case U64:
		return "u64"
	case Bool:
		return "bool"
	case String:
		return "String"
	case Tag:
		return "tag"
	default:
		return "unknown"
	}
}

// LogicalType disambiguates a string input into an inline field String or
// an interned Tag — the two share a Go representation (a string) on the
// wire but must land in different column kinds.
type LogicalType int8

const (
	LogicalField LogicalType = iota
	LogicalTag
)

// Value is one cell's worth of typed, possibly-null input, the unit that
// Column.Push and Table.AppendRow operate on: a small, kind-tagged union
// inspected via Kind() rather than a field interface.
type Value struct {
	Kind    Kind
	Logical LogicalType // only meaningful when Kind is String or Tag
	Null    bool
	F64     float64
	I64     int64
	U64     uint64
	Bool    bool
	Str     string
}

func NullValue(kind Kind) Value { return Value{Kind: kind, Null: true} }

func F64Value(v float64) Value { return Value{Kind: F64, F64: v} }
func I64Value(v int64) Value   { return Value{Kind: I64, I64: v} }
func U64Value(v uint64) Value  { return Value{Kind: U64, U64: v} }
func BoolValue(v bool) Value   { return Value{Kind: Bool, Bool: v} }

func StringValue(v string) Value {
	return Value{Kind: String, Logical: LogicalField, Str: v}
}

func TagValue(v string) Value {
	return Value{Kind: Tag, Logical: LogicalTag, Str: v}
}
