// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package parsedline declares the external-collaborator contract this
// module consumes but does not implement: the line-protocol lexer/parser
// produces ParsedLine values, and a pluggable Partitioner buckets them
// into chunks. Field values reuse lineprotocol.Value/ValueKind directly
// — the same kind-tagged union the external line-protocol decoder
// (github.com/influxdata/line-protocol/v2) returns — so no intermediate representation
// needs inventing between parse and typed-column append.
package parsedline

import "github.com/influxdata/line-protocol/v2/lineprotocol"

// TagPair is one tag key/value, both required non-empty by the parser
// contract.
type TagPair struct {
	Key   string
	Value string
}

// FieldPair is one field key/value. At least one is required per line.
type FieldPair struct {
	Key   string
	Value lineprotocol.Value
}

// ParsedLine is one decoded line-protocol record. Timestamp is nil when
// absent on input; the router defaults it to a single wall-clock reading
// captured once per batch.
type ParsedLine struct {
	Measurement string
	Tags        []TagPair
	Fields      []FieldPair
	Timestamp   *int64 // nanoseconds since epoch
}

// Partitioner derives a partition key from a line. Implementations must
// be pure: the same line and default timestamp always produce the same
// key.
type Partitioner interface {
	PartitionKey(line ParsedLine, defaultTimeNs int64) string
}

// PartitionerFunc adapts a plain function to Partitioner.
type PartitionerFunc func(line ParsedLine, defaultTimeNs int64) string

func (f PartitionerFunc) PartitionKey(line ParsedLine, defaultTimeNs int64) string {
	return f(line, defaultTimeNs)
}
