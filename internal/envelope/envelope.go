// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package envelope implements the Replicated Write binary envelope: a
// flat, self-contained frame carrying a writer id, sequence number,
// CRC32 checksum, and an opaque payload that decodes to a
// WriteBufferBatch. Framed as [fixed header fields][length-prefixed
// payload], with encoding/binary and hash/crc32 doing the actual byte
// work (see DESIGN.md for why this one component stays on the standard
// library).
package envelope

// ValueType is the Value union discriminant on the wire.
type ValueType uint8

const (
	VNone ValueType = iota
	VTag
	VI64
	VU64
	VF64
	VBool
	VString
)

// Value is one column's contribution to a Row.
type Value struct {
	Column string
	Type   ValueType
	I64    int64
	U64    uint64
	F64    float64
	Bool   bool
	Str    string // holds Tag and String payloads
}

// Row is one record's worth of values, in (tags, then fields, then a
// trailing time value) order.
type Row struct {
	Values []Value
}

// TableWriteBatch groups rows under one measurement name.
type TableWriteBatch struct {
	Name string
	Rows []Row
}

// WriteBufferEntry groups table batches under one partition key.
// PartitionKey is absent (HasKey false) only for a router-default
// partitioning scheme that chooses not to key its writes; the core
// itself always supplies one.
type WriteBufferEntry struct {
	PartitionKey string
	HasKey       bool
	Tables       []TableWriteBatch
}

// WriteBufferBatch is the full decoded payload tree.
type WriteBufferBatch struct {
	Entries []WriteBufferEntry
}

// Envelope is the framed message: {writer_id, sequence, checksum,
// payload}. Payload is kept as the authoritative owned byte slice;
// Batch() rebuilds a typed view from it on demand rather than caching a
// self-referential decoded structure.
type Envelope struct {
	Writer   uint32
	Sequence uint64
	Checksum uint32
	Payload  []byte
}

// EqualToWriterAndSequence is the identity predicate used for
// deduplicating replayed envelopes.
func (e *Envelope) EqualToWriterAndSequence(writer uint32, sequence uint64) bool {
	return e.Writer == writer && e.Sequence == sequence
}

// EntryCount decodes the whole Payload via Batch and reports the number
// of write-buffer entries (one per partition key).
func (e *Envelope) EntryCount() (int, error) {
	batch, err := e.Batch()
	if err != nil {
		return 0, err
	}
	return len(batch.Entries), nil
}
