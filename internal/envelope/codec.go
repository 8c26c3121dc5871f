// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package envelope

import (
	"encoding/binary"
	"hash/crc32"
	"math"
	"sort"

	"github.com/ccstorage/tsdbwritecore/internal/parsedline"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// Encode builds an Envelope from lines, partitioning them with
// partitioner against defaultTimeNs — the single wall-clock reading the
// caller captured once for this batch — sorting partitions and tables
// for byte-stable output, and computing the CRC32 over the resulting
// payload.
func Encode(writerID uint32, sequence uint64, lines []parsedline.ParsedLine, partitioner parsedline.Partitioner, defaultTimeNs int64) (*Envelope, error) {
	grouped := make(map[string][]parsedline.ParsedLine)
	for _, line := range lines {
		key := partitioner.PartitionKey(line, defaultTimeNs)
		grouped[key] = append(grouped[key], line)
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := WriteBufferBatch{}
	for _, key := range keys {
		entry := WriteBufferEntry{PartitionKey: key, HasKey: true}

		byTable := make(map[string][]parsedline.ParsedLine)
		var tableOrder []string
		for _, line := range grouped[key] {
			if _, ok := byTable[line.Measurement]; !ok {
				tableOrder = append(tableOrder, line.Measurement)
			}
			byTable[line.Measurement] = append(byTable[line.Measurement], line)
		}
		sort.Strings(tableOrder)

		for _, name := range tableOrder {
			twb := TableWriteBatch{Name: name}
			for _, line := range byTable[name] {
				row, err := rowFromLine(line, defaultTimeNs)
				if err != nil {
					return nil, err
				}
				twb.Rows = append(twb.Rows, row)
			}
			entry.Tables = append(entry.Tables, twb)
		}
		batch.Entries = append(batch.Entries, entry)
	}

	payload := encodePayload(batch)
	return &Envelope{
		Writer:   writerID,
		Sequence: sequence,
		Checksum: crc32.ChecksumIEEE(payload),
		Payload:  payload,
	}, nil
}

func rowFromLine(line parsedline.ParsedLine, defaultTimeNs int64) (Row, error) {
	var row Row
	for _, tag := range line.Tags {
		row.Values = append(row.Values, Value{Column: tag.Key, Type: VTag, Str: tag.Value})
	}
	for _, field := range line.Fields {
		v, err := valueFromField(field)
		if err != nil {
			return Row{}, err
		}
		row.Values = append(row.Values, v)
	}

	ts := defaultTimeNs
	if line.Timestamp != nil {
		ts = *line.Timestamp
	}
	row.Values = append(row.Values, Value{Column: "time", Type: VI64, I64: ts})
	return row, nil
}

func valueFromField(f parsedline.FieldPair) (Value, error) {
	switch f.Value.Kind() {
	case lineprotocol.Float:
		return Value{Column: f.Key, Type: VF64, F64: f.Value.FloatV()}, nil
	case lineprotocol.Int:
		return Value{Column: f.Key, Type: VI64, I64: f.Value.IntV()}, nil
	case lineprotocol.Uint:
		return Value{Column: f.Key, Type: VU64, U64: f.Value.UintV()}, nil
	case lineprotocol.Bool:
		return Value{Column: f.Key, Type: VBool, Bool: f.Value.BoolV()}, nil
	case lineprotocol.String:
		return Value{Column: f.Key, Type: VString, Str: f.Value.StringV()}, nil
	default:
		return Value{}, storeerr.New(storeerr.UnknownColumnType).WithColumn(f.Key)
	}
}

// ToBytes produces the final framed wire form:
// [4B writer][8B sequence][4B checksum][4B payload_len][payload].
func (e *Envelope) ToBytes() []byte {
	out := make([]byte, 0, 20+len(e.Payload))
	var hdr [20]byte
	binary.LittleEndian.PutUint32(hdr[0:4], e.Writer)
	binary.LittleEndian.PutUint64(hdr[4:12], e.Sequence)
	binary.LittleEndian.PutUint32(hdr[12:16], e.Checksum)
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(e.Payload)))
	out = append(out, hdr[:]...)
	out = append(out, e.Payload...)
	return out
}

// Decode parses the outer framing. It does not itself verify the
// checksum; call VerifyChecksum for that — a receiver may accept a
// decoded frame before deciding whether to reject it on checksum
// mismatch.
func Decode(b []byte) (*Envelope, error) {
	if len(b) < 20 {
		return nil, storeerr.New(storeerr.InvalidFlatbuffer).WithCause(errShortFrame)
	}
	writer := binary.LittleEndian.Uint32(b[0:4])
	sequence := binary.LittleEndian.Uint64(b[4:12])
	checksum := binary.LittleEndian.Uint32(b[12:16])
	payloadLen := binary.LittleEndian.Uint32(b[16:20])

	if uint64(len(b)-20) < uint64(payloadLen) {
		return nil, storeerr.New(storeerr.InvalidFlatbuffer).WithCause(errTruncatedPayload)
	}

	payload := b[20 : 20+payloadLen]
	return &Envelope{Writer: writer, Sequence: sequence, Checksum: checksum, Payload: payload}, nil
}

// VerifyChecksum recomputes CRC32 over Payload and compares it against
// Checksum.
func (e *Envelope) VerifyChecksum() error {
	if crc32.ChecksumIEEE(e.Payload) != e.Checksum {
		return storeerr.New(storeerr.ChecksumMismatch)
	}
	return nil
}

// Batch decodes Payload into a typed WriteBufferBatch. A nil or empty
// Payload is a valid envelope with zero entries.
func (e *Envelope) Batch() (WriteBufferBatch, error) {
	return decodePayload(e.Payload)
}

func encodePayload(batch WriteBufferBatch) []byte {
	buf := make([]byte, 0, 256)
	buf = appendUint32(buf, uint32(len(batch.Entries)))
	for _, entry := range batch.Entries {
		buf = appendBool(buf, entry.HasKey)
		buf = appendString16(buf, entry.PartitionKey)
		buf = appendUint32(buf, uint32(len(entry.Tables)))
		for _, t := range entry.Tables {
			buf = appendString16(buf, t.Name)
			buf = appendUint32(buf, uint32(len(t.Rows)))
			for _, row := range t.Rows {
				buf = appendUint16(buf, uint16(len(row.Values)))
				for _, v := range row.Values {
					buf = appendString16(buf, v.Column)
					buf = append(buf, byte(v.Type))
					switch v.Type {
					case VTag, VString:
						buf = appendString16(buf, v.Str)
					case VI64:
						buf = appendUint64(buf, uint64(v.I64))
					case VU64:
						buf = appendUint64(buf, v.U64)
					case VF64:
						buf = appendUint64(buf, math.Float64bits(v.F64))
					case VBool:
						buf = appendBool(buf, v.Bool)
					case VNone:
					}
				}
			}
		}
	}
	return buf
}

func decodePayload(b []byte) (WriteBufferBatch, error) {
	var batch WriteBufferBatch
	if len(b) == 0 {
		return batch, nil
	}

	r := &byteReader{buf: b}
	numEntries, err := r.uint32()
	if err != nil {
		return batch, err
	}

	for i := uint32(0); i < numEntries; i++ {
		var entry WriteBufferEntry
		entry.HasKey, err = r.boolean()
		if err != nil {
			return batch, err
		}
		entry.PartitionKey, err = r.string16()
		if err != nil {
			return batch, err
		}
		numTables, err := r.uint32()
		if err != nil {
			return batch, err
		}
		for j := uint32(0); j < numTables; j++ {
			var t TableWriteBatch
			t.Name, err = r.string16()
			if err != nil {
				return batch, err
			}
			numRows, err := r.uint32()
			if err != nil {
				return batch, err
			}
			for k := uint32(0); k < numRows; k++ {
				numValues, err := r.uint16()
				if err != nil {
					return batch, err
				}
				var row Row
				for v := uint16(0); v < numValues; v++ {
					val, err := r.value()
					if err != nil {
						return batch, err
					}
					row.Values = append(row.Values, val)
				}
				t.Rows = append(t.Rows, row)
			}
			entry.Tables = append(entry.Tables, t)
		}
		batch.Entries = append(batch.Entries, entry)
	}
	return batch, nil
}
