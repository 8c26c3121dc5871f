// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package envelope

import (
	"testing"

	"github.com/ccstorage/tsdbwritecore/internal/parsedline"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyedPartitioner() parsedline.Partitioner {
	return parsedline.PartitionerFunc(func(l parsedline.ParsedLine, _ int64) string {
		for _, t := range l.Tags {
			if t.Key == "bucket" {
				return t.Value
			}
		}
		return "default"
	})
}

func mustFloat(v float64) lineprotocol.Value {
	lv, err := lineprotocol.NewValue(v)
	if err != nil {
		panic(err)
	}
	return lv
}

// Scenario 4 — envelope determinism.
func TestScenarioEnvelopeDeterminism(t *testing.T) {
	lines := []parsedline.ParsedLine{
		{Measurement: "cpu", Tags: []parsedline.TagPair{{Key: "bucket", Value: "b"}}, Fields: []parsedline.FieldPair{{Key: "user", Value: mustFloat(1)}}},
		{Measurement: "cpu", Tags: []parsedline.TagPair{{Key: "bucket", Value: "a"}}, Fields: []parsedline.FieldPair{{Key: "user", Value: mustFloat(2)}}},
	}

	e1, err := Encode(7, 42, lines, keyedPartitioner(), 1000)
	require.NoError(t, err)
	e2, err := Encode(7, 42, lines, keyedPartitioner(), 1000)
	require.NoError(t, err)

	assert.Equal(t, e1.Payload, e2.Payload)
	assert.Equal(t, e1.Checksum, e2.Checksum)

	batch, err := e1.Batch()
	require.NoError(t, err)
	require.Len(t, batch.Entries, 2)
	assert.Equal(t, "a", batch.Entries[0].PartitionKey)
	assert.Equal(t, "b", batch.Entries[1].PartitionKey)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	lines := []parsedline.ParsedLine{
		{Measurement: "cpu", Tags: []parsedline.TagPair{{Key: "host", Value: "a"}}, Fields: []parsedline.FieldPair{{Key: "user", Value: mustFloat(23.2)}}, Timestamp: ptr(100)},
	}
	e, err := Encode(1, 1, lines, parsedline.PartitionerFunc(func(parsedline.ParsedLine, int64) string { return "p" }), 0)
	require.NoError(t, err)

	decoded, err := Decode(e.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, e.Writer, decoded.Writer)
	assert.Equal(t, e.Sequence, decoded.Sequence)
	assert.Equal(t, e.Checksum, decoded.Checksum)
	require.NoError(t, decoded.VerifyChecksum())

	assert.True(t, decoded.EqualToWriterAndSequence(1, 1))

	batch, err := decoded.Batch()
	require.NoError(t, err)
	require.Len(t, batch.Entries, 1)
	require.Len(t, batch.Entries[0].Tables, 1)
	require.Len(t, batch.Entries[0].Tables[0].Rows, 1)

	row := batch.Entries[0].Tables[0].Rows[0]
	require.Len(t, row.Values, 3) // host tag, user field, trailing time
	assert.Equal(t, "host", row.Values[0].Column)
	assert.Equal(t, VTag, row.Values[0].Type)
	assert.Equal(t, "user", row.Values[1].Column)
	assert.Equal(t, VF64, row.Values[1].Type)
	assert.Equal(t, "time", row.Values[2].Column)
	assert.Equal(t, VI64, row.Values[2].Type)
	assert.EqualValues(t, 100, row.Values[2].I64)
}

func TestChecksumMismatchDetected(t *testing.T) {
	e, err := Encode(1, 1, nil, parsedline.PartitionerFunc(func(parsedline.ParsedLine, int64) string { return "p" }), 0)
	require.NoError(t, err)

	raw := e.ToBytes()
	raw[12] ^= 0xFF // flip a checksum byte

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Error(t, decoded.VerifyChecksum())
}

func TestEmptyPayloadIsZeroEntries(t *testing.T) {
	e := &Envelope{Writer: 1, Sequence: 1}
	n, err := e.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func ptr(v int64) *int64 { return &v }
