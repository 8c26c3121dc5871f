// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chunk

import (
	"testing"

	"github.com/ccstorage/tsdbwritecore/internal/memreg"
	"github.com/ccstorage/tsdbwritecore/internal/parsedline"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *memreg.Registry {
	return memreg.NewRegistry(prometheus.NewRegistry())
}

func fixedPartitioner(key string) parsedline.Partitioner {
	return parsedline.PartitionerFunc(func(parsedline.ParsedLine, int64) string { return key })
}

func floatField(key string, v float64) parsedline.FieldPair {
	lv, err := lineprotocol.NewValue(v)
	if err != nil {
		panic(err)
	}
	return parsedline.FieldPair{Key: key, Value: lv}
}

func intField(key string, v int64) parsedline.FieldPair {
	lv, err := lineprotocol.NewValue(v)
	if err != nil {
		panic(err)
	}
	return parsedline.FieldPair{Key: key, Value: lv}
}

// Scenario 1 — empty-then-rollover.
func TestScenarioEmptyThenRollover(t *testing.T) {
	c := New("1970-01-01T00", 1, newRegistry())

	assert.Equal(t, int64(fixedHeaderBytes+len("1970-01-01T00")), c.Size())
	assert.Empty(t, c.order)

	require.NoError(t, c.Rollover())

	_, err := c.Write(nil, 0, fixedPartitioner("1970-01-01T00"))
	require.Error(t, err)
}

// Scenario 2 — two measurements, one chunk.
func TestScenarioTwoMeasurementsOneChunk(t *testing.T) {
	c := New("p", 1, newRegistry())
	lines := []parsedline.ParsedLine{
		{
			Measurement: "cpu",
			Tags:        []parsedline.TagPair{{Key: "region", Value: "west"}},
			Fields:      []parsedline.FieldPair{floatField("user", 23.2)},
			Timestamp:   ptr(int64(100)),
		},
		{
			Measurement: "cpu",
			Tags:        []parsedline.TagPair{{Key: "region", Value: "west"}},
			Fields:      []parsedline.FieldPair{floatField("user", 21.0)},
			Timestamp:   ptr(int64(150)),
		},
		{
			Measurement: "disk",
			Tags:        []parsedline.TagPair{{Key: "region", Value: "east"}},
			Fields:      []parsedline.FieldPair{intField("bytes", 99)},
			Timestamp:   ptr(int64(200)),
		},
	}

	n, err := c.Write(lines, 0, fixedPartitioner("p"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, c.Rollover())
	imm, err := c.Freeze()
	require.NoError(t, err)

	assert.True(t, imm.HasTable("cpu"))
	assert.True(t, imm.HasTable("disk"))

	cpuSchema, err := imm.TableSchema("cpu", nil)
	require.NoError(t, err)
	wantKinds := map[string]InfluxType{"region": InfluxTag, "user": InfluxFieldF64, "time": InfluxTimestamp}
	for _, sc := range cpuSchema.Columns {
		assert.Equal(t, wantKinds[sc.Name], sc.InfluxType, sc.Name)
	}

	diskSchema, err := imm.TableSchema("disk", nil)
	require.NoError(t, err)
	wantDisk := map[string]InfluxType{"region": InfluxTag, "bytes": InfluxFieldI64, "time": InfluxTimestamp}
	for _, sc := range diskSchema.Columns {
		assert.Equal(t, wantDisk[sc.Name], sc.InfluxType, sc.Name)
	}
}

// Scenario 5 — tag dictionary reuse.
func TestScenarioTagDictionaryReuse(t *testing.T) {
	c := New("p", 1, newRegistry())

	var lines []parsedline.ParsedLine
	for i := 0; i < 10; i++ {
		region := "west"
		if i%2 == 1 {
			region = "east"
		}
		lines = append(lines, parsedline.ParsedLine{
			Measurement: "cpu",
			Tags:        []parsedline.TagPair{{Key: "region", Value: region}},
			Fields:      []parsedline.FieldPair{floatField("user", 1.0)},
			Timestamp:   ptr(int64(i)),
		})
	}

	n, err := c.Write(lines, 0, fixedPartitioner("p"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	require.NoError(t, c.Rollover())
	imm, err := c.Freeze()
	require.NoError(t, err)

	for _, ts := range imm.TableSummaries() {
		for _, cs := range ts.Columns {
			if cs.Name == "region" {
				assert.EqualValues(t, 10, cs.Stats.Count)
				assert.Equal(t, "east", cs.Stats.MinStr)
				assert.Equal(t, "west", cs.Stats.MaxStr)
			}
		}
	}
}

// Scenario 6 — null-padding on late column.
func TestScenarioNullPaddingOnLateColumn(t *testing.T) {
	c := New("p", 1, newRegistry())

	_, err := c.Write([]parsedline.ParsedLine{{
		Measurement: "cpu",
		Fields:      []parsedline.FieldPair{floatField("user", 1.0)},
		Timestamp:   ptr(int64(1)),
	}}, 0, fixedPartitioner("p"))
	require.NoError(t, err)

	_, err = c.Write([]parsedline.ParsedLine{{
		Measurement: "cpu",
		Fields:      []parsedline.FieldPair{floatField("user", 2.0), floatField("system", 3.0)},
		Timestamp:   ptr(int64(2)),
	}}, 0, fixedPartitioner("p"))
	require.NoError(t, err)

	require.NoError(t, c.Rollover())
	imm, err := c.Freeze()
	require.NoError(t, err)

	for _, ts := range imm.TableSummaries() {
		for _, cs := range ts.Columns {
			if cs.Name == "system" {
				assert.EqualValues(t, 1, cs.Stats.NullCount)
				assert.EqualValues(t, 1, cs.Stats.Count)
			}
		}
	}
}

// Scenario 1b — a chunk rolled over without ever receiving a write can
// still be frozen, producing an ImmutableChunk with no tables at all.
func TestScenarioZeroRowsFrozenDirectly(t *testing.T) {
	c := New("p", 1, newRegistry())

	require.NoError(t, c.Rollover())
	imm, err := c.Freeze()
	require.NoError(t, err)

	assert.Empty(t, imm.TableSummaries())
	assert.False(t, imm.HasTable("cpu"))
	assert.Equal(t, TimestampRange{}, imm.OverallTimestampRange())

	_, err = imm.ReadFilter("cpu", nil, AllColumns{})
	require.Error(t, err)
}

// Scenario 3 — schema merge across chunks. Chunk A and Chunk B each
// receive a partial view of "cpu"'s eventual union schema; each chunk's
// own TableSchema reflects only what it was actually written, since
// union-across-chunks and null-filling an absent column is a read-path
// concern this core does not implement.
func TestScenarioSchemaMergeAcrossChunks(t *testing.T) {
	a := New("p", 1, newRegistry())
	_, err := a.Write([]parsedline.ParsedLine{{
		Measurement: "cpu",
		Tags:        []parsedline.TagPair{{Key: "region", Value: "west"}},
		Fields:      []parsedline.FieldPair{floatField("user", 23.2), floatField("system", 5.0)},
		Timestamp:   ptr(int64(100)),
	}}, 0, fixedPartitioner("p"))
	require.NoError(t, err)
	require.NoError(t, a.Rollover())
	immA, err := a.Freeze()
	require.NoError(t, err)

	b := New("p", 2, newRegistry())
	_, err = b.Write([]parsedline.ParsedLine{{
		Measurement: "cpu",
		Tags: []parsedline.TagPair{
			{Key: "region", Value: "east"},
			{Key: "host", Value: "foo"},
		},
		Fields:    []parsedline.FieldPair{floatField("user", 23.2)},
		Timestamp: ptr(int64(100)),
	}}, 0, fixedPartitioner("p"))
	require.NoError(t, err)
	require.NoError(t, b.Rollover())
	immB, err := b.Freeze()
	require.NoError(t, err)

	namesA, ok := immA.ColumnNames("cpu", nil)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"region", "user", "system", "time"}, namesA)
	assert.NotContains(t, namesA, "host")

	namesB, ok := immB.ColumnNames("cpu", nil)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"region", "host", "user", "time"}, namesB)
	assert.NotContains(t, namesB, "system")
}

func TestReadFilterInMemoryAndAfterFree(t *testing.T) {
	c := New("p", 1, newRegistry())
	_, err := c.Write([]parsedline.ParsedLine{{
		Measurement: "cpu",
		Tags:        []parsedline.TagPair{{Key: "region", Value: "west"}},
		Fields:      []parsedline.FieldPair{floatField("user", 1.0)},
		Timestamp:   ptr(int64(1)),
	}}, 0, fixedPartitioner("p"))
	require.NoError(t, err)
	require.NoError(t, c.Rollover())
	imm, err := c.Freeze()
	require.NoError(t, err)

	seq, err := imm.ReadFilter("cpu", nil, AllColumns{})
	require.NoError(t, err)
	var got []RecordBatch
	for rb := range seq {
		got = append(got, rb)
	}
	require.Len(t, got, 1)
	assert.Len(t, got[0].Rows, 1)

	imm.FreeFromMemory()
	_, err = imm.ReadFilter("cpu", nil, AllColumns{})
	require.Error(t, err)
}

func ptr(v int64) *int64 { return &v }
