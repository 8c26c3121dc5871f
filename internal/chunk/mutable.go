// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chunk

import (
	"sync"

	"github.com/ccstorage/tsdbwritecore/internal/column"
	"github.com/ccstorage/tsdbwritecore/internal/corelog"
	"github.com/ccstorage/tsdbwritecore/internal/dict"
	"github.com/ccstorage/tsdbwritecore/internal/memreg"
	"github.com/ccstorage/tsdbwritecore/internal/parsedline"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
	"github.com/ccstorage/tsdbwritecore/internal/table"
)

const timeColumnName = table.TimeColumn

// fixedHeaderBytes approximates the chunk's own bookkeeping overhead
// (state, chunk id, table index) independent of table contents.
const fixedHeaderBytes = 64

// MutableChunk is a writable chunk: OpenMutable until rollover, then
// ClosedMutable until frozen into an ImmutableChunk. The core is
// single-threaded per chunk; mu only serializes the lifecycle
// transition itself against concurrent writes, it is not a substitute
// for single-writer discipline.
type MutableChunk struct {
	mu sync.Mutex

	partitionKey string
	chunkID      uint32
	state        State

	dict   *dict.Dictionary
	tables map[string]*table.Batch
	order  []string

	mem      *memreg.MemTracker
	sizeByte int64
}

// New constructs a chunk in OpenMutable and registers a memory tracker
// with registry.
func New(partitionKey string, chunkID uint32, registry *memreg.Registry) *MutableChunk {
	c := &MutableChunk{
		partitionKey: partitionKey,
		chunkID:      chunkID,
		state:        OpenMutable,
		dict:         dict.New(),
		tables:       make(map[string]*table.Batch),
		mem:          registry.Register(partitionKey, chunkID),
	}
	c.sizeByte = c.computeSize()
	c.mem.SetBytes(c.sizeByte)
	return c
}

func (c *MutableChunk) PartitionKey() string { return c.partitionKey }
func (c *MutableChunk) ChunkID() uint32      { return c.chunkID }

func (c *MutableChunk) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// tableBatch returns the named table, creating it on first sight.
func (c *MutableChunk) tableBatch(name string) *table.Batch {
	if b, ok := c.tables[name]; ok {
		return b
	}
	b := table.NewBatch(name, c.dict)
	c.tables[name] = b
	c.order = append(c.order, name)
	return b
}

// Write appends every line in lines whose partitioner output equals this
// chunk's partition key, returning the number of rows appended. Lines
// targeting a different partition are rejected (the router is expected
// to have pre-partitioned); write fails outright once the chunk has
// rolled over.
func (c *MutableChunk) Write(lines []parsedline.ParsedLine, defaultTimeNs int64, partitioner parsedline.Partitioner) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != OpenMutable {
		return 0, storeerr.New(storeerr.TypeMismatch).
			WithTable(c.partitionKey).WithCause(errChunkNotOpen)
	}

	appended := 0
	for _, line := range lines {
		key := partitioner.PartitionKey(line, defaultTimeNs)
		if key != c.partitionKey {
			corelog.Warnf("[CHUNK]> rejecting line for %q, partition key %q != %q", line.Measurement, key, c.partitionKey)
			continue
		}

		ts := defaultTimeNs
		if line.Timestamp != nil {
			ts = *line.Timestamp
		}

		tags := make([]table.TagEntry, len(line.Tags))
		for i, t := range line.Tags {
			tags[i] = table.TagEntry{Name: t.Key, Value: t.Value}
		}

		fields := make([]table.FieldEntry, len(line.Fields))
		for i, f := range line.Fields {
			v, err := parsedline.ToColumnValue(f.Value)
			if err != nil {
				return appended, err
			}
			fields[i] = table.FieldEntry{Name: f.Key, Value: v}
		}

		batch := c.tableBatch(line.Measurement)
		if err := batch.AppendRow(tags, fields, ts); err != nil {
			return appended, err
		}
		appended++
	}

	c.sizeByte = c.computeSize()
	c.mem.SetBytes(c.sizeByte)
	return appended, nil
}

// Rollover transitions OpenMutable -> ClosedMutable. After this, Write
// fails. The chunk leaves the open-chunk gauge here rather than at
// Freeze, since ClosedMutable already means no further writes land.
func (c *MutableChunk) Rollover() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != OpenMutable {
		return storeerr.New(storeerr.TypeMismatch).WithCause(errChunkNotOpen)
	}
	c.state = ClosedMutable
	c.sizeByte = c.computeSize()
	c.mem.SetBytes(c.sizeByte)
	c.mem.Close()
	return nil
}

// Size returns the chunk's current approximate byte footprint.
func (c *MutableChunk) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizeByte
}

func (c *MutableChunk) computeSize() int64 {
	var total int64 = fixedHeaderBytes + int64(len(c.partitionKey)) + c.dict.SizeBytes()
	for _, name := range c.order {
		total += c.tables[name].Size()
	}
	return total
}

// Freeze converts a ClosedMutable chunk into an ImmutableChunk, carrying
// per-table summaries, the union timestamp range, and no persisted path
// yet (see pkg/persist for attaching one).
func (c *MutableChunk) Freeze() (*ImmutableChunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClosedMutable {
		return nil, storeerr.New(storeerr.TypeMismatch).WithCause(errChunkNotClosed)
	}

	summaries := make([]TableSummary, 0, len(c.order))
	ranges := make(map[string]TimestampRange, len(c.order))
	var union *TimestampRange

	for _, name := range c.order {
		batch := c.tables[name]
		cols := make([]ColumnSummary, 0, len(batch.ColumnNames()))
		for _, colName := range batch.ColumnNames() {
			col := batch.Column(colName)
			logical := column.LogicalField
			if col.Kind() == column.Tag {
				logical = column.LogicalTag
			}
			cols = append(cols, ColumnSummary{
				Name:       colName,
				InfluxType: influxTypeOf(colName, col.Kind(), logical),
				Stats:      col.StatsSummary(),
			})
		}
		summaries = append(summaries, TableSummary{Name: name, Columns: cols})

		if timeCol := batch.Column(timeColumnName); timeCol != nil {
			st := timeCol.StatsSummary()
			if st.Initialized {
				r := TimestampRange{Min: st.MinI64, Max: st.MaxI64}
				ranges[name] = r
				if union == nil {
					u := r
					union = &u
				} else {
					if r.Min < union.Min {
						union.Min = r.Min
					}
					if r.Max > union.Max {
						union.Max = r.Max
					}
				}
			}
		}
	}

	c.state = Immutable
	finalSize := c.computeSize()
	c.mem.SetBytes(finalSize)

	var overall TimestampRange
	if union != nil {
		overall = *union
	}

	return &ImmutableChunk{
		partitionKey: c.partitionKey,
		chunkID:      c.chunkID,
		state:        Immutable,
		summaries:    summaries,
		tableRanges:  ranges,
		overallRange: overall,
		sizeByte:     finalSize,
		tables:       c.tables,
	}, nil
}
