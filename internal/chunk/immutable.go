// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package chunk

import (
	"errors"
	"iter"
	"sort"

	"github.com/ccstorage/tsdbwritecore/internal/column"
	"github.com/ccstorage/tsdbwritecore/internal/storeerr"
	"github.com/ccstorage/tsdbwritecore/internal/table"
)

// Selection and Predicate are opaque to the core: consumed
// only by the read path, which the core declares a contract for without
// implementing a query engine.
type Selection interface {
	Includes(columnName string) bool
}

// AllColumns is the zero-overhead Selection that admits every column.
type AllColumns struct{}

func (AllColumns) Includes(string) bool { return true }

// RowView is one row's values keyed by (selected) column name.
type RowView map[string]column.Value

// Predicate decides whether a row belongs in a read_filter result. A nil
// Predicate matches every row.
type Predicate interface {
	Matches(row RowView) bool
}

// RecordBatch is one unit of the lazy stream read_filter yields.
type RecordBatch struct {
	TableName string
	Rows      []RowView
}

var errNoPersistedReader = errors.New("chunk: no persisted-file reader attached")

// PersistedReader is the contract for reading rows back out of a
// persisted column file, implemented outside this package; pkg/persist
// provides a concrete implementation.
type PersistedReader interface {
	ReadFilter(path, tableName string, selection Selection) (iter.Seq[RecordBatch], error)
}

// ImmutableChunk is the read-only façade over one frozen chunk. Once
// Persisted, tables may be nil (freed to respect the memory cap) and
// reads fall through to reader against paths instead.
type ImmutableChunk struct {
	partitionKey string
	chunkID      uint32
	state        State

	summaries    []TableSummary
	tableRanges  map[string]TimestampRange
	overallRange TimestampRange
	sizeByte     int64

	tables map[string]*table.Batch // nil once freed from memory
	paths  map[string]string       // table name -> persisted file path
	reader PersistedReader
}

func (ic *ImmutableChunk) ID() uint32           { return ic.chunkID }
func (ic *ImmutableChunk) PartitionKey() string { return ic.partitionKey }

// AllPaths returns every persisted file path this chunk was written to,
// in no particular order.
func (ic *ImmutableChunk) AllPaths() []string {
	paths := make([]string, 0, len(ic.paths))
	for _, p := range ic.paths {
		paths = append(paths, p)
	}
	return paths
}
func (ic *ImmutableChunk) Size() int64          { return ic.sizeByte }
func (ic *ImmutableChunk) State() State { return ic.state }
func (ic *ImmutableChunk) OverallTimestampRange() TimestampRange { return ic.overallRange }

// TableSummaries returns one summary per table.
func (ic *ImmutableChunk) TableSummaries() []TableSummary { return ic.summaries }

// HasTable reports whether name exists in this chunk.
func (ic *ImmutableChunk) HasTable(name string) bool {
	for _, ts := range ic.summaries {
		if ts.Name == name {
			return true
		}
	}
	return false
}

// SortedSet is a caller-owned, insertion-deduplicated, sorted string set,
// the accumulator AllTableNames appends into.
type SortedSet struct {
	seen  map[string]struct{}
	items []string
}

func NewSortedSet() *SortedSet {
	return &SortedSet{seen: make(map[string]struct{})}
}

func (s *SortedSet) Add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	i := sort.SearchStrings(s.items, v)
	s.items = append(s.items, "")
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = v
}

func (s *SortedSet) Items() []string { return s.items }

// AllTableNames appends this chunk's table names into into.
func (ic *ImmutableChunk) AllTableNames(into *SortedSet) {
	for _, ts := range ic.summaries {
		into.Add(ts.Name)
	}
}

// TableNames yields table names whose own TimestampRange overlaps tr. A
// nil tr yields every table name.
func (ic *ImmutableChunk) TableNames(tr *TimestampRange) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, ts := range ic.summaries {
			if tr != nil {
				r, ok := ic.tableRanges[ts.Name]
				if !ok || !r.Overlaps(*tr) {
					continue
				}
			}
			if !yield(ts.Name) {
				return
			}
		}
	}
}

func (ic *ImmutableChunk) summaryFor(name string) (TableSummary, bool) {
	for _, ts := range ic.summaries {
		if ts.Name == name {
			return ts, true
		}
	}
	return TableSummary{}, false
}

// TableSchema returns name's column name/type list, filtered by
// selection.
func (ic *ImmutableChunk) TableSchema(name string, selection Selection) (Schema, error) {
	ts, ok := ic.summaryFor(name)
	if !ok {
		return Schema{}, storeerr.New(storeerr.NamedTableNotFoundInChunk).WithTable(name)
	}
	if selection == nil {
		selection = AllColumns{}
	}
	out := Schema{}
	for _, c := range ts.Columns {
		if selection.Includes(c.Name) {
			out.Columns = append(out.Columns, SchemaColumn{Name: c.Name, InfluxType: c.InfluxType})
		}
	}
	return out, nil
}

// ColumnNames returns name's column names filtered by selection, or ok
// false if the table does not exist in this chunk.
func (ic *ImmutableChunk) ColumnNames(name string, selection Selection) (names []string, ok bool) {
	ts, found := ic.summaryFor(name)
	if !found {
		return nil, false
	}
	if selection == nil {
		selection = AllColumns{}
	}
	for _, c := range ts.Columns {
		if selection.Includes(c.Name) {
			names = append(names, c.Name)
		}
	}
	return names, true
}

// ReadFilter yields a lazy, restartable stream of row batches from name
// matching predicate over the columns selection admits. When the chunk's
// tables are resident this reads directly from them; once freed (a
// Persisted chunk past its in-memory retention window) it delegates to
// reader, failing with ReadParquet if none is attached.
func (ic *ImmutableChunk) ReadFilter(name string, predicate Predicate, selection Selection) (iter.Seq[RecordBatch], error) {
	if !ic.HasTable(name) {
		return nil, storeerr.New(storeerr.NamedTableNotFoundInChunk).WithTable(name)
	}
	if selection == nil {
		selection = AllColumns{}
	}

	if ic.tables != nil {
		return readFilterInMemory(ic.tables[name], name, predicate, selection), nil
	}

	if ic.reader == nil || len(ic.paths) == 0 {
		return nil, storeerr.New(storeerr.ReadParquet).WithTable(name).WithCause(errNoPersistedReader)
	}
	path, ok := ic.paths[name]
	if !ok {
		return nil, storeerr.New(storeerr.ReadParquet).WithTable(name).WithCause(errNoPersistedReader)
	}
	seq, err := ic.reader.ReadFilter(path, name, selection)
	if err != nil {
		return nil, storeerr.New(storeerr.ReadParquet).WithTable(name).WithCause(err)
	}
	return seq, nil
}

// AttachPersisted records the table name -> persisted file path mapping
// a chunk was written to, and, once memory is reclaimed, the reader used
// to serve further reads. FreeFromMemory drops the resident column
// data; callers must have called AttachPersisted with a non-nil reader
// first or subsequent ReadFilter calls fail with ReadParquet.
func (ic *ImmutableChunk) AttachPersisted(paths map[string]string, reader PersistedReader) {
	ic.paths = paths
	ic.reader = reader
	ic.state = Persisted
}

// FreeFromMemory releases resident table data. Only meaningful after
// AttachPersisted; it is the operator's lever for the memory-cap policy
// described in internal/config.
func (ic *ImmutableChunk) FreeFromMemory() { ic.tables = nil }

func readFilterInMemory(batch *table.Batch, tableName string, predicate Predicate, selection Selection) iter.Seq[RecordBatch] {
	return func(yield func(RecordBatch) bool) {
		if batch == nil {
			return
		}
		names := batch.ColumnNames()
		selected := make([]string, 0, len(names))
		for _, n := range names {
			if selection.Includes(n) {
				selected = append(selected, n)
			}
		}

		rows := make([]RowView, 0, batch.RowCount())
		for i := 0; i < batch.RowCount(); i++ {
			row := make(RowView, len(selected))
			for _, n := range selected {
				row[n] = batch.Column(n).At(i)
			}
			if predicate != nil && !predicate.Matches(row) {
				continue
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			return
		}
		yield(RecordBatch{TableName: tableName, Rows: rows})
	}
}
