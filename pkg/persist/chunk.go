// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package persist

import (
	"fmt"
	"path/filepath"

	"github.com/ccstorage/tsdbwritecore/internal/chunk"
	"github.com/ccstorage/tsdbwritecore/internal/config"
	"golang.org/x/sync/errgroup"
)

// WriteChunk persists every table in imm to one file per table under
// dir, named "<table>.avro" or "<table>.parquet" depending on format
// ("avro" or "parquet"), and returns a table name -> path map ready to
// hand to ImmutableChunk.AttachPersisted alongside the matching
// PersistedReader (AvroReader or ParquetReader). Tables are written
// concurrently, bounded by config.Keys.NumWorkers.
func WriteChunk(dir, format string, imm *chunk.ImmutableChunk) (map[string]string, error) {
	names := chunk.NewSortedSet()
	imm.AllTableNames(names)
	tables := names.Items()

	written := make([]string, len(tables))
	g := new(errgroup.Group)
	if n := config.Keys.NumWorkers; n > 0 {
		g.SetLimit(n)
	}

	for i, name := range tables {
		i, name := i, name
		g.Go(func() error {
			path, err := writeTable(dir, format, name, imm)
			if err != nil {
				return err
			}
			written[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make(map[string]string, len(tables))
	for i, name := range tables {
		paths[name] = written[i]
	}
	return paths, nil
}

func writeTable(dir, format, name string, imm *chunk.ImmutableChunk) (string, error) {
	seq, err := imm.ReadFilter(name, nil, chunk.AllColumns{})
	if err != nil {
		return "", fmt.Errorf("persist: read %q for persisting: %w", name, err)
	}

	var rows []chunk.RowView
	for rb := range seq {
		rows = append(rows, rb.Rows...)
	}

	var path string
	switch format {
	case "avro":
		path = filepath.Join(dir, name+".avro")
		err = WriteAvro(path, name, rows)
	case "parquet", "":
		path = filepath.Join(dir, name+".parquet")
		err = WriteParquet(path, name, rows)
	default:
		return "", fmt.Errorf("persist: unknown checkpoint file format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("persist: write table %q: %w", name, err)
	}
	return path, nil
}

// ReaderFor returns the PersistedReader matching format, for pairing
// with WriteChunk's output in a subsequent ImmutableChunk.AttachPersisted call.
func ReaderFor(format string) (chunk.PersistedReader, error) {
	switch format {
	case "avro":
		return AvroReader{}, nil
	case "parquet", "":
		return ParquetReader{}, nil
	default:
		return nil, fmt.Errorf("persist: unknown checkpoint file format %q", format)
	}
}
