// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package partition owns the partition-keyed registry of chunks: at most
// one OpenMutable chunk per partition key, and a strictly increasing
// per-partition chunk id across rollovers.
package partition

import (
	"sync"

	"github.com/ccstorage/tsdbwritecore/internal/chunk"
	"github.com/ccstorage/tsdbwritecore/internal/memreg"
)

// Registry maps partition keys to their current open chunk plus the
// frozen chunks accumulated so far.
type Registry struct {
	mu        sync.Mutex
	mem       *memreg.Registry
	open      map[string]*chunk.MutableChunk
	nextID    map[string]uint32
	immutable map[string][]*chunk.ImmutableChunk
}

func NewRegistry(mem *memreg.Registry) *Registry {
	return &Registry{
		mem:       mem,
		open:      make(map[string]*chunk.MutableChunk),
		nextID:    make(map[string]uint32),
		immutable: make(map[string][]*chunk.ImmutableChunk),
	}
}

// OpenChunk returns the partition's current OpenMutable chunk, creating
// one with the next monotonic chunk id if none is open.
func (r *Registry) OpenChunk(partitionKey string) *chunk.MutableChunk {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.open[partitionKey]; ok {
		return c
	}

	id := r.nextID[partitionKey]
	r.nextID[partitionKey] = id + 1
	c := chunk.New(partitionKey, id, r.mem)
	r.open[partitionKey] = c
	return c
}

// RolloverAndFreeze closes and freezes the partition's current open
// chunk, if any, appending the result to the partition's immutable set
// and clearing the open slot so the next OpenChunk call mints a fresh
// one with the next chunk id.
func (r *Registry) RolloverAndFreeze(partitionKey string) (*chunk.ImmutableChunk, error) {
	r.mu.Lock()
	c, ok := r.open[partitionKey]
	if !ok {
		r.mu.Unlock()
		return nil, nil
	}
	delete(r.open, partitionKey)
	r.mu.Unlock()

	if err := c.Rollover(); err != nil {
		return nil, err
	}
	imm, err := c.Freeze()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.immutable[partitionKey] = append(r.immutable[partitionKey], imm)
	r.mu.Unlock()
	return imm, nil
}

// ImmutableChunks returns the partition's frozen chunks in rollover
// order (oldest first).
func (r *Registry) ImmutableChunks(partitionKey string) []*chunk.ImmutableChunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*chunk.ImmutableChunk, len(r.immutable[partitionKey]))
	copy(out, r.immutable[partitionKey])
	return out
}

// PartitionKeys returns every partition key this registry has ever
// touched, whether currently open, only immutable, or both.
func (r *Registry) PartitionKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	for k := range r.open {
		seen[k] = struct{}{}
	}
	for k := range r.immutable {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	return keys
}
