// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memreg is the operator-visible memory registry: a
// shared counter updated at batch boundaries, exposed as Prometheus
// gauges the way a columnar storage engine reports its resident chunk
// footprint — register a Gauge per chunk with promauto against an
// injected Registerer rather than the global default registry.
package memreg

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry hands out one MemTracker per chunk and exposes a
// process-wide open-chunk gauge.
type Registry struct {
	reg        prometheus.Registerer
	chunkBytes *prometheus.GaugeVec
	chunksOpen prometheus.Gauge
}

func NewRegistry(reg prometheus.Registerer) *Registry {
	return &Registry{
		reg: reg,
		chunkBytes: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "writecore_chunk_bytes",
			Help: "Approximate resident byte size of a chunk.",
		}, []string{"partition_key", "chunk_id"}),
		chunksOpen: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "writecore_chunks_open",
			Help: "Number of chunks currently in OpenMutable state.",
		}),
	}
}

// Register returns a tracker for one chunk, incrementing the open-chunk
// gauge. Callers release it via MemTracker.Close when the chunk rolls
// over or is dropped.
func (r *Registry) Register(partitionKey string, chunkID uint32) *MemTracker {
	r.chunksOpen.Inc()
	return &MemTracker{
		reg:          r,
		partitionKey: partitionKey,
		chunkID:      chunkID,
	}
}

// MemTracker is the per-chunk handle: reads are monotonic in the sense
// that SetBytes always reflects the caller's last call, but may lag
// actual usage by up to one batch.
type MemTracker struct {
	reg          *Registry
	partitionKey string
	chunkID      uint32
	bytes        atomic.Int64
	closed       atomic.Bool
}

// SetBytes replaces the tracker's reported value. A no-op on the
// exported gauge after Close, so a stale caller can't resurrect a
// series this tracker already removed.
func (m *MemTracker) SetBytes(n int64) {
	m.bytes.Store(n)
	if m.closed.Load() {
		return
	}
	m.reg.chunkBytes.WithLabelValues(m.partitionKey, chunkIDLabel(m.chunkID)).Set(float64(n))
}

// Bytes returns the last value passed to SetBytes.
func (m *MemTracker) Bytes() int64 { return m.bytes.Load() }

// Close removes this chunk's series from the gauge and decrements the
// open-chunk count. Idempotent.
func (m *MemTracker) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.reg.chunkBytes.DeleteLabelValues(m.partitionKey, chunkIDLabel(m.chunkID))
	m.reg.chunksOpen.Dec()
}

func chunkIDLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
