// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"testing"

	"github.com/ccstorage/tsdbwritecore/internal/memreg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(memreg.NewRegistry(prometheus.NewRegistry()))
}

func TestOpenChunkReturnsSameChunkUntilRollover(t *testing.T) {
	r := newTestRegistry()
	a := r.OpenChunk("p")
	b := r.OpenChunk("p")
	assert.Same(t, a, b)
}

func TestChunkIDsIncreaseMonotonicallyAcrossRollovers(t *testing.T) {
	r := newTestRegistry()

	c0 := r.OpenChunk("p")
	assert.EqualValues(t, 0, c0.ChunkID())
	_, err := r.RolloverAndFreeze("p")
	require.NoError(t, err)

	c1 := r.OpenChunk("p")
	assert.EqualValues(t, 1, c1.ChunkID())
}

func TestRolloverAndFreezeNoOpWhenNothingOpen(t *testing.T) {
	r := newTestRegistry()
	imm, err := r.RolloverAndFreeze("never-opened")
	require.NoError(t, err)
	assert.Nil(t, imm)
}

func TestImmutableChunksAccumulateInOrder(t *testing.T) {
	r := newTestRegistry()
	r.OpenChunk("p")
	imm0, err := r.RolloverAndFreeze("p")
	require.NoError(t, err)

	r.OpenChunk("p")
	imm1, err := r.RolloverAndFreeze("p")
	require.NoError(t, err)

	got := r.ImmutableChunks("p")
	require.Len(t, got, 2)
	assert.Same(t, imm0, got[0])
	assert.Same(t, imm1, got[1])
}
