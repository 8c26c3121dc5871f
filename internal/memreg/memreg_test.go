// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memreg

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterTracksBytesAndOpenCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	mt := r.Register("1970-01-01T00", 1)
	assert.EqualValues(t, 1, testutil.ToFloat64(r.chunksOpen))

	mt.SetBytes(1024)
	assert.EqualValues(t, 1024, mt.Bytes())

	mt.Close()
	assert.EqualValues(t, 0, testutil.ToFloat64(r.chunksOpen))

	// Close is idempotent.
	mt.Close()
	assert.EqualValues(t, 0, testutil.ToFloat64(r.chunksOpen))
}
