// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package router implements the Write Router: the sole
// legitimate producer of a Replicated Write envelope. It is thin
// orchestration over envelope.Encode, responsible only for capturing the
// batch's single default timestamp before handing lines off.
package router

import (
	"time"

	"github.com/ccstorage/tsdbwritecore/internal/corelog"
	"github.com/ccstorage/tsdbwritecore/internal/envelope"
	"github.com/ccstorage/tsdbwritecore/internal/parsedline"
)

// Router converts parsed lines into replicated-write envelopes. Now is
// overridable in tests; it defaults to time.Now.
type Router struct {
	Now func() time.Time
}

func New() *Router {
	return &Router{Now: time.Now}
}

// WriteLines defaults any absent line timestamp to a single wall-clock
// reading for the whole batch, then delegates to envelope.Encode.
func (r *Router) WriteLines(writerID uint32, sequence uint64, lines []parsedline.ParsedLine, partitioner parsedline.Partitioner) (*envelope.Envelope, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	defaultTimeNs := now().UnixNano()

	env, err := envelope.Encode(writerID, sequence, lines, partitioner, defaultTimeNs)
	if err != nil {
		corelog.Errorf("[ROUTER]> encode failed for writer=%d sequence=%d: %s", writerID, sequence, err.Error())
		return nil, err
	}
	corelog.Debugf("[ROUTER]> encoded writer=%d sequence=%d lines=%d payload_bytes=%d", writerID, sequence, len(lines), len(env.Payload))
	return env, nil
}
