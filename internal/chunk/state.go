// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chunk implements the Partition/Chunk lifecycle and
// the read-only Immutable Columnar Chunk façade: a chunk
// groups tables under one partition key and advances through
// OpenMutable -> ClosedMutable -> Immutable -> Persisted, never
// regressing.
package chunk

// State is a chunk's lifecycle stage. States only ever advance; there is
// no operation that regresses a chunk to an earlier state.
type State int

const (
	OpenMutable State = iota
	ClosedMutable
	Immutable
	Persisted
)

func (s State) String() string {
	switch s {
	case OpenMutable:
		return "OpenMutable"
	case ClosedMutable:
		return "ClosedMutable"
	case Immutable:
		return "Immutable"
	case Persisted:
		return "Persisted"
	default:
		return "Unknown"
	}
}
