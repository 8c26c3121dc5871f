// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package column

// Ordered constrains the scalar kinds that compare with plain <, > —
// everything except bool, which gets its own tiny statistics type below.
type Ordered interface {
	~float64 | ~int64 | ~uint64 | ~string
}

// Stats holds the running (min, max, count, null_count) for one column
// It is initialized lazily: a Stats value with Initialized
// false has seen no non-null value yet, matching the source's "a stats
// object may not exist for a column containing only nulls".
type Stats[T Ordered] struct {
	Min, Max    T
	Count       int64
	NullCount   int64
	Initialized bool
}

// Update advances Count and Min/Max for a non-null value.
func (s *Stats[T]) Update(v T) {
	if !s.Initialized {
		s.Min, s.Max = v, v
		s.Initialized = true
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Count++
}

// UpdateNull advances NullCount. Per the source, nulls injected by
// push_nulls_to_len do NOT advance NullCount. Column calls UpdateNull for
// explicit null values and for the nulls a new column is pre-padded with
// at creation, never for PushNullsToLen padding.
func (s *Stats[T]) UpdateNull() {
	s.NullCount++
}

// BoolStats is Stats specialized for bool, ordered false < true.
type BoolStats struct {
	Min, Max    bool
	Count       int64
	NullCount   int64
	Initialized bool
}

func (s *BoolStats) Update(v bool) {
	if !s.Initialized {
		s.Min, s.Max = v, v
		s.Initialized = true
	} else {
		if !v && s.Min {
			s.Min = false
		}
		if v && !s.Max {
			s.Max = true
		}
	}
	s.Count++
}

func (s *BoolStats) UpdateNull() {
	s.NullCount++
}
