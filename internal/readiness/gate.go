// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package readiness implements the per-chunk readiness primitive (spec
// §5): a mutually exclusive slot holding Started, Ready, or Error. A
// caller that finds Ready proceeds immediately; one that finds Started
// must run the startup exactly once; one that finds Error fails fast
// with no retry. Modeled on the Started/Ready/Error state machine that
// guards one-shot server startup in the original test fixtures this
// module's write path descends from.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the readiness slot's value.
type State int

const (
	Started State = iota
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Started:
		return "Started"
	case Ready:
		return "Ready"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrPreviouslyFailed is returned by Await when the gate is already in
// Error from a prior attempt — the caller must not retry in this process.
var ErrPreviouslyFailed = errors.New("readiness: gate previously entered Error, aborting")

// Gate guards a one-shot initialization. Only one goroutine at a time
// observes or mutates the state; concurrent callers block on mu until
// the first resolves it.
type Gate struct {
	mu    sync.Mutex
	state State
	err   error
}

// New returns a Gate in the Started state.
func New() *Gate { return &Gate{state: Started} }

// Await runs startup exactly once across all callers. The first caller
// to arrive while the gate is Started executes startup; later callers —
// concurrent or subsequent — either block until it finishes (Ready/Error)
// or, if already resolved, return immediately. If ctx is cancelled before
// startup finishes, the gate transitions to Error and every waiter
// (current and future) receives that failure.
func (g *Gate) Await(ctx context.Context, startup func(context.Context) error) error {
	g.mu.Lock()
	switch g.state {
	case Ready:
		g.mu.Unlock()
		return nil
	case Error:
		err := g.err
		g.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrPreviouslyFailed, err)
	}

	// state == Started: this call owns the transition. The lock is held
	// across startup, which matches the source's "only one task at a
	// time may observe/mutate it" — concurrent Await calls simply block.
	done := make(chan error, 1)
	go func() { done <- startup(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		g.state = Error
		g.err = err
		g.mu.Unlock()
		return err
	}

	g.state = Ready
	g.mu.Unlock()
	return nil
}

// State returns the gate's current value without blocking.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
