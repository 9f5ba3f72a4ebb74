// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package queryref implements the query tracker: a process-wide count of
// active readers per snapshot path, shared by the refresh scheduler, the
// search orchestrator, and the cleanup manager.
package queryref

import (
	"sync/atomic"

	"github.com/code-indexer/goldenrepo/internal/syncx"
)

// Tracker counts active readers per snapshot path. All operations are
// thread-safe and constant-time. There is one Tracker per process; callers
// share a single instance rather than constructing their own.
type Tracker struct {
	counts syncx.Map[string, *atomic.Int64]
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) counter(path string) *atomic.Int64 {
	c, _ := t.counts.LoadOrStore(path, &atomic.Int64{})
	return c
}

// IncrementRef records one more active reader of path.
func (t *Tracker) IncrementRef(path string) {
	t.counter(path).Add(1)
}

// DecrementRef records that a reader of path has finished. Decrementing
// below zero is a programmer error — a reader released a path it never
// acquired — and panics rather than silently going negative, per the
// tracker's invariant.
func (t *Tracker) DecrementRef(path string) {
	if t.counter(path).Add(-1) < 0 {
		panic("queryref: ref count went negative for " + path)
	}
}

// GetRefCount returns the current reader count for path. A path never
// referenced returns zero.
func (t *Tracker) GetRefCount(path string) int64 {
	c, ok := t.counts.Load(path)
	if !ok {
		return 0
	}
	return c.Load()
}
