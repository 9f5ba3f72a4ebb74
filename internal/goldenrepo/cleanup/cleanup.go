// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package cleanup implements the cleanup manager: deletion of retired
// snapshot directories once no readers remain, guarded by a circuit
// breaker, exponential backoff, and process-wide file-descriptor
// back-pressure. Structurally a direct translation of the original
// cleanup_manager.py's pending-path loop.
package cleanup

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/fsx"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/queryref"
	"github.com/code-indexer/goldenrepo/internal/syncx"
)

type entry struct {
	failures    int
	nextRetryAt time.Time
}

// Manager drives background deletion of retired snapshot directories.
type Manager struct {
	logger           *log.Logger
	tracker          *queryref.Tracker
	checkInterval    time.Duration
	maxFailures      int
	baseBackoffDelay time.Duration
	maxBackoffDelay  time.Duration
	fdUsageThreshold float64

	mu           sync.Mutex
	pending      map[string]struct{}
	state        syncx.Map[string, *entry]
	trippedPaths syncx.Map[string, struct{}]

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Tuning carries the cleanup manager's configurable knobs, §6: the
// circuit-breaker failure threshold, exponential-backoff bounds, the
// background sweep cadence, and the file-descriptor back-pressure
// threshold.
type Tuning struct {
	MaxFailures      int
	BaseBackoffDelay time.Duration
	MaxBackoffDelay  time.Duration
	CheckInterval    time.Duration
	FDUsageThreshold float64
}

// New returns a Manager that consults tracker for reader counts, tuned by t.
func New(tracker *queryref.Tracker, logger *log.Logger, t Tuning) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		logger:           logger,
		tracker:          tracker,
		checkInterval:    t.CheckInterval,
		maxFailures:      t.MaxFailures,
		baseBackoffDelay: t.BaseBackoffDelay,
		maxBackoffDelay:  t.MaxBackoffDelay,
		fdUsageThreshold: t.FDUsageThreshold,
		pending:          make(map[string]struct{}),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// ScheduleCleanup adds path to the pending set.
func (m *Manager) ScheduleCleanup(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[path] = struct{}{}
}

// Pending returns a snapshot of the currently pending paths.
func (m *Manager) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pending))
	for p := range m.pending {
		out = append(out, p)
	}
	return out
}

// TrippedPaths returns paths whose circuit breaker has tripped (reached
// MaxFailures) and were permanently abandoned. Exposed so an operator tool
// can list and manually Retry them, per the design's resolution of the
// "circuit-breaker recovery" open question.
func (m *Manager) TrippedPaths() []string {
	var out []string
	m.trippedPaths.Range(func(path string, _ struct{}) bool {
		out = append(out, path)
		return true
	})
	return out
}

// Retry re-admits a previously-tripped path to the pending set with a
// clean failure history. It is the only way a tripped path is reconsidered
// — the background loop never resurrects one on its own.
func (m *Manager) Retry(path string) {
	m.trippedPaths.Delete(path)
	m.state.Delete(path)
	m.ScheduleCleanup(path)
}

// Start launches the background sweep loop. It returns immediately; call
// Stop to shut it down.
func (m *Manager) Start(ctx context.Context) {
	go m.loop(ctx)
}

// Stop halts the background loop and waits for it to exit.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
	<-m.done
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick processes one sweep of the pending set.
func (m *Manager) tick() {
	if fsx.FDUsageHigh(m.fdUsageThreshold) {
		m.logger.Printf("cleanup: skipping tick, file-descriptor usage above threshold")
		return
	}
	for _, path := range m.Pending() {
		m.process(path)
	}
}

func (m *Manager) process(path string) {
	st, _ := m.state.LoadOrStore(path, &entry{})

	if st.failures >= m.maxFailures {
		m.mu.Lock()
		delete(m.pending, path)
		m.mu.Unlock()
		m.trippedPaths.Store(path, struct{}{})
		m.logger.Printf("CRITICAL: cleanup: circuit breaker tripped for %s after %d consecutive failures", path, st.failures)
		return
	}

	if time.Now().Before(st.nextRetryAt) {
		return
	}

	if m.tracker != nil && m.tracker.GetRefCount(path) > 0 {
		return
	}

	if err := fsx.RobustRemoveAll(path); err != nil {
		st.failures++
		delay := m.backoffDelay(st.failures)
		st.nextRetryAt = time.Now().Add(delay)
		m.logger.Printf("cleanup: delete %s failed (attempt %d): %v; retrying in %s", path, st.failures, err, delay)
		return
	}

	m.mu.Lock()
	delete(m.pending, path)
	m.mu.Unlock()
	m.state.Delete(path)
}

// backoffDelay returns the delay before the n'th retry: base * 2^(n-1),
// capped at maxBackoffDelay.
func (m *Manager) backoffDelay(n int) time.Duration {
	d := m.baseBackoffDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= m.maxBackoffDelay {
			return m.maxBackoffDelay
		}
	}
	return d
}
