// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package scheduler implements the refresh scheduler: the background
// ticking loop that drives every registered golden repository through the
// refresh pipeline, plus manual triggers, per-alias job serialization, and
// periodic write-mode marker eviction. Structurally grounded on
// refresh_scheduler.py's scheduler loop and _execute_refresh.
package scheduler

import (
	"context"
	"log"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/alias"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/cleanup"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/index"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/queryref"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/registry"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/repourl"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/writelock"
	"github.com/code-indexer/goldenrepo/internal/syncx"
)

// JobResult is the recorded outcome of one refresh attempt, keyed by job
// ID so an upstream caller that received a job_id from TriggerRefresh can
// poll for completion.
type JobResult struct {
	Alias     string
	StartedAt time.Time
	Done      bool
	Skipped   bool
	Message   string
	Err       error
}

// Scheduler drives periodic and on-demand refreshes of every registered
// golden repository.
type Scheduler struct {
	cfg      config.Config
	logger   *log.Logger
	aliases  *alias.Manager
	locks    *writelock.Manager
	tracker  *queryref.Tracker
	cleaner  *cleanup.Manager
	reg      *registry.Registry
	markers  *registry.WriteModeMarkers
	exec     procexec.CommandExecutor
	indexer  index.Indexer

	jobMu syncx.KeyedMutex[string] // serializes refreshes per alias

	jobsMu sync.Mutex
	jobs   map[string]*JobResult

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Deps bundles the collaborators a Scheduler composes; all are shared
// singletons owned by the LifecycleManager, never package-level state.
type Deps struct {
	Aliases  *alias.Manager
	Locks    *writelock.Manager
	Tracker  *queryref.Tracker
	Cleaner  *cleanup.Manager
	Registry *registry.Registry
	Markers  *registry.WriteModeMarkers
	Exec     procexec.CommandExecutor
	Indexer  index.Indexer
}

// New returns a Scheduler configured by cfg and wired to deps.
func New(cfg config.Config, deps Deps, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cfg:     cfg,
		logger:  logger,
		aliases: deps.Aliases,
		locks:   deps.Locks,
		tracker: deps.Tracker,
		cleaner: deps.Cleaner,
		reg:     deps.Registry,
		markers: deps.Markers,
		exec:    deps.Exec,
		indexer: deps.Indexer,
		jobs:    make(map[string]*JobResult),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the background scheduling loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop signals the loop to exit and waits for it to finish its current
// iteration. Stop is cooperative: it interrupts the current sleep, not an
// in-progress refresh.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		s.tick(ctx)

		timer := time.NewTimer(s.cfg.RefreshInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick enumerates every registered repository, submits a refresh job for
// each git-backed one (local repos are excluded from the scheduled loop
// per §4.5.5), and evicts stale write-mode markers.
func (s *Scheduler) tick(ctx context.Context) {
	for _, entry := range s.reg.All() {
		if !repourl.IsGit(entry.RepoURL) {
			continue
		}
		go func(a string) {
			if _, err := s.ExecuteRefresh(ctx, a); err != nil {
				s.logger.Printf("scheduler: refresh of %s failed: %v", a, err)
			}
		}(entry.Alias)
	}

	if s.markers != nil && s.locks != nil {
		if err := s.markers.EvictStaleMarkers(func(a string) {
			s.locks.Release(a, registry.WriteModeOwner)
		}); err != nil {
			s.logger.Printf("scheduler: write-mode marker eviction failed: %v", err)
		}
	}
}

// TriggerRefresh runs the refresh pipeline for alias in the background and
// returns a job ID the caller can use to poll GetJobStatus, mirroring the
// upstream trigger_refresh_for_repo(alias, username) → job_id? contract.
func (s *Scheduler) TriggerRefresh(ctx context.Context, aliasName string) string {
	jobID := uuid.NewString()
	result := &JobResult{Alias: aliasName, StartedAt: time.Now()}
	s.jobsMu.Lock()
	s.jobs[jobID] = result
	s.jobsMu.Unlock()

	go func() {
		msg, err := s.ExecuteRefresh(ctx, aliasName)
		s.jobsMu.Lock()
		defer s.jobsMu.Unlock()
		result.Done = true
		result.Message = msg
		result.Err = err
	}()
	return jobID
}

// GetJobStatus returns the recorded result for jobID, if any.
func (s *Scheduler) GetJobStatus(jobID string) (JobResult, bool) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	r, ok := s.jobs[jobID]
	if !ok {
		return JobResult{}, false
	}
	return *r, true
}

// masterDir derives {root}/{alias}, the master directory for aliasName.
// Per §4.5.3 step 1, the master path is always derived this way — never
// from the alias's current target, which may point at a versioned
// snapshot.
func (s *Scheduler) masterDir(aliasName string) string {
	return filepath.Join(s.cfg.Root, aliasName)
}

func (s *Scheduler) snapshotDir(aliasName string, ts int64) string {
	return filepath.Join(s.cfg.Root, ".versioned", aliasName, "v_"+strconv.FormatInt(ts, 10))
}
