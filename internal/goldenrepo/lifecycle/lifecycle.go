// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle composes every golden-repository-lifecycle component
// into a single object graph: the Alias Manager, Write-Lock Manager, Query
// Tracker, Cleanup Manager, Registry, Refresh Scheduler, and Search
// Orchestrator, each held as an explicit field rather than a package-level
// singleton. LifecycleManager is the one object an HTTP/MCP/CLI surface
// would embed; this package implements only the plain-Go methods such a
// surface calls into.
package lifecycle

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/alias"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/cleanup"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/index"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/queryref"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/registry"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/repourl"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/scheduler"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/search"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/writelock"
)

// LifecycleManager owns the full set of collaborators backing one
// golden-repo root directory.
type LifecycleManager struct {
	cfg config.Config

	Aliases   *alias.Manager
	Locks     *writelock.Manager
	Tracker   *queryref.Tracker
	Cleaner   *cleanup.Manager
	Registry  *registry.Registry
	Markers   *registry.WriteModeMarkers
	Scheduler *scheduler.Scheduler
	Search    *search.Orchestrator
}

// New builds a LifecycleManager rooted at cfg.Root. The caller still owns
// calling Start to launch the scheduler and cleanup manager's background
// loops.
func New(cfg config.Config, logger *log.Logger) (*LifecycleManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	aliases, err := alias.New(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "init alias manager")
	}
	locks, err := writelock.New(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "init write-lock manager")
	}
	reg, err := registry.Load(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "load registry")
	}
	markers, err := registry.NewWriteModeMarkers(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "init write-mode markers")
	}

	tracker := queryref.New()
	cleaner := cleanup.New(tracker, logger, cleanup.Tuning{
		MaxFailures:      cfg.CleanupMaxFailures,
		BaseBackoffDelay: cfg.CleanupBaseBackoffDelay,
		MaxBackoffDelay:  cfg.CleanupMaxBackoffDelay,
		CheckInterval:    cfg.CleanupCheckInterval,
		FDUsageThreshold: cfg.CleanupFDUsageThreshold,
	})

	exec := procexec.New()
	timeouts := index.Timeouts{
		Semantic: cfg.CidxIndexTimeout,
		FTS:      cfg.CidxIndexTimeout,
		Temporal: cfg.CidxIndexTimeout,
		SCIP:     cfg.CidxSCIPGenerateTimeout,
		Config:   cfg.CidxFixConfigTimeout,
	}
	indexer := index.NewCLIIndexer(exec, cfg.IndexerBinary, timeouts)

	sched := scheduler.New(cfg, scheduler.Deps{
		Aliases:  aliases,
		Locks:    locks,
		Tracker:  tracker,
		Cleaner:  cleaner,
		Registry: reg,
		Markers:  markers,
		Exec:     exec,
		Indexer:  indexer,
	}, logger)

	backend := search.NewCLIBackend(exec, cfg.IndexerBinary)
	orchestrator := search.New(aliases, reg, tracker, backend, cfg.MultiSearchMaxWorkers, cfg.MultiSearchTimeoutSeconds)

	return &LifecycleManager{
		cfg:       cfg,
		Aliases:   aliases,
		Locks:     locks,
		Tracker:   tracker,
		Cleaner:   cleaner,
		Registry:  reg,
		Markers:   markers,
		Scheduler: sched,
		Search:    orchestrator,
	}, nil
}

// Start runs startup reconciliation, evicts any write-mode markers left
// over from a previous process (no interactive session survives a
// restart), then launches the scheduler and cleanup manager's background
// loops.
func (l *LifecycleManager) Start(ctx context.Context) error {
	if err := l.Scheduler.Reconcile(ctx); err != nil {
		return errors.Wrap(err, "startup reconciliation")
	}
	if err := l.Markers.EvictAll(func(a string) {
		_, _ = l.Locks.Release(a, registry.WriteModeOwner)
	}); err != nil {
		return errors.Wrap(err, "evict write-mode markers")
	}
	l.Cleaner.Start(ctx)
	l.Scheduler.Start(ctx)
	return nil
}

// Stop halts the scheduler and cleanup manager's background loops.
func (l *LifecycleManager) Stop() {
	l.Scheduler.Stop()
	l.Cleaner.Stop()
}

// TriggerRefreshForRepo implements the upstream trigger_refresh_for_repo
// contract: it starts a refresh in the background and returns a job ID the
// caller can poll with JobStatus.
func (l *LifecycleManager) TriggerRefreshForRepo(ctx context.Context, aliasName, username string) string {
	return l.Scheduler.TriggerRefresh(ctx, aliasName)
}

// JobStatus returns the recorded outcome of a job started by
// TriggerRefreshForRepo.
func (l *LifecycleManager) JobStatus(jobID string) (scheduler.JobResult, bool) {
	return l.Scheduler.GetJobStatus(jobID)
}

// AcquireWriteLock implements the upstream acquire_write_lock contract,
// using the configured write-mode marker TTL as the lock's TTL and
// recording a write-mode marker so the scheduler's periodic eviction sweep
// can reclaim an abandoned session.
func (l *LifecycleManager) AcquireWriteLock(aliasName, owner string) (bool, error) {
	acquired, err := l.Locks.Acquire(aliasName, owner, l.cfg.WriteModeMarkerTTL)
	if err != nil || !acquired {
		return acquired, err
	}
	if err := l.Markers.Enter(aliasName); err != nil {
		_, _ = l.Locks.Release(aliasName, owner)
		return false, errors.Wrap(err, "record write-mode marker")
	}
	return true, nil
}

// ReleaseWriteLock implements the upstream release_write_lock contract.
func (l *LifecycleManager) ReleaseWriteLock(aliasName, owner string) (bool, error) {
	return l.Locks.Release(aliasName, owner)
}

// ScheduleCleanup implements the upstream schedule_cleanup contract.
func (l *LifecycleManager) ScheduleCleanup(path string) {
	l.Cleaner.ScheduleCleanup(path)
}

// IncrementRef implements the upstream increment_ref contract.
func (l *LifecycleManager) IncrementRef(path string) {
	l.Tracker.IncrementRef(path)
}

// DecrementRef implements the upstream decrement_ref contract.
func (l *LifecycleManager) DecrementRef(path string) {
	l.Tracker.DecrementRef(path)
}

// ReadAlias implements the upstream read_alias contract.
func (l *LifecycleManager) ReadAlias(name string) (alias.Record, error) {
	return l.Aliases.ReadAlias(name)
}

// SearchRepos implements the upstream search-orchestrator contract. Each
// resolved snapshot path is reference-counted around its backend call by
// the search orchestrator itself, using the same tracker the cleanup
// manager consults, so a search in flight is never deleted out from under
// it.
func (l *LifecycleManager) SearchRepos(ctx context.Context, req search.Request) search.Response {
	return l.Search.Search(ctx, req)
}

// RegisterRepo adds a new golden repository to the registry and creates
// its initial alias record pointing at its (not-yet-populated) master
// directory. It does not clone a git-backed repository, and neither does
// the refresh pipeline: a refresh fetches and pulls inside the master, so
// the master must already hold a checkout for the first refresh to index
// and snapshot it.
func (l *LifecycleManager) RegisterRepo(aliasName, repoURL, repoName string) error {
	if err := l.Registry.Put(registry.Entry{
		Alias:          aliasName,
		RepoURL:        repoURL,
		RepoName:       repoName,
		EnableSemantic: true,
		EnableFTS:      true,
		LastRefresh:    time.Time{},
	}); err != nil {
		return errors.Wrapf(err, "register %s", aliasName)
	}
	master := filepath.Join(l.cfg.Root, aliasName)
	if repourl.IsLocal(repoURL) {
		master = repourl.TrimLocal(repoURL)
	}
	if err := l.Aliases.CreateAlias(aliasName, master, repoName); err != nil {
		return errors.Wrapf(err, "create initial alias for %s", aliasName)
	}
	return nil
}
