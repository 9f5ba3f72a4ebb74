// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package config defines the Config struct for the golden-repo lifecycle
// core: refresh cadence, per-operation timeouts, search concurrency, and
// cleanup-manager tuning, each with the defaults spec.md names and a
// Validate method enforcing the documented minimums.
package config

import (
	"time"

	"github.com/pkg/errors"
)

// Config is the full set of tunables for a LifecycleManager.
//
// Every time.Duration field below is seconds-valued on disk: yaml.v3 has
// no special-casing for time.Duration and would otherwise decode a
// "_seconds"/"_timeout" scalar as raw nanoseconds. Config carries no
// per-field yaml tags because of this — (Un)MarshalYAML in yamlform.go
// route the whole struct through configFile, whose fields are the plain
// seconds a config file actually contains.
type Config struct {
	Root string

	// RefreshInterval governs the scheduler's tick cadence.
	RefreshInterval time.Duration

	// Per-operation external-process timeouts.
	CoWCloneTimeout         time.Duration
	GitUpdateIndexTimeout   time.Duration
	GitRestoreTimeout       time.Duration
	CidxFixConfigTimeout    time.Duration
	CidxIndexTimeout        time.Duration
	CidxSCIPGenerateTimeout time.Duration
	// GitOperationTimeout bounds every individual git subcommand the
	// gitupdate strategies run (fetch, log, pull, status, reset,
	// rev-parse), matching the original's per-call timeout=30.
	GitOperationTimeout time.Duration

	// Search orchestrator tuning.
	MultiSearchMaxWorkers     int
	MultiSearchTimeoutSeconds time.Duration

	// Cleanup manager tuning.
	CleanupMaxFailures      int
	CleanupBaseBackoffDelay time.Duration
	CleanupMaxBackoffDelay  time.Duration
	CleanupFDUsageThreshold float64
	CleanupCheckInterval    time.Duration

	// WriteModeMarkerTTL is the TTL LifecycleManager.AcquireWriteLock gives
	// the write-lock it takes. The scheduler's marker eviction does not read
	// it; markers are evicted after registry.WriteModeMarkerTTL.
	WriteModeMarkerTTL time.Duration

	// IndexerBinary is the external indexer CLI's name or path.
	IndexerBinary string
	// EnableTemporal and EnableSCIP gate the optional index builds.
	EnableTemporal bool
	EnableSCIP     bool
}

// MinimumRefreshInterval is the floor spec.md enforces on
// RefreshInterval: anything shorter risks starving the scheduler loop on
// its own external-process timeouts.
const MinimumRefreshInterval = 60 * time.Second

// Default returns a Config populated with every documented default.
func Default() Config {
	return Config{
		RefreshInterval:           time.Hour,
		CoWCloneTimeout:           10 * time.Minute,
		GitUpdateIndexTimeout:     30 * time.Second,
		GitRestoreTimeout:         30 * time.Second,
		CidxFixConfigTimeout:      30 * time.Second,
		CidxIndexTimeout:          10 * time.Minute,
		CidxSCIPGenerateTimeout:   15 * time.Minute,
		GitOperationTimeout:       30 * time.Second,
		MultiSearchMaxWorkers:     2,
		MultiSearchTimeoutSeconds: 30 * time.Second,
		CleanupMaxFailures:        5,
		CleanupBaseBackoffDelay:   1 * time.Second,
		CleanupMaxBackoffDelay:    60 * time.Second,
		CleanupFDUsageThreshold:   0.80,
		CleanupCheckInterval:      1 * time.Second,
		WriteModeMarkerTTL:        30 * time.Minute,
		IndexerBinary:             "cidx",
	}
}

// Validate rejects configuration that violates a documented invariant: a
// refresh interval below the sixty-second minimum, a non-positive search
// worker count, or a missing root directory.
func (c Config) Validate() error {
	if c.Root == "" {
		return errors.New("config: root is required")
	}
	if c.RefreshInterval < MinimumRefreshInterval {
		return errors.Errorf("config: refresh_interval_seconds %s is below the minimum of %s", c.RefreshInterval, MinimumRefreshInterval)
	}
	if c.MultiSearchMaxWorkers <= 0 {
		return errors.New("config: multi_search_max_workers must be positive")
	}
	if c.CleanupFDUsageThreshold <= 0 || c.CleanupFDUsageThreshold > 1 {
		return errors.New("config: cleanup_fd_usage_threshold must be in (0, 1]")
	}
	return nil
}
