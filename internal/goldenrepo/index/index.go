// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package index defines the external indexing contract: the refresh
// pipeline and the search orchestrator share one seam (Indexer) for the
// embedding/FTS/temporal/SCIP backends, which are themselves out of scope
// and implemented by an external CLI per spec §6.
package index

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
)

// Indexer builds each index type for a repository directory. Each method
// is expected to run the external indexer process in dir, with its own
// timeout, and to return an error on a non-zero exit or a timeout.
type Indexer interface {
	BuildSemantic(ctx context.Context, dir string) error
	BuildFTS(ctx context.Context, dir string) error
	BuildTemporal(ctx context.Context, dir string) error
	BuildSCIP(ctx context.Context, dir string) error
	// FixConfig rewrites embedded path literals in the index metadata
	// from oldPath to newPath, run once on a freshly cloned snapshot.
	FixConfig(ctx context.Context, dir, oldPath, newPath string) error
}

// Timeouts configures the per-index-type timeout the CLIIndexer enforces.
type Timeouts struct {
	Semantic time.Duration
	FTS      time.Duration
	Temporal time.Duration
	SCIP     time.Duration
	Config   time.Duration
}

// DefaultTimeouts matches the original's per-backend defaults: index
// builds get generous budgets, config rewriting is expected to be fast.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Semantic: 10 * time.Minute,
		FTS:      5 * time.Minute,
		Temporal: 10 * time.Minute,
		SCIP:     15 * time.Minute,
		Config:   30 * time.Second,
	}
}

// CLIIndexer invokes the configured indexer binary for each index type,
// per spec §6's external process contract: `index`, `index --fts`,
// `index --index-commits`, `scip generate`, `fix-config --force`.
type CLIIndexer struct {
	exec     procexec.CommandExecutor
	binary   string
	timeouts Timeouts
}

// NewCLIIndexer returns a CLIIndexer invoking binary via exec.
func NewCLIIndexer(exec procexec.CommandExecutor, binary string, timeouts Timeouts) *CLIIndexer {
	return &CLIIndexer{exec: exec, binary: binary, timeouts: timeouts}
}

func (c *CLIIndexer) run(ctx context.Context, dir string, timeout time.Duration, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.exec.Run(ctx, procexec.Options{Dir: dir}, c.binary, args...)
	if err != nil {
		return errors.Wrapf(err, "%s %v in %s", c.binary, args, dir)
	}
	return nil
}

func (c *CLIIndexer) BuildSemantic(ctx context.Context, dir string) error {
	return c.run(ctx, dir, c.timeouts.Semantic, "index")
}

func (c *CLIIndexer) BuildFTS(ctx context.Context, dir string) error {
	return c.run(ctx, dir, c.timeouts.FTS, "index", "--fts")
}

func (c *CLIIndexer) BuildTemporal(ctx context.Context, dir string) error {
	return c.run(ctx, dir, c.timeouts.Temporal, "index", "--index-commits")
}

func (c *CLIIndexer) BuildSCIP(ctx context.Context, dir string) error {
	return c.run(ctx, dir, c.timeouts.SCIP, "scip", "generate")
}

func (c *CLIIndexer) FixConfig(ctx context.Context, dir, oldPath, newPath string) error {
	return c.run(ctx, dir, c.timeouts.Config, "fix-config", "--force", "--old-path", oldPath, "--new-path", newPath)
}
