// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package gitupdate implements the two update strategies a golden
// repository's master directory can use: pulling from a git remote, or
// mtime-based change detection for a local-writer-backed repository.
// Modeled as a small interface with two cases rather than a class
// hierarchy, per the design's "variant, not inheritance" guidance.
package gitupdate

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/fsx"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
)

// Strategy detects and applies changes to a golden repository's master
// directory.
type Strategy interface {
	// HasChanges reports whether the source has changed since the last
	// refresh.
	HasChanges(ctx context.Context) (bool, error)
	// Update applies the change: a git pull (with auto-recovery) for
	// GitStrategy, a no-op for LocalStrategy (the master directory is the
	// source of truth already).
	Update(ctx context.Context) error
}

// GitStrategy drives change detection and updates for a git-remote-backed
// master directory by shelling out to the git binary, translated from
// git_pull_updater.py.
type GitStrategy struct {
	exec      procexec.CommandExecutor
	masterDir string
	timeout   time.Duration
}

// NewGitStrategy returns a GitStrategy operating on masterDir. timeout
// bounds every individual git subcommand it runs (fetch, log, pull,
// status, reset, rev-parse), matching the original's per-call timeout=30:
// a wedged git process aborts that one call rather than hanging the
// refresh indefinitely.
func NewGitStrategy(exec procexec.CommandExecutor, masterDir string, timeout time.Duration) *GitStrategy {
	return &GitStrategy{exec: exec, masterDir: masterDir, timeout: timeout}
}

func (g *GitStrategy) git(ctx context.Context, args ...string) (procexec.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.exec.Run(ctx, procexec.Options{Dir: g.masterDir}, "git", args...)
}

// HasChanges runs `git fetch origin` then `git log HEAD..@{upstream}
// --oneline`; non-empty output means there are upstream commits not yet
// merged.
func (g *GitStrategy) HasChanges(ctx context.Context) (bool, error) {
	if _, err := g.git(ctx, "fetch", "origin"); err != nil {
		return false, errors.Wrap(err, "git fetch origin")
	}
	res, err := g.git(ctx, "log", "HEAD..@{upstream}", "--oneline")
	if err != nil {
		return false, errors.Wrap(err, "git log HEAD..@{upstream}")
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// Update performs `git pull` on the master, with the auto-recovery
// behavior described in spec §4.5.6: reset local modifications before
// pulling, and on a divergent-branch failure, detect the branch, fetch,
// and hard-reset to origin/{branch}.
func (g *GitStrategy) Update(ctx context.Context) error {
	return g.update(ctx, false)
}

// ForceReset skips the pull entirely and hard-resets the master to the
// detected upstream branch, per §4.5.6's "force-reset variant".
func (g *GitStrategy) ForceReset(ctx context.Context) error {
	return g.update(ctx, true)
}

func (g *GitStrategy) update(ctx context.Context, forceReset bool) error {
	status, err := g.git(ctx, "status", "--porcelain")
	if err != nil {
		return errors.Wrap(err, "git status --porcelain")
	}
	if strings.TrimSpace(status.Stdout) != "" {
		if _, err := g.git(ctx, "reset", "--hard", "HEAD"); err != nil {
			return errors.Wrap(err, "git reset --hard HEAD (clearing local modifications)")
		}
	}

	if forceReset {
		return g.fetchAndReset(ctx, g.detectBranch(ctx))
	}

	pullRes, pullErr := g.git(ctx, "pull")
	if pullErr == nil {
		return nil
	}
	if !isDivergentBranchError(pullErr, pullRes.Stderr) {
		return errors.Wrap(pullErr, "git pull")
	}
	return g.fetchAndReset(ctx, g.detectBranch(ctx))
}

// isDivergentBranchError reports whether a failed pull's error or stderr
// matches the two known "can't fast-forward" phrasings git emits.
func isDivergentBranchError(err error, stderr string) bool {
	msg := strings.ToLower(err.Error() + "\n" + stderr)
	return strings.Contains(msg, "divergent branches") ||
		strings.Contains(msg, "need to specify how to reconcile")
}

// detectBranch runs `git rev-parse --abbrev-ref HEAD`, defaulting to
// "main" on any failure.
func (g *GitStrategy) detectBranch(ctx context.Context) string {
	res, err := g.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "main"
	}
	branch := strings.TrimSpace(res.Stdout)
	if branch == "" {
		return "main"
	}
	return branch
}

func (g *GitStrategy) fetchAndReset(ctx context.Context, branch string) error {
	if _, err := g.git(ctx, "fetch", "origin"); err != nil {
		return errors.Wrap(err, "git fetch origin (auto-recovery)")
	}
	if _, err := g.git(ctx, "reset", "--hard", "origin/"+branch); err != nil {
		return errors.Wrapf(err, "git reset --hard origin/%s (auto-recovery)", branch)
	}
	return nil
}

// LocalStrategy drives change detection for a local-writer-backed master
// directory via mtime comparison against the newest published snapshot.
type LocalStrategy struct {
	masterDir          string
	latestSnapshotTime time.Time
	hasSnapshot        bool
}

// NewLocalStrategy returns a LocalStrategy for masterDir. latestSnapshotTime
// is the timestamp embedded in the highest-numbered v_{ts} snapshot
// directory name, or the zero value if no snapshot has been published yet.
func NewLocalStrategy(masterDir string, latestSnapshotTime time.Time, hasSnapshot bool) *LocalStrategy {
	return &LocalStrategy{masterDir: masterDir, latestSnapshotTime: latestSnapshotTime, hasSnapshot: hasSnapshot}
}

// HasChanges reports true if there is no snapshot yet (first version), or
// if the master's maximum file mtime exceeds the latest snapshot's
// timestamp.
func (l *LocalStrategy) HasChanges(ctx context.Context) (bool, error) {
	if !l.hasSnapshot {
		return true, nil
	}
	maxMtime, err := fsx.MaxMtimeUnderDir(l.masterDir)
	if err != nil {
		return false, errors.Wrapf(err, "scan %s for mtime", l.masterDir)
	}
	return maxMtime.After(l.latestSnapshotTime), nil
}

// Update is a no-op: a local-writer-backed master is already the source of
// truth, there's nothing to pull.
func (l *LocalStrategy) Update(ctx context.Context) error {
	return nil
}
