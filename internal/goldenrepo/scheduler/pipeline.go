// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/fsx"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/gitupdate"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/registry"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/repourl"
)

func procOptions(dir string) procexec.Options {
	return procexec.Options{Dir: dir}
}

// ExecuteRefresh runs the full refresh pipeline for aliasName: resolve,
// reconcile, change-detect, update, index, snapshot, validate, swap,
// retire. It returns a human-readable status message ("refreshed",
// "no changes", "locked, skipped") on success, and a non-nil error for any
// step that isn't one of those explicitly-handled outcomes, per §4.5.3.
func (s *Scheduler) ExecuteRefresh(ctx context.Context, aliasName string) (string, error) {
	mu := s.jobMu.For(aliasName)
	mu.Lock()
	defer mu.Unlock()

	// Step 1: resolve alias and master.
	currentTarget, err := s.aliases.TargetPath(aliasName)
	if err != nil {
		return "", errors.Wrapf(err, "resolve alias %s", aliasName)
	}
	master := s.masterDir(aliasName)

	// Step 2: reconcile registry flags with filesystem, before.
	if err := s.reg.ReconcileFlags(aliasName, currentTarget); err != nil {
		s.logger.Printf("scheduler: pre-refresh flag reconciliation failed for %s: %v", aliasName, err)
	}

	// Step 3: write-lock gate. Do not wait.
	locked, err := s.locks.IsLocked(aliasName)
	if err != nil {
		return "", errors.Wrapf(err, "check write-lock for %s", aliasName)
	}
	if locked {
		return "locked, skipped", nil
	}

	entry, err := s.reg.Get(aliasName)
	if err != nil {
		return "", errors.Wrapf(err, "look up registry entry for %s", aliasName)
	}

	changed, err := s.detectChanges(ctx, aliasName, master, entry.RepoURL)
	if err != nil {
		return "", err
	}
	if !changed.hasChanges {
		return changed.statusIfUnchanged, nil
	}

	if err := changed.strategy.Update(ctx); err != nil {
		return "", errors.Wrapf(err, "update master for %s", aliasName)
	}

	// Step 6: index in place on the master.
	if err := s.indexMaster(ctx, master, entry); err != nil {
		return "", errors.Wrapf(err, "index master for %s", aliasName)
	}

	// Step 7: snapshot via copy-on-write clone.
	ts := time.Now().Unix()
	snapshot := s.snapshotDir(aliasName, ts)
	if err := s.snapshotMaster(ctx, master, snapshot); err != nil {
		return "", errors.Wrapf(err, "snapshot %s", aliasName)
	}

	// Step 8: validate.
	if !registry.IsInitialized(snapshot) {
		_ = fsx.RobustRemoveAll(snapshot)
		return "", errors.Errorf("validate snapshot %s: index directory missing, partial clone removed", snapshot)
	}
	if !repourl.IsLocal(entry.RepoURL) {
		if err := fsx.VerifyGitRepository(snapshot); err != nil {
			_ = fsx.RobustRemoveAll(snapshot)
			return "", errors.Wrapf(err, "validate snapshot %s, partial clone removed", snapshot)
		}
	}

	// Step 9: swap alias.
	if err := s.aliases.SwapAlias(aliasName, snapshot, currentTarget, entry.RepoName); err != nil {
		return "", errors.Wrapf(err, "swap alias %s to %s", aliasName, snapshot)
	}

	// Step 10: schedule retirement iff the previous target lies under
	// .versioned — never the master, which must survive the first refresh.
	if s.isUnderVersioned(aliasName, currentTarget) {
		s.cleaner.ScheduleCleanup(currentTarget)
	}

	// Step 11: update last_refresh; reconcile flags again post-refresh.
	if err := s.reg.TouchLastRefresh(aliasName); err != nil {
		s.logger.Printf("scheduler: failed to update last_refresh for %s: %v", aliasName, err)
	}
	if err := s.reg.ReconcileFlags(aliasName, snapshot); err != nil {
		s.logger.Printf("scheduler: post-refresh flag reconciliation failed for %s: %v", aliasName, err)
	}

	return "refreshed", nil
}

type changeDetection struct {
	hasChanges        bool
	statusIfUnchanged string
	strategy          gitupdate.Strategy
}

// detectChanges implements §4.5.3 steps 4–5: local repos skip with
// success if uninitialized, else use mtime detection; git repos pull and
// report no-change on an empty diff.
func (s *Scheduler) detectChanges(ctx context.Context, aliasName, master, repoURL string) (changeDetection, error) {
	if repourl.IsLocal(repoURL) {
		if !registry.IsInitialized(master) {
			return changeDetection{hasChanges: false, statusIfUnchanged: "local repo not yet initialized, skipped"}, nil
		}
		_, ts, hasSnapshot := s.highestSnapshot(aliasName)
		strat := gitupdate.NewLocalStrategy(master, ts, hasSnapshot)
		changed, err := strat.HasChanges(ctx)
		if err != nil {
			return changeDetection{}, errors.Wrapf(err, "detect local changes for %s", aliasName)
		}
		if !changed {
			return changeDetection{hasChanges: false, statusIfUnchanged: "no changes"}, nil
		}
		return changeDetection{hasChanges: true, strategy: strat}, nil
	}

	strat := gitupdate.NewGitStrategy(s.exec, master, s.cfg.GitOperationTimeout)
	changed, err := strat.HasChanges(ctx)
	if err != nil {
		return changeDetection{}, errors.Wrapf(err, "detect git changes for %s", aliasName)
	}
	if !changed {
		return changeDetection{hasChanges: false, statusIfUnchanged: "no changes"}, nil
	}
	return changeDetection{hasChanges: true, strategy: strat}, nil
}

// indexMaster runs the configured index builds on master, per §4.5.8:
// semantic + FTS always, temporal iff enabled and not local-only, SCIP iff
// enabled.
func (s *Scheduler) indexMaster(ctx context.Context, master string, entry registry.Entry) error {
	if err := s.indexer.BuildSemantic(ctx, master); err != nil {
		return errors.Wrap(err, "build semantic index")
	}
	if err := s.indexer.BuildFTS(ctx, master); err != nil {
		return errors.Wrap(err, "build fts index")
	}
	if s.cfg.EnableTemporal && entry.EnableTemporal && !repourl.IsLocal(entry.RepoURL) {
		if err := s.indexer.BuildTemporal(ctx, master); err != nil {
			return errors.Wrap(err, "build temporal index")
		}
	}
	if s.cfg.EnableSCIP && entry.EnableSCIP {
		if err := s.indexer.BuildSCIP(ctx, master); err != nil {
			return errors.Wrap(err, "build scip index")
		}
	}
	return nil
}

// snapshotMaster implements §4.5.9: reflink clone, non-fatal timestamp
// normalization, fatal config rewrite, with cleanup of the partial clone
// on any failure after the reflink step.
func (s *Scheduler) snapshotMaster(ctx context.Context, master, snapshot string) (err error) {
	cloneCtx, cloneCancel := context.WithTimeout(ctx, s.cfg.CoWCloneTimeout)
	cloneErr := fsx.ReflinkClone(cloneCtx, s.exec, master, snapshot)
	cloneCancel()
	if cloneErr != nil {
		return errors.Wrap(cloneErr, "reflink clone")
	}
	defer func() {
		if err != nil {
			_ = fsx.RobustRemoveAll(snapshot)
		}
	}()

	updateIndexCtx, updateIndexCancel := context.WithTimeout(ctx, s.cfg.GitUpdateIndexTimeout)
	_, runErr := s.exec.Run(updateIndexCtx, procOptions(snapshot), "git", "update-index", "--refresh")
	updateIndexCancel()
	if runErr != nil {
		s.logger.Printf("scheduler: git update-index --refresh in %s failed (non-fatal): %v", snapshot, runErr)
	}

	restoreCtx, restoreCancel := context.WithTimeout(ctx, s.cfg.GitRestoreTimeout)
	_, runErr = s.exec.Run(restoreCtx, procOptions(snapshot), "git", "restore", ".")
	restoreCancel()
	if runErr != nil {
		s.logger.Printf("scheduler: git restore . in %s failed (non-fatal): %v", snapshot, runErr)
	}

	if fixErr := s.indexer.FixConfig(ctx, snapshot, master, snapshot); fixErr != nil {
		err = errors.Wrap(fixErr, "fix-config on clone")
		return err
	}
	return nil
}
