// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/fsx"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/repourl"
)

// reconciliationOwner is the synthetic write-lock identity the startup
// reconciliation pass uses, so a concurrent scheduled refresh cannot
// snapshot a half-restored master.
const reconciliationOwner = "reconciliation"

// reconciliationMarkerName gates the startup pass so it runs exactly once
// per server install, per the on-disk layout's
// .reconciliation_complete_v1.
const reconciliationMarkerName = ".reconciliation_complete_v1"

// Reconcile runs the one-time startup pass: for every registered
// remote-git repository whose master directory is missing, it restores
// the master from the highest-timestamp snapshot via a reverse CoW clone,
// then runs the config-rewrite pass on the restored master. Per-repo
// failures are logged and skipped; the completion marker is written
// regardless, so a failed repo is not retried on the next restart — an
// operator must intervene.
//
// The reverse-CoW-clone assumption (the latest snapshot is a valid master
// substitute) is accepted as documented: if the snapshot's reflink chain
// has been broken by an out-of-band rewrite, the restored master may
// differ from the one that produced it. This is logged, not re-verified.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	markerPath := filepath.Join(s.cfg.Root, reconciliationMarkerName)
	if _, err := os.Stat(markerPath); err == nil {
		return nil // already run on this install
	}

	s.logger.Printf("scheduler: starting startup reconciliation (trusting each snapshot as a valid master substitute)")

	for _, entry := range s.reg.All() {
		if !repourl.IsGit(entry.RepoURL) {
			continue
		}
		master := s.masterDir(entry.Alias)
		if _, err := os.Stat(master); err == nil {
			continue // master present, nothing to restore
		}
		if err := s.restoreMasterFromSnapshot(ctx, entry.Alias, master); err != nil {
			s.logger.Printf("scheduler: reconciliation failed for %s, skipped: %v", entry.Alias, err)
		}
	}

	if err := os.WriteFile(markerPath, []byte("{}"), 0o644); err != nil {
		return errors.Wrap(err, "write reconciliation completion marker")
	}
	return nil
}

func (s *Scheduler) restoreMasterFromSnapshot(ctx context.Context, aliasName, master string) error {
	snapshot, _, ok := s.highestSnapshot(aliasName)
	if !ok {
		return errors.Errorf("no snapshot available to restore master for %s", aliasName)
	}

	acquired, err := s.locks.Acquire(aliasName, reconciliationOwner, 0)
	if err != nil {
		return errors.Wrap(err, "acquire reconciliation write-lock")
	}
	if !acquired {
		return errors.Errorf("write-lock held, cannot reconcile %s", aliasName)
	}
	defer s.locks.Release(aliasName, reconciliationOwner)

	if err := fsx.ReflinkClone(ctx, s.exec, snapshot, master); err != nil {
		return errors.Wrapf(err, "reverse clone %s -> %s", snapshot, master)
	}
	if err := s.indexer.FixConfig(ctx, master, snapshot, master); err != nil {
		return errors.Wrap(err, "fix-config on restored master")
	}
	return nil
}
