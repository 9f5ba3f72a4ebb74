// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/alias"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/cleanup"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/queryref"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/registry"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/writelock"
)

func testCleaner(cfg config.Config) *cleanup.Manager {
	return cleanup.New(queryref.New(), nil, cleanup.Tuning{
		MaxFailures:      cfg.CleanupMaxFailures,
		BaseBackoffDelay: cfg.CleanupBaseBackoffDelay,
		MaxBackoffDelay:  cfg.CleanupMaxBackoffDelay,
		CheckInterval:    cfg.CleanupCheckInterval,
		FDUsageThreshold: cfg.CleanupFDUsageThreshold,
	})
}

func TestReconcileWritesMarkerEvenOnPerRepoFailure(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Root = root

	am, err := alias.New(root)
	if err != nil {
		t.Fatal(err)
	}
	wl, err := writelock.New(root)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := registry.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	markers, err := registry.NewWriteModeMarkers(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Put(registry.Entry{Alias: "repo-a", RepoURL: "https://example.com/repo-a.git"}); err != nil {
		t.Fatal(err)
	}

	sched := New(cfg, Deps{
		Aliases:  am,
		Locks:    wl,
		Tracker:  queryref.New(),
		Cleaner:  testCleaner(cfg),
		Registry: reg,
		Markers:  markers,
		Exec:     procexec.NewFake(),
		Indexer:  &fakeIndexer{},
	}, nil)

	// repo-a's master is absent and it has no snapshot either, so
	// restoreMasterFromSnapshot fails — reconciliation should log and
	// continue, then still write the completion marker.
	if err := sched.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, reconciliationMarkerName)); err != nil {
		t.Fatalf("expected completion marker to be written: %v", err)
	}
}

func TestReconcileIsANoOpOnceMarkerExists(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Root = root
	if err := os.WriteFile(filepath.Join(root, reconciliationMarkerName), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	am, _ := alias.New(root)
	wl, _ := writelock.New(root)
	reg, _ := registry.Load(root)
	markers, _ := registry.NewWriteModeMarkers(root)

	// Register a repo whose master is missing; if Reconcile ran again it
	// would attempt (and fail/log) a restore. We can't directly observe
	// "didn't attempt" without instrumentation, so this test instead
	// verifies only that Reconcile returns without error.
	if err := reg.Put(registry.Entry{Alias: "repo-a", RepoURL: "https://example.com/repo-a.git"}); err != nil {
		t.Fatal(err)
	}
	sched := New(cfg, Deps{
		Aliases: am, Locks: wl, Tracker: queryref.New(), Cleaner: testCleaner(cfg),
		Registry: reg, Markers: markers, Exec: procexec.NewFake(), Indexer: &fakeIndexer{},
	}, nil)

	if err := sched.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
}
