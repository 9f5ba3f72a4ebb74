// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/alias"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/cleanup"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/queryref"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/registry"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/writelock"
)

// fakeIndexer succeeds at every build and returns fixConfigErr from
// FixConfig, avoiding a dependency on procexec for the pipeline tests that
// don't care about indexer behavior. It records no calls.
type fakeIndexer struct {
	fixConfigErr error
}

func (f *fakeIndexer) BuildSemantic(ctx context.Context, dir string) error { return nil }
func (f *fakeIndexer) BuildFTS(ctx context.Context, dir string) error      { return nil }
func (f *fakeIndexer) BuildTemporal(ctx context.Context, dir string) error { return nil }
func (f *fakeIndexer) BuildSCIP(ctx context.Context, dir string) error     { return nil }
func (f *fakeIndexer) FixConfig(ctx context.Context, dir, oldPath, newPath string) error {
	return f.fixConfigErr
}

func newTestScheduler(t *testing.T, exec procexec.CommandExecutor, idx *fakeIndexer) (*Scheduler, string) {
	t.Helper()
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

	deps := Deps{
		Aliases:  am,
		Locks:    wl,
		Tracker:  queryref.New(),
		Cleaner: cleanup.New(queryref.New(), nil, cleanup.Tuning{
			MaxFailures:      cfg.CleanupMaxFailures,
			BaseBackoffDelay: cfg.CleanupBaseBackoffDelay,
			MaxBackoffDelay:  cfg.CleanupMaxBackoffDelay,
			CheckInterval:    cfg.CleanupCheckInterval,
			FDUsageThreshold: cfg.CleanupFDUsageThreshold,
		}),
		Registry: reg,
		Markers:  markers,
		Exec:     exec,
		Indexer:  idx,
	}
	return New(cfg, deps, nil), root
}

func setupGitRepo(t *testing.T, root, aliasName string) {
	t.Helper()
	master := filepath.Join(root, aliasName)
	if err := os.MkdirAll(filepath.Join(master, registry.ConfigDirName, "semantic"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestExecuteRefreshSkipsWhenLocked(t *testing.T) {
	fake := procexec.NewFake()
	sched, root := newTestScheduler(t, fake, &fakeIndexer{})
	setupGitRepo(t, root, "repo-a")

	am, _ := alias.New(root)
	if err := am.CreateAlias("repo-a", filepath.Join(root, "repo-a"), "repo-a"); err != nil {
		t.Fatal(err)
	}
	if err := sched.reg.Put(registry.Entry{Alias: "repo-a", RepoURL: "https://example.com/repo-a.git"}); err != nil {
		t.Fatal(err)
	}
	wl, _ := writelock.New(root)
	if ok, err := wl.Acquire("repo-a", "writer-1", time.Hour); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	msg, err := sched.ExecuteRefresh(context.Background(), "repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "locked, skipped" {
		t.Fatalf("got %q, want locked, skipped", msg)
	}
}

func TestExecuteRefreshNoChangesForGitRepo(t *testing.T) {
	fake := procexec.NewFake()
	fake.On("git", []string{"fetch", "origin"}, procexec.Result{}, nil)
	fake.On("git", []string{"log", "HEAD..@{upstream}", "--oneline"}, procexec.Result{Stdout: ""}, nil)

	sched, root := newTestScheduler(t, fake, &fakeIndexer{})
	setupGitRepo(t, root, "repo-a")

	am, _ := alias.New(root)
	if err := am.CreateAlias("repo-a", filepath.Join(root, "repo-a"), "repo-a"); err != nil {
		t.Fatal(err)
	}
	if err := sched.reg.Put(registry.Entry{Alias: "repo-a", RepoURL: "https://example.com/repo-a.git"}); err != nil {
		t.Fatal(err)
	}

	msg, err := sched.ExecuteRefresh(context.Background(), "repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "no changes" {
		t.Fatalf("got %q, want no changes", msg)
	}
}

func TestExecuteRefreshLocalRepoNotInitializedSkips(t *testing.T) {
	fake := procexec.NewFake()
	sched, root := newTestScheduler(t, fake, &fakeIndexer{})

	master := filepath.Join(root, "repo-b")
	if err := os.MkdirAll(master, 0o755); err != nil {
		t.Fatal(err)
	}
	am, _ := alias.New(root)
	if err := am.CreateAlias("repo-b", master, "repo-b"); err != nil {
		t.Fatal(err)
	}
	if err := sched.reg.Put(registry.Entry{Alias: "repo-b", RepoURL: "local://repo-b"}); err != nil {
		t.Fatal(err)
	}

	msg, err := sched.ExecuteRefresh(context.Background(), "repo-b")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "local repo not yet initialized, skipped" {
		t.Fatalf("got %q", msg)
	}
}

