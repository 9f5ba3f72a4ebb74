// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
)

func TestHighestSnapshotPicksNewest(t *testing.T) {
	root := t.TempDir()
	s := &Scheduler{cfg: config.Config{Root: root}}
	versioned := s.versionedDir("repo-a")
	for _, ts := range []string{"v_100", "v_300", "v_200"} {
		if err := os.MkdirAll(filepath.Join(versioned, ts), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	path, ts, ok := s.highestSnapshot("repo-a")
	if !ok {
		t.Fatal("expected a snapshot to be found")
	}
	if filepath.Base(path) != "v_300" {
		t.Fatalf("got %s, want v_300", path)
	}
	if ts.Unix() != 300 {
		t.Fatalf("got ts=%d, want 300", ts.Unix())
	}
}

func TestHighestSnapshotNoneYet(t *testing.T) {
	s := &Scheduler{cfg: config.Config{Root: t.TempDir()}}
	_, _, ok := s.highestSnapshot("repo-a")
	if ok {
		t.Fatal("expected no snapshot to be found")
	}
}

func TestIsUnderVersioned(t *testing.T) {
	root := t.TempDir()
	s := &Scheduler{cfg: config.Config{Root: root}}
	if !s.isUnderVersioned("repo-a", filepath.Join(root, ".versioned", "repo-a", "v_100")) {
		t.Fatal("expected snapshot path to be classified as under .versioned")
	}
	if s.isUnderVersioned("repo-a", filepath.Join(root, "repo-a")) {
		t.Fatal("expected master path to not be classified as under .versioned")
	}
}
