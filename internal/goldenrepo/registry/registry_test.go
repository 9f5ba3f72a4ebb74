// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Put(Entry{Alias: "repo-a", RepoURL: "https://example.com/repo-a.git"}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.Get("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if got.RepoURL != "https://example.com/repo-a.git" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	r, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get("nope"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReconcileFlagsDetectsIndexDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, ConfigDirName)
	if err := os.MkdirAll(filepath.Join(cfg, semanticDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(cfg, ftsDir), 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Put(Entry{Alias: "repo-a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.ReconcileFlags("repo-a", dir); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if !got.EnableSemantic || !got.EnableFTS || got.EnableTemporal || got.EnableSCIP {
		t.Fatalf("got %+v", got)
	}
}

func TestReconcileFlagsNoopWhenUninitialized(t *testing.T) {
	r, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Put(Entry{Alias: "repo-a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.ReconcileFlags("repo-a", filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatal(err)
	}
}

func TestWriteModeEvictStaleMarkers(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriteModeMarkers(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Enter("repo-a"); err != nil {
		t.Fatal(err)
	}
	// Rewrite the marker to look old.
	data, _ := marshalEntered(time.Now().Add(-WriteModeMarkerTTL - time.Minute))
	if err := os.WriteFile(w.path("repo-a"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	var evicted []string
	if err := w.EvictStaleMarkers(func(alias string) { evicted = append(evicted, alias) }); err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 1 || evicted[0] != "repo-a" {
		t.Fatalf("got %v, want [repo-a]", evicted)
	}
	if _, err := os.Stat(w.path("repo-a")); !os.IsNotExist(err) {
		t.Fatal("expected marker file to be removed")
	}
}

func TestWriteModeEvictAllIgnoresAge(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriteModeMarkers(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Enter("repo-a"); err != nil {
		t.Fatal(err)
	}
	var evicted []string
	if err := w.EvictAll(func(alias string) { evicted = append(evicted, alias) }); err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 1 {
		t.Fatalf("got %v", evicted)
	}
}

func marshalEntered(t time.Time) ([]byte, error) {
	return []byte(`{"entered_at":"` + t.Format(time.RFC3339Nano) + `"}`), nil
}
