// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package writelock

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ok, err := m.Acquire("repo-a", "writer-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	locked, err := m.IsLocked("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Fatal("expected lock to be held")
	}

	ok, err = m.Acquire("repo-a", "writer-2", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected second acquire by a different owner to fail")
	}

	released, err := m.Release("repo-a", "writer-2")
	if err != nil {
		t.Fatal(err)
	}
	if released {
		t.Fatal("expected release by wrong owner to be refused")
	}

	released, err = m.Release("repo-a", "writer-1")
	if err != nil {
		t.Fatal(err)
	}
	if !released {
		t.Fatal("expected release by correct owner to succeed")
	}

	locked, err = m.IsLocked("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Fatal("expected lock to be free after release")
	}
}

func TestStaleLockEvictedByDeadPID(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// A PID astronomically unlikely to be alive.
	const deadPID = 1 << 30
	info := Info{Owner: "ghost", PID: deadPID, AcquiredAt: time.Now(), TTL: time.Hour}
	if err := writeRaw(m, "repo-a", info); err != nil {
		t.Fatal(err)
	}

	ok, err := m.Acquire("repo-a", "writer-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected stale lock (dead PID) to be evicted, allowing acquire")
	}
}

func TestStaleLockEvictedByExpiredTTL(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	info := Info{Owner: "writer-0", PID: os.Getpid(), AcquiredAt: time.Now().Add(-2 * time.Hour), TTL: time.Hour}
	if err := writeRaw(m, "repo-a", info); err != nil {
		t.Fatal(err)
	}

	ok, err := m.Acquire("repo-a", "writer-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected expired-TTL lock to be evicted, allowing acquire")
	}
}

func TestUnparseableLockTreatedAsStale(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(m.path("repo-a"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err := m.Acquire("repo-a", "writer-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected unparseable lock file to be evicted, allowing acquire")
	}
}

// writeRaw is a test helper that writes a lock file directly, bypassing
// Acquire, to set up pre-existing lock states.
func writeRaw(m *Manager, alias string, info Info) error {
	data, err := json.Marshal(info.toFile())
	if err != nil {
		return err
	}
	return os.WriteFile(m.path(alias), data, 0o644)
}
