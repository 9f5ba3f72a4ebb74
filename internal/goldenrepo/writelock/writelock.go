// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package writelock implements the write-lock manager that serializes
// mutations on each master directory across processes and threads: one
// lock file per alias under {root}/.locks, with PID-liveness and TTL-based
// staleness eviction translated from the original Python
// write_lock_manager.py.
package writelock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/syncx"
)

// Info is the persisted lock metadata record.
type Info struct {
	Owner      string        `json:"owner"`
	PID        int           `json:"pid"`
	AcquiredAt time.Time     `json:"acquired_at"`
	TTL        time.Duration `json:"-"`
}

// lockFile is Info's on-disk shape: ttl_seconds is a plain number of
// seconds, matching the original JSON lock-file format.
type lockFile struct {
	Owner      string    `json:"owner"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	TTLSeconds float64   `json:"ttl_seconds"`
}

func (info Info) toFile() lockFile {
	return lockFile{
		Owner:      info.Owner,
		PID:        info.PID,
		AcquiredAt: info.AcquiredAt,
		TTLSeconds: info.TTL.Seconds(),
	}
}

func (lf lockFile) toInfo() Info {
	return Info{
		Owner:      lf.Owner,
		PID:        lf.PID,
		AcquiredAt: lf.AcquiredAt,
		TTL:        time.Duration(lf.TTLSeconds * float64(time.Second)),
	}
}

// Manager manages one lock file per alias under {root}/.locks.
type Manager struct {
	dir string
	// intraProcess serializes two goroutines of this same process racing
	// on the same alias's O_CREATE|O_EXCL attempt; the exclusive create
	// itself is what serializes across processes.
	intraProcess syncx.KeyedMutex[string]
}

// New returns a Manager rooted at root, creating the .locks directory if
// needed.
func New(root string) (*Manager, error) {
	dir := filepath.Join(root, ".locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create lock dir %s", dir)
	}
	return &Manager{dir: dir}, nil
}

func (m *Manager) path(alias string) string {
	return filepath.Join(m.dir, alias+".lock")
}

// Acquire attempts to take the lock for alias on behalf of owner with the
// given ttl. It is non-blocking: if the lock is already held by a live
// owner it returns false immediately.
func (m *Manager) Acquire(alias, owner string, ttl time.Duration) (bool, error) {
	mu := m.intraProcess.For(alias)
	mu.Lock()
	defer mu.Unlock()

	m.evictIfStale(alias)

	info := Info{Owner: owner, PID: os.Getpid(), AcquiredAt: time.Now(), TTL: ttl}
	data, err := json.Marshal(info.toFile())
	if err != nil {
		return false, errors.Wrap(err, "marshal lock info")
	}
	f, err := os.OpenFile(m.path(alias), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "create lock file for %s", alias)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return false, errors.Wrapf(err, "write lock file for %s", alias)
	}
	return true, nil
}

// Release releases the lock for alias if owner matches the recorded
// owner. Returns false (no error) on a mismatch, which callers should log
// as a warning.
func (m *Manager) Release(alias, owner string) (bool, error) {
	mu := m.intraProcess.For(alias)
	mu.Lock()
	defer mu.Unlock()

	info, ok, err := m.read(alias)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if info.Owner != owner {
		return false, nil
	}
	if err := os.Remove(m.path(alias)); err != nil && !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "remove lock file for %s", alias)
	}
	return true, nil
}

// IsLocked reports whether a live lock is currently held for alias.
func (m *Manager) IsLocked(alias string) (bool, error) {
	m.evictIfStale(alias)
	_, ok, err := m.read(alias)
	return ok, err
}

// GetLockInfo returns the recorded lock metadata for alias, or ok=false if
// no live lock is held.
func (m *Manager) GetLockInfo(alias string) (Info, bool, error) {
	m.evictIfStale(alias)
	return m.read(alias)
}

// read loads the lock file without performing staleness eviction.
func (m *Manager) read(alias string) (Info, bool, error) {
	data, err := os.ReadFile(m.path(alias))
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, false, nil
		}
		return Info{}, false, errors.Wrapf(err, "read lock file for %s", alias)
	}
	var lf lockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return Info{}, false, nil // unparseable: treated as stale by the caller, not an error
	}
	return lf.toInfo(), true, nil
}

// evictIfStale deletes the lock file for alias if it is stale: dead PID,
// expired TTL, or unparseable/missing metadata. It is called before every
// acquire, is_locked, and get_lock_info per the staleness-eviction
// contract.
func (m *Manager) evictIfStale(alias string) {
	data, err := os.ReadFile(m.path(alias))
	if err != nil {
		return // doesn't exist or unreadable: nothing to evict
	}
	var lf lockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		os.Remove(m.path(alias))
		return
	}
	info := lf.toInfo()
	if info.PID == 0 && info.AcquiredAt.IsZero() {
		os.Remove(m.path(alias))
		return
	}
	if info.PID != 0 && !pidAlive(info.PID) {
		os.Remove(m.path(alias))
		return
	}
	if !info.AcquiredAt.IsZero() && info.TTL > 0 && time.Now().After(info.AcquiredAt.Add(info.TTL)) {
		os.Remove(m.path(alias))
		return
	}
}

// pidAlive probes liveness with signal 0: success or a permission error
// means the process exists; any other error (such as ESRCH) means it does
// not.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, os.ErrPermission)
}
