// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package alias implements the durable, atomically-swappable mapping from
// a stable "{alias}-global" name to the absolute path of its current
// snapshot (or master, before the first snapshot exists).
package alias

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/fsx"
)

// ErrNotFound is returned when no alias record exists for the requested name.
var ErrNotFound = errors.New("alias: no such record")

// Record is the persisted alias record.
type Record struct {
	TargetPath string    `json:"target_path"`
	CreatedAt  time.Time `json:"created_at"`
	LastRefresh time.Time `json:"last_refresh"`
	RepoName   string    `json:"repo_name"`
}

// Manager reads and atomically swaps alias records under a root directory.
// One JSON file per alias at {root}/aliases/{alias}-global.json.
type Manager struct {
	dir string
}

// New returns a Manager rooted at root. The aliases subdirectory is
// created if it doesn't already exist.
func New(root string) (*Manager, error) {
	dir := filepath.Join(root, "aliases")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create alias dir %s", dir)
	}
	return &Manager{dir: dir}, nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+"-global.json")
}

// ReadAlias returns the record for name, or ErrNotFound if none exists.
func (m *Manager) ReadAlias(name string) (Record, error) {
	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Wrapf(err, "read alias %s", name)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.Wrapf(err, "parse alias %s", name)
	}
	return rec, nil
}

// TargetPath returns just the path an alias currently points at.
func (m *Manager) TargetPath(name string) (string, error) {
	rec, err := m.ReadAlias(name)
	if err != nil {
		return "", err
	}
	return rec.TargetPath, nil
}

// CreateAlias writes the initial record for name, pointing at target.
func (m *Manager) CreateAlias(name, target, repoName string) error {
	now := time.Now()
	rec := Record{
		TargetPath:  target,
		CreatedAt:   now,
		LastRefresh: now,
		RepoName:    repoName,
	}
	return m.write(name, rec)
}

// SwapAlias atomically retargets name from oldTarget to newTarget. The
// swap is crash-safe: the rename in fsx.PublishAtomic is the sole commit
// point, so a crash either side of it leaves exactly one of oldTarget or
// newTarget fully installed as the alias's target.
//
// oldTarget is accepted for symmetry with the read-modify-write callers
// perform (read current target, decide it matches what they expect, then
// swap) but is not itself re-verified here: the manager does not retry or
// arbitrate conflicting writers, per its failure semantics.
func (m *Manager) SwapAlias(name, newTarget, oldTarget string, repoName string) error {
	rec, err := m.ReadAlias(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	createdAt := time.Now()
	if err == nil {
		createdAt = rec.CreatedAt
	}
	updated := Record{
		TargetPath:  newTarget,
		CreatedAt:   createdAt,
		LastRefresh: time.Now(),
		RepoName:    repoName,
	}
	return m.write(name, updated)
}

func (m *Manager) write(name string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "marshal alias %s", name)
	}
	if err := fsx.PublishAtomic(m.path(name), data, 0o644); err != nil {
		return errors.Wrapf(err, "publish alias %s", name)
	}
	return nil
}
