// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package registry maintains the in-memory, JSON-file-persisted record of
// every registered golden repository — repo_url, feature flags, and
// last-refresh timestamp — plus the write-mode marker bookkeeping an
// out-of-band interactive writer session uses to signal "don't schedule me
// right now".
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/fsx"
)

// ErrNotFound is returned when no registry entry exists for the requested
// alias.
var ErrNotFound = errors.New("registry: no such repository")

// Entry is one golden repository's registry record.
type Entry struct {
	Alias          string    `json:"alias"`
	RepoURL        string    `json:"url"`
	RepoName       string    `json:"repo_name"`
	EnableSemantic bool      `json:"enable_semantic"`
	EnableFTS      bool      `json:"enable_fts"`
	EnableTemporal bool      `json:"enable_temporal"`
	EnableSCIP     bool      `json:"enable_scip"`
	LastRefresh    time.Time `json:"last_refresh"`
}

// Registry holds the full set of registered golden repositories, persisted
// to a single JSON file under root. Records are read with the field names
// Entry declares ("alias", "url"); legacy names such as alias_name or
// repo_url are not recognized and decode as empty fields.
type Registry struct {
	path string

	mu      sync.RWMutex
	entries map[string]*Entry
}

// Load reads the registry file under root, or starts empty if it doesn't
// exist yet.
func Load(root string) (*Registry, error) {
	path := filepath.Join(root, "registry.json")
	r := &Registry{path: path, entries: make(map[string]*Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, errors.Wrapf(err, "read registry %s", path)
	}
	var raw []*Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse registry %s", path)
	}
	for _, e := range raw {
		r.entries[e.Alias] = e
	}
	return r, nil
}

// Get returns the entry for alias.
func (r *Registry) Get(alias string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[alias]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return *e, nil
}

// All returns a snapshot of every registered entry.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}

// Put inserts or replaces the entry for e.Alias and persists the registry.
func (r *Registry) Put(e Entry) error {
	r.mu.Lock()
	r.entries[e.Alias] = &e
	r.mu.Unlock()
	return r.save()
}

// UpdateFlags rewrites the feature flags for alias without touching any
// other field, persisting the result. Used by flag reconciliation.
func (r *Registry) UpdateFlags(alias string, semantic, fts, temporal, scip bool) error {
	r.mu.Lock()
	e, ok := r.entries[alias]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	e.EnableSemantic, e.EnableFTS, e.EnableTemporal, e.EnableSCIP = semantic, fts, temporal, scip
	r.mu.Unlock()
	return r.save()
}

// TouchLastRefresh sets alias's last_refresh to now and persists.
func (r *Registry) TouchLastRefresh(alias string) error {
	r.mu.Lock()
	e, ok := r.entries[alias]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	e.LastRefresh = time.Now()
	r.mu.Unlock()
	return r.save()
}

func (r *Registry) save() error {
	r.mu.RLock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "marshal registry")
	}
	if err := fsx.PublishAtomic(r.path, data, 0o644); err != nil {
		return errors.Wrap(err, "publish registry")
	}
	return nil
}
