// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
)

// ConfigDirName is the per-repository index-configuration directory that
// marks a local repository as initialized, and that holds each index
// type's subdirectory.
const ConfigDirName = ".code-indexer"

const (
	semanticDir = "semantic"
	ftsDir      = "fts"
	temporalDir = "temporal"
	scipDir     = "scip"
)

// IsInitialized reports whether target (a master or snapshot directory)
// has a config directory at all. A local-writer-backed repository with no
// config directory yet is not initialized and is skipped with success
// rather than attempted, per the refresh pipeline's local-repo gate.
func IsInitialized(target string) bool {
	info, err := os.Stat(configDir(target))
	return err == nil && info.IsDir()
}

func configDir(target string) string {
	return filepath.Join(target, ConfigDirName)
}

// DetectIndexFlags scans target's config directory for each index type's
// subdirectory, the way the original's _detect_existing_indexes does, and
// reports which ones are actually present on disk.
func DetectIndexFlags(target string) (semantic, fts, temporal, scip bool) {
	base := configDir(target)
	exists := func(name string) bool {
		info, err := os.Stat(filepath.Join(base, name))
		return err == nil && info.IsDir()
	}
	return exists(semanticDir), exists(ftsDir), exists(temporalDir), exists(scipDir)
}

// ReconcileFlags scans target's filesystem state and updates alias's
// registry flags to match reality, implementing
// _reconcile_registry_with_filesystem. It is a no-op (not an error) if
// target doesn't exist yet.
func (r *Registry) ReconcileFlags(alias, target string) error {
	if !IsInitialized(target) {
		return nil
	}
	semantic, fts, temporal, scip := DetectIndexFlags(target)
	return r.UpdateFlags(alias, semantic, fts, temporal, scip)
}
