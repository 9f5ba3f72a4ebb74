// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// versionedDir returns {root}/.versioned/{alias}, the parent of every
// snapshot ever published for alias.
func (s *Scheduler) versionedDir(aliasName string) string {
	return filepath.Join(s.cfg.Root, ".versioned", aliasName)
}

// isUnderVersioned reports whether target lies under this alias's
// .versioned directory, the gate that decides whether a retired alias
// target is eligible for cleanup scheduling (never the master).
func (s *Scheduler) isUnderVersioned(aliasName, target string) bool {
	rel, err := filepath.Rel(s.versionedDir(aliasName), target)
	return err == nil && !strings.HasPrefix(rel, "..")
}

// highestSnapshot returns the path and embedded timestamp of the
// highest-numbered v_{ts} snapshot directory for aliasName, or ok=false if
// none have been published yet.
func (s *Scheduler) highestSnapshot(aliasName string) (path string, ts time.Time, ok bool) {
	entries, err := os.ReadDir(s.versionedDir(aliasName))
	if err != nil {
		return "", time.Time{}, false
	}
	var best int64 = -1
	var bestName string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, isVersion := parseVersionDirName(e.Name())
		if !isVersion {
			continue
		}
		if n > best {
			best = n
			bestName = e.Name()
		}
	}
	if best < 0 {
		return "", time.Time{}, false
	}
	return filepath.Join(s.versionedDir(aliasName), bestName), time.Unix(best, 0), true
}

func parseVersionDirName(name string) (int64, bool) {
	const prefix = "v_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(name[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

