// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MaxMtimeUnderDir walks root, skipping dot-prefixed entries (files and
// directories alike), and returns the latest modification time seen among
// regular files. Used by the local-writer update strategy to detect
// changes against the timestamp embedded in the newest versioned snapshot.
func MaxMtimeUnderDir(root string) (time.Time, error) {
	var max time.Time
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(max) {
			max = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "walk %s for mtime", root)
	}
	return max, nil
}
