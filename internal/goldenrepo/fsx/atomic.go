// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package fsx collects the filesystem primitives shared by the alias
// manager, write-lock manager, cleanup manager, and refresh scheduler:
// atomic rename-based publish, mtime-based change detection, robust
// recursive delete with EMFILE recovery, file-descriptor back-pressure
// probing, and reflink copy-on-write cloning.
package fsx

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// PublishAtomic writes data to a temporary file adjacent to finalPath,
// fsyncs it, then renames it over finalPath. Rename is the commit point:
// a crash before it leaves finalPath untouched, a crash after it leaves the
// new content fully installed. Never a partial write visible to readers.
func PublishAtomic(finalPath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(finalPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(finalPath)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", finalPath)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write temp file for %s", finalPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "fsync temp file for %s", finalPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close temp file for %s", finalPath)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.Wrapf(err, "chmod temp file for %s", finalPath)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return errors.Wrapf(err, "rename temp file into %s", finalPath)
	}
	return nil
}
