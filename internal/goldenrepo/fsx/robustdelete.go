// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// RobustRemoveAll deletes the tree rooted at path, recovering from
// transient EMFILE ("too many open files") errors the way the original
// cleanup manager does: a GC pause plus a short sleep to let finalizers
// close stray descriptors, then a retry. If the top-level removal itself
// keeps failing with EMFILE, it falls back to an explicit bottom-up walk
// that deletes files before directories, pausing for GC between each
// directory so the descriptor count has a chance to drop.
func RobustRemoveAll(path string) error {
	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = os.RemoveAll(path)
		if lastErr == nil {
			return nil
		}
		if !isEMFILE(lastErr) {
			return pkgerrors.Wrapf(lastErr, "remove %s", path)
		}
		runtime.GC()
		time.Sleep(100 * time.Millisecond)
	}
	// os.RemoveAll keeps hitting EMFILE: fall back to a manual bottom-up
	// delete that bounds how many descriptors are open at once.
	if err := bottomUpDelete(path); err != nil {
		return pkgerrors.Wrapf(err, "bottom-up delete %s after EMFILE retries exhausted", path)
	}
	return nil
}

func isEMFILE(err error) bool {
	return errors.Is(err, syscall.EMFILE)
}

// bottomUpDelete walks path collecting every file and directory, then
// deletes all files first (in walk order) and directories afterward
// (deepest first), running a GC pause after each directory removal.
func bottomUpDelete(path string) error {
	var files, dirs []string
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return pkgerrors.Wrapf(err, "remove file %s", f)
		}
	}

	// Deepest directories first, so a directory is always empty by the
	// time we try to remove it.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if err := os.Remove(d); err != nil && !os.IsNotExist(err) {
			return pkgerrors.Wrapf(err, "remove dir %s", d)
		}
		runtime.GC()
	}
	return nil
}
