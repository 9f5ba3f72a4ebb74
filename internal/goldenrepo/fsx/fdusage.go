// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package fsx

import (
	"os"
	"syscall"
)

// FDUsageHigh reports whether this process's open-file-descriptor count is
// at or above threshold (a fraction of its soft RLIMIT_NOFILE). It is
// Linux-only because it counts entries under /proc/self/fd; on other
// platforms it always returns false (see DESIGN.md for why a portable
// approximation was rejected in favor of an honest no-op).
func FDUsageHigh(threshold float64) bool {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return false
	}
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil || rlimit.Cur == 0 {
		return false
	}
	usage := float64(len(entries)) / float64(rlimit.Cur)
	return usage >= threshold
}
