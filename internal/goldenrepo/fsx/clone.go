// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
)

// ReflinkClone invokes `cp --reflink=auto -a src dst`, the copy-on-write
// snapshot primitive: on filesystems with reflink support the clone shares
// unchanged blocks with src; elsewhere cp falls back silently to a full
// copy. Either way the contract is an independent directory tree with
// identical contents.
func ReflinkClone(ctx context.Context, exec procexec.CommandExecutor, src, dst string) error {
	_, err := exec.Run(ctx, procexec.Options{}, "cp", "--reflink=auto", "-a", src, dst)
	if err != nil {
		return errors.Wrapf(err, "reflink clone %s -> %s", src, dst)
	}
	return nil
}
