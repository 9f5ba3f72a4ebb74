// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// VerifyGitRepository opens dir as a git working tree and resolves HEAD, as
// an auxiliary corruption check layered on top of the mandatory
// index-directory-exists check that gates snapshot validation. It catches
// the case where a reflink clone raced a concurrent write to the master
// and produced a tree git itself can't make sense of; it is not a
// replacement for the index-directory check, which runs first.
func VerifyGitRepository(dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrapf(err, "open %s as git repository", dir)
	}
	if _, err := repo.Head(); err != nil {
		return errors.Wrapf(err, "resolve HEAD in %s", dir)
	}
	return nil
}
