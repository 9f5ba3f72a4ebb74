// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/procexec"
)

// CLIBackend runs a repository search by invoking the configured indexer
// binary's query subcommand and parsing its JSON stdout, the same
// external-process contract the refresh pipeline uses for index builds.
type CLIBackend struct {
	exec   procexec.CommandExecutor
	binary string
}

// NewCLIBackend returns a CLIBackend invoking binary via exec.
func NewCLIBackend(exec procexec.CommandExecutor, binary string) *CLIBackend {
	return &CLIBackend{exec: exec, binary: binary}
}

func (c *CLIBackend) Search(ctx context.Context, repoDir, query, searchType string, limit int) ([]Result, error) {
	args := []string{"query", "--type", searchType, "--limit", strconv.Itoa(limit), query}
	res, err := c.exec.Run(ctx, procexec.Options{Dir: repoDir}, c.binary, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s query in %s", c.binary, repoDir)
	}
	var results []Result
	if err := json.Unmarshal([]byte(res.Stdout), &results); err != nil {
		return nil, errors.Wrapf(err, "parse query output from %s", repoDir)
	}
	return results, nil
}
