// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package procexec abstracts external process execution the way
// pkg/build/local does for build commands, generalized to the golden-repo
// lifecycle's process contract: git subcommands, the reflink-clone helper,
// and the configured indexer CLI. A context deadline on the call governs
// the per-invocation timeout; CommandExecutor itself carries no timeout
// policy of its own.
package procexec

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// Options configures a single command invocation.
type Options struct {
	// Dir is the working directory the command runs in.
	Dir string
	// Env, if non-nil, replaces the inherited environment entirely.
	Env []string
}

// Result captures a completed invocation's captured output.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandExecutor abstracts process execution for testability, mirroring
// the teacher's CommandExecutor/CommandOptions split but capturing stdout
// and stderr separately, since the gitupdate strategies classify failures
// by matching specific stderr substrings.
type CommandExecutor interface {
	// Run executes name with args, blocking until it exits or ctx is done.
	Run(ctx context.Context, opts Options, name string, args ...string) (Result, error)
	// LookPath searches PATH for an executable named file.
	LookPath(file string) (string, error)
}

// realExecutor implements CommandExecutor using os/exec.
type realExecutor struct{}

// New returns a CommandExecutor backed by the real os/exec package.
func New() CommandExecutor {
	return &realExecutor{}
}

func (r *realExecutor) Run(ctx context.Context, opts Options, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
	}
	if runErr != nil {
		return res, errors.Wrapf(runErr, "run %s %v", name, args)
	}
	return res, nil
}

func (r *realExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
