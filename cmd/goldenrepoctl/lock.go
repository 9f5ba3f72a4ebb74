// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	lockAlias = flag.String("alias", "", "the alias to refresh, or whose write-lock to inspect or release")
	lockOwner = flag.String("owner", "", "the owner identity to release the lock on behalf of")
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect or release a repository's write-lock",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status -alias <alias>",
	Short: "Print the current write-lock holder for an alias, if any",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if *lockAlias == "" {
			return fmt.Errorf("-alias is required")
		}
		lm, err := openLifecycleManager()
		if err != nil {
			return err
		}
		info, held, err := lm.Locks.GetLockInfo(*lockAlias)
		if err != nil {
			return err
		}
		if !held {
			fmt.Println("not locked")
			return nil
		}
		fmt.Printf("held by %s (pid %d) since %s, ttl %s\n", info.Owner, info.PID, info.AcquiredAt, info.TTL)
		return nil
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release -alias <alias> -owner <owner>",
	Short: "Release an alias's write-lock on behalf of owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if *lockAlias == "" || *lockOwner == "" {
			return fmt.Errorf("-alias and -owner are required")
		}
		lm, err := openLifecycleManager()
		if err != nil {
			return err
		}
		released, err := lm.ReleaseWriteLock(*lockAlias, *lockOwner)
		if err != nil {
			return err
		}
		if !released {
			return fmt.Errorf("lock for %s is not held by %s", *lockAlias, *lockOwner)
		}
		fmt.Println("released")
		return nil
	},
}

func init() {
	lockStatusCmd.Flags().AddGoFlag(flag.Lookup("alias"))
	lockReleaseCmd.Flags().AddGoFlag(flag.Lookup("alias"))
	lockReleaseCmd.Flags().AddGoFlag(flag.Lookup("owner"))
	lockCmd.AddCommand(lockStatusCmd)
	lockCmd.AddCommand(lockReleaseCmd)
}
