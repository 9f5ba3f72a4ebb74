// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
)

// triggerRefreshAlias shares the -alias flag lock.go defines: the flag
// package allows only one definition per name.
var triggerRefreshAlias = lockAlias

var triggerRefreshCmd = &cobra.Command{
	Use:   "trigger-refresh -alias <alias>",
	Short: "Run the refresh pipeline for one registered repository and print the outcome",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if *triggerRefreshAlias == "" {
			return fmt.Errorf("-alias is required")
		}
		lm, err := openLifecycleManager()
		if err != nil {
			return err
		}
		// Run the pipeline in this process synchronously, rather than
		// through TriggerRefreshForRepo's background-job form: a one-shot
		// CLI invocation has nothing useful to do while waiting except
		// block on the same result anyway.
		msg, err := lm.Scheduler.ExecuteRefresh(cmd.Context(), *triggerRefreshAlias)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	triggerRefreshCmd.Flags().AddGoFlag(flag.Lookup("alias"))
}
