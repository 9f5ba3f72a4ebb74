// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Inspect or resume the background deletion of retired snapshots",
}

var cleanupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List paths pending deletion and paths whose circuit breaker has tripped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lm, err := openLifecycleManager()
		if err != nil {
			return err
		}
		for _, p := range lm.Cleaner.Pending() {
			fmt.Printf("pending  %s\n", p)
		}
		for _, p := range lm.Cleaner.TrippedPaths() {
			fmt.Printf("tripped  %s\n", p)
		}
		return nil
	},
}

var cleanupRetryPath = flag.String("path", "", "the tripped path to re-admit to the pending set")

var cleanupRetryCmd = &cobra.Command{
	Use:   "retry -path <path>",
	Short: "Re-admit a circuit-broken path for another deletion attempt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if *cleanupRetryPath == "" {
			return fmt.Errorf("-path is required")
		}
		lm, err := openLifecycleManager()
		if err != nil {
			return err
		}
		lm.Cleaner.Retry(*cleanupRetryPath)
		fmt.Println("re-admitted")
		return nil
	},
}

func init() {
	cleanupRetryCmd.Flags().AddGoFlag(flag.Lookup("path"))
	cleanupCmd.AddCommand(cleanupListCmd)
	cleanupCmd.AddCommand(cleanupRetryCmd)
	rootCmd.AddCommand(cleanupCmd)
}
