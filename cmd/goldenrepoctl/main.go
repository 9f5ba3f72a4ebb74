// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// goldenrepoctl is an operator debugging tool for the golden-repo
// lifecycle core, mirroring the shape of the teacher's own operator CLI:
// a cobra root command with one subcommand per operation. Because the
// lifecycle core's coordination is entirely file-based (write-locks,
// atomic alias swaps, a JSON registry) rather than an RPC service, each
// subcommand opens its own LifecycleManager directly against --root and
// acts on it in-process; there is no daemon to dial.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/lifecycle"
)

var (
	rootCmd = &cobra.Command{
		Use:   "goldenrepoctl",
		Short: "Operator tool for the golden-repo lifecycle core",
	}

	rootDir    = flag.String("root", "", "root directory holding every golden repository's master, snapshots, and metadata")
	configFile = flag.String("config", "", "optional YAML file overlaying the default configuration")
)

// openLifecycleManager builds a LifecycleManager against the resolved
// --root/--config flags, without starting its background loops: every
// subcommand performs one synchronous operation and exits.
func openLifecycleManager() (*lifecycle.LifecycleManager, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile, cfg)
		if err != nil {
			return nil, err
		}
	}
	if *rootDir != "" {
		cfg.Root = *rootDir
	}
	return lifecycle.New(cfg, log.New(os.Stderr, "", 0))
}

func init() {
	rootCmd.PersistentFlags().AddGoFlag(flag.Lookup("root"))
	rootCmd.PersistentFlags().AddGoFlag(flag.Lookup("config"))

	rootCmd.AddCommand(triggerRefreshCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
