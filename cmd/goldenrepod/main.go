// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// goldenrepod is the composition root for the golden-repo lifecycle core:
// it builds a LifecycleManager from flags and a config file, starts the
// scheduler and cleanup manager, and blocks until it receives a shutdown
// signal. It exposes no HTTP or MCP surface of its own — those are out of
// scope here and would embed the LifecycleManager's plain-Go methods.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/lifecycle"
)

var (
	root            = flag.String("root", "", "root directory holding every golden repository's master, snapshots, and metadata")
	configPath      = flag.String("config", "", "optional YAML file overlaying the default configuration")
	refreshInterval = flag.Duration("refresh-interval", 0, "if nonzero, overrides the scheduler's tick cadence")
	indexerBinary   = flag.String("indexer-binary", "", "if set, overrides the configured indexer CLI name or path")
	enableTemporal  = flag.Bool("enable-temporal", false, "allow temporal (commit-history) index builds for repositories whose registry entry enables them")
	enableSCIP      = flag.Bool("enable-scip", false, "allow SCIP index builds for repositories whose registry entry enables them")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath, cfg)
		if err != nil {
			log.Fatalf("goldenrepod: loading config %s: %v", *configPath, err)
		}
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *refreshInterval > 0 {
		cfg.RefreshInterval = *refreshInterval
	}
	if *indexerBinary != "" {
		cfg.IndexerBinary = *indexerBinary
	}
	if *enableTemporal {
		cfg.EnableTemporal = true
	}
	if *enableSCIP {
		cfg.EnableSCIP = true
	}

	logger := log.New(os.Stderr, "goldenrepod: ", log.LstdFlags|log.Lmicroseconds)

	lm, err := lifecycle.New(cfg, logger)
	if err != nil {
		log.Fatalf("goldenrepod: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lm.Start(ctx); err != nil {
		log.Fatalf("goldenrepod: starting lifecycle manager: %v", err)
	}
	logger.Printf("started, root=%s refresh-interval=%s", cfg.Root, cfg.RefreshInterval)

	<-ctx.Done()
	logger.Printf("shutting down")
	lm.Stop()
	logger.Printf("stopped")
}
