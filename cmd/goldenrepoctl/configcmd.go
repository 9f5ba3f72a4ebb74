// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the on-disk YAML configuration overlay",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the effective configuration (defaults overlaid by -config) as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if *configFile != "" {
			var err error
			cfg, err = config.LoadFile(*configFile, cfg)
			if err != nil {
				return err
			}
		}
		if *rootDir != "" {
			cfg.Root = *rootDir
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "marshal config")
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var configSetKey = flag.String("key", "", "top-level YAML key to set, e.g. refresh_interval_seconds")
var configSetValue = flag.String("value", "", "the value to assign, parsed as YAML")

var configSetCmd = &cobra.Command{
	Use:   "set -key <key> -value <value>",
	Short: "Set one key in the -config YAML file, creating it if necessary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if *configFile == "" {
			return fmt.Errorf("-config is required to know which file to edit")
		}
		if *configSetKey == "" {
			return fmt.Errorf("-key is required")
		}

		doc := map[string]any{}
		if data, err := os.ReadFile(*configFile); err == nil {
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return errors.Wrapf(err, "parse existing config %s", *configFile)
			}
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "read config %s", *configFile)
		}

		var value any
		if err := yaml.Unmarshal([]byte(*configSetValue), &value); err != nil {
			return errors.Wrapf(err, "parse value %q", *configSetValue)
		}
		doc[*configSetKey] = value

		out, err := yaml.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "marshal config")
		}
		if err := os.WriteFile(*configFile, out, 0o644); err != nil {
			return errors.Wrapf(err, "write config %s", *configFile)
		}
		fmt.Printf("set %s = %v in %s\n", *configSetKey, value, *configFile)
		return nil
	},
}

func init() {
	configSetCmd.Flags().AddGoFlag(flag.Lookup("key"))
	configSetCmd.Flags().AddGoFlag(flag.Lookup("value"))
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
