// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML config file at path and overlays it onto base,
// so an on-disk goldenrepo.yaml can override defaults while flags
// (applied by the caller afterward) take final precedence. A missing
// file is not an error: base is returned unchanged.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Config{}, errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return Config{}, errors.Wrapf(err, "parse config file %s", path)
	}
	return base, nil
}
