// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	c := Default()
	c.Root = "/golden"
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejectsRefreshIntervalBelowMinimum(t *testing.T) {
	c := Default()
	c.Root = "/golden"
	c.RefreshInterval = 10 * time.Second
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for refresh interval below minimum")
	}
}

func TestValidateRejectsMissingRoot(t *testing.T) {
	c := Default()
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for missing root")
	}
}

func TestValidateRejectsNonPositiveWorkers(t *testing.T) {
	c := Default()
	c.Root = "/golden"
	c.MultiSearchMaxWorkers = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for non-positive worker count")
	}
}
