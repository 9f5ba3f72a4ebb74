// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoadFileParsesSecondsNotNanoseconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goldenrepo.yaml")
	doc := "refresh_interval_seconds: 3600\ngit_operation_timeout: 45\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path, Default())
	if err != nil {
		t.Fatal(err)
	}
	if got.RefreshInterval != time.Hour {
		t.Fatalf("RefreshInterval = %s, want 1h (got nanoseconds if this is 3600ns)", got.RefreshInterval)
	}
	if got.GitOperationTimeout != 45*time.Second {
		t.Fatalf("GitOperationTimeout = %s, want 45s", got.GitOperationTimeout)
	}
}

func TestLoadFileOverlayLeavesOmittedKeysAtDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goldenrepo.yaml")
	if err := os.WriteFile(path, []byte("refresh_interval_seconds: 7200\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := Default()
	got, err := LoadFile(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if got.RefreshInterval != 2*time.Hour {
		t.Fatalf("RefreshInterval = %s, want 2h", got.RefreshInterval)
	}
	if got.CoWCloneTimeout != base.CoWCloneTimeout {
		t.Fatalf("CoWCloneTimeout = %s, want untouched default %s", got.CoWCloneTimeout, base.CoWCloneTimeout)
	}
}

func TestLoadFileMissingReturnsBaseUnchanged(t *testing.T) {
	base := Default()
	base.Root = "/golden"
	got, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), base)
	if err != nil {
		t.Fatal(err)
	}
	if got != base {
		t.Fatal("expected base to be returned unchanged when the config file is absent")
	}
}

func TestConfigMarshalYAMLEmitsSeconds(t *testing.T) {
	c := Default()
	c.Root = "/golden"

	out, err := yaml.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	got, ok := doc["refresh_interval_seconds"].(int)
	if !ok {
		t.Fatalf("refresh_interval_seconds = %#v, want an int number of seconds", doc["refresh_interval_seconds"])
	}
	if got != 3600 {
		t.Fatalf("refresh_interval_seconds = %d, want 3600 (got raw nanoseconds if this is 3600000000000)", got)
	}
}
