// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package alias

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/google/go-cmp/cmp"
)

func TestReadAliasNotFound(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadAlias("repo-a"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCreateThenRead(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CreateAlias("repo-a", "/golden/repo-a", "repo-a"); err != nil {
		t.Fatal(err)
	}
	got, err := m.TargetPath("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/golden/repo-a" {
		t.Fatalf("got %q, want /golden/repo-a", got)
	}
}

func TestSwapAliasPreservesCreatedAt(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CreateAlias("repo-a", "/golden/repo-a", "repo-a"); err != nil {
		t.Fatal(err)
	}
	before, err := m.ReadAlias("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SwapAlias("repo-a", "/golden/repo-a/.versioned/v_2", "/golden/repo-a", "repo-a"); err != nil {
		t.Fatal(err)
	}
	after, err := m.ReadAlias("repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if after.TargetPath != "/golden/repo-a/.versioned/v_2" {
		t.Fatalf("target not updated: %+v", after)
	}
	if diff := cmp.Diff(before.CreatedAt, after.CreatedAt, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("CreatedAt should survive a swap (-before +after):\n%s", diff)
	}
	if !after.LastRefresh.After(before.LastRefresh) && after.LastRefresh != before.LastRefresh {
		t.Fatalf("LastRefresh should advance on swap")
	}
}

func TestSwapAliasWithoutExistingRecord(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SwapAlias("repo-b", "/golden/repo-b", "", "repo-b"); err != nil {
		t.Fatal(err)
	}
	got, err := m.TargetPath("repo-b")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/golden/repo-b" {
		t.Fatalf("got %q", got)
	}
}
