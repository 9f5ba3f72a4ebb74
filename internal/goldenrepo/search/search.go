// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

// Package search implements the cross-repository search orchestrator:
// fan-out of a single query over a list of repositories, bounded
// concurrency, per-repository timeouts, and partial-failure-tolerant
// aggregation with repository attribution.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/alias"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/queryref"
	"github.com/code-indexer/goldenrepo/internal/goldenrepo/registry"
)

// Result is one match returned by a backend search.
type Result struct {
	Path    string  `json:"path"`
	Line    int     `json:"line"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Backend executes one repository's search. Implementations shell out to
// the external indexer CLI's query subcommand; the orchestrator itself is
// backend-agnostic.
type Backend interface {
	Search(ctx context.Context, repoDir, query, searchType string, limit int) ([]Result, error)
}

// ResponseFormat selects how results are shaped in a Response.
type ResponseFormat int

const (
	// ByRepository groups results under each repository's alias (the
	// default — attribution is preserved).
	ByRepository ResponseFormat = iota
	// Flattened merges every repository's results into one globally
	// score-sorted list, for top-N requests.
	Flattened
)

// Request is a single cross-repository search request.
type Request struct {
	Repositories   []string
	Query          string
	SearchType     string
	Limit          int
	Timeout        time.Duration // zero means use the orchestrator's default
	ResponseFormat ResponseFormat
}

// Metadata summarizes a completed search across all repositories.
type Metadata struct {
	TotalResults      int
	ReposSearched     int
	ReposWithResults  int
	ExecutionTimeMS   int64
}

// Suggestion is returned for a repository alias the caller referenced
// that doesn't exist, naming the closest known alias by edit distance.
type Suggestion struct {
	Requested string
	DidYouMean string
}

// SkippedEntry records a repository that was excluded from the search
// without failing the whole request.
type SkippedEntry struct {
	Repository string
	Reason     string
}

// ErrorEntry records a per-repository search failure.
type ErrorEntry struct {
	Repository string
	Message    string
}

// Response is the aggregated result of a cross-repository search.
type Response struct {
	ResultsByRepo map[string][]Result
	Flattened     []FlatResult
	Metadata      Metadata
	Skipped       []SkippedEntry
	Errors        []ErrorEntry
	Suggestions   []Suggestion
}

// FlatResult is a Result carrying its source repository, used when
// ResponseFormat is Flattened.
type FlatResult struct {
	Repository string
	Result
}

// Orchestrator fans a query out across repositories.
type Orchestrator struct {
	aliases        *alias.Manager
	registry       *registry.Registry
	tracker        *queryref.Tracker
	backend        Backend
	maxWorkers     int
	defaultTimeout time.Duration
}

// New returns an Orchestrator. maxWorkers is deliberately small by
// default (2) because these are I/O- and CPU-heavy searches.
func New(aliases *alias.Manager, reg *registry.Registry, tracker *queryref.Tracker, backend Backend, maxWorkers int, defaultTimeout time.Duration) *Orchestrator {
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Orchestrator{
		aliases:        aliases,
		registry:       reg,
		tracker:        tracker,
		backend:        backend,
		maxWorkers:     maxWorkers,
		defaultTimeout: defaultTimeout,
	}
}

// Search resolves each requested repository, fans out bounded-concurrency
// searches with per-repository timeouts, and aggregates the results.
func (o *Orchestrator) Search(ctx context.Context, req Request) Response {
	start := time.Now()
	resp := Response{ResultsByRepo: make(map[string][]Result)}

	type resolved struct {
		repo string
		dir  string
	}
	var toSearch []resolved

	for _, repo := range req.Repositories {
		dir, err := o.aliases.TargetPath(repo)
		if err != nil {
			resp.Suggestions = append(resp.Suggestions, Suggestion{
				Requested:  repo,
				DidYouMean: o.closestAlias(repo),
			})
			continue
		}
		if !hasIndexOfKind(dir, req.SearchType) {
			resp.Skipped = append(resp.Skipped, SkippedEntry{Repository: repo, Reason: fmt.Sprintf("no %s index available", req.SearchType)})
			continue
		}
		toSearch = append(toSearch, resolved{repo: repo, dir: dir})
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = o.defaultTimeout
	}

	type taskResult struct {
		repo    string
		results []Result
		err     error
	}
	results := make([]taskResult, len(toSearch))

	sem := make(chan struct{}, o.maxWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range toSearch {
		i, r := i, r
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			taskCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			o.tracker.IncrementRef(r.dir)
			defer o.tracker.DecrementRef(r.dir)

			res, err := o.backend.Search(taskCtx, r.dir, req.Query, req.SearchType, req.Limit)
			if taskCtx.Err() != nil {
				err = fmt.Errorf("timed out after %s", timeout)
			}
			results[i] = taskResult{repo: r.repo, results: res, err: err}
			return nil // never propagate: one failing task must not cancel the others
		})
	}
	// errgroup's Go never returns a real error here (we swallow it above),
	// so Wait only blocks for completion.
	_ = g.Wait()

	var flat []FlatResult
	for _, tr := range results {
		if tr.repo == "" {
			continue
		}
		if tr.err != nil {
			resp.Errors = append(resp.Errors, ErrorEntry{Repository: tr.repo, Message: tr.err.Error()})
			continue
		}
		resp.ResultsByRepo[tr.repo] = tr.results
		resp.Metadata.TotalResults += len(tr.results)
		if len(tr.results) > 0 {
			resp.Metadata.ReposWithResults++
		}
		for _, r := range tr.results {
			flat = append(flat, FlatResult{Repository: tr.repo, Result: r})
		}
	}
	resp.Metadata.ReposSearched = len(toSearch)
	resp.Metadata.ExecutionTimeMS = time.Since(start).Milliseconds()

	if req.ResponseFormat == Flattened {
		sort.Slice(flat, func(i, j int) bool { return flat[i].Score > flat[j].Score })
		if req.Limit > 0 && len(flat) > req.Limit {
			flat = flat[:req.Limit]
		}
		resp.Flattened = flat
	}

	return resp
}

// hasIndexOfKind reports whether dir has the on-disk index subdirectory
// for searchType (e.g. SCIP is frequently absent). An unrecognized
// searchType is treated as always available, deferring the error to the
// backend.
func hasIndexOfKind(dir, searchType string) bool {
	semantic, fts, temporal, scip := registry.DetectIndexFlags(dir)
	switch searchType {
	case "semantic":
		return semantic
	case "fts":
		return fts
	case "temporal":
		return temporal
	case "scip":
		return scip
	default:
		return true
	}
}

// closestAlias returns the registered alias with the smallest Levenshtein
// edit distance to requested, for a "did you mean" suggestion on a
// missing-repository request error.
func (o *Orchestrator) closestAlias(requested string) string {
	best := ""
	bestDist := -1
	for _, e := range o.registry.All() {
		d := levenshtein(requested, e.Alias)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = e.Alias
		}
	}
	return best
}
