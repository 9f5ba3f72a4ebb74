// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/code-indexer/goldenrepo/internal/goldenrepo/search"
)

var (
	searchRepos = flag.String("repos", "", "comma-separated list of repository aliases to search")
	searchType  = flag.String("type", "semantic", "index kind to search: semantic, fts, temporal, or scip")
	searchLimit = flag.Int("limit", 10, "maximum results per repository")
)

var searchCmd = &cobra.Command{
	Use:   "search -repos <alias,...> -type <kind> <query>",
	Short: "Run a cross-repository search and print the aggregated response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if *searchRepos == "" {
			return fmt.Errorf("-repos is required")
		}
		lm, err := openLifecycleManager()
		if err != nil {
			return err
		}
		resp := lm.SearchRepos(cmd.Context(), search.Request{
			Repositories: strings.Split(*searchRepos, ","),
			Query:        args[0],
			SearchType:   *searchType,
			Limit:        *searchLimit,
		})
		for repo, results := range resp.ResultsByRepo {
			fmt.Printf("== %s (%d results) ==\n", repo, len(results))
			for _, r := range results {
				fmt.Printf("  %s:%d  %.3f  %s\n", r.Path, r.Line, r.Score, r.Snippet)
			}
		}
		for _, s := range resp.Skipped {
			fmt.Printf("skipped %s: %s\n", s.Repository, s.Reason)
		}
		for _, e := range resp.Errors {
			fmt.Printf("error %s: %s\n", e.Repository, e.Message)
		}
		for _, sg := range resp.Suggestions {
			fmt.Printf("unknown repository %q, did you mean %q?\n", sg.Requested, sg.DidYouMean)
		}
		fmt.Printf("%d total results across %d/%d repositories, %dms\n",
			resp.Metadata.TotalResults, resp.Metadata.ReposWithResults, resp.Metadata.ReposSearched, resp.Metadata.ExecutionTimeMS)
		return nil
	},
}

func init() {
	searchCmd.Flags().AddGoFlag(flag.Lookup("repos"))
	searchCmd.Flags().AddGoFlag(flag.Lookup("type"))
	searchCmd.Flags().AddGoFlag(flag.Lookup("limit"))
}
