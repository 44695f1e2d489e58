package main

import (
	"fmt"

	"github.com/rohankatakam/crewforge/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the LLM completion cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached completion",
	Long: `Remove every cached completion so the next run calls the LLM for each task.
Works for the local bolt file and for a shared Redis cache.`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Completion cache is disabled (cache.backend: none)")
		return nil
	}
	defer store.Close()

	n, err := store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logger.WithField("backend", cfg.Cache.Backend).Debug("Cache cleared")
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached completions\n", n)
	return nil
}
