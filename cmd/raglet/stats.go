// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	pipeline, cleanup, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := pipeline.SystemInfo(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents:         %d\n", info.DocumentCount)
	fmt.Fprintf(out, "Chunks:            %d\n", info.ChunkCount)
	fmt.Fprintf(out, "Embedding backend: %s (%d dimensions)\n", info.EmbeddingBackend, info.Dimensions)
	fmt.Fprintf(out, "Providers:         %v\n", info.Providers)
	fmt.Fprintf(out, "Chunk size:        %d (overlap %d)\n", info.ChunkSize, info.ChunkOverlap)
	fmt.Fprintf(out, "Top-k:             %d\n", info.TopK)
	fmt.Fprintf(out, "Temperature:       %g\n", info.Temperature)
	return nil
}
