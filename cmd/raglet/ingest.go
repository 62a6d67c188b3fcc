// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raglet-dev/raglet/internal/loader"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file...>",
		Short: "Ingest documents into the index",
		Long: "Extract text from the given files and index them. Supported formats: " +
			strings.Join(loader.SupportedExtensions(), ", ") + ".",
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("samples", false, "also ingest the bundled sample documents")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()

	docs := make([]string, 0, len(args))
	for _, path := range args {
		doc, err := loader.Load(path)
		if err != nil {
			return err
		}
		res, err := pipeline.Ingest(ctx, doc)
		if err != nil {
			return err
		}
		docs = append(docs, fmt.Sprintf("%s (%d chunks)", res.DocumentID, res.ChunkCount))
	}

	if withSamples, _ := cmd.Flags().GetBool("samples"); withSamples {
		for _, doc := range loader.SampleDocuments() {
			res, err := pipeline.Ingest(ctx, doc)
			if err != nil {
				return err
			}
			docs = append(docs, fmt.Sprintf("%s (%d chunks)", res.DocumentID, res.ChunkCount))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d documents:\n", len(docs))
	for _, line := range docs {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
	}
	return nil
}
