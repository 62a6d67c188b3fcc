// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().IntP("top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	k, _ := cmd.Flags().GetInt("top-k")
	question := strings.Join(args, " ")

	answer, err := pipeline.Ask(cmd.Context(), question, k)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)

	if len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\nSources (%s/%s):\n", answer.Provider, answer.Model)
		for _, sc := range answer.Sources {
			label := sc.Chunk.Metadata["source"]
			if label == "" {
				label = sc.Chunk.DocumentID
			}
			fmt.Fprintf(out, "  %-40s similarity %.3f\n", label, sc.Similarity)
		}
	}
	return nil
}
