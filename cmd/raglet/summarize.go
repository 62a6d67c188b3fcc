// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raglet-dev/raglet/internal/loader"
)

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize a document without indexing it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummarize,
	}

	cmd.Flags().Int("words", 200, "approximate maximum summary length in words")
	cmd.Flags().Int("questions", 0, "additionally generate this many questions about the document")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
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

	doc, err := loader.Load(args[0])
	if err != nil {
		return err
	}

	words, _ := cmd.Flags().GetInt("words")
	summary, err := pipeline.Summarize(cmd.Context(), doc.Content, words)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, summary)

	if n, _ := cmd.Flags().GetInt("questions"); n > 0 {
		questions, err := pipeline.GenerateQuestions(cmd.Context(), doc.Content, n)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nQuestions:")
		for i, q := range questions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, q)
		}
	}
	return nil
}
