// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every document from the index",
		RunE:  runClear,
	}

	cmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	return cmd
}

func runClear(cmd *cobra.Command, _ []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Fprint(cmd.OutOrStdout(), "This deletes all indexed documents. Continue? [y/N] ")
		var reply string
		fmt.Fscanln(cmd.InOrStdin(), &reply)
		if reply != "y" && reply != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

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

	if err := pipeline.ClearIndex(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Index cleared.")
	return nil
}
