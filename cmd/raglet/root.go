// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raglet-dev/raglet/internal/config"
)

// NewRootCmd creates the root raglet command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "raglet",
		Short:         "Raglet — retrieval-augmented generation over your documents",
		Long:          "Raglet ingests documents into a local vector index and answers questions about them with cited sources.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newIngestCmd(),
		newAskCmd(),
		newSummarizeCmd(),
		newStatsCmd(),
		newClearCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the --config flag, falling back to raglet.yaml
// in the working directory when present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat("raglet.yaml"); err == nil {
			path = "raglet.yaml"
		}
	}
	return config.Load(path)
}

// newLogger builds the process logger; --verbose lowers the level to
// debug.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
