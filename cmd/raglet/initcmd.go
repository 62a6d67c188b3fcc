// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raglet-dev/raglet/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter raglet.yaml",
		RunE:  runInit,
	}

	cmd.Flags().StringP("output", "o", "raglet.yaml", "where to write the config file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("output")

	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
