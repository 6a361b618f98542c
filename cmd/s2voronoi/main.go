// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Command s2voronoi computes Voronoi cell boundaries of grid cell centers on
// the sphere.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "s2voronoi",
		Short: "Spherical Voronoi cell boundaries for grid remapping",
		PersistentPreRun: func(*cobra.Command, []string) {
			logrus.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: time.RFC3339,
				DisableSorting:  true,
			})
			logrus.SetLevel(logrus.InfoLevel)
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log triangulation stages")

	cmd.AddCommand(cellsCmd())
	cmd.AddCommand(renderCmd())
	cmd.AddCommand(statsCmd())
	return cmd
}

func cellsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cells [config]",
		Short: "Compute cell boundaries and write them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCells(args[0], cmd.OutOrStdout())
		},
	}
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [config]",
		Short: "Draw the cells (and optionally the triangulation) as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], cmd.OutOrStdout())
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [config]",
		Short: "Report cell counts, corner counts and area coverage",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runStats(args[0], logrus.StandardLogger())
		},
	}
}
