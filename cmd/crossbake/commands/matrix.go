package commands

import (
	"fmt"
	"os"

	"github.com/crossbake/crossbake/internal/config"
	"github.com/crossbake/crossbake/internal/dockerfile"
	"github.com/crossbake/crossbake/internal/matrix"
	"github.com/crossbake/crossbake/internal/printer"
	"github.com/spf13/cobra"
)

var (
	matrixConfigPath   string
	matrixOutputFormat string
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the tag matrix computed from generated Dockerfiles",
	Long: `Recompute the Dockerfile-to-tags mapping from the composed Dockerfiles
already on disk and display it. Does not touch the network or the CI
config.

Output Formats:
  default - Human-readable table with Dockerfile and Tags columns
  jsonl   - Line-delimited JSON, one build group per line

Examples:
  # Show the matrix as a table
  crossbake matrix

  # Pipe groups to jq
  crossbake matrix --output=jsonl | jq -r '.tags[]'`,
	RunE: runMatrix,
}

func init() {
	matrixCmd.Flags().StringVarP(&matrixConfigPath, "config", "c", "crossbake.yml", "Path to the configuration file")
	matrixCmd.Flags().StringVarP(&matrixOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	// Validate output format before doing any work
	if matrixOutputFormat != "default" && matrixOutputFormat != "jsonl" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", matrixOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	cfg, err := config.Load(matrixConfigPath)
	if err != nil {
		return printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{"Run 'crossbake init' to scaffold a fresh crossbake.yml"},
		)
	}

	envVars := [2]string{cfg.Upstreams[0].EnvVar, cfg.Upstreams[1].EnvVar}
	artifacts, err := dockerfile.ScanArtifacts(cfg.OutputDir, envVars)
	if err != nil {
		return printer.Error(
			"failed to scan generated Dockerfiles",
			err.Error(),
			[]string{"Run 'crossbake generate' first to compose the Dockerfiles"},
		)
	}

	groups := matrix.Build(artifacts)

	if matrixOutputFormat == "jsonl" {
		if err := matrix.FormatJSONL(os.Stdout, groups); err != nil {
			return fmt.Errorf("failed to format matrix: %w", err)
		}
		return nil
	}

	matrix.FormatTable(os.Stdout, groups)

	return nil
}
