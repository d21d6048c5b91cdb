package commands

import (
	"fmt"

	"github.com/crossbake/crossbake/internal/git"
	"github.com/crossbake/crossbake/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new crossbake project",
	Long: `Initialize a new crossbake project with a default configuration.

Creates:
  • crossbake.yml - Project configuration file
  • .travis.yml   - Seed CI config (only when none exists yet)

This command must be run from the root of a Git repository.

Use --force to reinitialize an existing project (WARNING: replaces existing configuration).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (replaces existing crossbake.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Validate Git context first
	checker := git.NewChecker()
	if err := checker.ValidateGitContext(); err != nil {
		return err
	}

	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	// Initialize the project
	created, err := scaffold.Initialize(forceInit)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	// Print success message
	scaffold.PrintSuccess(created)

	return nil
}
