package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	// Create a fresh root command for testing
	testRoot := &cobra.Command{
		Use:   "crossbake",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Capture output
	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	// Execute root command with no args
	err := testRoot.Execute()

	// Should show help (which returns nil error in cobra)
	assert.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Usage:", "Help should be displayed")
	assert.Contains(t, output, "crossbake", "Help should show command name")
}

// TestRootCommand_RejectsUnknownFlags tests that unknown flags
// passed to the root command cause an error instead of being silently ignored
func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	// Create a fresh root command for testing with strict flag parsing
	testRoot := &cobra.Command{
		Use:   "crossbake",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}

	// Set args with an unknown flag
	testRoot.SetArgs([]string{"--unknown-flag", "value"})

	// Capture output
	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	// Execute should fail with unknown flag error
	err := testRoot.Execute()
	assert.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag", "Error should mention unknown flag")
}

// TestRootCommand_RejectsSubcommandFlags tests that flags meant for
// subcommands (like --output) are rejected when passed to the root command
func TestRootCommand_RejectsSubcommandFlags(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "crossbake",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}

	// Add a subcommand with a flag (like matrix --output)
	subCmd := &cobra.Command{
		Use:   "matrix",
		Short: "Matrix subcommand",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	subCmd.Flags().String("output", "", "Output format")
	testRoot.AddCommand(subCmd)

	// Try to pass --output to root instead of subcommand
	testRoot.SetArgs([]string{"--output", "jsonl"})

	// Capture output
	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	// Execute should fail - root doesn't have --output flag
	err := testRoot.Execute()
	assert.Error(t, err, "Subcommand flag passed to root should cause error")
	assert.Contains(t, err.Error(), "unknown flag: --output",
		"Error should indicate --output is unknown to root command")
}

// TestRootCommand_AcceptsValidSubcommand tests that valid subcommands
// still work correctly
func TestRootCommand_AcceptsValidSubcommand(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "crossbake",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	subcommandExecuted := false
	subCmd := &cobra.Command{
		Use:   "test-sub",
		Short: "Test subcommand",
		RunE: func(cmd *cobra.Command, args []string) error {
			subcommandExecuted = true
			return nil
		},
	}
	testRoot.AddCommand(subCmd)

	// Execute with valid subcommand
	testRoot.SetArgs([]string{"test-sub"})
	err := testRoot.Execute()

	assert.NoError(t, err)
	assert.True(t, subcommandExecuted, "Subcommand should have been executed")
}

// TestRegisteredSubcommands verifies the real root command carries the
// full command set
func TestRegisteredSubcommands(t *testing.T) {
	expected := map[string]bool{
		"init":     false,
		"generate": false,
		"matrix":   false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}

	for name, found := range expected {
		assert.True(t, found, "subcommand %q should be registered", name)
	}
}
