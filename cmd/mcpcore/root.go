package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// configPath is the custom config file path (empty for default).
var configPath string

var rootCmd = &cobra.Command{
	Use:   "mcpcore",
	Short: "MCP client CLI and profile manager",
	Long: `mcpcore connects to Model Context Protocol servers described by
named connection profiles.

Running without a subcommand starts the interactive profile picker when
stdout is a terminal, or prints usage otherwise.
Use 'mcpcore ping <profile>' or 'mcpcore list-tools <profile>' to drive a
server directly from a script.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return cmd.Usage()
		}
		return runTUI(cmd, args)
	},
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: ~/.config/mcpcore/config.json)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
