package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autofix",
	Short: "autofix repairs failing Kubernetes workloads and escalates what it cannot fix",
	Long: `autofix runs a supervisor-driven remediation workflow: a cluster fixer tries to
repair a deployment, and a notifier asks a human for help when the repair does not succeed.

It can be used as an HTTP service (serve), an MCP server (mcp) or directly from the shell.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().StringP("output", "o", outputAuto, "Output format: auto, json or markdown")
}
