package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of autofix",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "autofix version %s\n", autofix.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
