package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix/internal/presentation/graph"
	"github.com/aretw0/autofix/internal/presentation/tui"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow [problem description]",
	Short: "Run the supervisor-driven multi-turn workflow",
	Long: `Hands a free-text problem description to the supervisor, which routes it between the
cluster fixer and the notifier until it decides the problem is handled.

Example:
  autofix workflow "deployment web-app in namespace prod is crash looping"

Use --mermaid to print the routing of the run as a Mermaid flowchart.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.svc.RunWorkflow(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if mermaid {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(report))
		} else if err := emit(cmd, report, func() string { return tui.WorkflowMarkdown(report) }); err != nil {
			return err
		}

		if report.Failed() {
			return errors.New(report.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)

	workflowCmd.Flags().Bool("mermaid", false, "Print the run as a Mermaid flowchart")
}
