package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix/internal/presentation/graph"
	"github.com/aretw0/autofix/internal/presentation/tui"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run id]",
	Short: "List stored workflow runs or show one of them",
	Long: `Without arguments, lists the IDs of the stored workflow runs, oldest first.
With a run ID, prints that run's report.

Runs are only kept across invocations when the Redis run store is enabled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			ids, err := a.svc.Runs(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, ids, func() string {
				var sb strings.Builder
				sb.WriteString("# Runs\n\n")
				for _, id := range ids {
					fmt.Fprintf(&sb, "- `%s`\n", id)
				}
				return sb.String()
			})
		}

		report, err := a.svc.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if mermaid {
			_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(report))
			return err
		}
		return emit(cmd, report, func() string { return tui.WorkflowMarkdown(report) })
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().Bool("mermaid", false, "Print the run as a Mermaid flowchart")
}
