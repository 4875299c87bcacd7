package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix/internal/presentation/tui"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Summarize the health of the workloads in a namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.svc.Diagnose(cmd.Context(), namespace)
		if err != nil {
			return err
		}
		return emit(cmd, d.Report, func() string {
			var buf bytes.Buffer
			_ = writeJSON(&buf, d.Report)
			return tui.ReportMarkdown("Diagnosis of `"+d.Namespace+"`", buf.String())
		})
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)

	diagnoseCmd.Flags().StringP("namespace", "n", "default", "Namespace to inspect")
}
