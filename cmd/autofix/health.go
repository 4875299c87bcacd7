package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix/internal/presentation/tui"
	"github.com/aretw0/autofix/pkg/domain"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every component and report the composite status",
	Long: `Probes the supervisor, the agents, the Kubernetes API and the notification channel.
The command exits with a non-zero status when any component is unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report := a.svc.Health(cmd.Context())
		if err := emit(cmd, report, func() string { return tui.HealthMarkdown(report) }); err != nil {
			return err
		}
		if report.Status != domain.HealthHealthy {
			return errors.New(tui.HealthLine(report))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
