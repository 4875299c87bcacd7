package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/internal/presentation/tui"
)

type remediationView struct {
	Deployment   string   `json:"deployment"`
	Namespace    string   `json:"namespace"`
	Success      bool     `json:"success"`
	Result       string   `json:"result"`
	ActionsTaken []string `json:"actions_taken"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

var remediateCmd = &cobra.Command{
	Use:   "remediate",
	Short: "Run one remediation attempt against a deployment",
	Long: `Asks the cluster fixer to repair a deployment once. When the repair report does not
indicate success, the outcome is sent to the notification channel.

The command exits with a non-zero status when the remediation failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, _ := cmd.Flags().GetString("deployment")
		namespace, _ := cmd.Flags().GetString("namespace")
		event, _ := cmd.Flags().GetString("event")
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if a.cfg.Remediation.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.cfg.Remediation.Timeout)
			defer cancel()
		}

		res, err := a.svc.Remediate(ctx, autofix.RemediationRequest{
			Deployment: deployment,
			Namespace:  namespace,
			Event:      event,
			Force:      force,
		})
		if err != nil {
			return err
		}

		view := remediationView{
			Deployment:   res.Deployment,
			Namespace:    res.Namespace,
			Success:      res.Success,
			Result:       res.Report,
			ActionsTaken: res.ActionsTaken,
			ErrorMessage: res.ErrorMessage,
		}
		if err := emit(cmd, view, func() string {
			return tui.OutcomeMarkdown(res.Deployment, res.Namespace, res.RemediationOutcome)
		}); err != nil {
			return err
		}
		if !res.Success {
			return errors.New(tui.StatusLine(false, "remediation failed"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remediateCmd)

	remediateCmd.Flags().StringP("deployment", "d", "", "Deployment to repair")
	remediateCmd.Flags().StringP("namespace", "n", "default", "Namespace of the deployment")
	remediateCmd.Flags().StringP("event", "e", "", "Description of the event that triggered the repair")
	remediateCmd.Flags().Bool("force", false, "Repair even if the workload looks healthy")
	_ = remediateCmd.MarkFlagRequired("deployment")
}
