package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/internal/presentation/tui"
)

var notifyCmd = &cobra.Command{
	Use:   "notify [message]",
	Short: "Send a human help request or an incident alert",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		urgency, _ := cmd.Flags().GetString("urgency")
		severity, _ := cmd.Flags().GetString("severity")
		services, _ := cmd.Flags().GetStringSlice("services")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.svc.Notify(cmd.Context(), autofix.NotifyRequest{
			Type:             kind,
			Message:          strings.Join(args, " "),
			Urgency:          urgency,
			Severity:         severity,
			AffectedServices: services,
		})
		if err != nil {
			return err
		}
		view := map[string]string{"notification_type": res.Type, "result": res.Result}
		return emit(cmd, view, func() string {
			return tui.ReportMarkdown("Notification ("+res.Type+")", res.Result)
		})
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringP("type", "t", autofix.NotifyHumanHelp, "Notification type: human_help or incident")
	notifyCmd.Flags().String("urgency", "", "Urgency of a human help request (default medium)")
	notifyCmd.Flags().String("severity", "", "Severity of an incident (default medium)")
	notifyCmd.Flags().StringSlice("services", nil, "Services affected by an incident")
}
