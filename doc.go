/*
Package autofix repairs malfunctioning Kubernetes workloads by coordinating specialist
agents and reporting the outcome to humans.

It offers two workflows over the same capabilities:

  - Remediate runs one repair attempt, classifies the free-form repair report as a
    success or a failure and sends exactly one outcome notification.
  - RunWorkflow lets a Supervisor pick, turn by turn, which agent (ClusterFixer,
    Notifier or FINISH) acts next, until the supervisor stops, routes to FINISH or the
    iteration guard trips.

Capabilities are injected through functional options. Missing capabilities are
reported by Health and turn the operations that need them into failed outcomes.

# Usage

	c, _ := kube.NewClient(cfg)
	n := notify.New(notify.WithWebhook(url))

	svc := autofix.New(
		autofix.WithClusterFixer(kube.New(c)),
		autofix.WithNotifier(n),
		autofix.WithSupervisor(supervisor.New()),
		autofix.WithRunStore(memory.NewStore()),
	)

	res, err := svc.Remediate(ctx, autofix.RemediationRequest{
		Deployment: "web-app",
		Namespace:  "prod",
		Event:      "CrashLoopBackOff",
	})

The HTTP (pkg/adapters/http), MCP (pkg/adapters/mcp) and CLI (cmd/autofix) surfaces
are thin adapters around Service.
*/
package autofix
