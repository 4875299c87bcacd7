package ports

import (
	"context"

	"github.com/aretw0/autofix/pkg/domain"
)

// Supervisor owns the decision policy of the multi-turn loop.
// Implementations are process-wide singletons and must not keep per-run state.
type Supervisor interface {
	// CreateInitialState builds the state of a new run from a problem description.
	CreateInitialState(problem string) *domain.WorkflowState

	// ShouldContinue reports whether the loop should route another turn.
	ShouldContinue(state *domain.WorkflowState) bool

	// RouteNextAction picks the next agent. domain.NameFinish ends the run.
	RouteNextAction(ctx context.Context, state *domain.WorkflowState) (domain.RoutingDecision, error)

	// GetWorkflowSummary summarizes a finished run. The value is opaque to the engine.
	GetWorkflowSummary(state *domain.WorkflowState) any
}

// ClusterFixer inspects and repairs workloads.
type ClusterFixer interface {
	// AnalyzeAndFix returns a free-form report of the repair attempt.
	AnalyzeAndFix(ctx context.Context, target, namespace, event string) (string, error)

	// DiagnoseClusterHealth returns an opaque diagnosis of the namespace.
	DiagnoseClusterHealth(ctx context.Context, namespace string) (any, error)
}

// Notifier delivers human-facing alerts.
type Notifier interface {
	SendHumanHelpRequest(ctx context.Context, message, urgency string) (string, error)
	SendIncidentAlert(ctx context.Context, message string, affectedServices []string, severity string) (string, error)

	// CheckNotificationHealth reports delivery health. The "healthy" key carries a bool.
	CheckNotificationHealth(ctx context.Context) map[string]any
}

// NotificationDispatch delivers the outcome of a single-shot remediation.
type NotificationDispatch interface {
	SendOutcomeNotification(ctx context.Context, n domain.OutcomeNotification) error
}

// HealthProber is implemented by collaborators that can check their own liveness.
type HealthProber interface {
	Healthy(ctx context.Context) error
}
