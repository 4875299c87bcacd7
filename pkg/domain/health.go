package domain

import "time"

// HealthStatus is the composite status reported by the health aggregator.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)

// Component names probed by the service.
const (
	ComponentSupervisor          = "supervisor_agent"
	ComponentClusterFixer        = "k8s_fixer_agent"
	ComponentNotifier            = "notifier_agent"
	ComponentKubernetes          = "kubernetes_service"
	ComponentNotificationService = "notification_service"
)

// HealthReport folds the liveness of every collaborator into one status.
type HealthReport struct {
	Status     HealthStatus    `json:"status"`
	Components map[string]bool `json:"components"`
	Details    map[string]any  `json:"details,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}
