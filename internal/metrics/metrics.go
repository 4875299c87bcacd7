// Package metrics exposes Prometheus collectors for the orchestration engine and
// binds them to its lifecycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/autofix/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autofix"

// Metrics holds the collectors of one service instance.
type Metrics struct {
	registry *prometheus.Registry

	turns            *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
	outcomes         *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	workflows        *prometheus.CounterVec
	workflowDuration prometheus.Histogram
}

// New creates the collectors on a private registry, including Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_turns_total",
				Help:      "Total number of routed turns, by agent",
			},
			[]string{"agent"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of agent dispatches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
		dispatchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_errors_total",
				Help:      "Agent dispatches whose capability failed",
			},
			[]string{"agent"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remediation_outcomes_total",
				Help:      "Single-shot remediation outcomes",
			},
			[]string{"status"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcome_notifications_total",
				Help:      "Outcome notifications, by status and delivery result",
			},
			[]string{"status", "delivery"},
		),
		workflows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_total",
				Help:      "Finished multi-turn workflows",
			},
			[]string{"status", "terminated_by"},
		),
		workflowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Duration of multi-turn workflows",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
	}

	m.registry.MustRegister(
		m.turns,
		m.dispatchDuration,
		m.dispatchErrors,
		m.outcomes,
		m.notifications,
		m.workflows,
		m.workflowDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(agentLabel(e.Agent)).Inc()
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			agent := agentLabel(e.Agent)
			m.dispatchDuration.WithLabelValues(agent).Observe(e.Duration.Seconds())
			if e.IsError {
				m.dispatchErrors.WithLabelValues(agent).Inc()
			}
		},
		OnOutcome: func(ctx context.Context, e *domain.OutcomeEvent) {
			status := domain.OutcomeFailed
			if e.Success {
				status = domain.OutcomeSuccess
			}
			m.outcomes.WithLabelValues(string(status)).Inc()
		},
		OnNotification: func(ctx context.Context, e *domain.NotificationEvent) {
			delivery := "delivered"
			if e.Err != nil {
				delivery = "failed"
			}
			m.notifications.WithLabelValues(string(e.Status), delivery).Inc()
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			m.workflows.WithLabelValues(string(e.Status), string(e.TerminatedBy)).Inc()
			m.workflowDuration.Observe(e.Duration.Seconds())
		},
	}
}

// agentLabel keeps label cardinality bounded to the closed agent set.
func agentLabel(name string) string {
	return domain.ParseAgent(name).String()
}
