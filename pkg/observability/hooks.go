package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/autofix/pkg/domain"
)

// Merge fans every event out to each of the given hooks, in order.
func Merge(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			for _, h := range all {
				if h.OnTurn != nil {
					h.OnTurn(ctx, e)
				}
			}
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			for _, h := range all {
				if h.OnDispatch != nil {
					h.OnDispatch(ctx, e)
				}
			}
		},
		OnOutcome: func(ctx context.Context, e *domain.OutcomeEvent) {
			for _, h := range all {
				if h.OnOutcome != nil {
					h.OnOutcome(ctx, e)
				}
			}
		},
		OnNotification: func(ctx context.Context, e *domain.NotificationEvent) {
			for _, h := range all {
				if h.OnNotification != nil {
					h.OnNotification(ctx, e)
				}
			}
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			for _, h := range all {
				if h.OnWorkflowEnd != nil {
					h.OnWorkflowEnd(ctx, e)
				}
			}
		},
	}
}

// LoggingHooks logs every event at debug level, except failures which are warnings.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn",
				"run_id", e.RunID,
				"step", e.Step,
				"agent", e.Agent,
				"reasoning", e.Reasoning,
			)
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "dispatch", "agent", e.Agent, "duration", e.Duration, "is_error", e.IsError)
		},
		OnOutcome: func(ctx context.Context, e *domain.OutcomeEvent) {
			logger.DebugContext(ctx, "outcome",
				"deployment", e.Target,
				"namespace", e.Namespace,
				"force", e.Force,
				"success", e.Success,
			)
		},
		OnNotification: func(ctx context.Context, e *domain.NotificationEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "notification", "status", e.Status, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "notification", "status", e.Status)
		},
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) {
			logger.DebugContext(ctx, "workflow_end",
				"run_id", e.RunID,
				"status", e.Status,
				"terminated_by", e.TerminatedBy,
				"iterations", e.Iterations,
				"duration", e.Duration,
			)
		},
	}
}
