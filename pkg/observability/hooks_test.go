package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/aretw0/autofix/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestMerge_FansOutInOrder(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) { calls = append(calls, "first:"+e.Agent) },
	}
	second := domain.LifecycleHooks{
		OnTurn:        func(ctx context.Context, e *domain.TurnEvent) { calls = append(calls, "second:"+e.Agent) },
		OnWorkflowEnd: func(ctx context.Context, e *domain.WorkflowEvent) { calls = append(calls, "end") },
	}

	merged := observability.Merge(first, domain.LifecycleHooks{}, second)
	merged.OnTurn(context.Background(), &domain.TurnEvent{Agent: "Notifier"})
	merged.OnWorkflowEnd(context.Background(), &domain.WorkflowEvent{})
	merged.OnDispatch(context.Background(), &domain.DispatchEvent{})

	assert.Equal(t, []string{"first:Notifier", "second:Notifier", "end"}, calls)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelWarn, logging.FormatText))

	hooks.OnTurn(context.Background(), &domain.TurnEvent{Agent: "ClusterFixer"})
	hooks.OnNotification(context.Background(), &domain.NotificationEvent{Status: domain.OutcomeFailed, Err: errors.New("webhook 500")})

	out := buf.String()
	assert.NotContains(t, out, "ClusterFixer")
	assert.Contains(t, out, "webhook 500")
	assert.Contains(t, out, "status=failed")
}
