package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/autofix/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHooks_RecordEvents(t *testing.T) {
	m := New()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTurn(ctx, &domain.TurnEvent{Agent: "ClusterFixer"})
	hooks.OnTurn(ctx, &domain.TurnEvent{Agent: "K8sFixer"})
	hooks.OnTurn(ctx, &domain.TurnEvent{Agent: "SomethingNew"})
	hooks.OnDispatch(ctx, &domain.DispatchEvent{Agent: "Notifier", Duration: time.Second, IsError: true})
	hooks.OnOutcome(ctx, &domain.OutcomeEvent{Success: true})
	hooks.OnOutcome(ctx, &domain.OutcomeEvent{Success: false})
	hooks.OnNotification(ctx, &domain.NotificationEvent{Status: domain.OutcomeFailed, Err: errors.New("down")})
	hooks.OnWorkflowEnd(ctx, &domain.WorkflowEvent{Status: domain.WorkflowCompleted, TerminatedBy: domain.TerminatedByFinish})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("ClusterFixer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("unregistered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchErrors.WithLabelValues("Notifier")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("failed", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflows.WithLabelValues("completed", "finish")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.Hooks().OnTurn(context.Background(), &domain.TurnEvent{Agent: "Notifier"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `autofix_workflow_turns_total{agent="Notifier"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
