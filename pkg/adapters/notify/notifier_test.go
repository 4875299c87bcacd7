package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aretw0/autofix/internal/runtime"
	"github.com/aretw0/autofix/pkg/adapters/notify"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu       sync.Mutex
	payloads []notify.Payload
	status   int
}

func (s *sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p notify.Payload
	_ = json.NewDecoder(r.Body).Decode(&p)
	s.mu.Lock()
	s.payloads = append(s.payloads, p)
	status := s.status
	s.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func TestNotifier_HumanHelp(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(s)
	defer srv.Close()

	n := notify.New(notify.WithWebhook(srv.URL), notify.WithChannel("oncall"))
	result, err := n.SendHumanHelpRequest(context.Background(), "web-app keeps crashing", "high")
	require.NoError(t, err)
	assert.Contains(t, result, "urgency=high")

	require.Len(t, s.payloads, 1)
	p := s.payloads[0]
	assert.Equal(t, notify.KindHumanHelp, p.Kind)
	assert.Equal(t, "oncall", p.Channel)
	assert.Equal(t, "web-app keeps crashing", p.Text)
	assert.Equal(t, "high", p.Urgency)
	assert.NotEmpty(t, p.ID)
}

func TestNotifier_IncidentDefaults(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(s)
	defer srv.Close()

	n := notify.New(notify.WithWebhook(srv.URL))
	_, err := n.SendIncidentAlert(context.Background(), "db down", []string{"api", "web"}, "")
	require.NoError(t, err)

	require.Len(t, s.payloads, 1)
	assert.Equal(t, domain.DefaultSeverity, s.payloads[0].Severity)
	assert.Equal(t, []string{"api", "web"}, s.payloads[0].Services)
	assert.Equal(t, notify.DefaultChannel, s.payloads[0].Channel)
}

func TestNotifier_Outcome(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(s)
	defer srv.Close()

	n := notify.New(notify.WithWebhook(srv.URL))
	err := n.SendOutcomeNotification(context.Background(), domain.OutcomeNotification{
		Target:       "web-app",
		Namespace:    "prod",
		Status:       domain.OutcomeSuccess,
		ActionsTaken: []string{"执行K8s自动修复: web-app"},
	})
	require.NoError(t, err)

	require.Len(t, s.payloads, 1)
	require.NotNil(t, s.payloads[0].Outcome)
	assert.Equal(t, "web-app", s.payloads[0].Outcome.Target)
	assert.Contains(t, s.payloads[0].Text, "prod/web-app")
}

func TestNotifier_FailureTracksHealth(t *testing.T) {
	s := &sink{status: http.StatusBadGateway}
	srv := httptest.NewServer(s)
	defer srv.Close()

	n := notify.New(notify.WithWebhook(srv.URL))
	_, err := n.SendHumanHelpRequest(context.Background(), "help", "")
	assert.ErrorContains(t, err, "502")

	health := n.CheckNotificationHealth(context.Background())
	assert.Equal(t, false, health["healthy"])
	assert.Equal(t, true, health["webhook_configured"])
	assert.Equal(t, 1, health["failed"])

	s.mu.Lock()
	s.status = http.StatusOK
	s.mu.Unlock()
	_, err = n.SendHumanHelpRequest(context.Background(), "help", "")
	require.NoError(t, err)
	assert.Equal(t, true, n.CheckNotificationHealth(context.Background())["healthy"])
}

func TestNotifier_LogOnly(t *testing.T) {
	n := notify.New()

	result, err := n.SendHumanHelpRequest(context.Background(), "help", "low")
	require.NoError(t, err)
	assert.NotEmpty(t, result)

	health := n.CheckNotificationHealth(context.Background())
	assert.Equal(t, true, health["healthy"])
	assert.Equal(t, false, health["webhook_configured"])
}

func TestNotifier_HealthProbe(t *testing.T) {
	check := runtime.NotifierCheck(notify.New())
	healthy, detail, err := check(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)
	assert.NotNil(t, detail)
}
