package autofix_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/pkg/adapters/memory"
	"github.com/aretw0/autofix/pkg/adapters/supervisor"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFixer struct {
	mu       sync.Mutex
	report   string
	err      error
	healthy  error
	targets  []string
	events   []string
	diagnose any
}

func (f *fakeFixer) AnalyzeAndFix(ctx context.Context, target, namespace, event string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, namespace+"/"+target)
	f.events = append(f.events, event)
	return f.report, f.err
}

func (f *fakeFixer) DiagnoseClusterHealth(ctx context.Context, namespace string) (any, error) {
	return f.diagnose, f.err
}

func (f *fakeFixer) Healthy(ctx context.Context) error {
	return f.healthy
}

type fakeNotifier struct {
	mu        sync.Mutex
	outcomes  []domain.OutcomeNotification
	help      []string
	incidents []string
	healthy   bool
}

func (n *fakeNotifier) SendHumanHelpRequest(ctx context.Context, message, urgency string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.help = append(n.help, urgency+":"+message)
	return "help requested", nil
}

func (n *fakeNotifier) SendIncidentAlert(ctx context.Context, message string, services []string, severity string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.incidents = append(n.incidents, severity+":"+message+":"+strings.Join(services, ","))
	return "incident raised", nil
}

func (n *fakeNotifier) CheckNotificationHealth(ctx context.Context) map[string]any {
	return map[string]any{"healthy": n.healthy}
}

func (n *fakeNotifier) SendOutcomeNotification(ctx context.Context, o domain.OutcomeNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, o)
	return nil
}

func newService(fixer *fakeFixer, notifier *fakeNotifier, opts ...autofix.Option) *autofix.Service {
	base := []autofix.Option{
		autofix.WithClusterFixer(fixer),
		autofix.WithNotifier(notifier),
		autofix.WithSupervisor(supervisor.New()),
	}
	return autofix.New(append(base, opts...)...)
}

func TestRemediate_Success(t *testing.T) {
	fixer := &fakeFixer{report: "修复完成"}
	notifier := &fakeNotifier{}
	svc := newService(fixer, notifier)

	res, err := svc.Remediate(context.Background(), autofix.RemediationRequest{
		Deployment: "web-app", Namespace: "prod", Event: "CrashLoopBackOff",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "修复完成", res.Report)
	assert.Equal(t, []string{"执行K8s自动修复: web-app"}, res.ActionsTaken)
	assert.Empty(t, res.ErrorMessage)

	// The outcome reaches the notifier through its NotificationDispatch side.
	require.Len(t, notifier.outcomes, 1)
	assert.Equal(t, domain.OutcomeSuccess, notifier.outcomes[0].Status)
	assert.Equal(t, "prod", notifier.outcomes[0].Namespace)
}

func TestRemediate_DefaultsAndSanitizes(t *testing.T) {
	fixer := &fakeFixer{report: "修复超时"}
	notifier := &fakeNotifier{}
	svc := newService(fixer, notifier, autofix.WithLimits(autofix.Limits{MaxEventSize: 5}))

	res, err := svc.Remediate(context.Background(), autofix.RemediationRequest{
		Deployment: " web-app ", Event: "  abc\x1bdefgh",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "修复超时", res.ErrorMessage)
	assert.Equal(t, "web-app", res.Deployment)
	assert.Equal(t, domain.DefaultNamespace, res.Namespace)
	assert.Equal(t, []string{"default/web-app"}, fixer.targets)
	assert.Equal(t, []string{"abcde"}, fixer.events)
}

func TestRemediate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   autofix.RemediationRequest
		field string
	}{
		{"missing deployment", autofix.RemediationRequest{}, "deployment"},
		{"bad deployment", autofix.RemediationRequest{Deployment: "Web_App"}, "deployment"},
		{"bad namespace", autofix.RemediationRequest{Deployment: "web-app", Namespace: "prod.eu"}, "namespace"},
		{"invalid utf8", autofix.RemediationRequest{Deployment: "web-app", Event: "\xff"}, "event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixer := &fakeFixer{}
			notifier := &fakeNotifier{}
			_, err := newService(fixer, notifier).Remediate(context.Background(), tt.req)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, fixer.targets, "invalid requests must not reach the fixer")
			assert.Empty(t, notifier.outcomes)
		})
	}
}

func TestRunWorkflow_StoresReport(t *testing.T) {
	fixer := &fakeFixer{report: "已执行滚动重启，修复成功"}
	store := memory.NewStore()
	svc := newService(fixer, &fakeNotifier{}, autofix.WithRunStore(store))

	report, err := svc.RunWorkflow(context.Background(), "deployment web-app namespace prod is CrashLoopBackOff")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowCompleted, report.Status)
	require.NotEmpty(t, report.RunID)

	agents := make([]string, len(report.Transcript))
	for i, e := range report.Transcript {
		agents[i] = e.Agent
	}
	assert.Equal(t, []string{"ClusterFixer", "FINISH"}, agents)
	assert.Equal(t, []string{"prod/web-app"}, fixer.targets)

	stored, err := svc.Run(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Transcript, stored.Transcript)

	runs, err := svc.Runs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{report.RunID}, runs)
}

func TestRunWorkflow_RequiresProblem(t *testing.T) {
	svc := newService(&fakeFixer{}, &fakeNotifier{})

	_, err := svc.RunWorkflow(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRunWorkflow_NoSupervisor(t *testing.T) {
	svc := autofix.New()

	report, err := svc.RunWorkflow(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowFailed, report.Status)
	assert.Empty(t, report.Transcript)
}

func TestRun_WithoutStore(t *testing.T) {
	svc := newService(&fakeFixer{}, &fakeNotifier{})

	_, err := svc.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestDiagnose(t *testing.T) {
	fixer := &fakeFixer{diagnose: map[string]any{"healthy": true}}
	svc := newService(fixer, &fakeNotifier{})

	d, err := svc.Diagnose(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultNamespace, d.Namespace)
	assert.Equal(t, map[string]any{"healthy": true}, d.Report)

	fixer.err = errors.New("api down")
	_, err = svc.Diagnose(context.Background(), "prod")
	var capErr *domain.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "cluster_fixer", capErr.Capability)
}

func TestNotify(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newService(&fakeFixer{}, notifier)
	ctx := context.Background()

	res, err := svc.Notify(ctx, autofix.NotifyRequest{Message: "need help"})
	require.NoError(t, err)
	assert.Equal(t, autofix.NotifyHumanHelp, res.Type)
	assert.Equal(t, "help requested", res.Result)
	assert.Equal(t, []string{"medium:need help"}, notifier.help)

	res, err = svc.Notify(ctx, autofix.NotifyRequest{
		Type: "incident", Message: "db down", Severity: "high", AffectedServices: []string{"api"},
	})
	require.NoError(t, err)
	assert.Equal(t, "incident raised", res.Result)
	assert.Equal(t, []string{"high:db down:api"}, notifier.incidents)

	_, err = svc.Notify(ctx, autofix.NotifyRequest{Type: "pager", Message: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Notify(ctx, autofix.NotifyRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc := newService(&fakeFixer{}, &fakeNotifier{healthy: true})
		report := svc.Health(context.Background())

		assert.Equal(t, domain.HealthHealthy, report.Status)
		assert.Len(t, report.Components, 5)
		assert.Contains(t, report.Details, "notification_details")
	})

	t.Run("kubernetes down", func(t *testing.T) {
		svc := newService(&fakeFixer{healthy: errors.New("unreachable")}, &fakeNotifier{healthy: true})
		report := svc.Health(context.Background())

		assert.Equal(t, domain.HealthDegraded, report.Status)
		assert.False(t, report.Components[domain.ComponentKubernetes])
		assert.True(t, report.Components[domain.ComponentClusterFixer])
	})

	t.Run("nothing configured", func(t *testing.T) {
		report := autofix.New().Health(context.Background())
		assert.Equal(t, domain.HealthDegraded, report.Status)
		for name, ok := range report.Components {
			assert.False(t, ok, name)
		}
	})

	t.Run("extra probe", func(t *testing.T) {
		svc := newService(&fakeFixer{}, &fakeNotifier{healthy: true},
			autofix.WithHealthProbe("run_store", func(ctx context.Context) (bool, any, error) {
				return false, nil, errors.New("redis down")
			}),
		)
		report := svc.Health(context.Background())
		assert.Equal(t, domain.HealthDegraded, report.Status)
		assert.False(t, report.Components["run_store"])
	})
}

func TestMaxIterations(t *testing.T) {
	assert.Equal(t, 10, autofix.New().MaxIterations())
	assert.Equal(t, 3, autofix.New(autofix.WithMaxIterations(3)).MaxIterations())
}
