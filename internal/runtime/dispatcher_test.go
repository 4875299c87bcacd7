package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/autofix/internal/runtime"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_ClusterFixer(t *testing.T) {
	fixer := &stubFixer{report: "修复完成"}
	d := runtime.NewDispatcher(fixer, &stubNotifier{})

	state := domain.NewWorkflowState("pods crash")
	state.Context[domain.KeyDeployment] = "web-app"
	state.Context[domain.KeyNamespace] = "prod"

	got := d.Dispatch(context.Background(), domain.NameClusterFixer, state)

	assert.Equal(t, "修复完成", got)
	require.Len(t, fixer.calls, 1)
	assert.Equal(t, [3]string{"web-app", "prod", "pods crash"}, fixer.calls[0])
}

func TestDispatcher_ClusterFixer_Defaults(t *testing.T) {
	fixer := &stubFixer{report: "ok"}
	d := runtime.NewDispatcher(fixer, nil)

	state := &domain.WorkflowState{Context: map[string]string{}}
	d.Dispatch(context.Background(), "K8sFixer", state)

	require.Len(t, fixer.calls, 1)
	assert.Equal(t, [3]string{"unknown", "default", ""}, fixer.calls[0])
}

func TestDispatcher_Notifier(t *testing.T) {
	notifier := &stubNotifier{}
	d := runtime.NewDispatcher(nil, notifier)

	got := d.Dispatch(context.Background(), domain.NameNotifier, domain.NewWorkflowState("disk full"))

	assert.Equal(t, "help requested", got)
	require.Len(t, notifier.requests, 1)
	assert.Equal(t, [2]string{"disk full", "medium"}, notifier.requests[0])
}

func TestDispatcher_Unregistered(t *testing.T) {
	d := runtime.NewDispatcher(&stubFixer{}, &stubNotifier{})

	got := d.Dispatch(context.Background(), "LogAnalyzer", domain.NewWorkflowState(""))

	assert.Equal(t, "Agent LogAnalyzer 执行完成（模拟）", got)
}

func TestDispatcher_CapabilityFailures(t *testing.T) {
	tests := []struct {
		name     string
		agent    string
		fixer    *stubFixer
		notifier *stubNotifier
		want     string
	}{
		{
			name:  "Fixer Error",
			agent: domain.NameClusterFixer,
			fixer: &stubFixer{err: errors.New("connection refused")},
			want:  "Agent ClusterFixer 执行失败: connection refused",
		},
		{
			name:  "Fixer Panic",
			agent: domain.NameClusterFixer,
			fixer: &stubFixer{panic: true},
			want:  "Agent ClusterFixer 执行失败: panic: fixer exploded",
		},
		{
			name:     "Notifier Error",
			agent:    domain.NameNotifier,
			notifier: &stubNotifier{err: errors.New("webhook 502")},
			want:     "Agent Notifier 执行失败: webhook 502",
		},
		{
			name:  "Notifier Missing",
			agent: domain.NameNotifier,
			want:  "Agent Notifier 执行失败: notifier capability is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d *runtime.Dispatcher
			switch {
			case tt.fixer != nil:
				d = runtime.NewDispatcher(tt.fixer, nil)
			case tt.notifier != nil:
				d = runtime.NewDispatcher(nil, tt.notifier)
			default:
				d = runtime.NewDispatcher(nil, nil)
			}
			assert.Equal(t, tt.want, d.Dispatch(context.Background(), tt.agent, domain.NewWorkflowState("p")))
		})
	}
}

type blockingFixer struct{ stubFixer }

func (f *blockingFixer) AnalyzeAndFix(ctx context.Context, target, namespace, event string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestDispatcher_Timeout(t *testing.T) {
	var events []*domain.DispatchEvent
	d := runtime.NewDispatcher(&blockingFixer{}, nil,
		runtime.WithDispatchTimeout(20*time.Millisecond),
		runtime.WithDispatchHooks(domain.LifecycleHooks{
			OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
				events = append(events, e)
			},
		}),
	)

	got := d.Dispatch(context.Background(), domain.NameClusterFixer, domain.NewWorkflowState("p"))

	assert.Equal(t, "Agent ClusterFixer 执行失败: context deadline exceeded", got)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsError)
	assert.Equal(t, domain.NameClusterFixer, events[0].Agent)
}
