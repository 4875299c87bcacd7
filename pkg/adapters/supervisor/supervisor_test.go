package supervisor_test

import (
	"context"
	"testing"

	"github.com/aretw0/autofix/internal/runtime"
	"github.com/aretw0/autofix/pkg/adapters/supervisor"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInitialState(t *testing.T) {
	tests := []struct {
		name       string
		problem    string
		deployment string
		namespace  string
	}{
		{"both", "Deployment web-app in namespace prod is CrashLoopBackOff", "web-app", "prod"},
		{"key value", "deployment=api namespace: staging", "api", "staging"},
		{"neither", "pods keep restarting", "", ""},
	}
	s := supervisor.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := s.CreateInitialState(tt.problem)
			assert.Equal(t, tt.problem, state.Context[domain.KeyProblem])
			assert.Equal(t, tt.deployment, state.Context[domain.KeyDeployment])
			assert.Equal(t, tt.namespace, state.Context[domain.KeyNamespace])
			assert.Empty(t, state.Messages)
			assert.Equal(t, supervisor.StepInitial, state.CurrentStep)
		})
	}
}

type fixedDispatcher map[string]string

func (d fixedDispatcher) Dispatch(ctx context.Context, agent string, state *domain.WorkflowState) string {
	return d[agent]
}

func TestRuleSupervisor_ResolvedRun(t *testing.T) {
	orch := runtime.NewOrchestrator(supervisor.New(), fixedDispatcher{
		domain.NameClusterFixer: "已执行滚动重启，修复成功",
	})

	report := orch.Run(context.Background(), "deployment web-app namespace prod crashing")
	require.Equal(t, domain.WorkflowCompleted, report.Status)
	assert.Equal(t, domain.TerminatedByFinish, report.TerminatedBy)
	assert.Equal(t, 1, report.Iterations)
	require.Len(t, report.Transcript, 2)
	assert.Equal(t, domain.NameClusterFixer, report.Transcript[0].Agent)
	assert.Contains(t, report.Transcript[0].Reasoning, "prod/web-app")
	assert.Equal(t, domain.NameFinish, report.Transcript[1].Agent)
	assert.Equal(t, supervisor.StepResolved, report.FinalStep)

	sum := report.Summary.(supervisor.Summary)
	assert.True(t, sum.Resolved)
	assert.False(t, sum.Escalated)
	assert.Equal(t, 1, sum.TotalSteps)
}

func TestRuleSupervisor_EscalatedRun(t *testing.T) {
	orch := runtime.NewOrchestrator(supervisor.New(), fixedDispatcher{
		domain.NameClusterFixer: "镜像拉取失败，需要人工介入",
		domain.NameNotifier:     "已发送人工协助请求",
	})

	report := orch.Run(context.Background(), "deployment web-app is down")
	require.Equal(t, domain.WorkflowCompleted, report.Status)
	assert.Equal(t, domain.TerminatedBySupervisor, report.TerminatedBy)
	assert.Equal(t, 2, report.Iterations)
	require.Len(t, report.Transcript, 2)
	assert.Equal(t, domain.NameNotifier, report.Transcript[1].Agent)
	assert.Equal(t, supervisor.StepEscalated, report.FinalStep)

	sum := report.Summary.(supervisor.Summary)
	assert.False(t, sum.Resolved)
	assert.True(t, sum.Escalated)
	assert.Equal(t, []string{domain.NameClusterFixer, domain.NameNotifier}, sum.Agents)
	assert.Equal(t, domain.DefaultNamespace, sum.Namespace)
}

func TestRouteNextAction_UnknownAgentFinishes(t *testing.T) {
	s := supervisor.New()
	state := s.CreateInitialState("x")
	state.Messages = append(state.Messages, domain.Message{Agent: "Mystery", Result: "?"})

	decision, err := s.RouteNextAction(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, decision.IsFinish())
}

func TestRouteNextAction_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := supervisor.New().RouteNextAction(ctx, domain.NewWorkflowState("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithClassifier(t *testing.T) {
	always := runtime.ClassifierFunc(func(string) domain.Verdict { return domain.Verdict{Success: true} })
	s := supervisor.New(supervisor.WithClassifier(always))
	state := s.CreateInitialState("x")
	state.Messages = append(state.Messages, domain.Message{Agent: domain.NameClusterFixer, Result: "anything"})

	decision, err := s.RouteNextAction(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, decision.IsFinish())
}
