package runtime_test

import (
	"context"
	"sync"

	"github.com/aretw0/autofix/pkg/domain"
)

// stubFixer returns a canned report or error and records its calls.
type stubFixer struct {
	mu     sync.Mutex
	report string
	err    error
	panic  bool
	calls  [][3]string
}

func (f *stubFixer) AnalyzeAndFix(ctx context.Context, target, namespace, event string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, [3]string{target, namespace, event})
	f.mu.Unlock()
	if f.panic {
		panic("fixer exploded")
	}
	return f.report, f.err
}

func (f *stubFixer) DiagnoseClusterHealth(ctx context.Context, namespace string) (any, error) {
	return map[string]any{"namespace": namespace}, f.err
}

// stubNotifier records help requests.
type stubNotifier struct {
	mu       sync.Mutex
	err      error
	health   map[string]any
	requests [][2]string
}

func (n *stubNotifier) SendHumanHelpRequest(ctx context.Context, message, urgency string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, [2]string{message, urgency})
	if n.err != nil {
		return "", n.err
	}
	return "help requested", nil
}

func (n *stubNotifier) SendIncidentAlert(ctx context.Context, message string, services []string, severity string) (string, error) {
	return "incident sent", n.err
}

func (n *stubNotifier) CheckNotificationHealth(ctx context.Context) map[string]any {
	return n.health
}

// recordingDispatch records outcome notifications.
type recordingDispatch struct {
	mu   sync.Mutex
	err  error
	sent []domain.OutcomeNotification
}

func (d *recordingDispatch) SendOutcomeNotification(ctx context.Context, n domain.OutcomeNotification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}

// scriptedSupervisor continues for `turns` calls and routes the scripted decisions in order.
type scriptedSupervisor struct {
	turns     int
	decisions []string
	routeErr  error
	errAt     int
	asked     int
	routed    int
}

func (s *scriptedSupervisor) CreateInitialState(problem string) *domain.WorkflowState {
	state := domain.NewWorkflowState(problem)
	state.Context[domain.KeyDeployment] = "web-app"
	state.Context[domain.KeyNamespace] = "prod"
	return state
}

func (s *scriptedSupervisor) ShouldContinue(state *domain.WorkflowState) bool {
	s.asked++
	return s.turns < 0 || s.asked <= s.turns
}

func (s *scriptedSupervisor) RouteNextAction(ctx context.Context, state *domain.WorkflowState) (domain.RoutingDecision, error) {
	s.routed++
	if s.routeErr != nil && s.routed == s.errAt {
		return domain.RoutingDecision{}, s.routeErr
	}
	next := domain.NameClusterFixer
	if len(s.decisions) > 0 {
		next = s.decisions[(s.routed-1)%len(s.decisions)]
	}
	state.CurrentStep = "routed_" + next
	return domain.RoutingDecision{Next: next, Reasoning: "because " + next}, nil
}

func (s *scriptedSupervisor) GetWorkflowSummary(state *domain.WorkflowState) any {
	return map[string]any{"total_steps": state.IterationCount}
}

// echoDispatcher returns the agent name and counts calls.
type echoDispatcher struct {
	calls []string
}

func (d *echoDispatcher) Dispatch(ctx context.Context, agent string, state *domain.WorkflowState) string {
	d.calls = append(d.calls, agent)
	return "ran " + agent
}
