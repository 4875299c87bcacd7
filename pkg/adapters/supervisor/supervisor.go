// Package supervisor provides a deterministic routing policy for the multi-turn loop:
// repair first, escalate to a human when the repair did not succeed, then finish.
package supervisor

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/autofix/internal/runtime"
	"github.com/aretw0/autofix/pkg/domain"
)

// Step labels written to WorkflowState.CurrentStep.
const (
	StepInitial    = "initial"
	StepRepairing  = "repairing"
	StepEscalating = "escalating"
	StepResolved   = "resolved"
	StepEscalated  = "escalated"
)

var (
	deploymentPattern = regexp.MustCompile(`(?i)\bdeployment[\s:=]+["']?([a-z0-9](?:[-a-z0-9.]*[a-z0-9])?)`)
	namespacePattern  = regexp.MustCompile(`(?i)\bnamespace[\s:=]+["']?([a-z0-9](?:[-a-z0-9]*[a-z0-9])?)`)
)

// RuleSupervisor implements ports.Supervisor without an LLM.
// It keeps no per-run state and is safe for concurrent runs.
type RuleSupervisor struct {
	classifier runtime.Classifier
}

// Option configures the RuleSupervisor.
type Option func(*RuleSupervisor)

// WithClassifier replaces the marker classifier used to judge repair results.
func WithClassifier(c runtime.Classifier) Option {
	return func(s *RuleSupervisor) {
		s.classifier = c
	}
}

// New creates a RuleSupervisor.
func New(opts ...Option) *RuleSupervisor {
	s := &RuleSupervisor{classifier: runtime.NewMarkerClassifier()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInitialState extracts "deployment <name>" and "namespace <name>" mentions
// from the problem text into the run context.
func (s *RuleSupervisor) CreateInitialState(problem string) *domain.WorkflowState {
	state := domain.NewWorkflowState(problem)
	if m := deploymentPattern.FindStringSubmatch(problem); m != nil {
		state.Context[domain.KeyDeployment] = m[1]
	}
	if m := namespacePattern.FindStringSubmatch(problem); m != nil {
		state.Context[domain.KeyNamespace] = m[1]
	}
	state.CurrentStep = StepInitial
	return state
}

// ShouldContinue stops the run once a human has been notified.
func (s *RuleSupervisor) ShouldContinue(state *domain.WorkflowState) bool {
	last, ok := state.LastMessage()
	if !ok {
		return true
	}
	if domain.ParseAgent(last.Agent) == domain.AgentNotifier {
		state.CurrentStep = StepEscalated
		return false
	}
	return true
}

// RouteNextAction picks the next agent from the last message.
func (s *RuleSupervisor) RouteNextAction(ctx context.Context, state *domain.WorkflowState) (domain.RoutingDecision, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoutingDecision{}, err
	}

	target := fmt.Sprintf("%s/%s",
		state.Get(domain.KeyNamespace, domain.DefaultNamespace),
		state.Get(domain.KeyDeployment, domain.DefaultDeployment),
	)

	last, ok := state.LastMessage()
	if !ok {
		state.CurrentStep = StepRepairing
		return domain.RoutingDecision{
			Next:      domain.NameClusterFixer,
			Reasoning: fmt.Sprintf("no action taken yet, attempting automatic repair of %s", target),
		}, nil
	}

	switch domain.ParseAgent(last.Agent) {
	case domain.AgentClusterFixer:
		if s.classifier.Classify(last.Result).Success {
			state.CurrentStep = StepResolved
			return domain.RoutingDecision{
				Next:      domain.NameFinish,
				Reasoning: fmt.Sprintf("repair of %s reported success", target),
			}, nil
		}
		state.CurrentStep = StepEscalating
		return domain.RoutingDecision{
			Next:      domain.NameNotifier,
			Reasoning: fmt.Sprintf("repair of %s did not succeed, requesting human help", target),
		}, nil
	case domain.AgentNotifier:
		state.CurrentStep = StepEscalated
		return domain.RoutingDecision{Next: domain.NameFinish, Reasoning: "operator notified"}, nil
	default:
		return domain.RoutingDecision{
			Next:      domain.NameFinish,
			Reasoning: fmt.Sprintf("no rule for agent %q", last.Agent),
		}, nil
	}
}

// Summary is returned by GetWorkflowSummary.
type Summary struct {
	TotalSteps int      `json:"total_steps"`
	Agents     []string `json:"agents"`
	Deployment string   `json:"deployment"`
	Namespace  string   `json:"namespace"`
	Resolved   bool     `json:"resolved"`
	Escalated  bool     `json:"escalated"`
	LastResult string   `json:"last_result,omitempty"`
}

// GetWorkflowSummary summarizes the messages of a finished run.
func (s *RuleSupervisor) GetWorkflowSummary(state *domain.WorkflowState) any {
	sum := Summary{
		TotalSteps: len(state.Messages),
		Agents:     make([]string, 0, len(state.Messages)),
		Deployment: state.Get(domain.KeyDeployment, domain.DefaultDeployment),
		Namespace:  state.Get(domain.KeyNamespace, domain.DefaultNamespace),
	}
	for _, m := range state.Messages {
		sum.Agents = append(sum.Agents, m.Agent)
		switch domain.ParseAgent(m.Agent) {
		case domain.AgentClusterFixer:
			if s.classifier.Classify(m.Result).Success {
				sum.Resolved = true
			}
		case domain.AgentNotifier:
			sum.Escalated = true
		}
	}
	if last, ok := state.LastMessage(); ok {
		sum.LastResult = last.Result
	}
	return sum
}
