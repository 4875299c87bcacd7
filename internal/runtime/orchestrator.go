package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/aretw0/autofix/pkg/ports"
	"github.com/google/uuid"
)

// DefaultMaxIterations bounds a run whose supervisor never signals termination.
const DefaultMaxIterations = 10

// Orchestrator runs the supervisor-driven multi-turn loop.
type Orchestrator struct {
	supervisor ports.Supervisor
	dispatcher AgentDispatcher

	maxIterations int
	newRunID      func() string
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxIterations sets the iteration guard. Non-positive values keep the default.
func WithMaxIterations(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithRunIDGenerator overrides the run ID source (default: random UUID).
func WithRunIDGenerator(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newRunID = fn
	}
}

// WithOrchestratorHooks registers observability hooks.
func WithOrchestratorHooks(hooks domain.LifecycleHooks) OrchestratorOption {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithOrchestratorLogger sets the structured logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates the multi-turn loop.
func NewOrchestrator(supervisor ports.Supervisor, dispatcher AgentDispatcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		supervisor:    supervisor,
		dispatcher:    dispatcher,
		maxIterations: DefaultMaxIterations,
		newRunID:      uuid.NewString,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MaxIterations returns the configured iteration guard.
func (o *Orchestrator) MaxIterations() int {
	return o.maxIterations
}

// Run creates the initial state for problem and executes the loop.
func (o *Orchestrator) Run(ctx context.Context, problem string) *domain.WorkflowReport {
	if o.supervisor == nil {
		return o.finish(ctx, o.newRunID(), time.Now(), nil, &domain.LoopAbortError{Step: 1, Err: errNotConfigured("supervisor")})
	}
	return o.Execute(ctx, o.supervisor.CreateInitialState(problem))
}

// Execute runs the loop from an existing state. The state is mutated in place and
// must not be shared with another run.
func (o *Orchestrator) Execute(ctx context.Context, state *domain.WorkflowState) *domain.WorkflowReport {
	runID := o.newRunID()
	start := time.Now()
	if state == nil {
		return o.finish(ctx, runID, start, nil, &domain.LoopAbortError{Step: 1, Err: errors.New("supervisor returned no initial state")})
	}
	logger := o.logger.With("run_id", runID)

	logger.Info("workflow started", "problem", truncate(state.Get(domain.KeyProblem, ""), 100))

	report, err := o.loop(ctx, runID, state, logger)
	return o.finish(ctx, runID, start, report, err)
}

func (o *Orchestrator) loop(ctx context.Context, runID string, state *domain.WorkflowState, logger *slog.Logger) (report *domain.WorkflowReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			report = nil
			err = &domain.LoopAbortError{Step: state.IterationCount + 1, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	transcript := []domain.TranscriptEntry{}
	terminatedBy := domain.TerminatedBySupervisor

	for {
		step := state.IterationCount + 1
		if err := ctx.Err(); err != nil {
			return nil, &domain.LoopAbortError{Step: step, Err: err}
		}

		// 1. Decide
		if !o.supervisor.ShouldContinue(state) {
			break
		}

		// 2. Guard
		if state.IterationCount >= o.maxIterations {
			logger.Warn("workflow stopped by iteration guard", "err", domain.ErrMaxIterations, "max_iterations", o.maxIterations)
			terminatedBy = domain.TerminatedByMaxIterations
			break
		}

		// 3. Route
		decision, err := o.supervisor.RouteNextAction(ctx, state)
		if err != nil {
			return nil, &domain.LoopAbortError{
				Step: step,
				Err:  &domain.CapabilityError{Capability: "supervisor", Op: "route_next_action", Err: err},
			}
		}

		transcript = append(transcript, domain.TranscriptEntry{
			Step:      step,
			Agent:     decision.Next,
			Reasoning: decision.Reasoning,
		})
		o.emitTurn(ctx, runID, step, decision)
		logger.Debug("turn routed", "step", step, "agent", decision.Next)

		// 4. Dispatch or finish
		if decision.IsFinish() {
			terminatedBy = domain.TerminatedByFinish
			break
		}

		result := o.dispatcher.Dispatch(ctx, decision.Next, state)

		state.Messages = append(state.Messages, domain.Message{
			Agent:     decision.Next,
			Result:    result,
			Timestamp: time.Now().UTC(),
		})
		state.IterationCount++
		state.NextAction = decision.Next
	}

	// 5. Terminal
	return &domain.WorkflowReport{
		RunID:        runID,
		Status:       domain.WorkflowCompleted,
		Transcript:   transcript,
		Summary:      o.supervisor.GetWorkflowSummary(state),
		FinalStep:    state.CurrentStep,
		TerminatedBy: terminatedBy,
		Iterations:   state.IterationCount,
	}, nil
}

func (o *Orchestrator) finish(ctx context.Context, runID string, start time.Time, report *domain.WorkflowReport, err error) *domain.WorkflowReport {
	if err != nil {
		o.logger.Error("workflow failed", "run_id", runID, "err", err)
		report = &domain.WorkflowReport{
			RunID:  runID,
			Status: domain.WorkflowFailed,
			Error:  err.Error(),
		}
	} else {
		o.logger.Info("workflow completed",
			"run_id", runID,
			"iterations", report.Iterations,
			"terminated_by", report.TerminatedBy,
		)
	}
	report.Timestamp = time.Now().UTC()

	if o.hooks.OnWorkflowEnd != nil {
		o.hooks.OnWorkflowEnd(ctx, &domain.WorkflowEvent{
			EventBase:    domain.EventBase{Timestamp: report.Timestamp, Type: domain.EventWorkflowEnd, RunID: runID},
			Status:       report.Status,
			TerminatedBy: report.TerminatedBy,
			Iterations:   report.Iterations,
			Duration:     time.Since(start),
		})
	}
	return report
}

func (o *Orchestrator) emitTurn(ctx context.Context, runID string, step int, decision domain.RoutingDecision) {
	if o.hooks.OnTurn == nil {
		return
	}
	o.hooks.OnTurn(ctx, &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurn, RunID: runID},
		Step:      step,
		Agent:     decision.Next,
		Reasoning: decision.Reasoning,
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
