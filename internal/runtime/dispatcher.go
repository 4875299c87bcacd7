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
)

// AgentDispatcher invokes the capability behind a symbolic agent name.
// It always returns a result string, never an error.
type AgentDispatcher interface {
	Dispatch(ctx context.Context, agent string, state *domain.WorkflowState) string
}

// Dispatcher is the closed registry of agents the multi-turn loop can invoke.
type Dispatcher struct {
	fixer    ports.ClusterFixer
	notifier ports.Notifier

	stepTimeout time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchTimeout bounds every capability call made by the dispatcher.
func WithDispatchTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.stepTimeout = d
	}
}

// WithDispatchHooks registers observability hooks.
func WithDispatchHooks(hooks domain.LifecycleHooks) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.hooks = hooks
	}
}

// WithDispatchLogger sets the structured logger.
func WithDispatchLogger(logger *slog.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.logger = logger
	}
}

// NewDispatcher creates a dispatcher over the given capabilities. Either may be nil,
// in which case dispatching to it yields a failure result.
func NewDispatcher(fixer ports.ClusterFixer, notifier ports.Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		fixer:    fixer,
		notifier: notifier,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves agent against the registry and invokes the matching capability.
func (d *Dispatcher) Dispatch(ctx context.Context, agent string, state *domain.WorkflowState) string {
	start := time.Now()
	var res result[string]

	switch domain.ParseAgent(agent) {
	case domain.AgentClusterFixer:
		target := state.Get(domain.KeyDeployment, domain.DefaultDeployment)
		namespace := state.Get(domain.KeyNamespace, domain.DefaultNamespace)
		problem := state.Get(domain.KeyProblem, "")
		res = capture(ctx, d.stepTimeout, "cluster_fixer", "analyze_and_fix", func(ctx context.Context) (string, error) {
			if d.fixer == nil {
				return "", errNotConfigured("cluster fixer")
			}
			return d.fixer.AnalyzeAndFix(ctx, target, namespace, problem)
		})

	case domain.AgentNotifier:
		problem := state.Get(domain.KeyProblem, "")
		res = capture(ctx, d.stepTimeout, "notifier", "send_human_help_request", func(ctx context.Context) (string, error) {
			if d.notifier == nil {
				return "", errNotConfigured("notifier")
			}
			return d.notifier.SendHumanHelpRequest(ctx, problem, domain.DefaultUrgency)
		})

	case domain.AgentFinish, domain.AgentUnregistered:
		d.logger.Debug("dispatch to unregistered agent", "agent", agent)
		res = result[string]{Value: fmt.Sprintf("Agent %s 执行完成（模拟）", agent)}
	}

	d.emitDispatch(ctx, agent, time.Since(start), res.Err)

	if !res.OK() {
		d.logger.Error("agent dispatch failed", "agent", agent, "err", res.Err)
		return fmt.Sprintf("Agent %s 执行失败: %v", agent, unwrapCapability(res.Err))
	}
	return res.Value
}

func (d *Dispatcher) emitDispatch(ctx context.Context, agent string, elapsed time.Duration, err error) {
	if d.hooks.OnDispatch == nil {
		return
	}
	d.hooks.OnDispatch(ctx, &domain.DispatchEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch},
		Agent:     agent,
		Duration:  elapsed,
		IsError:   err != nil,
	})
}

// unwrapCapability returns the collaborator's own error so result strings
// carry its message rather than the boundary's prefix.
func unwrapCapability(err error) error {
	var capErr *domain.CapabilityError
	if errors.As(err, &capErr) && capErr.Err != nil {
		return capErr.Err
	}
	return err
}
