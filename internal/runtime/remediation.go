package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/aretw0/autofix/pkg/ports"
)

// TargetGuard serializes work on a key. session.Manager implements it.
type TargetGuard interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Remediator runs the single-shot remediation workflow.
type Remediator struct {
	fixer      ports.ClusterFixer
	notify     ports.NotificationDispatch
	classifier Classifier
	guard      TargetGuard

	stepTimeout time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// RemediatorOption configures the Remediator.
type RemediatorOption func(*Remediator)

// WithClassifier replaces the default marker classifier.
func WithClassifier(c Classifier) RemediatorOption {
	return func(r *Remediator) {
		r.classifier = c
	}
}

// WithTargetGuard serializes concurrent remediations of the same target.
func WithTargetGuard(g TargetGuard) RemediatorOption {
	return func(r *Remediator) {
		r.guard = g
	}
}

// WithRemediationTimeout bounds the repair call.
func WithRemediationTimeout(d time.Duration) RemediatorOption {
	return func(r *Remediator) {
		r.stepTimeout = d
	}
}

// WithRemediationHooks registers observability hooks.
func WithRemediationHooks(hooks domain.LifecycleHooks) RemediatorOption {
	return func(r *Remediator) {
		r.hooks = hooks
	}
}

// WithRemediationLogger sets the structured logger.
func WithRemediationLogger(logger *slog.Logger) RemediatorOption {
	return func(r *Remediator) {
		r.logger = logger
	}
}

// NewRemediator creates the single-shot workflow.
func NewRemediator(fixer ports.ClusterFixer, notify ports.NotificationDispatch, opts ...RemediatorOption) *Remediator {
	r := &Remediator{
		fixer:      fixer,
		notify:     notify,
		classifier: NewMarkerClassifier(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Remediate runs one repair attempt against target and sends exactly one outcome
// notification. It never returns an error: capability failures become a failed outcome.
func (r *Remediator) Remediate(ctx context.Context, target, namespace, event string, force bool) domain.RemediationOutcome {
	r.logger.Info("remediation started", "deployment", target, "namespace", namespace, "force", force)

	// 1. Repair
	res := r.attempt(ctx, target, namespace, event)

	// 2. Classify
	var outcome domain.RemediationOutcome
	if !res.OK() {
		r.logger.Error("remediation workflow failed", "deployment", target, "namespace", namespace, "err", res.Err)
		cause := unwrapCapability(res.Err)
		outcome = domain.RemediationOutcome{
			Success:      false,
			Report:       fmt.Sprintf(domain.ReportWorkflowFailed, cause),
			ActionsTaken: []string{domain.ActionFixAttemptFailed},
			ErrorMessage: cause.Error(),
		}
	} else {
		outcome = r.classify(target, res.Value)
	}

	r.emitOutcome(ctx, target, namespace, force, outcome)

	// 3. Notify (exactly once)
	r.sendNotification(ctx, target, namespace, outcome)

	return outcome
}

func (r *Remediator) attempt(ctx context.Context, target, namespace, event string) result[string] {
	run := func(ctx context.Context) result[string] {
		return capture(ctx, r.stepTimeout, "cluster_fixer", "analyze_and_fix", func(ctx context.Context) (string, error) {
			if r.fixer == nil {
				return "", errNotConfigured("cluster fixer")
			}
			return r.fixer.AnalyzeAndFix(ctx, target, namespace, event)
		})
	}

	if r.guard == nil {
		return run(ctx)
	}

	var res result[string]
	err := r.guard.WithLock(ctx, namespace+"/"+target, func(ctx context.Context) error {
		res = run(ctx)
		return nil
	})
	if err != nil {
		return result[string]{Err: &domain.CapabilityError{Capability: "target_guard", Op: "lock", Err: err}}
	}
	return res
}

func (r *Remediator) classify(target, report string) domain.RemediationOutcome {
	outcome := domain.RemediationOutcome{
		Report:       report,
		ActionsTaken: []string{fmt.Sprintf(domain.ActionFixAttemptFormat, target)},
	}
	if r.classifier.Classify(report).Success {
		outcome.Success = true
	} else {
		outcome.ErrorMessage = report
	}
	return outcome
}

func (r *Remediator) sendNotification(ctx context.Context, target, namespace string, outcome domain.RemediationOutcome) {
	n := domain.OutcomeNotification{
		Target:       target,
		Namespace:    namespace,
		Status:       outcome.Status(),
		ActionsTaken: outcome.ActionsTaken,
	}
	if !outcome.Success {
		n.ErrorDetail = outcome.ErrorMessage
	}

	res := capture(ctx, r.stepTimeout, "notification_dispatch", "send_outcome_notification", func(ctx context.Context) (struct{}, error) {
		if r.notify == nil {
			return struct{}{}, errNotConfigured("notification dispatch")
		}
		return struct{}{}, r.notify.SendOutcomeNotification(ctx, n)
	})

	var notifyErr error
	if !res.OK() {
		notifyErr = &domain.NotificationError{Target: target, Status: n.Status, Err: unwrapCapability(res.Err)}
		r.logger.Warn("outcome notification failed", "deployment", target, "status", n.Status, "err", notifyErr)
	} else if outcome.Success {
		r.logger.Info("remediation succeeded", "deployment", target, "namespace", namespace)
	} else {
		r.logger.Error("remediation failed", "deployment", target, "namespace", namespace)
	}

	if r.hooks.OnNotification != nil {
		r.hooks.OnNotification(ctx, &domain.NotificationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNotification},
			Status:    n.Status,
			Err:       notifyErr,
		})
	}
}

func (r *Remediator) emitOutcome(ctx context.Context, target, namespace string, force bool, outcome domain.RemediationOutcome) {
	if r.hooks.OnOutcome == nil {
		return
	}
	r.hooks.OnOutcome(ctx, &domain.OutcomeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventOutcome},
		Target:    target,
		Namespace: namespace,
		Force:     force,
		Success:   outcome.Success,
	})
}
