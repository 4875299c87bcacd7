package autofix

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/internal/runtime"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/aretw0/autofix/pkg/ports"
	"github.com/aretw0/autofix/pkg/validate"
)

// Version is the release of the service, reported by /info and the version command.
var Version = "0.4.0"

// Notification types accepted by Notify.
const (
	NotifyHumanHelp = "human_help"
	NotifyIncident  = "incident"
)

// Limits caps free-text inputs, in bytes.
type Limits struct {
	MaxEventSize   int
	MaxMessageSize int
	MaxProblemSize int
}

// DefaultLimits returns the size limits enforced by the HTTP API.
func DefaultLimits() Limits {
	return Limits{
		MaxEventSize:   validate.DefaultMaxEventSize,
		MaxMessageSize: validate.DefaultMaxMessageSize,
		MaxProblemSize: validate.DefaultMaxProblemSize,
	}
}

// RemediationRequest asks for one repair attempt.
type RemediationRequest struct {
	Deployment string
	Namespace  string
	Event      string
	Force      bool
}

// NotifyRequest asks for a human-facing alert.
type NotifyRequest struct {
	Type             string
	Message          string
	Urgency          string
	Severity         string
	AffectedServices []string
}

// Service is the high-level entry point. It validates input and wires the
// remediation workflow, the multi-turn loop and the health aggregator to the
// configured capabilities.
type Service struct {
	fixer      ports.ClusterFixer
	notifier   ports.Notifier
	dispatch   ports.NotificationDispatch
	supervisor ports.Supervisor
	store      ports.RunStore
	guard      runtime.TargetGuard

	maxIterations int
	stepTimeout   time.Duration
	limits        Limits
	extraProbes   []runtime.HealthOption
	hooks         domain.LifecycleHooks
	logger        *slog.Logger

	remediator   *runtime.Remediator
	orchestrator *runtime.Orchestrator
	health       *runtime.HealthAggregator
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithClusterFixer sets the repair capability.
func WithClusterFixer(f ports.ClusterFixer) Option {
	return func(s *Service) {
		s.fixer = f
	}
}

// WithNotifier sets the alerting capability. When n also implements
// ports.NotificationDispatch it delivers remediation outcomes too, unless
// WithNotificationDispatch overrides it.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithNotificationDispatch sets the outcome delivery used by Remediate.
func WithNotificationDispatch(d ports.NotificationDispatch) Option {
	return func(s *Service) {
		s.dispatch = d
	}
}

// WithSupervisor sets the routing policy of the multi-turn loop.
func WithSupervisor(sup ports.Supervisor) Option {
	return func(s *Service) {
		s.supervisor = sup
	}
}

// WithRunStore persists workflow reports.
func WithRunStore(store ports.RunStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithTargetGuard serializes remediations of the same deployment.
func WithTargetGuard(g runtime.TargetGuard) Option {
	return func(s *Service) {
		s.guard = g
	}
}

// WithMaxIterations sets the iteration guard of the multi-turn loop.
func WithMaxIterations(n int) Option {
	return func(s *Service) {
		s.maxIterations = n
	}
}

// WithStepTimeout bounds every capability call. Zero means no timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.stepTimeout = d
	}
}

// WithLimits overrides the input size limits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(s *Service) {
		def := DefaultLimits()
		if l.MaxEventSize <= 0 {
			l.MaxEventSize = def.MaxEventSize
		}
		if l.MaxMessageSize <= 0 {
			l.MaxMessageSize = def.MaxMessageSize
		}
		if l.MaxProblemSize <= 0 {
			l.MaxProblemSize = def.MaxProblemSize
		}
		s.limits = l
	}
}

// WithHealthProbe adds a component to the health report.
func WithHealthProbe(name string, check runtime.CheckFunc) Option {
	return func(s *Service) {
		s.extraProbes = append(s.extraProbes, runtime.WithProbe(name, check))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New wires a Service. Missing capabilities are reported by the health check and
// turn the operations that need them into failures; they are not a construction error.
func New(opts ...Option) *Service {
	s := &Service{
		maxIterations: runtime.DefaultMaxIterations,
		limits:        DefaultLimits(),
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dispatch == nil {
		if d, ok := s.notifier.(ports.NotificationDispatch); ok {
			s.dispatch = d
		}
	}

	remOpts := []runtime.RemediatorOption{
		runtime.WithRemediationTimeout(s.stepTimeout),
		runtime.WithRemediationHooks(s.hooks),
		runtime.WithRemediationLogger(s.logger.With("component", "remediator")),
	}
	if s.guard != nil {
		remOpts = append(remOpts, runtime.WithTargetGuard(s.guard))
	}
	s.remediator = runtime.NewRemediator(s.fixer, s.dispatch, remOpts...)

	dispatcher := runtime.NewDispatcher(s.fixer, s.notifier,
		runtime.WithDispatchTimeout(s.stepTimeout),
		runtime.WithDispatchHooks(s.hooks),
		runtime.WithDispatchLogger(s.logger.With("component", "dispatcher")),
	)
	s.orchestrator = runtime.NewOrchestrator(s.supervisor, dispatcher,
		runtime.WithMaxIterations(s.maxIterations),
		runtime.WithOrchestratorHooks(s.hooks),
		runtime.WithOrchestratorLogger(s.logger.With("component", "orchestrator")),
	)

	s.health = runtime.NewHealthAggregator(append(s.probes(), s.extraProbes...)...)
	return s
}

func (s *Service) probes() []runtime.HealthOption {
	kubernetes := runtime.StaticProbe(s.fixer != nil)
	if p, ok := s.fixer.(ports.HealthProber); ok {
		kubernetes = runtime.ProberCheck(p)
	}
	return []runtime.HealthOption{
		runtime.WithProbe(domain.ComponentSupervisor, runtime.StaticProbe(s.supervisor != nil)),
		runtime.WithProbe(domain.ComponentClusterFixer, runtime.StaticProbe(s.fixer != nil)),
		runtime.WithProbe(domain.ComponentNotifier, runtime.StaticProbe(s.notifier != nil)),
		runtime.WithProbe(domain.ComponentKubernetes, kubernetes),
		runtime.WithDetailedProbe(domain.ComponentNotificationService, "notification_details", runtime.NotifierCheck(s.notifier)),
		runtime.WithProbeTimeout(s.stepTimeout),
		runtime.WithHealthLogger(s.logger.With("component", "health")),
	}
}

// RemediationResult is the outcome of Remediate with the normalized target.
type RemediationResult struct {
	domain.RemediationOutcome
	Deployment string
	Namespace  string
}

// Remediate validates the request and runs the single-shot workflow. The returned
// error is always a *domain.ValidationError; repair failures are reported in the outcome.
func (s *Service) Remediate(ctx context.Context, req RemediationRequest) (*RemediationResult, error) {
	// 1. Validate
	deployment := strings.TrimSpace(req.Deployment)
	if err := validate.DeploymentName(deployment); err != nil {
		return nil, err
	}
	namespace := strings.TrimSpace(req.Namespace)
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	if err := validate.Namespace(namespace); err != nil {
		return nil, err
	}
	event, err := validate.SanitizeInput("event", req.Event, s.limits.MaxEventSize)
	if err != nil {
		return nil, err
	}

	// 2. Run
	return &RemediationResult{
		RemediationOutcome: s.remediator.Remediate(ctx, deployment, namespace, event, req.Force),
		Deployment:         deployment,
		Namespace:          namespace,
	}, nil
}

// RunWorkflow validates the problem description, runs the multi-turn loop and
// stores the report. Store failures are logged and do not affect the report.
func (s *Service) RunWorkflow(ctx context.Context, problem string) (*domain.WorkflowReport, error) {
	if err := validate.Required("problem_description", problem); err != nil {
		return nil, err
	}
	problem, err := validate.SanitizeInput("problem_description", problem, s.limits.MaxProblemSize)
	if err != nil {
		return nil, err
	}

	report := s.orchestrator.Run(ctx, problem)

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), report); err != nil {
			s.logger.Warn("Failed to store workflow report", "run_id", report.RunID, "err", err)
		}
	}
	return report, nil
}

// Diagnosis is the result of Diagnose.
type Diagnosis struct {
	Namespace string
	Report    any
}

// Diagnose returns the cluster fixer's view of a namespace.
func (s *Service) Diagnose(ctx context.Context, namespace string) (*Diagnosis, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	if err := validate.Namespace(namespace); err != nil {
		return nil, err
	}
	if s.fixer == nil {
		return nil, &domain.CapabilityError{Capability: "cluster_fixer", Op: "diagnose_cluster_health", Err: errors.New("cluster fixer is not configured")}
	}

	if s.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
	}
	report, err := s.fixer.DiagnoseClusterHealth(ctx, namespace)
	if err != nil {
		s.logger.Error("Diagnosis failed", "namespace", namespace, "err", err)
		return nil, &domain.CapabilityError{Capability: "cluster_fixer", Op: "diagnose_cluster_health", Err: err}
	}
	return &Diagnosis{Namespace: namespace, Report: report}, nil
}

// NotifyResult is the result of Notify.
type NotifyResult struct {
	Type   string
	Result string
}

// Notify validates and sends a human help request or an incident alert.
func (s *Service) Notify(ctx context.Context, req NotifyRequest) (*NotifyResult, error) {
	// 1. Validate
	kind := strings.TrimSpace(req.Type)
	if kind == "" {
		kind = NotifyHumanHelp
	}
	if err := validate.OneOf("type", kind, NotifyHumanHelp, NotifyIncident); err != nil {
		return nil, err
	}
	if err := validate.Required("message", req.Message); err != nil {
		return nil, err
	}
	msg, err := validate.SanitizeInput("message", req.Message, s.limits.MaxMessageSize)
	if err != nil {
		return nil, err
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = domain.DefaultUrgency
	}
	severity := req.Severity
	if severity == "" {
		severity = domain.DefaultSeverity
	}

	// 2. Send
	if s.notifier == nil {
		return nil, &domain.CapabilityError{Capability: "notifier", Op: kind, Err: errors.New("notifier is not configured")}
	}
	var result string
	switch kind {
	case NotifyIncident:
		result, err = s.notifier.SendIncidentAlert(ctx, msg, req.AffectedServices, severity)
	default:
		result, err = s.notifier.SendHumanHelpRequest(ctx, msg, urgency)
	}
	if err != nil {
		s.logger.Error("Notification failed", "type", kind, "err", err)
		return nil, &domain.CapabilityError{Capability: "notifier", Op: kind, Err: err}
	}
	return &NotifyResult{Type: kind, Result: result}, nil
}

// Health probes every component. It never fails.
func (s *Service) Health(ctx context.Context) domain.HealthReport {
	return s.health.Check(ctx)
}

// Run returns a stored workflow report.
func (s *Service) Run(ctx context.Context, runID string) (*domain.WorkflowReport, error) {
	if s.store == nil {
		return nil, domain.ErrRunNotFound
	}
	return s.store.Load(ctx, runID)
}

// Runs lists stored run IDs, oldest first.
func (s *Service) Runs(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return []string{}, nil
	}
	return s.store.List(ctx)
}

// MaxIterations returns the effective iteration guard.
func (s *Service) MaxIterations() int {
	return s.orchestrator.MaxIterations()
}
