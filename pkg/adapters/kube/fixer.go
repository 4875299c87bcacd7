package kube

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/autofix/internal/logging"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	// RestartedAtAnnotation triggers a rollout when its value changes, like kubectl rollout restart.
	RestartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"

	// DefaultRestartThreshold marks a container as crash-looping.
	DefaultRestartThreshold int32 = 3
)

// Waiting reasons a rollout restart can clear.
var restartableReasons = map[string]bool{
	"CrashLoopBackOff":           true,
	"RunContainerError":          true,
	"CreateContainerError":       true,
	"CreateContainerConfigError": true,
}

// Waiting reasons that need a human (a new image or credentials).
var imageReasons = map[string]bool{
	"ImagePullBackOff": true,
	"ErrImagePull":     true,
	"InvalidImageName": true,
}

// Fixer implements ports.ClusterFixer and ports.HealthProber.
type Fixer struct {
	client    client.Client
	threshold int32
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the Fixer.
type Option func(*Fixer)

// WithRestartThreshold sets the restart count that marks a container as crash-looping.
func WithRestartThreshold(n int32) Option {
	return func(f *Fixer) {
		if n > 0 {
			f.threshold = n
		}
	}
}

// WithClock overrides the clock used for restart annotations.
func WithClock(now func() time.Time) Option {
	return func(f *Fixer) {
		f.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fixer) {
		f.logger = logger
	}
}

// New creates a Fixer on top of an existing client.
func New(c client.Client, opts ...Option) *Fixer {
	f := &Fixer{
		client:    c,
		threshold: DefaultRestartThreshold,
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PodIssue describes an unhealthy container.
type PodIssue struct {
	Pod       string `json:"pod"`
	Container string `json:"container"`
	Reason    string `json:"reason,omitempty"`
	Restarts  int32  `json:"restarts"`
}

func (p PodIssue) String() string {
	if p.Reason == "" {
		return fmt.Sprintf("%s/%s (restarts=%d)", p.Pod, p.Container, p.Restarts)
	}
	return fmt.Sprintf("%s/%s %s (restarts=%d)", p.Pod, p.Container, p.Reason, p.Restarts)
}

// AnalyzeAndFix inspects the deployment and its pods and restarts the rollout when
// containers are crash-looping. The report carries a success marker only when the
// workload was healthy or a restart was issued. The event text is not echoed into
// the report so it cannot forge a marker.
func (f *Fixer) AnalyzeAndFix(ctx context.Context, target, namespace, event string) (string, error) {
	log := f.logger.With("deployment", target, "namespace", namespace)
	log.Debug("Analyzing workload", "event", event)

	// 1. Load the deployment
	var deploy appsv1.Deployment
	if err := f.client.Get(ctx, client.ObjectKey{Namespace: namespace, Name: target}, &deploy); err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Sprintf("未找到 Deployment %s/%s，无法执行修复", namespace, target), nil
		}
		return "", fmt.Errorf("failed to get deployment %s/%s: %w", namespace, target, err)
	}

	// 2. Inspect its pods
	issues, err := f.podIssues(ctx, &deploy)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deployment %s/%s: %d/%d 副本可用\n", namespace, target, deploy.Status.AvailableReplicas, desiredReplicas(&deploy))
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}

	// 3. Decide
	if len(issues) == 0 {
		if deploy.Status.AvailableReplicas < desiredReplicas(&deploy) {
			b.WriteString("副本未就绪但未发现可修复的容器故障，需要人工排查")
			return b.String(), nil
		}
		b.WriteString("工作负载运行正常，检查完成")
		return b.String(), nil
	}

	for _, issue := range issues {
		if imageReasons[issue.Reason] {
			b.WriteString("镜像拉取失败，重启无法修复，需要人工介入")
			log.Info("Skipping restart for image failure", "pod", issue.Pod, "reason", issue.Reason)
			return b.String(), nil
		}
	}

	// 4. Rollout restart
	if err := f.restart(ctx, &deploy); err != nil {
		return "", err
	}
	log.Info("Rollout restart issued", "issues", len(issues))
	b.WriteString("已执行滚动重启，修复成功")
	return b.String(), nil
}

func (f *Fixer) restart(ctx context.Context, deploy *appsv1.Deployment) error {
	patch := client.MergeFrom(deploy.DeepCopy())
	if deploy.Spec.Template.Annotations == nil {
		deploy.Spec.Template.Annotations = map[string]string{}
	}
	deploy.Spec.Template.Annotations[RestartedAtAnnotation] = f.now().UTC().Format(time.RFC3339)
	if err := f.client.Patch(ctx, deploy, patch); err != nil {
		return fmt.Errorf("failed to restart deployment %s/%s: %w", deploy.Namespace, deploy.Name, err)
	}
	return nil
}

func (f *Fixer) podIssues(ctx context.Context, deploy *appsv1.Deployment) ([]PodIssue, error) {
	if deploy.Spec.Selector == nil {
		return nil, nil
	}
	selector, err := metav1.LabelSelectorAsSelector(deploy.Spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector on %s/%s: %w", deploy.Namespace, deploy.Name, err)
	}

	var pods corev1.PodList
	if err := f.client.List(ctx, &pods,
		client.InNamespace(deploy.Namespace),
		client.MatchingLabelsSelector{Selector: selector},
	); err != nil {
		return nil, fmt.Errorf("failed to list pods for %s/%s: %w", deploy.Namespace, deploy.Name, err)
	}
	return f.collectIssues(pods.Items), nil
}

func (f *Fixer) collectIssues(pods []corev1.Pod) []PodIssue {
	var issues []PodIssue
	for _, pod := range pods {
		for _, cs := range pod.Status.ContainerStatuses {
			reason := ""
			if cs.State.Waiting != nil {
				reason = cs.State.Waiting.Reason
			}
			if restartableReasons[reason] || imageReasons[reason] || cs.RestartCount >= f.threshold {
				issues = append(issues, PodIssue{
					Pod:       pod.Name,
					Container: cs.Name,
					Reason:    reason,
					Restarts:  cs.RestartCount,
				})
			}
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Pod != issues[j].Pod {
			return issues[i].Pod < issues[j].Pod
		}
		return issues[i].Container < issues[j].Container
	})
	return issues
}

func desiredReplicas(d *appsv1.Deployment) int32 {
	if d.Spec.Replicas == nil {
		return 1
	}
	return *d.Spec.Replicas
}
