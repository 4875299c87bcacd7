package kube

import (
	"context"
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Diagnosis summarizes the workloads of a namespace.
type Diagnosis struct {
	Namespace              string         `json:"namespace"`
	Healthy                bool           `json:"healthy"`
	TotalPods              int            `json:"total_pods"`
	PodPhases              map[string]int `json:"pod_phases"`
	Issues                 []PodIssue     `json:"issues,omitempty"`
	UnavailableDeployments []string       `json:"unavailable_deployments,omitempty"`
}

// DiagnoseClusterHealth reports pod phases, crash-looping containers and deployments
// short of replicas.
func (f *Fixer) DiagnoseClusterHealth(ctx context.Context, namespace string) (any, error) {
	var pods corev1.PodList
	if err := f.client.List(ctx, &pods, client.InNamespace(namespace)); err != nil {
		return nil, fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}

	var deploys appsv1.DeploymentList
	if err := f.client.List(ctx, &deploys, client.InNamespace(namespace)); err != nil {
		return nil, fmt.Errorf("failed to list deployments in %s: %w", namespace, err)
	}

	d := Diagnosis{
		Namespace: namespace,
		TotalPods: len(pods.Items),
		PodPhases: map[string]int{},
		Issues:    f.collectIssues(pods.Items),
	}
	for _, pod := range pods.Items {
		phase := string(pod.Status.Phase)
		if phase == "" {
			phase = string(corev1.PodUnknown)
		}
		d.PodPhases[phase]++
	}
	for i := range deploys.Items {
		dep := &deploys.Items[i]
		if dep.Status.AvailableReplicas < desiredReplicas(dep) {
			d.UnavailableDeployments = append(d.UnavailableDeployments, dep.Name)
		}
	}
	sort.Strings(d.UnavailableDeployments)

	d.Healthy = len(d.Issues) == 0 && len(d.UnavailableDeployments) == 0 &&
		d.PodPhases[string(corev1.PodFailed)] == 0
	return d, nil
}

// Healthy checks that the API server answers.
func (f *Fixer) Healthy(ctx context.Context) error {
	var namespaces corev1.NamespaceList
	if err := f.client.List(ctx, &namespaces, client.Limit(1)); err != nil {
		return fmt.Errorf("kubernetes api unreachable: %w", err)
	}
	return nil
}
