package kube_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/autofix/pkg/adapters/kube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
)

func TestDiagnoseClusterHealth(t *testing.T) {
	fixer, _ := newFixer(
		deployment("web-app", "prod", 2, 1),
		deployment("api", "prod", 1, 1),
		pod("web-app-1", "prod", "web-app", corev1.PodRunning, "CrashLoopBackOff", 5),
		pod("web-app-2", "prod", "web-app", corev1.PodRunning, "", 0),
		pod("api-1", "prod", "api", corev1.PodRunning, "", 0),
		pod("job-1", "prod", "job", corev1.PodSucceeded, "", 0),
		pod("elsewhere", "staging", "web-app", corev1.PodFailed, "", 0),
	)

	raw, err := fixer.DiagnoseClusterHealth(context.Background(), "prod")
	require.NoError(t, err)

	d, ok := raw.(kube.Diagnosis)
	require.True(t, ok)
	assert.Equal(t, "prod", d.Namespace)
	assert.False(t, d.Healthy)
	assert.Equal(t, 4, d.TotalPods)
	assert.Equal(t, map[string]int{"Running": 3, "Succeeded": 1}, d.PodPhases)
	assert.Equal(t, []string{"web-app"}, d.UnavailableDeployments)
	require.Len(t, d.Issues, 1)
	assert.Equal(t, "web-app-1", d.Issues[0].Pod)
}

func TestDiagnoseClusterHealth_EmptyNamespace(t *testing.T) {
	fixer, _ := newFixer()

	raw, err := fixer.DiagnoseClusterHealth(context.Background(), "default")
	require.NoError(t, err)
	d := raw.(kube.Diagnosis)
	assert.True(t, d.Healthy)
	assert.Zero(t, d.TotalPods)
}

func TestHealthy(t *testing.T) {
	fixer, _ := newFixer()
	assert.NoError(t, fixer.Healthy(context.Background()))

	c := fake.NewClientBuilder().WithScheme(kube.Scheme()).WithInterceptorFuncs(interceptor.Funcs{
		List: func(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
			return errors.New("forbidden")
		},
	}).Build()
	assert.ErrorContains(t, kube.New(c).Healthy(context.Background()), "forbidden")
}
