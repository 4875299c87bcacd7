package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/autofix/internal/config"
	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
)

func offlineConfig() config.Config {
	cfg := config.Default()
	cfg.Kubernetes.Enabled = false
	return cfg
}

func TestBuildApp_MemoryStore(t *testing.T) {
	a, err := buildApp(offlineConfig(), logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.metrics)
	assert.Equal(t, 10, a.svc.MaxIterations())

	report := a.svc.Health(t.Context())
	assert.Equal(t, domain.HealthDegraded, report.Status)
	assert.False(t, report.Components[domain.ComponentClusterFixer])
	assert.True(t, report.Components[domain.ComponentNotifier])
	assert.True(t, report.Components[domain.ComponentSupervisor])
	assert.NotContains(t, report.Components, "run_store")

	ids, err := a.svc.Runs(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuildApp_RedisStoreAndLocks(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := offlineConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Remediation.LockTargets = true
	cfg.Metrics.Enabled = false

	a, err := buildApp(cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.metrics)
	assert.Len(t, a.closers, 1)

	report := a.svc.Health(t.Context())
	assert.True(t, report.Components["run_store"])

	// Without a cluster fixer the run escalates to the notifier and is recorded.
	run, err := a.svc.RunWorkflow(t.Context(), "deployment web-app in namespace prod is down")
	require.NoError(t, err)
	require.NotEmpty(t, run.RunID)

	ids, err := a.svc.Runs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{run.RunID}, ids)

	mr.Close()
	report = a.svc.Health(t.Context())
	assert.False(t, report.Components["run_store"])
}

func TestBuildApp_FileHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := offlineConfig()
	cfg.History.Dir = dir

	a, err := buildApp(cfg, logging.NewNop())
	require.NoError(t, err)
	run, err := a.svc.RunWorkflow(t.Context(), "deployment web-app is down")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// A second process sees the run.
	b, err := buildApp(cfg, logging.NewNop())
	require.NoError(t, err)
	defer b.Close()

	loaded, err := b.svc.Run(t.Context(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Status, loaded.Status)
	assert.FileExists(t, filepath.Join(dir, run.RunID+".json"))
}

func TestCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autofix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kubernetes:\n  enabled: false\n"), 0o644))

	run := func(t *testing.T, args ...string) (string, error) {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(append(args, "--config", path, "--log-level", "error"))
		err := rootCmd.Execute()
		return out.String(), err
	}

	t.Run("Version", func(t *testing.T) {
		out, err := run(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "autofix version")
	})

	t.Run("Notify", func(t *testing.T) {
		out, err := run(t, "notify", "--output", "json", "--type", "incident", "--services", "api,web", "database", "is", "down")
		require.NoError(t, err)

		var view map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		assert.Equal(t, "incident", view["notification_type"])
		assert.NotEmpty(t, view["result"])
	})

	t.Run("Invalid Output", func(t *testing.T) {
		_, err := run(t, "health", "--output", "yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})

	t.Run("Remediate Requires Deployment", func(t *testing.T) {
		_, err := run(t, "remediate", "--output", "json", "--deployment", "")
		require.Error(t, err)
	})
}
