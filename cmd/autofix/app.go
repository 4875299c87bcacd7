package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/internal/config"
	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/internal/metrics"
	"github.com/aretw0/autofix/internal/runtime"
	"github.com/aretw0/autofix/pkg/adapters/file"
	"github.com/aretw0/autofix/pkg/adapters/kube"
	"github.com/aretw0/autofix/pkg/adapters/memory"
	"github.com/aretw0/autofix/pkg/adapters/notify"
	"github.com/aretw0/autofix/pkg/adapters/redis"
	"github.com/aretw0/autofix/pkg/adapters/supervisor"
	"github.com/aretw0/autofix/pkg/observability"
	"github.com/aretw0/autofix/pkg/session"
)

// lockPrefix namespaces remediation locks in Redis.
const lockPrefix = "autofix:"

// app is everything a command needs, built from the loaded configuration.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	svc     *autofix.Service
	metrics *metrics.Metrics
	closers []func() error
}

// loadConfig reads --config and applies the logging flags on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.ParseLevel(cfg.Log.Level), logging.Format(cfg.Log.Format))
	return buildApp(cfg, logger)
}

// buildApp wires the adapters selected by cfg into a Service.
func buildApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	opts := []autofix.Option{
		autofix.WithLogger(logger),
		autofix.WithMaxIterations(cfg.Orchestrator.MaxIterations),
		autofix.WithStepTimeout(cfg.Orchestrator.StepTimeout),
		autofix.WithLimits(autofix.Limits{
			MaxEventSize:   cfg.Input.MaxEventSize,
			MaxMessageSize: cfg.Input.MaxMessageSize,
			MaxProblemSize: cfg.Input.MaxProblemSize,
		}),
		autofix.WithSupervisor(supervisor.New()),
		autofix.WithNotifier(notify.New(
			notify.WithWebhook(cfg.Notify.WebhookURL),
			notify.WithChannel(cfg.Notify.Channel),
			notify.WithTimeout(cfg.Notify.Timeout),
			notify.WithLogger(logger.With("component", "notifier")),
		)),
	}

	// 1. Cluster fixer. An unreachable cluster degrades health instead of failing startup.
	if cfg.Kubernetes.Enabled {
		fixer, err := newFixer(cfg.Kubernetes, logger)
		if err != nil {
			logger.Warn("Kubernetes unavailable, cluster fixer disabled", "err", err)
		} else {
			opts = append(opts, autofix.WithClusterFixer(fixer))
		}
	}

	// 2. Run store
	var redisStore *redis.Store
	if cfg.Redis.Enabled {
		redisStore = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, redisStore.Close)
		opts = append(opts,
			autofix.WithRunStore(redisStore),
			autofix.WithHealthProbe("run_store", runtime.ProberCheck(redisStore)),
		)
	} else if cfg.History.Dir != "" {
		opts = append(opts, autofix.WithRunStore(file.New(cfg.History.Dir)))
	} else {
		opts = append(opts, autofix.WithRunStore(memory.NewStore()))
	}

	// 3. Target locks
	if cfg.Remediation.LockTargets {
		mgrOpts := []session.Option{
			session.WithLockTTL(cfg.Remediation.LockTTL),
			session.WithLogger(logger.With("component", "session")),
		}
		if redisStore != nil {
			mgrOpts = append(mgrOpts, session.WithLocker(redis.NewLocker(redisStore.Client(), lockPrefix)))
		}
		opts = append(opts, autofix.WithTargetGuard(session.NewManager(mgrOpts...)))
	}

	// 4. Observability
	hooks := observability.LoggingHooks(logger)
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
		hooks = observability.Merge(hooks, a.metrics.Hooks())
	}
	opts = append(opts, autofix.WithLifecycleHooks(hooks))

	a.svc = autofix.New(opts...)
	return a, nil
}

func newFixer(cfg config.KubernetesConfig, logger *slog.Logger) (*kube.Fixer, error) {
	restCfg, err := kube.GetConfig(cfg.Kubeconfig)
	if err != nil {
		return nil, err
	}
	c, err := kube.NewClient(restCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return kube.New(c,
		kube.WithRestartThreshold(int32(cfg.RestartThreshold)),
		kube.WithLogger(logger.With("component", "kube")),
	), nil
}

// Close releases the connections opened by buildApp.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
