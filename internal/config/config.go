// Package config loads the autofix service configuration from a YAML file,
// AUTOFIX_* environment variables and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. AUTOFIX_REDIS_ADDR.
const EnvPrefix = "AUTOFIX_"

// Config is the full service configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Remediation  RemediationConfig  `yaml:"remediation" mapstructure:"remediation"`
	Kubernetes   KubernetesConfig   `yaml:"kubernetes" mapstructure:"kubernetes"`
	Notify       NotifyConfig       `yaml:"notify" mapstructure:"notify"`
	Redis        RedisConfig        `yaml:"redis" mapstructure:"redis"`
	History      HistoryConfig      `yaml:"history" mapstructure:"history"`
	Input        InputConfig        `yaml:"input" mapstructure:"input"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	CORS            bool          `yaml:"cors" mapstructure:"cors"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// ValidateRequests checks request bodies against the published API document.
	ValidateRequests bool `yaml:"validate_requests" mapstructure:"validate_requests"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type OrchestratorConfig struct {
	// MaxIterations bounds a run whose supervisor never stops it.
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`
	// StepTimeout bounds each capability call. Zero disables it.
	StepTimeout time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`
}

type RemediationConfig struct {
	LockTargets bool          `yaml:"lock_targets" mapstructure:"lock_targets"`
	LockTTL     time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
	// Timeout bounds a remediation started from the CLI. Zero disables it.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type KubernetesConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Kubeconfig string `yaml:"kubeconfig" mapstructure:"kubeconfig"`
	// RestartThreshold is the container restart count that marks a pod as crash-looping.
	RestartThreshold int `yaml:"restart_threshold" mapstructure:"restart_threshold"`
}

type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	Channel    string        `yaml:"channel" mapstructure:"channel"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// HistoryConfig keeps workflow reports on disk when Redis is disabled.
// An empty Dir keeps them in memory for the life of the process.
type HistoryConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type InputConfig struct {
	MaxEventSize   int `yaml:"max_event_size" mapstructure:"max_event_size"`
	MaxMessageSize int `yaml:"max_message_size" mapstructure:"max_message_size"`
	MaxProblemSize int `yaml:"max_problem_size" mapstructure:"max_problem_size"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:             ":8080",
			CORS:             true,
			ShutdownTimeout:  5 * time.Second,
			ValidateRequests: true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Orchestrator: OrchestratorConfig{
			MaxIterations: 10,
		},
		Remediation: RemediationConfig{
			LockTTL: 5 * time.Minute,
		},
		Kubernetes: KubernetesConfig{
			Enabled:          true,
			RestartThreshold: 3,
		},
		Notify: NotifyConfig{
			Channel: "autofix",
			Timeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "autofix:run:",
			TTL:    24 * time.Hour,
		},
		Input: InputConfig{
			MaxEventSize:   2000,
			MaxMessageSize: 1000,
			MaxProblemSize: 2000,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load reads path (optional) on top of the defaults and applies environment overrides.
// A missing file is an error only when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg, os.Environ()); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv decodes AUTOFIX_<SECTION>_<KEY>=value pairs onto cfg.
// Unknown sections and keys are ignored.
func ApplyEnv(cfg *Config, environ []string) error {
	overrides := map[string]any{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		section, field, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_")
		if !ok || field == "" {
			continue
		}
		sub, _ := overrides[section].(map[string]any)
		if sub == nil {
			sub = map[string]any{}
			overrides[section] = sub
		}
		sub[field] = value
	}
	if len(overrides) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to build env decoder: %w", err)
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Orchestrator.MaxIterations < 0 {
		errs = append(errs, errors.New("orchestrator.max_iterations must not be negative"))
	}
	if c.Orchestrator.StepTimeout < 0 {
		errs = append(errs, errors.New("orchestrator.step_timeout must not be negative"))
	}
	if c.Remediation.LockTargets && c.Remediation.LockTTL <= 0 {
		errs = append(errs, errors.New("remediation.lock_ttl must be positive when lock_targets is set"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Input.MaxEventSize <= 0 || c.Input.MaxMessageSize <= 0 || c.Input.MaxProblemSize <= 0 {
		errs = append(errs, errors.New("input size limits must be positive"))
	}
	return errors.Join(errs...)
}
