package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/aretw0/autofix/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// CheckFunc probes one component. detail is optional and reported under the
// probe's detail key when set.
type CheckFunc func(ctx context.Context) (healthy bool, detail any, err error)

type probe struct {
	name      string
	detailKey string
	check     CheckFunc
}

// HealthAggregator folds independent liveness probes into one status.
type HealthAggregator struct {
	probes  []probe
	timeout time.Duration
	logger  *slog.Logger
}

// HealthOption configures the HealthAggregator.
type HealthOption func(*HealthAggregator)

// WithProbe registers a component probe.
func WithProbe(name string, check CheckFunc) HealthOption {
	return func(h *HealthAggregator) {
		h.probes = append(h.probes, probe{name: name, check: check})
	}
}

// WithDetailedProbe registers a probe whose detail is reported under detailKey.
func WithDetailedProbe(name, detailKey string, check CheckFunc) HealthOption {
	return func(h *HealthAggregator) {
		h.probes = append(h.probes, probe{name: name, detailKey: detailKey, check: check})
	}
}

// WithProbeTimeout bounds each probe.
func WithProbeTimeout(d time.Duration) HealthOption {
	return func(h *HealthAggregator) {
		h.timeout = d
	}
}

// WithHealthLogger sets the structured logger.
func WithHealthLogger(logger *slog.Logger) HealthOption {
	return func(h *HealthAggregator) {
		h.logger = logger
	}
}

// NewHealthAggregator creates an aggregator with the given probes.
func NewHealthAggregator(opts ...HealthOption) *HealthAggregator {
	h := &HealthAggregator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Check runs every probe concurrently. A probe that errors or panics counts as unhealthy.
// Check itself never fails.
func (h *HealthAggregator) Check(ctx context.Context) domain.HealthReport {
	type outcome struct {
		healthy bool
		detail  any
	}
	results := make([]outcome, len(h.probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range h.probes {
		g.Go(func() error {
			res := capture(gctx, h.timeout, p.name, "health", func(ctx context.Context) (outcome, error) {
				ok, detail, err := p.check(ctx)
				return outcome{healthy: ok, detail: detail}, err
			})
			if !res.OK() {
				h.logger.Warn("health probe failed", "component", p.name, "err", res.Err)
				results[i] = outcome{healthy: false, detail: res.Value.detail}
				return nil
			}
			results[i] = res.Value
			return nil
		})
	}
	_ = g.Wait()

	report := domain.HealthReport{
		Status:     domain.HealthHealthy,
		Components: make(map[string]bool, len(h.probes)),
		Details:    map[string]any{},
		Timestamp:  time.Now().UTC(),
	}
	for i, p := range h.probes {
		report.Components[p.name] = results[i].healthy
		if !results[i].healthy {
			report.Status = domain.HealthDegraded
		}
		if p.detailKey != "" && results[i].detail != nil {
			report.Details[p.detailKey] = results[i].detail
		}
	}
	return report
}

// StaticProbe reports a fixed status.
func StaticProbe(healthy bool) CheckFunc {
	return func(context.Context) (bool, any, error) {
		return healthy, nil, nil
	}
}

// ProberCheck adapts a ports.HealthProber. A nil prober is reported as unhealthy.
func ProberCheck(p ports.HealthProber) CheckFunc {
	return func(ctx context.Context) (bool, any, error) {
		if p == nil {
			return false, nil, errNotConfigured("prober")
		}
		if err := p.Healthy(ctx); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}
}

// NotifierCheck probes a ports.Notifier through CheckNotificationHealth and
// reports the returned map as detail.
func NotifierCheck(n ports.Notifier) CheckFunc {
	return func(ctx context.Context) (bool, any, error) {
		if n == nil {
			return false, nil, errNotConfigured("notifier")
		}
		detail := n.CheckNotificationHealth(ctx)
		healthy, ok := detail["healthy"].(bool)
		if !ok {
			return false, detail, fmt.Errorf("notification health has no boolean %q key", "healthy")
		}
		return healthy, detail, nil
	}
}
