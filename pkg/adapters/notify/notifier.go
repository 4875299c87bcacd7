// Package notify delivers alerts to a JSON webhook (Slack-compatible relays, Alertmanager
// receivers, chat bridges). Without a webhook URL alerts are only logged.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/google/uuid"
)

// Message kinds.
const (
	KindHumanHelp = "human_help"
	KindIncident  = "incident"
	KindOutcome   = "remediation_outcome"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "autofix"

// Payload is the JSON body posted to the webhook.
type Payload struct {
	ID        string                      `json:"id"`
	Kind      string                      `json:"kind"`
	Channel   string                      `json:"channel"`
	Text      string                      `json:"text"`
	Urgency   string                      `json:"urgency,omitempty"`
	Severity  string                      `json:"severity,omitempty"`
	Services  []string                    `json:"affected_services,omitempty"`
	Outcome   *domain.OutcomeNotification `json:"outcome,omitempty"`
	Timestamp time.Time                   `json:"timestamp"`
}

// Notifier implements ports.Notifier and ports.NotificationDispatch.
type Notifier struct {
	url     string
	channel string
	client  *http.Client
	logger  *slog.Logger

	mu        sync.Mutex
	sent      int
	failed    int
	lastError string
}

// Option configures the Notifier.
type Option func(*Notifier)

// WithWebhook sets the delivery URL. An empty URL keeps log-only mode.
func WithWebhook(url string) Option {
	return func(n *Notifier) {
		n.url = url
	}
}

// WithChannel sets the channel name carried in every payload.
func WithChannel(channel string) Option {
	return func(n *Notifier) {
		if channel != "" {
			n.channel = channel
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		n.client = c
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.client = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		channel: DefaultChannel,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendHumanHelpRequest asks an operator to take over.
func (n *Notifier) SendHumanHelpRequest(ctx context.Context, message, urgency string) (string, error) {
	if urgency == "" {
		urgency = domain.DefaultUrgency
	}
	p := n.payload(KindHumanHelp, message)
	p.Urgency = urgency
	if err := n.deliver(ctx, p); err != nil {
		return "", err
	}
	return fmt.Sprintf("已发送人工协助请求 (id=%s, channel=%s, urgency=%s)", p.ID, p.Channel, urgency), nil
}

// SendIncidentAlert announces an incident.
func (n *Notifier) SendIncidentAlert(ctx context.Context, message string, affectedServices []string, severity string) (string, error) {
	if severity == "" {
		severity = domain.DefaultSeverity
	}
	p := n.payload(KindIncident, message)
	p.Severity = severity
	p.Services = affectedServices
	if err := n.deliver(ctx, p); err != nil {
		return "", err
	}
	return fmt.Sprintf("已发送事件告警 (id=%s, channel=%s, severity=%s, services=%d)", p.ID, p.Channel, severity, len(affectedServices)), nil
}

// SendOutcomeNotification reports a single-shot remediation result.
func (n *Notifier) SendOutcomeNotification(ctx context.Context, o domain.OutcomeNotification) error {
	text := fmt.Sprintf("Remediation of %s/%s %s", o.Namespace, o.Target, o.Status)
	if o.ErrorDetail != "" {
		text += ": " + o.ErrorDetail
	}
	p := n.payload(KindOutcome, text)
	p.Outcome = &o
	return n.deliver(ctx, p)
}

// CheckNotificationHealth reports whether the last delivery succeeded.
func (n *Notifier) CheckNotificationHealth(ctx context.Context) map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return map[string]any{
		"healthy":            n.lastError == "",
		"webhook_configured": n.url != "",
		"channel":            n.channel,
		"sent":               n.sent,
		"failed":             n.failed,
		"last_error":         n.lastError,
	}
}

func (n *Notifier) payload(kind, text string) Payload {
	return Payload{
		ID:        uuid.NewString(),
		Kind:      kind,
		Channel:   n.channel,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

func (n *Notifier) deliver(ctx context.Context, p Payload) error {
	if n.url == "" {
		n.logger.Info("Notification (log only)", "kind", p.Kind, "id", p.ID, "text", p.Text)
		n.record(nil)
		return nil
	}

	err := n.post(ctx, p)
	n.record(err)
	if err != nil {
		n.logger.Warn("Notification delivery failed", "kind", p.Kind, "id", p.ID, "err", err)
		return err
	}
	n.logger.Debug("Notification delivered", "kind", p.Kind, "id", p.ID)
	return nil
}

func (n *Notifier) post(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) record(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.failed++
		n.lastError = err.Error()
		return
	}
	n.sent++
	n.lastError = ""
}
