// Package http exposes the remediation service over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize caps request bodies. Oversized fields are truncated by the service.
const maxBodySize = 64 << 10

// Service is the remediation core served by the handler.
type Service interface {
	Remediate(ctx context.Context, req autofix.RemediationRequest) (*autofix.RemediationResult, error)
	RunWorkflow(ctx context.Context, problem string) (*domain.WorkflowReport, error)
	Diagnose(ctx context.Context, namespace string) (*autofix.Diagnosis, error)
	Notify(ctx context.Context, req autofix.NotifyRequest) (*autofix.NotifyResult, error)
	Health(ctx context.Context) domain.HealthReport
	Run(ctx context.Context, runID string) (*domain.WorkflowReport, error)
}

// Server holds the handlers.
type Server struct {
	Service Service

	metrics     http.Handler
	metricsPath string
	cors        bool
	validate    bool
	logger      *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// DefaultMetricsPath is where WithMetricsHandler mounts the exposition handler.
const DefaultMetricsPath = "/metrics"

// WithMetricsHandler mounts h on DefaultMetricsPath.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMetricsPath moves the metrics handler. Empty keeps the default.
func WithMetricsPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithCORS toggles permissive CORS headers (default on).
func WithCORS(enabled bool) Option {
	return func(s *Server) {
		s.cors = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, opts ...Option) http.Handler {
	server := &Server{
		Service:     svc,
		metricsPath: DefaultMetricsPath,
		cors:        true,
		validate:    true,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if server.cors {
		r.Use(enableCORS)
	}
	if server.validate {
		r.Use(server.validateRequests())
	}

	r.Post("/autofix", server.Remediate)
	r.Post("/autofix/workflow", server.RunWorkflow)
	r.Post("/autofix/diagnose", server.Diagnose)
	r.Post("/autofix/notify", server.Notify)
	r.Get("/autofix/health", server.GetHealth)
	r.Get("/autofix/runs/{id}", server.GetRun)
	r.Get("/info", server.GetInfo)

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	if server.metrics != nil {
		r.Handle(server.metricsPath, server.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>autofix API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// RemediationRequest is the body of POST /autofix.
type RemediationRequest struct {
	Deployment string `json:"deployment"`
	Target     string `json:"target"`
	Namespace  string `json:"namespace"`
	Event      string `json:"event"`
	Force      bool   `json:"force"`
}

// RemediationResponse is returned by POST /autofix.
type RemediationResponse struct {
	Status       string    `json:"status"`
	Result       string    `json:"result"`
	Deployment   string    `json:"deployment"`
	Namespace    string    `json:"namespace"`
	ActionsTaken []string  `json:"actions_taken"`
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message"`
}

// WorkflowRequest is the body of POST /autofix/workflow.
type WorkflowRequest struct {
	ProblemDescription string `json:"problem_description"`
}

// DiagnoseRequest is the body of POST /autofix/diagnose.
type DiagnoseRequest struct {
	Namespace string `json:"namespace"`
}

// DiagnoseResponse is returned by POST /autofix/diagnose.
type DiagnoseResponse struct {
	Status    string    `json:"status"`
	Namespace string    `json:"namespace"`
	Diagnosis any       `json:"diagnosis"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyRequest is the body of POST /autofix/notify.
type NotifyRequest struct {
	Type             string   `json:"type"`
	Message          string   `json:"message"`
	Urgency          string   `json:"urgency"`
	Severity         string   `json:"severity"`
	AffectedServices []string `json:"affected_services"`
}

// NotifyResponse is returned by POST /autofix/notify.
type NotifyResponse struct {
	Status           string    `json:"status"`
	Result           string    `json:"result"`
	NotificationType string    `json:"notification_type"`
	Timestamp        time.Time `json:"timestamp"`
}

// HealthResponse is returned by GET /autofix/health.
type HealthResponse struct {
	Status              domain.HealthStatus `json:"status"`
	Components          map[string]bool     `json:"components"`
	NotificationDetails any                 `json:"notification_details,omitempty"`
	Timestamp           time.Time           `json:"timestamp"`
}

// ErrorResponse is the envelope of every error.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Remediate handles the POST /autofix request.
func (s *Server) Remediate(w http.ResponseWriter, r *http.Request) {
	var body RemediationRequest
	if !s.decode(w, r, &body) {
		return
	}
	deployment := body.Deployment
	if deployment == "" {
		deployment = body.Target
	}

	res, err := s.Service.Remediate(r.Context(), autofix.RemediationRequest{
		Deployment: deployment,
		Namespace:  body.Namespace,
		Event:      body.Event,
		Force:      body.Force,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := RemediationResponse{
		Status:       string(res.Status()),
		Result:       res.Report,
		Deployment:   res.Deployment,
		Namespace:    res.Namespace,
		ActionsTaken: res.ActionsTaken,
		Timestamp:    time.Now().UTC(),
		Success:      res.Success,
	}
	if resp.ActionsTaken == nil {
		resp.ActionsTaken = []string{}
	}
	if !res.Success {
		msg := res.ErrorMessage
		resp.ErrorMessage = &msg
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	s.respond(w, status, resp)
}

// RunWorkflow handles the POST /autofix/workflow request.
func (s *Server) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	var body WorkflowRequest
	if !s.decode(w, r, &body) {
		return
	}

	report, err := s.Service.RunWorkflow(r.Context(), body.ProblemDescription)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if report.Failed() {
		status = http.StatusInternalServerError
	}
	s.respond(w, status, report)
}

// Diagnose handles the POST /autofix/diagnose request.
func (s *Server) Diagnose(w http.ResponseWriter, r *http.Request) {
	var body DiagnoseRequest
	if !s.decode(w, r, &body) {
		return
	}

	d, err := s.Service.Diagnose(r.Context(), body.Namespace)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, DiagnoseResponse{
		Status:    "success",
		Namespace: d.Namespace,
		Diagnosis: d.Report,
		Timestamp: time.Now().UTC(),
	})
}

// Notify handles the POST /autofix/notify request.
func (s *Server) Notify(w http.ResponseWriter, r *http.Request) {
	var body NotifyRequest
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.Service.Notify(r.Context(), autofix.NotifyRequest{
		Type:             body.Type,
		Message:          body.Message,
		Urgency:          body.Urgency,
		Severity:         body.Severity,
		AffectedServices: body.AffectedServices,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, NotifyResponse{
		Status:           "success",
		Result:           res.Result,
		NotificationType: res.Type,
		Timestamp:        time.Now().UTC(),
	})
}

// GetHealth handles the GET /autofix/health request. It always answers 200.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.Service.Health(r.Context())
	s.respond(w, http.StatusOK, HealthResponse{
		Status:              report.Status,
		Components:          report.Components,
		NotificationDetails: report.Details["notification_details"],
		Timestamp:           report.Timestamp,
	})
}

// GetRun handles the GET /autofix/runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.Service.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, report)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI document", "err", err)
	}

	s.respond(w, http.StatusOK, map[string]string{
		"app":         "autofix-http",
		"version":     strings.TrimSpace(autofix.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		// An empty body decodes to the zero request.
		return true
	}
	s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
	s.respond(w, http.StatusBadRequest, ErrorResponse{
		Error:     "invalid request body: " + err.Error(),
		Timestamp: time.Now().UTC(),
	})
	return false
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		s.logger.Warn("Request rejected", "path", r.URL.Path, "field", verr.Field, "err", err)
	case errors.Is(err, domain.ErrRunNotFound):
		status = http.StatusNotFound
	default:
		s.logger.Error("Request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	s.respond(w, status, ErrorResponse{Error: err.Error(), Timestamp: time.Now().UTC()})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
