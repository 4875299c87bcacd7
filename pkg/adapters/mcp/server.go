// Package mcp exposes the remediation service as Model Context Protocol tools so
// assistants can trigger repairs, workflows and alerts.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/internal/logging"
	"github.com/aretw0/autofix/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// Service is the remediation core exposed by the MCP server.
type Service interface {
	Remediate(ctx context.Context, req autofix.RemediationRequest) (*autofix.RemediationResult, error)
	RunWorkflow(ctx context.Context, problem string) (*domain.WorkflowReport, error)
	Diagnose(ctx context.Context, namespace string) (*autofix.Diagnosis, error)
	Notify(ctx context.Context, req autofix.NotifyRequest) (*autofix.NotifyResult, error)
	Health(ctx context.Context) domain.HealthReport
	Runs(ctx context.Context) ([]string, error)
}

// RemediateResponse is the structured output of autofix_remediate.
type RemediateResponse struct {
	Status       string   `json:"status" jsonschema_description:"success or failed"`
	Result       string   `json:"result" jsonschema_description:"Free-form repair report"`
	Deployment   string   `json:"deployment"`
	Namespace    string   `json:"namespace"`
	ActionsTaken []string `json:"actions_taken"`
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// NotifyResponse is the structured output of autofix_notify.
type NotifyResponse struct {
	Result           string `json:"result"`
	NotificationType string `json:"notification_type"`
}

// Server wraps the Service and exposes it as an MCP Server.
type Server struct {
	svc       Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		mcpServer: server.NewMCPServer("autofix-mcp", strings.TrimSpace(autofix.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: autofix_remediate
	s.mcpServer.AddTool(mcp.NewTool("autofix_remediate",
		mcp.WithDescription("Run one automatic repair attempt against a Kubernetes deployment and notify the outcome."),
		mcp.WithString("deployment", mcp.Required(), mcp.Description("Deployment name")),
		mcp.WithString("namespace", mcp.Description("Namespace (default: default)")),
		mcp.WithString("event", mcp.Description("Observed event, e.g. CrashLoopBackOff")),
		mcp.WithBoolean("force", mcp.Description("Force the repair")),
		mcp.WithOutputSchema[RemediateResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemediate))

	// TOOL: autofix_workflow
	s.mcpServer.AddTool(mcp.NewTool("autofix_workflow",
		mcp.WithDescription("Run the supervisor-driven multi-agent workflow for a free-form problem description."),
		mcp.WithString("problem_description", mcp.Required(), mcp.Description("What is wrong, e.g. 'deployment web-app in namespace prod is crash-looping'")),
		mcp.WithOutputSchema[domain.WorkflowReport](),
	), mcp.NewStructuredToolHandler(s.handleWorkflow))

	// TOOL: autofix_notify
	s.mcpServer.AddTool(mcp.NewTool("autofix_notify",
		mcp.WithDescription("Send a human help request or an incident alert."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Notification text")),
		mcp.WithString("type", mcp.Description("human_help (default) or incident")),
		mcp.WithString("urgency", mcp.Description("Urgency of a help request (default: medium)")),
		mcp.WithString("severity", mcp.Description("Severity of an incident (default: medium)")),
		mcp.WithString("affected_services", mcp.Description("Comma separated services affected by an incident")),
		mcp.WithOutputSchema[NotifyResponse](),
	), mcp.NewStructuredToolHandler(s.handleNotify))

	// TOOL: autofix_diagnose
	s.mcpServer.AddTool(mcp.NewTool("autofix_diagnose",
		mcp.WithDescription("Diagnose the workloads of a namespace."),
		mcp.WithString("namespace", mcp.Description("Namespace (default: default)")),
	), s.handleDiagnose)

	// TOOL: autofix_health
	s.mcpServer.AddTool(mcp.NewTool("autofix_health",
		mcp.WithDescription("Report the health of every component of the remediation service."),
		mcp.WithOutputSchema[domain.HealthReport](),
	), mcp.NewStructuredToolHandler(s.handleHealth))
}

type remediateArgs struct {
	Deployment string `mapstructure:"deployment"`
	Namespace  string `mapstructure:"namespace"`
	Event      string `mapstructure:"event"`
	Force      bool   `mapstructure:"force"`
}

type notifyArgs struct {
	Type             string `mapstructure:"type"`
	Message          string `mapstructure:"message"`
	Urgency          string `mapstructure:"urgency"`
	Severity         string `mapstructure:"severity"`
	AffectedServices string `mapstructure:"affected_services"`
}

// decodeArgs maps loosely typed tool arguments onto a struct.
func decodeArgs(args map[string]interface{}, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) handleRemediate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RemediateResponse, error) {
	var in remediateArgs
	if err := decodeArgs(args, &in); err != nil {
		return RemediateResponse{}, err
	}

	res, err := s.svc.Remediate(ctx, autofix.RemediationRequest{
		Deployment: in.Deployment,
		Namespace:  in.Namespace,
		Event:      in.Event,
		Force:      in.Force,
	})
	if err != nil {
		s.logger.Warn("MCP remediate: request rejected", "err", err)
		return RemediateResponse{}, err
	}

	return RemediateResponse{
		Status:       string(res.Status()),
		Result:       res.Report,
		Deployment:   res.Deployment,
		Namespace:    res.Namespace,
		ActionsTaken: res.ActionsTaken,
		Success:      res.Success,
		ErrorMessage: res.ErrorMessage,
	}, nil
}

func (s *Server) handleWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.WorkflowReport, error) {
	problem, _ := args["problem_description"].(string)
	report, err := s.svc.RunWorkflow(ctx, problem)
	if err != nil {
		return domain.WorkflowReport{}, err
	}
	if report.Failed() {
		return *report, errors.New(report.Error)
	}
	return *report, nil
}

func (s *Server) handleNotify(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NotifyResponse, error) {
	var in notifyArgs
	if err := decodeArgs(args, &in); err != nil {
		return NotifyResponse{}, err
	}

	var services []string
	for _, svc := range strings.Split(in.AffectedServices, ",") {
		if svc = strings.TrimSpace(svc); svc != "" {
			services = append(services, svc)
		}
	}

	res, err := s.svc.Notify(ctx, autofix.NotifyRequest{
		Type:             in.Type,
		Message:          in.Message,
		Urgency:          in.Urgency,
		Severity:         in.Severity,
		AffectedServices: services,
	})
	if err != nil {
		return NotifyResponse{}, err
	}
	return NotifyResponse{Result: res.Result, NotificationType: res.Type}, nil
}

func (s *Server) handleDiagnose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	namespace := request.GetString("namespace", "")
	d, err := s.svc.Diagnose(ctx, namespace)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagnose failed: %v", err)), nil
	}
	jsonBytes, err := json.MarshalIndent(map[string]any{
		"namespace": d.Namespace,
		"diagnosis": d.Report,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleHealth(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.HealthReport, error) {
	return s.svc.Health(ctx), nil
}

func (s *Server) registerResources() {
	// EXPOSE: autofix://runs
	s.mcpServer.AddResource(mcp.NewResource("autofix://runs", "Stored workflow runs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		runs, err := s.svc.Runs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		jsonBytes, _ := json.Marshal(runs)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "autofix://runs",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
