package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurn         EventType = "turn"
	EventDispatch     EventType = "dispatch"
	EventOutcome      EventType = "outcome"
	EventNotification EventType = "notification"
	EventWorkflowEnd  EventType = "workflow_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// TurnEvent is emitted after the supervisor routed a turn.
type TurnEvent struct {
	EventBase
	Step      int    `json:"step"`
	Agent     string `json:"agent"`
	Reasoning string `json:"reasoning"`
}

// DispatchEvent is emitted after an agent was invoked.
type DispatchEvent struct {
	EventBase
	Agent    string        `json:"agent"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// OutcomeEvent is emitted once per single-shot remediation.
type OutcomeEvent struct {
	EventBase
	Target    string `json:"deployment"`
	Namespace string `json:"namespace"`
	Force     bool   `json:"force"`
	Success   bool   `json:"success"`
}

// NotificationEvent is emitted after an outcome notification was attempted.
type NotificationEvent struct {
	EventBase
	Status OutcomeStatus `json:"status"`
	Err    error         `json:"-"`
}

// WorkflowEvent is emitted when a multi-turn run ends.
type WorkflowEvent struct {
	EventBase
	Status       WorkflowStatus    `json:"status"`
	TerminatedBy TerminationReason `json:"terminated_by,omitempty"`
	Iterations   int               `json:"iterations"`
	Duration     time.Duration     `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnTurn         func(context.Context, *TurnEvent)
	OnDispatch     func(context.Context, *DispatchEvent)
	OnOutcome      func(context.Context, *OutcomeEvent)
	OnNotification func(context.Context, *NotificationEvent)
	OnWorkflowEnd  func(context.Context, *WorkflowEvent)
}
