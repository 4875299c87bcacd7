package domain

import "time"

// Message records the result of one dispatched turn.
type Message struct {
	Agent     string    `json:"agent"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowState is the mutable state of one multi-turn run.
// It is created once per request and never shared between runs.
type WorkflowState struct {
	// Context holds the remediation target and the problem description.
	// It is populated at creation and only read afterwards.
	Context map[string]string `json:"context"`

	// Messages is append-only. Its length equals IterationCount when the loop exits.
	Messages []Message `json:"messages"`

	IterationCount int `json:"iteration_count"`

	// NextAction and CurrentStep are descriptive labels, not termination signals.
	NextAction  string `json:"next_action,omitempty"`
	CurrentStep string `json:"current_step,omitempty"`
}

// NewWorkflowState creates a clean state for the given problem description.
func NewWorkflowState(problem string) *WorkflowState {
	return &WorkflowState{
		Context:     map[string]string{KeyProblem: problem},
		Messages:    []Message{},
		CurrentStep: "initial",
	}
}

// Get returns the context value for key, or def when the key is missing.
func (s *WorkflowState) Get(key, def string) string {
	if v, ok := s.Context[key]; ok {
		return v
	}
	return def
}

// LastMessage returns the most recent message, if any.
func (s *WorkflowState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
