package domain

import (
	"encoding/json"
	"time"
)

// WorkflowStatus is the final status of a multi-turn run.
type WorkflowStatus string

const (
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// TerminationReason records why a completed run stopped.
type TerminationReason string

const (
	// TerminatedBySupervisor means ShouldContinue returned false.
	TerminatedBySupervisor TerminationReason = "supervisor"
	// TerminatedByFinish means the supervisor routed to FINISH.
	TerminatedByFinish TerminationReason = "finish"
	// TerminatedByMaxIterations means the iteration guard stopped the loop.
	TerminatedByMaxIterations TerminationReason = "max_iterations"
)

// RoutingDecision is the supervisor's choice for the next turn.
type RoutingDecision struct {
	Next      string `json:"next"`
	Reasoning string `json:"reasoning"`
}

// IsFinish reports whether the decision terminates the run.
func (d RoutingDecision) IsFinish() bool {
	return ParseAgent(d.Next) == AgentFinish
}

// TranscriptEntry records one routing decision. FINISH decisions are recorded too.
type TranscriptEntry struct {
	Step      int    `json:"step"`
	Agent     string `json:"agent"`
	Reasoning string `json:"reasoning"`
}

// WorkflowReport is the result of a multi-turn run.
// A failed report carries Error and never a partial transcript.
// A completed report always encodes workflow_steps and summary, even when empty.
type WorkflowReport struct {
	RunID        string            `json:"run_id,omitempty"`
	Status       WorkflowStatus    `json:"status"`
	Transcript   []TranscriptEntry `json:"workflow_steps"`
	Summary      any               `json:"summary"`
	FinalStep    string            `json:"final_state,omitempty"`
	TerminatedBy TerminationReason `json:"terminated_by,omitempty"`
	Iterations   int               `json:"iterations"`
	Error        string            `json:"error,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Failed reports whether the run aborted.
func (r *WorkflowReport) Failed() bool {
	return r.Status == WorkflowFailed
}

// failedReport is the encoding of a failed run.
type failedReport struct {
	RunID     string         `json:"run_id,omitempty"`
	Status    WorkflowStatus `json:"status"`
	Error     string         `json:"error"`
	Timestamp time.Time      `json:"timestamp"`
}

// MarshalJSON encodes a failed run as {run_id, status, error, timestamp} and a
// completed run with a non-nil transcript.
func (r WorkflowReport) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(failedReport{RunID: r.RunID, Status: r.Status, Error: r.Error, Timestamp: r.Timestamp})
	}
	type plain WorkflowReport
	p := plain(r)
	if p.Transcript == nil {
		p.Transcript = []TranscriptEntry{}
	}
	return json.Marshal(p)
}
