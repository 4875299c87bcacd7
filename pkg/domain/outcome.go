package domain

// Verdict is the classification of a repair report.
type Verdict struct {
	Success bool
}

// RemediationOutcome is produced once per single-shot remediation and is not stored.
type RemediationOutcome struct {
	Success      bool     `json:"success"`
	Report       string   `json:"result"`
	ActionsTaken []string `json:"actions_taken"`
	// ErrorMessage is empty on success.
	ErrorMessage string `json:"error_message,omitempty"`
}

// OutcomeStatus is the status carried by an outcome notification.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Status maps the outcome onto its notification status.
func (o RemediationOutcome) Status() OutcomeStatus {
	if o.Success {
		return OutcomeSuccess
	}
	return OutcomeFailed
}

// OutcomeNotification is what the single-shot workflow asks the dispatch capability to deliver.
type OutcomeNotification struct {
	Target       string        `json:"deployment"`
	Namespace    string        `json:"namespace"`
	Status       OutcomeStatus `json:"status"`
	ActionsTaken []string      `json:"actions_taken"`
	ErrorDetail  string        `json:"error_detail,omitempty"`
}
