package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAgent(t *testing.T) {
	tests := []struct {
		name string
		want AgentID
	}{
		{"ClusterFixer", AgentClusterFixer},
		{"K8sFixer", AgentClusterFixer},
		{"Notifier", AgentNotifier},
		{"FINISH", AgentFinish},
		{"LogAnalyzer", AgentUnregistered},
		{"", AgentUnregistered},
		{"notifier", AgentUnregistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAgent(tt.name))
		})
	}
}

func TestRoutingDecision_IsFinish(t *testing.T) {
	assert.True(t, RoutingDecision{Next: "FINISH"}.IsFinish())
	assert.False(t, RoutingDecision{Next: "Notifier"}.IsFinish())
}

func TestWorkflowState_Get(t *testing.T) {
	state := NewWorkflowState("pods crashing")
	state.Context[KeyNamespace] = ""

	assert.Equal(t, "pods crashing", state.Get(KeyProblem, ""))
	assert.Equal(t, DefaultDeployment, state.Get(KeyDeployment, DefaultDeployment))
	// Present but empty keys are returned as-is.
	assert.Equal(t, "", state.Get(KeyNamespace, DefaultNamespace))
	assert.Equal(t, 0, state.IterationCount)

	_, ok := state.LastMessage()
	assert.False(t, ok)
}

func TestErrors_Unwrap(t *testing.T) {
	var err error = &ValidationError{Field: "namespace", Reason: "must be a DNS-1123 label"}
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid namespace: must be a DNS-1123 label", err.Error())

	cause := errors.New("connection refused")
	err = &LoopAbortError{Step: 2, Err: &CapabilityError{Capability: "supervisor", Op: "route", Err: cause}}
	assert.ErrorIs(t, err, cause)

	var capErr *CapabilityError
	assert.ErrorAs(t, err, &capErr)
	assert.Equal(t, "route", capErr.Op)
}
