package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/autofix/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		report := &domain.WorkflowReport{
			RunID:  runID,
			Status: domain.WorkflowCompleted,
			Transcript: []domain.TranscriptEntry{
				{Step: 1, Agent: domain.NameClusterFixer, Reasoning: "pods are crash-looping"},
				{Step: 2, Agent: domain.NameFinish, Reasoning: "fixed"},
			},
			FinalStep:    "completed",
			TerminatedBy: domain.TerminatedByFinish,
			Iterations:   1,
			Timestamp:    time.Now().UTC(),
		}

		err := store.Save(ctx, report)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.Status, loaded.Status)
		assert.Equal(t, report.Transcript, loaded.Transcript)
		assert.Equal(t, report.TerminatedBy, loaded.TerminatedBy)
		assert.Equal(t, 1, loaded.Iterations)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		err := store.Save(ctx, &domain.WorkflowReport{RunID: runID, Status: domain.WorkflowFailed, Error: "boom"})
		require.NoError(t, err)

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.WorkflowFailed, loaded.Status)
		assert.Equal(t, "boom", loaded.Error)
		assert.Empty(t, loaded.Transcript)
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, &domain.WorkflowReport{RunID: id1, Status: domain.WorkflowCompleted}))
		require.NoError(t, store.Save(ctx, &domain.WorkflowReport{RunID: id2, Status: domain.WorkflowCompleted}))

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})

	t.Run("Empty RunID", func(t *testing.T) {
		err := store.Save(ctx, &domain.WorkflowReport{Status: domain.WorkflowCompleted})
		assert.Error(t, err)
	})
}
