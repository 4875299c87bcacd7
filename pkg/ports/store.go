package ports

import (
	"context"

	"github.com/aretw0/autofix/pkg/domain"
)

// RunStore persists workflow reports so they can be looked up after the request ends.
type RunStore interface {
	// Save persists the report under its RunID.
	Save(ctx context.Context, report *domain.WorkflowReport) error

	// Load retrieves a report.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.WorkflowReport, error)

	// List returns the IDs of stored runs, oldest first.
	List(ctx context.Context) ([]string, error)
}
