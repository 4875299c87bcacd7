// Package file stores workflow reports as JSON files, so run history survives
// across CLI invocations without a Redis server.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/autofix/pkg/domain"
)

// DefaultDir is used when New is given an empty directory.
var DefaultDir = filepath.Join(".autofix", "runs")

const ext = ".json"

// Store implements ports.RunStore using the local filesystem.
// One file per run, named after the run ID.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

// Save persists the report atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, report *domain.WorkflowReport) error {
	if report == nil {
		return &domain.ValidationError{Field: "run_id", Reason: "must not be empty"}
	}
	if err := checkID(report.RunID); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// 1. Create Temp File
	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+report.RunID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Rename
	if err := os.Rename(tmpPath, s.path(report.RunID)); err != nil {
		return fmt.Errorf("failed to store run %s: %w", report.RunID, err)
	}
	return nil
}

// Load retrieves a report from its JSON file.
func (s *Store) Load(ctx context.Context, runID string) (*domain.WorkflowReport, error) {
	if err := checkID(runID); err != nil {
		return nil, domain.ErrRunNotFound
	}

	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var report domain.WorkflowReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &report, nil
}

// List returns the stored run IDs, least recently saved first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	type run struct {
		id  string
		mod time.Time
	}
	runs := make([]run, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed while listing
		}
		runs = append(runs, run{id: strings.TrimSuffix(name, ext), mod: info.ModTime()})
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].mod.Equal(runs[j].mod) {
			return runs[i].id < runs[j].id
		}
		return runs[i].mod.Before(runs[j].mod)
	})

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.id
	}
	return ids, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.BasePath, runID+ext)
}

// checkID keeps run IDs inside BasePath.
func checkID(runID string) error {
	switch {
	case runID == "":
		return &domain.ValidationError{Field: "run_id", Reason: "must not be empty"}
	case strings.ContainsAny(runID, `/\`), runID == "." || runID == "..", strings.HasPrefix(runID, "tmp-"):
		return &domain.ValidationError{Field: "run_id", Reason: "must be a plain identifier"}
	}
	return nil
}
