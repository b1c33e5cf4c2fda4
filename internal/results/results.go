// Package results records per-item outcomes of export and import steps and
// writes them as JSON files a later run (or a human) can audit.
package results

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phxport/phxport/internal/bundle"
	"github.com/phxport/phxport/internal/constants"
)

// Status of one item within a step.
const (
	StatusExported      = "exported"
	StatusImported      = "imported"
	StatusAlreadyExists = "already_exists"
	StatusSkipped       = "skipped"
	StatusFailed        = "failed"
)

// Item is the outcome for one resource.
type Item struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Step collects item outcomes for one pipeline step. Safe for concurrent
// use; project steps record from multiple goroutines.
type Step struct {
	mu sync.Mutex

	Name       string    `json:"step"`
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      []Item    `json:"items"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// NewStep starts a result record for a named step.
func NewStep(name, runID string) *Step {
	return &Step{
		Name:      name,
		RunID:     runID,
		StartedAt: time.Now().UTC(),
	}
}

// Record adds one item outcome. A nil err with a non-failed status counts
// as success.
func (s *Step) Record(name, status string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{Name: name, Status: status}
	if err != nil {
		item.Error = err.Error()
	}
	s.Items = append(s.Items, item)

	if status == StatusFailed {
		s.Failed++
	} else {
		s.Succeeded++
	}
}

// HasFailures reports whether any item failed.
func (s *Step) HasFailures() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Failed > 0
}

// Len returns the number of recorded items.
func (s *Step) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Items)
}

// Write finalizes the step and writes results/<type>_<kind>_results.json
// under dir, where type is the singular item type of the step (the datasets
// step writes dataset_export_results.json). kind is "export" or "import".
func (s *Step) Write(dir, kind string) (string, error) {
	s.mu.Lock()
	s.FinishedAt = time.Now().UTC()
	s.mu.Unlock()

	path := filepath.Join(dir, constants.ResultsDir, fmt.Sprintf("%s_%s_results.json", strings.TrimSuffix(s.Name, "s"), kind))
	if err := bundle.WriteJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}
