// Package state persists run history locally. Harvested entities never land
// here; the store only remembers that runs happened, how they ended, and
// which warnings they produced.
package state

import (
	"time"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one ingestion run.
type Run struct {
	ID          string     `json:"id"`
	Workflow    string     `json:"workflow"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	// StatsJSON is the serialized RunSummary of a finished run.
	StatsJSON string `json:"stats,omitempty"`
}

// Store is the run history store.
type Store interface {
	CreateRun(workflow string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg, statsJSON string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	SaveWarnings(runID string, warnings []meta.Warning) error
	GetWarnings(runID string) ([]meta.Warning, error)
	Close() error
}
