// Package ledger records pipeline runs, their stage outcomes, and the
// geocode cache.
package ledger

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

const defaultListLimit = 100

// ErrNotFound is wrapped by lookups and updates that match no row.
var ErrNotFound = eris.New("not found")

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, number int, dir string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stages
	CreateStage(ctx context.Context, runID, name string) (*model.Stage, error)
	CompleteStage(ctx context.Context, stageID string, result *model.StageResult) error
	ListStages(ctx context.Context, runID string) ([]model.Stage, error)

	// Geocode cache. A miss returns nil, nil.
	GetCachedGeocode(ctx context.Context, query string) (*model.GeoResult, error)
	SetCachedGeocode(ctx context.Context, query string, result *model.GeoResult) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
