package model

import "time"

// RunStatus represents the overall state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StageStatus represents the state of one pipeline stage.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusRunning   StageStatus = "running"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// Stage names used by the pipeline.
const (
	StageScraping      = "scraping"
	StageCrimeData     = "crime_data"
	StagePreprocessing = "preprocessing"
)

// Run is one execution of the pipeline.
type Run struct {
	ID        string    `json:"id"`
	Number    int       `json:"run_number"`
	Dir       string    `json:"run_directory"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is one tracked step within a run.
type Stage struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    StageStatus  `json:"status"`
	Result    *StageResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// StageResult holds the outcome of a stage.
type StageResult struct {
	Name     string         `json:"name"`
	Status   StageStatus    `json:"status"`
	Start    *time.Time     `json:"start"`
	End      *time.Time     `json:"end"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error"`
	Artifact string         `json:"artifact,omitempty"`
	Metrics  map[string]int `json:"metrics,omitempty"`
}

// RunSummary is written at the end of every run.
type RunSummary struct {
	RunID                string                 `json:"run_id"`
	RunNumber            int                    `json:"run_number"`
	StartTime            time.Time              `json:"start_time"`
	EndTime              time.Time              `json:"end_time"`
	TotalDurationSeconds float64                `json:"total_duration_seconds"`
	RunDirectory         string                 `json:"run_directory"`
	Stages               map[string]StageResult `json:"steps"`
	OverallStatus        RunStatus              `json:"overall_status"`
}
