package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// StageOutput is what a tracked stage reports on success.
type StageOutput struct {
	Artifact string
	Metrics  map[string]int
}

// StageFunc is the body of a tracked stage.
type StageFunc func(ctx context.Context) (StageOutput, error)

// Tracker records the stages of one run. A nil store keeps results in
// memory only.
type Tracker struct {
	store Store
	run   *model.Run
	now   func() time.Time
	log   *zap.Logger

	mu      sync.Mutex
	order   []string
	results map[string]*model.StageResult
}

// NewTracker creates a tracker for run with the expected stages marked
// pending.
func NewTracker(store Store, run *model.Run, stages ...string) *Tracker {
	t := &Tracker{
		store:   store,
		run:     run,
		now:     func() time.Time { return time.Now().UTC() },
		log:     zap.L().With(zap.String("run_id", run.ID), zap.Int("run_number", run.Number)),
		results: make(map[string]*model.StageResult, len(stages)),
	}
	for _, name := range stages {
		t.register(name)
	}
	return t
}

func (t *Tracker) register(name string) *model.StageResult {
	if r, ok := t.results[name]; ok {
		return r
	}
	r := &model.StageResult{Name: name, Status: model.StageStatusPending}
	t.results[name] = r
	t.order = append(t.order, name)
	return r
}

// Track runs fn as stage name and records its outcome. The returned error
// is fn's error.
func (t *Tracker) Track(ctx context.Context, name string, fn StageFunc) error {
	start := t.now()
	t.mu.Lock()
	r := t.register(name)
	r.Status = model.StageStatusRunning
	r.Start = &start
	t.mu.Unlock()

	var stage *model.Stage
	if t.store != nil {
		var err error
		stage, err = t.store.CreateStage(ctx, t.run.ID, name)
		if err != nil {
			t.log.Warn("ledger: failed to create stage", zap.String("stage", name), zap.Error(err))
		}
	}
	t.log.Info("ledger: stage started", zap.String("stage", name))

	out, fnErr := fn(ctx)
	end := t.now()

	t.mu.Lock()
	r.End = &end
	r.Duration = end.Sub(start).Milliseconds()
	r.Artifact = out.Artifact
	r.Metrics = out.Metrics
	if fnErr != nil {
		r.Status = model.StageStatusFailed
		r.Error = fnErr.Error()
	} else {
		r.Status = model.StageStatusCompleted
	}
	snapshot := *r
	t.mu.Unlock()

	if fnErr != nil {
		t.log.Error("ledger: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", snapshot.Duration),
			zap.Error(fnErr),
		)
	} else {
		t.log.Info("ledger: stage completed",
			zap.String("stage", name),
			zap.Int64("duration_ms", snapshot.Duration),
			zap.Any("metrics", snapshot.Metrics),
		)
	}

	if stage != nil {
		if err := t.store.CompleteStage(ctx, stage.ID, &snapshot); err != nil {
			t.log.Warn("ledger: failed to complete stage", zap.String("stage", name), zap.Error(err))
		}
	}
	return fnErr
}

// Summary reports the run as recorded so far.
func (t *Tracker) Summary() model.RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.now()
	stages := make(map[string]model.StageResult, len(t.results))
	overall := model.RunStatusCompleted
	for _, name := range t.order {
		r := *t.results[name]
		stages[name] = r
		if r.Status != model.StageStatusCompleted {
			overall = model.RunStatusFailed
		}
	}
	return model.RunSummary{
		RunID:                t.run.ID,
		RunNumber:            t.run.Number,
		StartTime:            t.run.CreatedAt,
		EndTime:              end,
		TotalDurationSeconds: end.Sub(t.run.CreatedAt).Seconds(),
		RunDirectory:         t.run.Dir,
		Stages:               stages,
		OverallStatus:        overall,
	}
}

// Finish computes the summary and records the run's final status.
func (t *Tracker) Finish(ctx context.Context) model.RunSummary {
	sum := t.Summary()
	if t.store != nil {
		if err := t.store.UpdateRunStatus(ctx, t.run.ID, sum.OverallStatus); err != nil {
			t.log.Warn("ledger: failed to update run status", zap.Error(err))
		}
	}
	t.log.Info("ledger: run finished",
		zap.String("status", string(sum.OverallStatus)),
		zap.Float64("duration_s", sum.TotalDurationSeconds),
	)
	return sum
}
