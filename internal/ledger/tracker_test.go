package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

func stepClock(start time.Time, step time.Duration) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

var allStages = []string{model.StageScraping, model.StageCrimeData, model.StagePreprocessing}

func TestTracker_AllStagesComplete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	run, err := st.CreateRun(ctx, 1, "runs/run_1")
	require.NoError(t, err)

	tr := NewTracker(st, run, allStages...)
	tr.now = stepClock(run.CreatedAt, time.Second)

	for _, name := range allStages {
		err := tr.Track(ctx, name, func(context.Context) (StageOutput, error) {
			return StageOutput{Artifact: name + ".json", Metrics: map[string]int{"records": 2}}, nil
		})
		require.NoError(t, err)
	}

	sum := tr.Finish(ctx)
	assert.Equal(t, model.RunStatusCompleted, sum.OverallStatus)
	assert.Equal(t, 1, sum.RunNumber)
	assert.Equal(t, "runs/run_1", sum.RunDirectory)
	require.Len(t, sum.Stages, 3)
	scrape := sum.Stages[model.StageScraping]
	assert.Equal(t, model.StageStatusCompleted, scrape.Status)
	assert.Equal(t, int64(1000), scrape.Duration)
	assert.Empty(t, scrape.Error)
	require.NotNil(t, scrape.Start)
	require.NotNil(t, scrape.End)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)

	stages, err := st.ListStages(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	for i, s := range stages {
		assert.Equal(t, allStages[i], s.Name)
		assert.Equal(t, model.StageStatusCompleted, s.Status)
	}
}

func TestTracker_FailureLeavesLaterStagesPending(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	run, err := st.CreateRun(ctx, 2, "runs/run_2")
	require.NoError(t, err)

	tr := NewTracker(st, run, allStages...)
	require.NoError(t, tr.Track(ctx, model.StageScraping, func(context.Context) (StageOutput, error) {
		return StageOutput{}, nil
	}))
	err = tr.Track(ctx, model.StageCrimeData, func(context.Context) (StageOutput, error) {
		return StageOutput{}, errors.New("no coordinates")
	})
	require.EqualError(t, err, "no coordinates")

	sum := tr.Finish(ctx)
	assert.Equal(t, model.RunStatusFailed, sum.OverallStatus)
	assert.Equal(t, model.StageStatusFailed, sum.Stages[model.StageCrimeData].Status)
	assert.Equal(t, "no coordinates", sum.Stages[model.StageCrimeData].Error)
	pre := sum.Stages[model.StagePreprocessing]
	assert.Equal(t, model.StageStatusPending, pre.Status)
	assert.Nil(t, pre.Start)
	assert.Nil(t, pre.End)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
}

func TestTracker_WithoutStore(t *testing.T) {
	run := &model.Run{ID: "mem", Number: 1, CreatedAt: time.Now().UTC()}
	tr := NewTracker(nil, run)

	require.NoError(t, tr.Track(context.Background(), "adhoc", func(context.Context) (StageOutput, error) {
		return StageOutput{Metrics: map[string]int{"n": 1}}, nil
	}))
	sum := tr.Finish(context.Background())
	assert.Equal(t, model.RunStatusCompleted, sum.OverallStatus)
	assert.Equal(t, 1, sum.Stages["adhoc"].Metrics["n"])
}

func TestTracker_NoStagesRunIsFailed(t *testing.T) {
	run := &model.Run{ID: "mem", Number: 1, CreatedAt: time.Now().UTC()}
	sum := NewTracker(nil, run, allStages...).Summary()
	assert.Equal(t, model.RunStatusFailed, sum.OverallStatus)
	for _, name := range allStages {
		assert.Equal(t, model.StageStatusPending, sum.Stages[name].Status)
	}
}
