package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, 3, "runs/run_3")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusCompleted))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Number)
	assert.Equal(t, "runs/run_3", got.Dir)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "run missing")
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "run missing")
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		run, err := st.CreateRun(ctx, i, fmt.Sprintf("runs/run_%d", i))
		require.NoError(t, err)
		if i == 2 {
			require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed))
		}
	}

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Number)
	assert.Equal(t, 1, all[2].Number)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Number)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 2, page[0].Number)
}

func TestSQLite_Stages(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, 1, "runs/run_1")
	require.NoError(t, err)

	scrape, err := st.CreateStage(ctx, run.ID, model.StageScraping)
	require.NoError(t, err)
	crime, err := st.CreateStage(ctx, run.ID, model.StageCrimeData)
	require.NoError(t, err)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)
	require.NoError(t, st.CompleteStage(ctx, scrape.ID, &model.StageResult{
		Name:     model.StageScraping,
		Status:   model.StageStatusCompleted,
		Start:    &start,
		End:      &end,
		Duration: 2000,
		Artifact: "scraped_data.json",
		Metrics:  map[string]int{"records": 2},
	}))

	stages, err := st.ListStages(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, model.StageScraping, stages[0].Name)
	assert.Equal(t, model.StageStatusCompleted, stages[0].Status)
	require.NotNil(t, stages[0].Result)
	assert.Equal(t, 2, stages[0].Result.Metrics["records"])
	assert.Equal(t, "scraped_data.json", stages[0].Result.Artifact)

	assert.Equal(t, crime.ID, stages[1].ID)
	assert.Equal(t, model.StageStatusRunning, stages[1].Status)
	assert.Nil(t, stages[1].Result)
}

func TestSQLite_CompleteStage_Errors(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.CompleteStage(ctx, "missing", &model.StageResult{Status: model.StageStatusFailed})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "stage missing")

	err = st.CompleteStage(ctx, "missing", nil)
	require.Error(t, err)
}

func TestSQLite_GeocodeCache(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	key := "1 mill lane, manchester, united kingdom"

	miss, err := st.GetCachedGeocode(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, st.SetCachedGeocode(ctx, key, &model.GeoResult{
		Query: key, Latitude: 53.48, Longitude: -2.24, Postcode: "M1 1AA", Matched: true,
	}))
	require.NoError(t, st.SetCachedGeocode(ctx, key, &model.GeoResult{
		Query: key, Latitude: 53.49, Longitude: -2.25, Postcode: "M1 1AB", Matched: true,
	}))

	hit, err := st.GetCachedGeocode(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "M1 1AB", hit.Postcode)
	assert.InDelta(t, 53.49, hit.Latitude, 1e-9)
}
