//go:build !integration

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Number:    2,
			Dir:       "runs/run_2",
			Status:    model.RunStatusCompleted,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Number:    1,
			Dir:       "runs/run_1",
			Status:    model.RunStatusFailed,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "DIRECTORY")
	assert.Contains(t, output, "#2")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "runs/run_1")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "2025-06-15 10:30:00")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestFormatRunsList_AlignsWideCells(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{ID: "a", Number: 1, Dir: "runs/曼彻斯特", Status: model.RunStatusCompleted, CreatedAt: now},
		{ID: "b", Number: 2, Dir: "runs/x", Status: model.RunStatusCompleted, CreatedAt: now},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	created := func(line string) int {
		idx := strings.Index(line, "2025-")
		if idx < 0 {
			idx = strings.Index(line, "CREATED")
		}
		return runewidth.StringWidth(line[:idx])
	}
	assert.Equal(t, created(lines[0]), created(lines[1]))
	assert.Equal(t, created(lines[1]), created(lines[2]))
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	runs := []model.Run{
		{ID: "1", Number: 1, Status: model.RunStatusCompleted, CreatedAt: now, UpdatedAt: now.Add(60 * time.Second)},
		{ID: "2", Number: 2, Status: model.RunStatusCompleted, CreatedAt: now, UpdatedAt: now.Add(120 * time.Second)},
		{ID: "3", Number: 3, Status: model.RunStatusFailed, CreatedAt: now, UpdatedAt: now.Add(30 * time.Second)},
		{ID: "4", Number: 4, Status: model.RunStatusRunning, CreatedAt: now, UpdatedAt: now.Add(10 * time.Second)},
	}

	stats := computeRunStats(runs)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Running)
	assert.Equal(t, 70*time.Second, stats.AvgDuration)
	assert.Equal(t, 4, stats.LastNumber)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)
	output := buf.String()
	assert.Contains(t, output, "Total runs:     4")
	assert.Contains(t, output, "Success rate:   50.0%")
	assert.Contains(t, output, "Avg duration:   1m10s")
	assert.Contains(t, output, "Last run:       #4")
}

func TestRunsStats_Empty(t *testing.T) {
	stats := computeRunStats(nil)
	assert.Zero(t, stats.Total)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)
	assert.NotContains(t, buf.String(), "Success rate")
}

func TestRunsSince(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{ID: "old", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "new", CreatedAt: now.Add(-time.Hour)},
	}

	got := runsSince(runs, now.Add(-24*time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	assert.Len(t, runs, 2)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
