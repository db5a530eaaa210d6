package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asif-shah786/zoopla-scraper/internal/crime"
	"github.com/Asif-shah786/zoopla-scraper/internal/ledger"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

func testAggregator() *crime.Aggregator {
	src := crime.IncidentSourceFunc(func(_ context.Context, _, _ float64, month model.MonthKey) ([]model.Incident, error) {
		return []model.Incident{{Category: "anti-social-behaviour", Month: string(month)}}, nil
	})
	return crime.New(src,
		crime.WithClock(func() time.Time { return time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC) }),
		crime.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
}

func newTestServer(t *testing.T, store ledger.Store, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(nil, testAggregator(), store, opts...).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T) *ledger.SQLiteStore {
	t.Helper()
	st, err := ledger.NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func getJSON(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := getJSON(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/extract", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestExtract(t *testing.T) {
	srv := newTestServer(t, nil)
	html := `<script id="__ZAD_TARGETING__">{"listing_id": 123, "price": 250000, "num_beds": 2}</script>`
	resp := postJSON(t, srv.URL+"/v1/extract", map[string]any{
		"html": html,
		"poi": []model.Point{
			{Kind: model.PointSchool, Name: "St Mary's", DistanceMiles: 0.42},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec map[string]any
	decodeBody(t, resp, &rec)
	assert.Equal(t, "123", rec["listing_id"])
	assert.Equal(t, "250000", rec["price"])
	assert.Equal(t, "2", rec["bedrooms"])
	assert.Equal(t, "St Mary's (0.4 miles)", rec["nearest_schools"])
}

func TestExtract_BadRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/extract", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	raw, err := http.Post(srv.URL+"/v1/extract", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer raw.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestCrime(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := postJSON(t, srv.URL+"/v1/crime", map[string]any{
		"lat": 53.5, "lng": -2.6, "address": "12 Elm Street", "postcode": "WN1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sum model.CrimeSummary
	decodeBody(t, resp, &sum)
	assert.Equal(t, 6, sum.Aggregate.Total)
	assert.Equal(t, model.TrendStable, sum.Aggregate.Trend)
	assert.Equal(t, "🟡 12 Elm Street (WN1): Moderate crime - 6 incidents within 1.0km radius (near Unknown), mainly Anti Social Behaviour (stable trend)", sum.Summary)
}

func TestCrime_Radius(t *testing.T) {
	srv := newTestServer(t, nil, WithRadius(2))
	resp := postJSON(t, srv.URL+"/v1/crime", map[string]any{"lat": 53.5, "lng": -2.6})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sum model.CrimeSummary
	decodeBody(t, resp, &sum)
	assert.Contains(t, sum.Summary, "within 2.0km radius")
}

func TestCrime_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/crime", map[string]any{"lat": 53.5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/v1/crime", map[string]any{"lat": 95.0, "lng": 0.0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatch(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := postJSON(t, srv.URL+"/v1/match", map[string]any{
		"records": []map[string]any{
			{"property_id": "1", "latitude": 53.500001, "longitude": -2.6},
			{"property_id": "2", "address": "Oak Road"},
		},
		"summaries": []model.CrimeSummary{
			{Address: "x", Lat: 53.5, Lng: -2.6, Summary: "near"},
			{Address: " oak road ", Summary: "by address"},
			{Address: "nowhere", Lat: 1, Lng: 1, Summary: "miss"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Records   []map[string]any `json:"records"`
		Unmatched int              `json:"unmatched"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Records, 2)
	assert.Equal(t, "near", body.Records[0]["crime_summary"])
	assert.Equal(t, "by address", body.Records[1]["crime_summary"])
	assert.Equal(t, 1, body.Unmatched)
}

func TestRuns_NoStore(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := getJSON(t, srv.URL+"/v1/runs")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRuns_ListAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	run1, err := st.CreateRun(ctx, 1, "runs/run_1")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, 2, "runs/run_2")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, run1.ID, model.RunStatusCompleted))
	_, err = st.CreateStage(ctx, run1.ID, model.StageScraping)
	require.NoError(t, err)

	srv := newTestServer(t, st)

	resp := getJSON(t, srv.URL+"/v1/runs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs []model.Run
	decodeBody(t, resp, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Number)

	resp = getJSON(t, srv.URL+"/v1/runs?status=completed")
	runs = nil
	decodeBody(t, resp, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, run1.ID, runs[0].ID)

	resp = getJSON(t, srv.URL+"/v1/runs/"+run1.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Run    model.Run     `json:"run"`
		Stages []model.Stage `json:"stages"`
	}
	decodeBody(t, resp, &got)
	assert.Equal(t, "runs/run_1", got.Run.Dir)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, model.StageScraping, got.Stages[0].Name)
}

func TestRuns_NotFoundAndBadParams(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	resp := getJSON(t, srv.URL+"/v1/runs/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/v1/runs?limit=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/v1/runs?offset=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
