// Package server exposes extraction, crime profiling, matching, and the run
// ledger over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/crime"
	"github.com/Asif-shah786/zoopla-scraper/internal/extract"
	"github.com/Asif-shah786/zoopla-scraper/internal/ledger"
	"github.com/Asif-shah786/zoopla-scraper/internal/match"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

const maxBodyBytes = 8 << 20

// Server serves the HTTP API.
type Server struct {
	engine   *extract.Engine
	agg      *crime.Aggregator
	store    ledger.Store
	radiusKm float64
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRadius sets the radius quoted in crime summaries.
func WithRadius(km float64) Option {
	return func(s *Server) {
		if km > 0 {
			s.radiusKm = km
		}
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a Server. store may be nil, in which case the run endpoints
// answer 503.
func New(engine *extract.Engine, agg *crime.Aggregator, store ledger.Store, opts ...Option) *Server {
	if engine == nil {
		engine = extract.New()
	}
	s := &Server{
		engine:   engine,
		agg:      agg,
		store:    store,
		radiusKm: crime.DefaultRadiusKm,
		timeout:  2 * time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.extractRecord)
		r.Post("/crime", s.crimeSummary)
		r.Post("/match", s.matchRecords)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	HTML string        `json:"html"`
	Text string        `json:"text"`
	POI  []model.Point `json:"poi"`
}

func (s *Server) extractRecord(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decode(w, r, &req) {
		return
	}
	if req.HTML == "" && req.Text == "" {
		writeError(w, http.StatusBadRequest, "html or text is required")
		return
	}
	rec := s.engine.Extract(model.Document{Raw: req.HTML, Text: req.Text}, req.POI)
	writeJSON(w, http.StatusOK, rec)
}

type crimeRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Address  string   `json:"address"`
	Postcode string   `json:"postcode"`
}

func (s *Server) crimeSummary(w http.ResponseWriter, r *http.Request) {
	if s.agg == nil {
		writeError(w, http.StatusServiceUnavailable, "crime lookups are not configured")
		return
	}
	var req crimeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		writeError(w, http.StatusBadRequest, "lat or lng out of range")
		return
	}

	sum := crime.Summarize(r.Context(), s.agg, crime.Target{
		Address:  req.Address,
		Postcode: req.Postcode,
		Lat:      *req.Lat,
		Lng:      *req.Lng,
	})
	if s.radiusKm != crime.DefaultRadiusKm {
		sum.Summary = crime.BuildSummaryRadius(sum.Address, sum.Postcode, sum.Aggregate, s.radiusKm)
	}
	writeJSON(w, http.StatusOK, sum)
}

type matchRequest struct {
	Records   []model.Record       `json:"records"`
	Summaries []model.CrimeSummary `json:"summaries"`
}

type matchResponse struct {
	Records   []model.Record `json:"records"`
	Unmatched int            `json:"unmatched"`
}

func (s *Server) matchRecords(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decode(w, r, &req) {
		return
	}
	recs, unmatched := match.MatchAndMerge(req.Records, req.Summaries)
	if recs == nil {
		recs = []model.Record{}
	}
	writeJSON(w, http.StatusOK, matchResponse{Records: recs, Unmatched: unmatched})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger is not configured")
		return
	}
	q := r.URL.Query()
	filter := ledger.RunFilter{Status: model.RunStatus(q.Get("status"))}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

type runResponse struct {
	Run    *model.Run    `json:"run"`
	Stages []model.Stage `json:"stages"`
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if eris.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	stages, err := s.store.ListStages(r.Context(), id)
	if err != nil {
		zap.L().Error("server: list stages", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list stages failed")
		return
	}
	if stages == nil {
		stages = []model.Stage{}
	}
	writeJSON(w, http.StatusOK, runResponse{Run: run, Stages: stages})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
