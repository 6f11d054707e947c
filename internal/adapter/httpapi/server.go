// Package httpapi exposes the pipeline to external consumers: health,
// readiness, and metrics endpoints plus the record/audit downloads the
// reference tool offered as UI buttons (JSON, BOM CSV, pivot summary,
// GeoJSON map points, cache refresh).
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wxjp/jma-warnings-etl/internal/domain"
	"github.com/wxjp/jma-warnings-etl/internal/export"
	"github.com/wxjp/jma-warnings-etl/internal/pipeline"
)

// Runner is the pipeline surface the API depends on.
type Runner interface {
	Run(ctx context.Context, url string, hours int) pipeline.Result
	Invalidate(url string, hours int)
	CheckReadiness(ctx context.Context) error
	DefaultHours() int
	FeedURL() string
}

// Server exposes the consumer-facing HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runner     Runner
	logger     *slog.Logger
}

// NewServer creates the HTTP server and routes.
func NewServer(addr string, runner Runner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Detail fetches for a cold cache can take many seconds; the
			// write timeout has to cover a full sequential fetch cycle.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/records.csv", s.handleRecordsCSV)
	mux.HandleFunc("GET /api/entries.csv", s.handleEntriesCSV)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/map.geojson", s.handleMapGeoJSON)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.runner.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	hours, ok := s.hoursParam(w, r)
	if !ok {
		return
	}
	result := s.runner.Run(r.Context(), s.runner.FeedURL(), hours)
	writeJSON(w, http.StatusOK, map[string]any{
		"hours":      hours,
		"count":      len(result.Records),
		"feed_error": result.FeedErr,
		"records":    result.Records,
	})
}

func (s *Server) handleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	hours, ok := s.hoursParam(w, r)
	if !ok {
		return
	}
	result := s.runner.Run(r.Context(), s.runner.FeedURL(), hours)
	data, err := export.RecordsCSV(result.Records)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeCSVDownload(w, "warnings_raw", data)
}

func (s *Server) handleEntriesCSV(w http.ResponseWriter, r *http.Request) {
	hours, ok := s.hoursParam(w, r)
	if !ok {
		return
	}
	result := s.runner.Run(r.Context(), s.runner.FeedURL(), hours)
	data, err := export.EntriesCSV(result.Entries)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeCSVDownload(w, "atom_feed", data)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	hours, ok := s.hoursParam(w, r)
	if !ok {
		return
	}
	result := s.runner.Run(r.Context(), s.runner.FeedURL(), hours)
	rows := export.Summarize(result.Records)
	writeJSON(w, http.StatusOK, map[string]any{
		"hours":      hours,
		"feed_error": result.FeedErr,
		"rows":       rows,
	})
}

func (s *Server) handleMapGeoJSON(w http.ResponseWriter, r *http.Request) {
	hours, ok := s.hoursParam(w, r)
	if !ok {
		return
	}
	result := s.runner.Run(r.Context(), s.runner.FeedURL(), hours)
	points := domain.BuildMapPoints(result.Records)

	features := make([]geoJSONFeature, 0, len(points))
	for _, p := range points {
		features = append(features, geoJSONFeature{
			Type:     "Feature",
			Geometry: geoJSONGeometry{Type: "Point", Coordinates: []float64{p.Geo.Lon, p.Geo.Lat}},
			Properties: map[string]any{
				"area":  p.Area,
				"kinds": p.Kinds,
				"count": p.Count,
			},
		})
	}
	writeJSON(w, http.StatusOK, geoJSONCollection{Type: "FeatureCollection", Features: features})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	hours, ok := s.hoursParam(w, r)
	if !ok {
		return
	}
	s.runner.Invalidate(s.runner.FeedURL(), hours)
	result := s.runner.Run(r.Context(), s.runner.FeedURL(), hours)
	writeJSON(w, http.StatusOK, map[string]any{
		"hours":      hours,
		"count":      len(result.Records),
		"feed_error": result.FeedErr,
	})
}

// hoursParam reads the optional hours query parameter, defaulting to the
// configured window and enforcing the 1-168 bound. Writes the error response
// itself and returns ok=false on bad input.
func (s *Server) hoursParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return s.runner.DefaultHours(), true
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 || hours > 168 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "hours must be an integer between 1 and 168",
		})
		return 0, false
	}
	return hours, true
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Geometry   geoJSONGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geoJSONGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeCSVDownload(w http.ResponseWriter, prefix string, data []byte) {
	filename := fmt.Sprintf("%s_%s.csv", prefix, time.Now().Format("20060102150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // best-effort response
}
