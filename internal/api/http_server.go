package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flight-state-table/internal/export"
	"flight-state-table/internal/history"
	"flight-state-table/internal/ingest"
	"flight-state-table/internal/metrics"
	"flight-state-table/internal/model"
	"flight-state-table/internal/scheduler"
	"flight-state-table/internal/table"
	"flight-state-table/pkg/logger"
	"flight-state-table/pkg/utils"
)

// Trigger requests a manual ingestion cycle.
type Trigger interface {
	Trigger() error
	Limiter() *scheduler.TriggerLimiter
}

// Server represents the HTTP API server
type Server struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	table   *table.Table
	history *history.Ring[ingest.Result]
	trigger Trigger
	stream  http.Handler
}

// NewServer creates a new HTTP server instance. history and stream may be nil.
func NewServer(log *logger.Logger, m *metrics.Metrics, tbl *table.Table, hist *history.Ring[ingest.Result], trig Trigger, stream http.Handler) *Server {
	return &Server{
		logger:  log,
		metrics: m,
		table:   tbl,
		history: hist,
		trigger: trig,
		stream:  stream,
	}
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.Handle("/health", s.instrument("/health", s.handleHealth))
	mux.Handle("/metrics", s.instrument("/metrics", s.handleMetrics))
	mux.Handle("/states", s.instrument("/states", s.handleStates))
	mux.Handle("/refresh", s.instrument("/refresh", s.handleRefresh))
	mux.Handle("/cycles", s.instrument("/cycles", s.handleCycles))
	mux.Handle("/export/", s.instrument("/export", s.handleExport))
	if s.stream != nil {
		// Not instrumented: the upgrader needs the raw http.Hijacker.
		mux.Handle("/ws", s.stream)
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.RecordHTTPRequest(route, rec.status)
	})
}

// handleHealth returns the health status of the service
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	updated := s.table.UpdatedAt()
	response := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().Unix(),
		"uptime":     s.metrics.GetUptime().String(),
		"rows":       s.table.Len(),
		"updated_at": utils.FormatTime(updated),
		"table_age":  utils.Age(updated, time.Now()).String(),
	}
	if s.history != nil {
		response["cycles_recorded"] = s.history.Count()
		if last, ok := s.history.Latest(); ok {
			response["last_cycle"] = last
			if last.ResponseTime > 0 {
				response["last_response_time"] = utils.FormatTimestamp(last.ResponseTime)
			}
		}
	}
	if limiter := s.trigger.Limiter(); limiter != nil {
		accepted, limited := limiter.GetStats()
		response["manual_refresh"] = map[string]int64{
			"accepted": accepted,
			"limited":  limited,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleMetrics serves Prometheus metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.metrics.Handler().ServeHTTP(w, r)
}

type statesResponse struct {
	Headers   []string    `json:"headers"`
	Rows      []model.Row `json:"rows"`
	Count     int         `json:"count"`
	UpdatedAt string      `json:"updated_at"`
}

// handleStates returns the current table
func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows := s.table.Rows()
	if rows == nil {
		rows = []model.Row{}
	}

	s.writeJSON(w, http.StatusOK, statesResponse{
		Headers:   model.Headers(),
		Rows:      rows,
		Count:     len(rows),
		UpdatedAt: utils.FormatTime(s.table.UpdatedAt()),
	})
}

// handleRefresh requests a manual cycle without waiting for it
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := s.trigger.Trigger()
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"status":    "accepted",
			"timestamp": time.Now().Unix(),
		})
	case errors.Is(err, scheduler.ErrTriggerLimited):
		s.logger.Debug("Manual refresh rejected: %v", err)
		s.writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"status": "limited",
			"error":  err.Error(),
		})
	case errors.Is(err, scheduler.ErrNotRunning):
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
			"error":  err.Error(),
		})
	default:
		s.logger.Error("Manual refresh failed: %v", err)
		http.Error(w, "Refresh failed", http.StatusInternalServerError)
	}
}

// handleCycles returns recent cycle results, newest first
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cycles := []ingest.Result{}
	if s.history != nil {
		limit := s.history.Cap()
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			n, err := parsePositiveInt(limitStr)
			if err != nil {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		cycles = append(cycles, s.history.Recent(limit)...)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cycles":    cycles,
		"count":     len(cycles),
		"timestamp": time.Now().Unix(),
	})
}

// handleExport renders the current table as /export/{csv,xlsx,pdf}
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format, err := export.ParseFormat(strings.TrimPrefix(r.URL.Path, "/export/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	at := s.table.UpdatedAt()
	data, err := export.Render(format, s.table.Rows(), at)
	if err != nil {
		s.logger.Error("Failed to render %s export: %v", format, err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	stamp := "empty"
	if !at.IsZero() {
		stamp = at.UTC().Format("20060102T150405Z")
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"states-%s.%s\"", stamp, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write %s export: %v", format, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return n, nil
}
