// Package server exposes the summary directory over HTTP for the sales
// dashboard: raw rows, headline stats, per-product and per-hour
// breakdowns, and a websocket that pushes fresh stats whenever the
// pipeline rewrites a summary file. Read-only by construction; nothing
// here ever writes to the output directory.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nicktill/salesagg/pkg/httpx"
	"github.com/nicktill/salesagg/pkg/summary"
)

// Server serves the read contract over one output directory.
type Server struct {
	outputRoot string
	log        *zap.Logger
	hub        *SummaryHub
	status     statusCache
}

// New builds a server over outputRoot. Start the returned hub's Run
// loop (and Watch, if live updates are wanted) separately.
func New(outputRoot string, log *zap.Logger) *Server {
	return &Server{
		outputRoot: outputRoot,
		log:        log,
		hub:        NewSummaryHub(outputRoot, log),
		status:     statusCache{ttl: time.Second},
	}
}

// Hub returns the live-update hub so the caller can run it.
func (s *Server) Hub() *SummaryHub { return s.hub }

// Router wires all routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/summaries", s.handleSummaries).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/products", s.handleProducts).Methods(http.MethodGet)
	api.HandleFunc("/hours", s.handleHours).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/live", s.hub.HandleLive)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// parseFilter turns optional ?start=YYYY-MM-DD&end=YYYY-MM-DD query
// params into the filename-prefix filter the reader understands.
func parseFilter(r *http.Request) (summary.Filter, error) {
	var f summary.Filter
	if v := r.URL.Query().Get("start"); v != "" {
		day, err := parseDay(v)
		if err != nil {
			return f, fmt.Errorf("start: %w", err)
		}
		f.Start = day
	}
	if v := r.URL.Query().Get("end"); v != "" {
		day, err := parseDay(v)
		if err != nil {
			return f, fmt.Errorf("end: %w", err)
		}
		f.End = day
	}
	if f.Start != "" && f.End != "" && f.Start > f.End {
		return f, fmt.Errorf("start must not be after end")
	}
	return f, nil
}

func parseDay(v string) (string, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return "", fmt.Errorf("want YYYY-MM-DD, got %q", v)
	}
	return t.Format("20060102"), nil
}

func (s *Server) readRows(w http.ResponseWriter, r *http.Request) ([]summary.Row, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rows, err := summary.ReadDir(s.outputRoot, filter)
	if err != nil {
		// The output dir not existing yet just means no completed runs.
		if errors.Is(err, os.ErrNotExist) {
			return nil, true
		}
		s.log.Error("summary read failed", zap.Error(err))
		httpx.RespondError(w, http.StatusInternalServerError, "summary directory unreadable")
		return nil, false
	}
	return rows, true
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readRows(w, r)
	if !ok {
		return
	}
	if rows == nil {
		rows = []summary.Row{}
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readRows(w, r)
	if !ok {
		return
	}
	httpx.RespondJSON(w, http.StatusOK, summary.Compute(rows))
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readRows(w, r)
	if !ok {
		return
	}
	products := summary.ByProduct(rows)
	if products == nil {
		products = []summary.ProductSales{}
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readRows(w, r)
	if !ok {
		return
	}
	hours := summary.ByHour(rows)
	if hours == nil {
		hours = []summary.HourSales{}
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"hours": hours,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.outputStatus()
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, "summary directory unreadable")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
