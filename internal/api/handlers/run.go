package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/internal/pipeline"
	"github.com/triadlabs/triad/internal/store"
	"github.com/triadlabs/triad/pkg/logger"
)

// Runner executes one end-to-end consensus run.
type Runner interface {
	Execute(ctx context.Context, tickers []string, asOf time.Time) (*pipeline.Report, error)
}

// RunLister reads persisted runs.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
}

// RunHandler serves the consensus run endpoints.
type RunHandler struct {
	runner  Runner
	lister  RunLister
	logger  *logger.Logger
	tickers []string
}

// NewRunHandler creates the handler. lister may be nil when persistence is
// disabled; defaultTickers serves requests that omit the universe.
func NewRunHandler(runner Runner, lister RunLister, defaultTickers []string, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runner:  runner,
		lister:  lister,
		logger:  log,
		tickers: defaultTickers,
	}
}

type runRequest struct {
	AsOf    string   `json:"as_of"`
	Tickers []string `json:"tickers,omitempty"`
}

// Run executes a consensus run for the requested as-of date.
func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	asOf, err := time.Parse("2006-01-02", req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "as_of must be an ISO date (YYYY-MM-DD)")
		return
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = h.tickers
	}

	report, err := h.runner.Execute(r.Context(), tickers, asOf)
	if err != nil {
		h.logger.WithError(err).Error("run failed")
		status := http.StatusInternalServerError
		if errors.Is(err, contracts.ErrInvalidInput) {
			status = http.StatusBadRequest
		} else if errors.Is(err, contracts.ErrDataUnavailable) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// List returns recently persisted runs.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeError(w, http.StatusNotImplemented, "persistence is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.lister.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
