package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/internal/pipeline"
	"github.com/triadlabs/triad/internal/store"
	"github.com/triadlabs/triad/pkg/logger"
)

type stubRunner struct {
	report  *pipeline.Report
	err     error
	tickers []string
	asOf    time.Time
}

func (s *stubRunner) Execute(_ context.Context, tickers []string, asOf time.Time) (*pipeline.Report, error) {
	s.tickers = tickers
	s.asOf = asOf
	return s.report, s.err
}

type stubLister struct {
	runs []store.RunSummary
	err  error
}

func (s *stubLister) RecentRuns(context.Context, int) ([]store.RunSummary, error) {
	return s.runs, s.err
}

func emptyReport() *pipeline.Report {
	return &pipeline.Report{Run: &pipeline.Result{Consensus: &contracts.Recommendation{}}}
}

func TestRunHandlerDefaults(t *testing.T) {
	runner := &stubRunner{report: emptyReport()}
	h := NewRunHandler(runner, nil, []string{"AAPL", "MSFT"}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"as_of":"2024-05-01"}`))
	w := httptest.NewRecorder()
	h.Run(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"AAPL", "MSFT"}, runner.tickers)
	assert.Equal(t, "2024-05-01", runner.asOf.Format("2006-01-02"))
}

func TestRunHandlerExplicitTickers(t *testing.T) {
	runner := &stubRunner{report: emptyReport()}
	h := NewRunHandler(runner, nil, []string{"AAPL"}, logger.NewNop())

	body := `{"as_of":"2024-05-01","tickers":["NVDA","TSLA"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Run(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"NVDA", "TSLA"}, runner.tickers)
}

func TestRunHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing date", `{}`},
		{"bad date format", `{"as_of":"05/01/2024"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRunHandler(&stubRunner{}, nil, nil, logger.NewNop())
			req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Run(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRunHandlerInvalidInputStatus(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w: date too recent", contracts.ErrInvalidInput)}
	h := NewRunHandler(runner, nil, nil, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"as_of":"2024-05-01"}`))
	w := httptest.NewRecorder()
	h.Run(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "date too recent")
}

func TestRunHandlerDataUnavailableStatus(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w: no prices", contracts.ErrDataUnavailable)}
	h := NewRunHandler(runner, nil, nil, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"as_of":"2024-05-01"}`))
	w := httptest.NewRecorder()
	h.Run(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListHandler(t *testing.T) {
	lister := &stubLister{runs: []store.RunSummary{{ID: 1, Tickers: []string{"AAPL"}}}}
	h := NewRunHandler(&stubRunner{}, lister, nil, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runs"`)
}

func TestListHandlerWithoutPersistence(t *testing.T) {
	h := NewRunHandler(&stubRunner{}, nil, nil, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestListHandlerBadLimit(t *testing.T) {
	h := NewRunHandler(&stubRunner{}, &stubLister{}, nil, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=zero", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
