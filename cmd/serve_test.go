package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/findata-cli/internal/fetcher"
	"github.com/sells-group/findata-cli/internal/manager"
	"github.com/sells-group/findata-cli/internal/model"
	"github.com/sells-group/findata-cli/internal/resilience"
	"github.com/sells-group/findata-cli/internal/source"
)

type stubProvider struct {
	lastReq manager.Request
	data    *model.FinancialData
	err     error
}

func (s *stubProvider) GetFinancials(_ context.Context, req manager.Request) (*model.FinancialData, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func TestServeHealth(t *testing.T) {
	h := newServeHandler(&stubProvider{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeFinancials(t *testing.T) {
	p := &stubProvider{data: &model.FinancialData{
		CompanyID:   "320193",
		CacheStatus: model.CacheStatus{FromCache: true, Fresh: true},
	}}
	h := newServeHandler(p)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/companies/320193/financials?type=10-Q&period=2023-09-30&refresh=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, manager.Request{
		CompanyID:  "320193",
		FilingType: model.FilingQuarterly,
		Period:     "2023-09-30",
		Refresh:    true,
	}, p.lastReq)

	var body model.FinancialData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "320193", body.CompanyID)
	assert.True(t, body.CacheStatus.FromCache)
}

func TestServeFinancialsDefaultsToAnnual(t *testing.T) {
	p := &stubProvider{data: &model.FinancialData{CompanyID: "320193"}}
	h := newServeHandler(p)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/320193/financials", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.FilingAnnual, p.lastReq.FilingType)
}

func TestServeFinancialsUnknownCompany(t *testing.T) {
	p := &stubProvider{err: &source.UnknownCompanyError{CompanyID: "NOPE"}}
	h := newServeHandler(p)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/NOPE/financials", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeFinancialsSourceUnavailable(t *testing.T) {
	p := &stubProvider{err: resilience.NewTransientError(&fetcher.StatusError{Code: 503}, 503)}
	h := newServeHandler(p)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/320193/financials", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
