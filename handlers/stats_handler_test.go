package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"engins-backoffice/models"
	"engins-backoffice/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStats struct {
	overview  *models.OverviewStats
	err       error
	lastLimit int
	lastType  string
}

func (f *fakeStats) Overview(context.Context) (*models.OverviewStats, error) {
	return f.overview, f.err
}

func (f *fakeStats) TopRanking(_ context.Context, rankingType string, limit int, period string) (*models.Ranking, error) {
	f.lastType, f.lastLimit = rankingType, limit
	if f.err != nil {
		return nil, f.err
	}
	return &models.Ranking{Type: rankingType, Periode: period, Limit: limit}, nil
}

func (f *fakeStats) TimeSeries(_ context.Context, seriesType, period string) (*models.TimeSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.TimeSeries{Type: seriesType, Periode: period}, nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return nil
}

func decodeDashboard(t *testing.T, rr *httptest.ResponseRecorder) dashboardResponse {
	t.Helper()
	var resp struct {
		Data dashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Data
}

func TestDashboardDegradedOnError(t *testing.T) {
	h := NewStatsHandler(&fakeStats{err: errors.New("mongo indisponible")}, nil, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	h.Dashboard(rr, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeDashboard(t, rr)
	assert.True(t, data.Degraded)
	assert.Zero(t, data.Stats.Annonces.Total)
}

func TestDashboardNominal(t *testing.T) {
	stats := models.DefaultOverviewStats()
	stats.Annonces.Total = 42
	h := NewStatsHandler(&fakeStats{overview: &stats}, nil, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	h.Dashboard(rr, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))

	data := decodeDashboard(t, rr)
	assert.False(t, data.Degraded)
	assert.EqualValues(t, 42, data.Stats.Annonces.Total)
}

func TestOverviewPropagatesError(t *testing.T) {
	h := NewStatsHandler(&fakeStats{err: errors.New("mongo indisponible")}, nil, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	h.Overview(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats/overview", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestTopRanking(t *testing.T) {
	stats := &fakeStats{}
	h := NewStatsHandler(stats, nil, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	h.Top(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats/top?type=brands&limit=5&period=7d", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "brands", stats.lastType)
	assert.Equal(t, 5, stats.lastLimit)

	rr = httptest.NewRecorder()
	h.Top(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats/top?type=brands&limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	stats.err = utils.ValidationError{Field: "type", Message: "type de classement inconnu"}
	rr = httptest.NewRecorder()
	h.Top(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats/top?type=planetes", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSeries(t *testing.T) {
	h := NewStatsHandler(&fakeStats{}, nil, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	h.Series(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats/series?type=quotes&period=7d", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"type":"quotes"`)
}

func TestInvalidateCache(t *testing.T) {
	cache := &fakeInvalidator{}
	h := NewStatsHandler(&fakeStats{}, cache, zaptest.NewLogger(t).Sugar())

	rr := httptest.NewRecorder()
	h.InvalidateCache(rr, httptest.NewRequest(http.MethodPost, "/api/admin/stats/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, cache.calls)

	noCache := NewStatsHandler(&fakeStats{}, nil, zaptest.NewLogger(t).Sugar())
	rr = httptest.NewRecorder()
	noCache.InvalidateCache(rr, httptest.NewRequest(http.MethodPost, "/api/admin/stats/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
