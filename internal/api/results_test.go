package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-takeoff/internal/report"
	"github.com/yegors/co-takeoff/internal/storage/sqlite"
	"github.com/yegors/co-takeoff/pkg/logger"
)

type failingStore struct{}

func (failingStore) GetResults(context.Context, sqlite.ResultFilter) ([]*report.Record, error) {
	return nil, errors.New("database is locked")
}

func (failingStore) GetResult(context.Context, string) (*report.Record, error) {
	return nil, errors.New("database is locked")
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.NewResultStorage(filepath.Join(t.TempDir(), "takeoffs.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	ts := time.Date(2020, 3, 5, 12, 0, 0, 0, time.UTC)
	detected := &report.Record{File: "log_200305_KPAO.csv", AirportID: "KPAO", Timestamp: &ts, Index: 412, RunwayID: 0}
	none := report.None("log_200306_KXYZ.csv")
	none.AirportID = "KXYZ"
	require.NoError(t, store.SaveResult(ctx, detected))
	require.NoError(t, store.SaveResult(ctx, &none))

	srv := httptest.NewServer(NewRouter(store, logger.NewNop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

type listResponse struct {
	Count   int `json:"count"`
	Results []struct {
		File      string     `json:"file"`
		AirportID string     `json:"airport_id"`
		Timestamp *time.Time `json:"timestamp"`
		Index     int        `json:"index"`
		RunwayID  int        `json:"runway_id"`
		Line      string     `json:"line"`
	} `json:"results"`
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp := get(t, srv.URL+"/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestGetResults(t *testing.T) {
	srv := newServer(t)

	resp := get(t, srv.URL+"/api/v1/results")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "log_200305_KPAO.csv, 0, 1583409600.0, 412", body.Results[0].Line)
	assert.Equal(t, "log_200306_KXYZ.csv, -1, None, -1", body.Results[1].Line)
	assert.Nil(t, body.Results[1].Timestamp)
	assert.Equal(t, -1, body.Results[1].Index)
}

func TestGetResultsFilters(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		query string
		count int
	}{
		{"?airport=KXYZ", 1},
		{"?detected=true", 1},
		{"?detected=false", 2},
		{"?limit=1&offset=1", 1},
		{"?airport=KSJC", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := get(t, srv.URL+"/api/v1/results"+tt.query)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body listResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.count, body.Count)
			assert.Len(t, body.Results, tt.count)
		})
	}
}

func TestGetResultsBadParameters(t *testing.T) {
	srv := newServer(t)
	for _, q := range []string{"?detected=maybe", "?limit=-1", "?offset=x"} {
		resp := get(t, srv.URL+"/api/v1/results"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestGetResult(t *testing.T) {
	srv := newServer(t)

	resp := get(t, srv.URL+"/api/v1/results/log_200305_KPAO.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		File     string `json:"file"`
		Index    int    `json:"index"`
		RunwayID int    `json:"runway_id"`
		Line     string `json:"line"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "log_200305_KPAO.csv", body.File)
	assert.Equal(t, 412, body.Index)
	assert.Equal(t, 0, body.RunwayID)

	resp = get(t, srv.URL+"/api/v1/results/nope.csv")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStoreFailure(t *testing.T) {
	srv := httptest.NewServer(NewRouter(failingStore{}, logger.NewNop()).Routes())
	defer srv.Close()

	resp := get(t, srv.URL+"/api/v1/results")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = get(t, srv.URL+"/api/v1/results/x.csv")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
