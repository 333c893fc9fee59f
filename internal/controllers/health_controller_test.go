package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo_ingest/internal/store"
)

type mockProbe struct {
	health store.Health
	err    error
}

func (m *mockProbe) HealthCheck(_ context.Context) (store.Health, error) {
	return m.health, m.err
}

func healthRouter(p StoreProbe) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", NewHealthController(p).Healthz)
	return r
}

func TestHealthzEmptyStore(t *testing.T) {
	r := healthRouter(&mockProbe{health: store.Health{Reachable: true, FeatureCount: 0}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "geojson-ingestion", resp["service"])
	assert.Equal(t, true, resp["database_connected"])
	assert.Equal(t, float64(0), resp["feature_count"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestHealthzPopulatedStore(t *testing.T) {
	r := healthRouter(&mockProbe{health: store.Health{Reachable: true, FeatureCount: 1234}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1234), resp["feature_count"])
}

func TestHealthzStoreDown(t *testing.T) {
	r := healthRouter(&mockProbe{err: context.DeadlineExceeded})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp["status"])
	assert.Equal(t, false, resp["database_connected"])
}
