package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo_ingest/internal/ingest"
	"geo_ingest/internal/store"
)

func init() {
	// Suppress gin debug output in tests.
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type mockFeatureStore struct {
	inserted  int
	insertErr error
}

func (m *mockFeatureStore) Insert(_ context.Context, _ *ingest.CanonicalFeature) (uint, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted++
	return uint(m.inserted), nil
}

func ingestRouter(s ingest.FeatureStore) *gin.Engine {
	r := gin.New()
	r.POST("/ingest", NewIngestController(s).Ingest)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestIngestBarePoint(t *testing.T) {
	r := ingestRouter(&mockFeatureStore{})

	w := postJSON(t, r, `{"type":"Point","coordinates":[-122.4194,37.7749]}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeReport(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["total_features"])
	assert.Equal(t, float64(1), resp["processed_features"])
	assert.Empty(t, resp["errors"])
}

func TestIngestPartialFailureStillReturns200(t *testing.T) {
	r := ingestRouter(&mockFeatureStore{})

	w := postJSON(t, r, `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"name":"good"}},
			{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1]]]},"properties":{}}
		]
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeReport(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, float64(2), resp["total_features"])
	assert.Equal(t, float64(1), resp["processed_features"])

	errs, ok := resp["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["index"])
	assert.Contains(t, first["reason"], "unclosed ring")
}

func TestIngestMultipartUpload(t *testing.T) {
	r := ingestRouter(&mockFeatureStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cities.geojson")
	require.NoError(t, err)
	_, err = part.Write([]byte(`{"type":"Point","coordinates":[36.8219,-1.2921]}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeReport(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["processed_features"])
}

func TestIngestMultipartMissingFileField(t *testing.T) {
	r := ingestRouter(&mockFeatureStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file")
}

func TestIngestDocumentLevelFailures(t *testing.T) {
	r := ingestRouter(&mockFeatureStore{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"type":`},
		{"unsupported shape", `{"type":"Nonsense","coordinates":[0,0]}`},
		{"non-feature collection member", `{"type":"FeatureCollection","features":[{"type":"Point","coordinates":[0,0]}]}`},
		{"empty body", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, r, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeReport(t, w)
			assert.Equal(t, false, resp["success"])
		})
	}
}

func TestIngestStoreUnavailable(t *testing.T) {
	s := &mockFeatureStore{insertErr: fmt.Errorf("%w: dial tcp: connection refused", ingest.ErrStoreUnavailable)}
	r := ingestRouter(s)

	w := postJSON(t, r, `{"type":"Point","coordinates":[0,0]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp := decodeReport(t, w)
	assert.Equal(t, false, resp["success"])
}

func TestIngestRowRejection(t *testing.T) {
	s := &mockFeatureStore{insertErr: &store.RejectedError{Code: "22021", Reason: "invalid byte sequence"}}
	r := ingestRouter(s)

	w := postJSON(t, r, `{"type":"Point","coordinates":[0,0]}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeReport(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, float64(0), resp["processed_features"])
	errs := resp["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].(map[string]interface{})["reason"], "rejected")
}
