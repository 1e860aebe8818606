package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/internal/connectivity"
	"murmur/internal/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusStub struct {
	st connectivity.Status
	ok bool
}

func (s statusStub) Current() (connectivity.Status, bool) { return s.st, s.ok }

func TestHealthHandler_UnknownConnectivity(t *testing.T) {
	h := &handlers.Handlers{Connectivity: statusStub{}}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "online")
}

func TestHealthHandler_ReportsConnectivity(t *testing.T) {
	h := &handlers.Handlers{Connectivity: statusStub{st: connectivity.Status{Connected: true}, ok: true}}
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["online"])
	assert.Equal(t, false, body["has_internet"])
}

func TestRoutes_MetricsAndNotFound(t *testing.T) {
	mux := (&handlers.Handlers{}).Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}
