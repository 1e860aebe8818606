// Package handlers serves the diagnostics endpoints of a running client.
package handlers

import (
	"encoding/json"
	"net/http"

	"murmur/internal/connectivity"
	"murmur/internal/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource reports the last known network status.
type StatusSource interface {
	Current() (connectivity.Status, bool)
}

type Handlers struct {
	Connectivity StatusSource
}

type healthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Online      *bool  `json:"online,omitempty"`
	HasInternet *bool  `json:"has_internet,omitempty"`
}

var pingResponse = []byte(`{"message": "pong"}`)

// Health reports liveness plus the connectivity status once it is known.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: "murmur"}
	if h.Connectivity != nil {
		if st, ok := h.Connectivity.Current(); ok {
			resp.Online = &st.Connected
			resp.HasInternet = &st.HasInternet
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		observability.GlobalLogger.Warn("diagnostics write failed", "path", r.URL.Path, "error", err.Error())
	}
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(pingResponse); err != nil {
		observability.GlobalLogger.Warn("diagnostics write failed", "path", r.URL.Path, "error", err.Error())
	}
}

// Routes mounts /health, /ping and /metrics.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.NotFoundHandler())
	return mux
}
