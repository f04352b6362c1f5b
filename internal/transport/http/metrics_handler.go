package http

import (
	"net/http"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler wraps the Prometheus HTTP handler. A nil handler means
// metrics are disabled and the endpoint answers 404.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		http.NotFound(w, r)
		return
	}
	h.exporter.ServeHTTP(w, r)
}
