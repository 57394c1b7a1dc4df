package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/httpledger/httpledger/pkg/capture"
	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/metrics"
)

// NewServer creates and configures the HTTP server for the viewer API.
// met may be nil; /metrics is then not registered. hub is usually the
// one already subscribed to the engine; nil creates a fresh one.
func NewServer(engine *capture.Engine, met *metrics.Metrics, log logger.Logger, addr string, hub *Hub) (*http.Server, *Hub) {
	if hub == nil {
		hub = NewHub(log)
	}

	h := &Handlers{
		engine: engine,
		log:    log,
		hub:    hub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /logs", h.HandleList)
	mux.HandleFunc("GET /logs/export", h.HandleExportAll)
	mux.HandleFunc("GET /logs/{id}", h.HandleGet)
	mux.HandleFunc("GET /logs/{id}/export", h.HandleExport)
	mux.HandleFunc("DELETE /logs", h.HandleClear)
	mux.HandleFunc("GET /live", h.HandleLive)
	if met != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(met.Registry(), promhttp.HandlerOpts{}))
	}

	return &http.Server{
		Addr:    addr,
		Handler: securityHeaders(mux),
	}, hub
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}
