package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/httpledger/httpledger/pkg/capture"
	"github.com/httpledger/httpledger/pkg/logger"
)

// Handlers contains the HTTP route handlers for the viewer API.
type Handlers struct {
	engine *capture.Engine
	log    logger.Logger
	hub    *Hub
}

// HandleList handles GET /logs — all transactions, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.List())
}

// HandleGet handles GET /logs/{id}.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.engine.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleClear handles DELETE /logs — drop the whole history.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport handles GET /logs/{id}/export?format=curl|text|har.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = capture.FormatHAR
	}
	out, err := h.engine.Export(r.PathValue("id"), format)
	switch {
	case errors.Is(err, capture.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	case errors.Is(err, capture.ErrUnknownFormat):
		writeError(w, http.StatusBadRequest, "unknown export format: "+format)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if format == capture.FormatHAR {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

// HandleExportAll handles GET /logs/export — the whole history as HAR.
func (h *Handlers) HandleExportAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.engine.ExportAll()))
}

// HandleLive handles GET /live — a websocket pushing each completed
// transaction as a JSON message.
func (h *Handlers) HandleLive(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Too late for an error status; the connection is best-effort.
		return
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
