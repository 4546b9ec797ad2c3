package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ironsheep/plate-analyzer/internal/plate"
)

// HTTPHandler serves the latest plate JPEGs and states to HTTP clients such
// as dashboards.
type HTTPHandler struct {
	plates *plate.Manager
	mux    *http.ServeMux
}

// NewHTTPHandler creates a handler with the routes:
//
//	GET /plates/{serial}/image  latest JPEG (Last-Modified, ETag, 304 support)
//	GET /plates/{serial}/state  plate status as JSON
//	GET /health                 {"status":"ok"}
func NewHTTPHandler(plates *plate.Manager) *HTTPHandler {
	h := &HTTPHandler{
		plates: plates,
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /plates/{serial}/image", h.ImageHandler)
	h.mux.HandleFunc("GET /plates/{serial}/state", h.StateHandler)
	h.mux.HandleFunc("GET /health", h.HealthHandler)
	return h
}

// HTTPHandler returns a handler for the server's plate sessions.
func (s *Server) HTTPHandler() *HTTPHandler {
	return NewHTTPHandler(s.plates)
}

// ServeHTTP implements http.Handler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ImageHandler serves GET /plates/{serial}/image
func (h *HTTPHandler) ImageHandler(w http.ResponseWriter, r *http.Request) {
	serial := r.PathValue("serial")
	sess, ok := h.plates.Lookup(serial)
	if !ok {
		respondError(w, fmt.Sprintf("unknown plate %s", serial), http.StatusNotFound)
		return
	}

	snap, ok := sess.Slot().Load()
	if !ok {
		respondError(w, "no image available yet", http.StatusNotFound)
		return
	}

	// Last-Modified has one second resolution; the slot version changes on
	// every store.
	w.Header().Set("ETag", strconv.Quote(strconv.FormatUint(snap.Version, 10)))
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "", snap.Updated, bytes.NewReader(snap.JPEG))
}

// StateHandler serves GET /plates/{serial}/state
func (h *HTTPHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	serial := r.PathValue("serial")
	sess, ok := h.plates.Lookup(serial)
	if !ok {
		respondError(w, fmt.Sprintf("unknown plate %s", serial), http.StatusNotFound)
		return
	}
	respondJSON(w, plateStatus(sess), http.StatusOK)
}

// HealthHandler reports service health
func (h *HTTPHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
