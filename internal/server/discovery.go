package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/discovery"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// DiscoveryHandler serves the discovery API. Implements the [Handler]
// interface for registration with a [Router].
//
// The requesting user is taken from the X-User header, falling back to the
// configured default identity. There is no authentication layer; the header
// only namespaces history and progress streams.
type DiscoveryHandler struct {
	engine      *discovery.Engine
	hub         *discovery.Hub
	defaultUser string
	logger      *log.Logger
}

// NewDiscoveryHandler creates the handler. hub may be nil, in which case the
// progress endpoint reports 404.
func NewDiscoveryHandler(engine *discovery.Engine, hub *discovery.Hub, defaultUser string, logger *log.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{engine: engine, hub: hub, defaultUser: defaultUser, logger: logger}
}

// Routes returns the HTTP patterns this handler serves.
func (h *DiscoveryHandler) Routes() []string {
	return []string{
		"POST /api/discover",
		"GET /api/history",
		"GET /api/results/{hash}",
		"GET /api/progress/{session}",
	}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *DiscoveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/discover":
		h.handleDiscover(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/history":
		h.handleHistory(w, r)
	case r.Method == http.MethodGet && r.PathValue("hash") != "":
		h.handleResult(w, r)
	case r.Method == http.MethodGet && r.PathValue("session") != "":
		h.handleProgress(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *DiscoveryHandler) userID(r *http.Request) string {
	if user := r.Header.Get("X-User"); user != "" {
		return user
	}
	return h.defaultUser
}

func (h *DiscoveryHandler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var query models.DiscoveryQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	result, err := h.engine.Discover(r.Context(), h.userID(r), query)
	if err != nil {
		h.logger.Error("discovery failed", "err", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *DiscoveryHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.engine.History(h.userID(r))
	if err != nil {
		h.logger.Error("history lookup failed", "err", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": records, "count": len(records)})
}

func (h *DiscoveryHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Result(r.PathValue("hash"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleProgress streams the session's progress events as server-sent events
// until the pipeline reaches a terminal phase or the client disconnects.
// Delivery is best-effort; a reconnecting client does not see missed events.
func (h *DiscoveryHandler) handleProgress(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session := r.PathValue("session")
	events, cancel := h.hub.Subscribe(h.userID(r))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if event.SessionID != session {
				continue
			}

			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()

			if event.Phase == discovery.PhaseComplete || event.Phase == discovery.PhaseFailed {
				return
			}
		}
	}
}

// errorStatus maps taxonomy sentinels to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUpstreamAuth), errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrResultExpired):
		return http.StatusGone
	case errors.Is(err, shared.ErrLLMParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrLLMRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
