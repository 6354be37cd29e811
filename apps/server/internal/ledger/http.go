package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"craps-lite/replay"
)

const sessionsPrefix = "/api/sessions/"

type HTTPHandler struct {
	ledger Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(ledgerService Service) *HTTPHandler {
	return &HTTPHandler{ledger: ledgerService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(sessionsPrefix, h.handleSessions)
	mux.HandleFunc("/api/replay", h.handleReplay)
}

// handleSessions serves /api/sessions/{id}/rolls and /api/sessions/{id}/events.
func (h *HTTPHandler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, sessionsPrefix))
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sessionID := strings.TrimSpace(parts[0])
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	switch parts[1] {
	case "rolls":
		h.handleListRolls(w, r, sessionID)
	case "events":
		h.handleGetEvents(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *HTTPHandler) handleListRolls(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.ledger.ListRolls(ctx, sessionID, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query rolls failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"items":      items,
	})
}

func (h *HTTPHandler) handleGetEvents(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	events, err := h.ledger.GetSessionEvents(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "query session events failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"events":     events,
	})
}

// handleReplay runs a posted scenario and returns its tape.
func (h *HTTPHandler) handleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var spec replay.ScenarioSpec
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tape, err := replay.GenerateReplayTape(spec)
	if err != nil {
		var replayErr *replay.ReplayError
		if errors.As(err, &replayErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": replayErr})
			return
		}
		writeError(w, http.StatusInternalServerError, "generate replay failed")
		return
	}
	writeJSON(w, http.StatusOK, replay.ToWireReplayTape(tape))
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 20
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
