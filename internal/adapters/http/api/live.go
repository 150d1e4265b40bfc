// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
)

// LiveDependencies defines the interface for live-feed ingest and session control.
type LiveDependencies interface {
	IngestEvent(ctx context.Context, event model.LiveEvent) (bool, error)
	CloseSession(ctx context.Context) (model.SessionSummary, error)
}

// LiveHandler handles live-feed requests.
type LiveHandler struct {
	deps LiveDependencies
}

// NewLiveHandler creates a new live-feed handler.
func NewLiveHandler(deps LiveDependencies) *LiveHandler {
	return &LiveHandler{deps: deps}
}

// liveEventRequest mirrors the OpenAPI schema for POST /live/events.
type liveEventRequest struct {
	EventID  string `json:"event_id"`
	Kind     string `json:"kind"`
	Handle   string `json:"handle"`
	Text     string `json:"text"`
	Coins    int    `json:"coins"`
	GiftName string `json:"gift_name"`
	Streak   bool   `json:"streak"`
	TS       string `json:"ts"`
}

func (e liveEventRequest) validate() error {
	kind, ok := model.ParseEventKind(strings.TrimSpace(e.Kind))
	if !ok {
		return errors.New("unknown kind")
	}
	if kind != model.EventDisconnect && strings.TrimSpace(e.Handle) == "" {
		return errors.New("missing handle")
	}
	if e.Coins < 0 {
		return errors.New("negative coins")
	}
	if e.TS != "" {
		if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// toModel converts the validated request. A missing ts stays zero so the
// engine stamps arrival time; a missing event_id is minted by the service.
func (e liveEventRequest) toModel() model.LiveEvent {
	kind, _ := model.ParseEventKind(strings.TrimSpace(e.Kind))
	event := model.LiveEvent{
		EventID:  strings.TrimSpace(e.EventID),
		Kind:     kind,
		Handle:   strings.TrimSpace(e.Handle),
		Text:     e.Text,
		Coins:    e.Coins,
		GiftName: e.GiftName,
		Streak:   e.Streak,
	}
	if e.TS != "" {
		event.TS, _ = time.Parse(time.RFC3339, e.TS)
	}
	return event
}

// HandleLive routes the /live/ subtree: POST /live/events and POST
// /live/session/close.
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/live/")
	switch rest {
	case "events":
		h.handlePostEvent(w, r)
	case "session/close":
		h.handleCloseSession(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *LiveHandler) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_live_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req liveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// IngestEvent fails only when the queue refuses the event, which is
	// backpressure, not caller error.
	duplicate, err := h.deps.IngestEvent(r.Context(), req.toModel())
	if err != nil {
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

func (h *LiveHandler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.close_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	summary, err := h.deps.CloseSession(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
