// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/resolver"
)

// QueueDependencies defines the interface for queue read and dispatch operations.
type QueueDependencies interface {
	Queue(ctx context.Context, tier model.Tier) ([]model.Submission, error)
	QueuePage(ctx context.Context, tier model.Tier, page, size int) (model.Page, error)
	MyQueue(ctx context.Context, submitterID string) ([]model.Submission, error)
	TakeNext(ctx context.Context) (model.Submission, error)
	ClearStandard(ctx context.Context) (int, error)
}

// QueueHandler handles queue view and dispatch requests.
type QueueHandler struct {
	deps    QueueDependencies
	maxSize int
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(deps QueueDependencies, maxSize int) *QueueHandler {
	return &QueueHandler{
		deps:    deps,
		maxSize: maxSize,
	}
}

type takeNextResponse struct {
	Empty      bool                `json:"empty"`
	Submission *submissionResponse `json:"submission,omitempty"`
}

type clearRequest struct {
	Tier string `json:"tier"`
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

// HandleQueue handles GET /queue?tier=&page=&size= requests. Without a page
// parameter the whole tier is returned.
func (h *QueueHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_queue"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	tier, err := model.ParseTier(q.Get("tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	pageStr := q.Get("page")
	if pageStr == "" {
		subs, err := h.deps.Queue(r.Context(), tier)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, toSubmissionResponses(subs))
		return
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	size := 0 // zero means the service default
	if sizeStr := q.Get("size"); sizeStr != "" {
		size, err = strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if size > h.maxSize {
			writeError(w, http.StatusBadRequest, "size_exceeded", NewKind(op, ErrBadRequest))
			return
		}
	}
	pg, err := h.deps.QueuePage(r.Context(), tier, page, size)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(pg))
}

// HandleQueueOps routes the /queue/ subtree: GET /queue/mine, POST
// /queue/take-next, POST /queue/clear.
func (h *QueueHandler) HandleQueueOps(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/queue/")
	switch rest {
	case "mine":
		h.handleMine(w, r)
	case "take-next":
		h.handleTakeNext(w, r)
	case "clear":
		h.handleClear(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *QueueHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_my_queue"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	submitter := strings.TrimSpace(r.URL.Query().Get("submitter"))
	if submitter == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing submitter")))
		return
	}
	subs, err := h.deps.MyQueue(r.Context(), submitter)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponses(subs))
}

func (h *QueueHandler) handleTakeNext(w http.ResponseWriter, r *http.Request) {
	const op = "api.take_next"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	sub, err := h.deps.TakeNext(r.Context())
	if errors.Is(err, resolver.ErrEmpty) {
		writeJSON(w, http.StatusOK, takeNextResponse{Empty: true})
		return
	}
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	resp := toSubmissionResponse(sub)
	writeJSON(w, http.StatusOK, takeNextResponse{Submission: &resp})
}

func (h *QueueHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_queue"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	// Only the standard tier is bulk-clearable; paid tiers are protected.
	if model.Tier(strings.TrimSpace(req.Tier)) != model.TierStandard {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("only the standard tier can be cleared")))
		return
	}
	cleared, err := h.deps.ClearStandard(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Cleared: cleared})
}
