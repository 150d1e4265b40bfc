// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
)

// maxFieldLen caps caller-supplied text fields on create.
const maxFieldLen = 100

// SubmissionDependencies defines the interface for submission lifecycle operations.
type SubmissionDependencies interface {
	Submit(ctx context.Context, in model.NewSubmission) (model.Submission, error)
	Move(ctx context.Context, publicID string, target model.Tier) (model.Tier, error)
	Remove(ctx context.Context, publicID string) (model.Tier, error)
	SubmissionsOpen(ctx context.Context) bool
	SetSubmissionsOpen(ctx context.Context, open bool) error
}

// SubmissionsHandler handles submission lifecycle requests.
type SubmissionsHandler struct {
	deps SubmissionDependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionDependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// createSubmissionRequest mirrors the OpenAPI schema for POST /submissions.
type createSubmissionRequest struct {
	SubmitterID      string `json:"submitter_id"`
	SubmitterName    string `json:"submitter_name"`
	Artist           string `json:"artist"`
	Song             string `json:"song"`
	ContentRef       string `json:"content_ref"`
	Note             string `json:"note"`
	EngagementHandle string `json:"engagement_handle"`
}

func (c createSubmissionRequest) validate() error {
	switch {
	case strings.TrimSpace(c.SubmitterID) == "":
		return errors.New("missing submitter_id")
	case strings.TrimSpace(c.Artist) == "":
		return errors.New("missing artist")
	case strings.TrimSpace(c.Song) == "":
		return errors.New("missing song")
	case len(c.Artist) > maxFieldLen:
		return errors.New("artist too long")
	case len(c.Song) > maxFieldLen:
		return errors.New("song too long")
	}
	return nil
}

type moveRequest struct {
	Tier string `json:"tier"`
}

type moveResponse struct {
	PublicID string `json:"public_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type removeResponse struct {
	PublicID string `json:"public_id"`
	Tier     string `json:"tier"`
}

type statusToggleRequest struct {
	Open bool `json:"open"`
}

type statusToggleResponse struct {
	Open bool `json:"open"`
}

// HandleCreate handles POST /submissions requests.
func (h *SubmissionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_submission"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sub, err := h.deps.Submit(r.Context(), model.NewSubmission{
		SubmitterID:      strings.TrimSpace(req.SubmitterID),
		SubmitterName:    strings.TrimSpace(req.SubmitterName),
		Artist:           strings.TrimSpace(req.Artist),
		Song:             strings.TrimSpace(req.Song),
		ContentRef:       strings.TrimSpace(req.ContentRef),
		Note:             req.Note,
		EngagementHandle: strings.TrimSpace(req.EngagementHandle),
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmissionResponse(sub))
}

// HandleItem routes the /submissions/ subtree: POST
// /submissions/{public_id}/move, DELETE /submissions/{public_id}, and the
// /submissions/status toggle.
func (h *SubmissionsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/submissions/")
	switch {
	case rest == "status":
		h.handleStatus(w, r)
	case strings.HasSuffix(rest, "/move"):
		h.handleMove(w, r, strings.TrimSuffix(rest, "/move"))
	default:
		h.handleRemove(w, r, rest)
	}
}

func (h *SubmissionsHandler) handleMove(w http.ResponseWriter, r *http.Request, publicID string) {
	const op = "api.move_submission"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if publicID == "" || strings.Contains(publicID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	tier, err := model.ParseTier(strings.TrimSpace(req.Tier))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	prior, err := h.deps.Move(r.Context(), publicID, tier)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, moveResponse{PublicID: publicID, From: prior.String(), To: tier.String()})
}

func (h *SubmissionsHandler) handleRemove(w http.ResponseWriter, r *http.Request, publicID string) {
	const op = "api.remove_submission"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	if publicID == "" || strings.Contains(publicID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	prior, err := h.deps.Remove(r.Context(), publicID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{PublicID: publicID, Tier: prior.String()})
}

func (h *SubmissionsHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.submissions_status"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, statusToggleResponse{Open: h.deps.SubmissionsOpen(r.Context())})
	case http.MethodPost:
		var req statusToggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.SetSubmissionsOpen(r.Context(), req.Open); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, statusToggleResponse{Open: req.Open})
	default:
		http.NotFound(w, r)
	}
}
