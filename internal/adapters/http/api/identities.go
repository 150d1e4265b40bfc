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

// IdentityDependencies defines the interface for identity operations.
type IdentityDependencies interface {
	LinkIdentity(ctx context.Context, submitterID, handle string) error
	UnlinkIdentity(ctx context.Context, submitterID, handle string) error
	IdentityStats(ctx context.Context, handle string) (model.Identity, error)
}

// IdentitiesHandler handles identity link and stats requests.
type IdentitiesHandler struct {
	deps IdentityDependencies
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(deps IdentityDependencies) *IdentitiesHandler {
	return &IdentitiesHandler{deps: deps}
}

// linkRequest mirrors the OpenAPI schema for POST /identities/link and unlink.
type linkRequest struct {
	SubmitterID string `json:"submitter_id"`
	Handle      string `json:"handle"`
}

func (l linkRequest) validate() error {
	switch {
	case strings.TrimSpace(l.SubmitterID) == "":
		return errors.New("missing submitter_id")
	case strings.TrimSpace(l.Handle) == "":
		return errors.New("missing handle")
	}
	return nil
}

// HandleIdentities routes the /identities/ subtree: POST /identities/link,
// POST /identities/unlink, GET /identities/{handle}.
func (h *IdentitiesHandler) HandleIdentities(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/identities/")
	switch rest {
	case "link":
		h.handleLink(w, r)
	case "unlink":
		h.handleUnlink(w, r)
	default:
		h.handleStats(w, r, rest)
	}
}

func (h *IdentitiesHandler) handleLink(w http.ResponseWriter, r *http.Request) {
	const op = "api.link_identity"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, ok := h.decodeLink(w, r, op)
	if !ok {
		return
	}
	if err := h.deps.LinkIdentity(r.Context(), req.SubmitterID, req.Handle); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "linked"})
}

func (h *IdentitiesHandler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	const op = "api.unlink_identity"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, ok := h.decodeLink(w, r, op)
	if !ok {
		return
	}
	if err := h.deps.UnlinkIdentity(r.Context(), req.SubmitterID, req.Handle); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "unlinked"})
}

// decodeLink reads and validates the shared link/unlink body, writing the
// error response itself on failure.
func (h *IdentitiesHandler) decodeLink(w http.ResponseWriter, r *http.Request, op string) (linkRequest, bool) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return linkRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return linkRequest{}, false
	}
	req.SubmitterID = strings.TrimSpace(req.SubmitterID)
	req.Handle = strings.TrimSpace(req.Handle)
	return req, true
}

func (h *IdentitiesHandler) handleStats(w http.ResponseWriter, r *http.Request, handle string) {
	const op = "api.get_identity"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if handle == "" || strings.Contains(handle, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	identity, err := h.deps.IdentityStats(r.Context(), handle)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}
