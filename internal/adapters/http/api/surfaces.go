// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
)

// SurfaceDependencies defines the interface for display surface management.
type SurfaceDependencies interface {
	RegisterSurface(ctx context.Context, surfaceKey string, tier model.Tier, channelRef string, hasControls bool) error
	UnregisterSurface(ctx context.Context, surfaceKey string) error
	SetSurfacePage(ctx context.Context, surfaceKey string, page int) error
	Surfaces(ctx context.Context) ([]refresh.SurfaceStatus, error)
}

// SurfacesHandler handles display surface requests.
type SurfacesHandler struct {
	deps SurfaceDependencies
}

// NewSurfacesHandler creates a new surfaces handler.
func NewSurfacesHandler(deps SurfaceDependencies) *SurfacesHandler {
	return &SurfacesHandler{deps: deps}
}

// registerSurfaceRequest mirrors the OpenAPI schema for POST /surfaces.
type registerSurfaceRequest struct {
	Key         string `json:"key"`
	Tier        string `json:"tier"`
	ChannelRef  string `json:"channel_ref"`
	HasControls bool   `json:"has_controls"`
}

func (s registerSurfaceRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Key) == "":
		return errors.New("missing key")
	case strings.TrimSpace(s.ChannelRef) == "":
		return errors.New("missing channel_ref")
	}
	if _, err := model.ParseTier(strings.TrimSpace(s.Tier)); err != nil {
		return err
	}
	return nil
}

type pageRequest struct {
	Page int `json:"page"`
}

// HandleCollection handles POST /surfaces and GET /surfaces requests.
func (h *SurfacesHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleRegister(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SurfacesHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_surface"
	var req registerSurfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	tier, _ := model.ParseTier(strings.TrimSpace(req.Tier))
	err := h.deps.RegisterSurface(r.Context(), strings.TrimSpace(req.Key), tier,
		strings.TrimSpace(req.ChannelRef), req.HasControls)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Status: "registered"})
}

func (h *SurfacesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_surfaces"
	statuses, err := h.deps.Surfaces(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSurfaceResponses(statuses))
}

// HandleItem routes the /surfaces/ subtree: DELETE /surfaces/{key} and POST
// /surfaces/{key}/page.
func (h *SurfacesHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/surfaces/")
	if key, ok := strings.CutSuffix(rest, "/page"); ok {
		h.handleSetPage(w, r, key)
		return
	}
	h.handleUnregister(w, r, rest)
}

func (h *SurfacesHandler) handleSetPage(w http.ResponseWriter, r *http.Request, key string) {
	const op = "api.set_surface_page"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Page < 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("negative page")))
		return
	}
	if err := h.deps.SetSurfacePage(r.Context(), key, req.Page); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *SurfacesHandler) handleUnregister(w http.ResponseWriter, r *http.Request, key string) {
	const op = "api.unregister_surface"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.UnregisterSurface(r.Context(), key); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "unregistered"})
}
