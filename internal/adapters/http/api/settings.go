// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// SettingDependencies defines the interface for runtime settings access.
type SettingDependencies interface {
	Setting(ctx context.Context, key string) (string, bool)
	PutSetting(ctx context.Context, key, value string) error
}

// SettingsHandler handles runtime settings requests.
type SettingsHandler struct {
	deps SettingDependencies
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps SettingDependencies) *SettingsHandler {
	return &SettingsHandler{deps: deps}
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type putSettingRequest struct {
	Value string `json:"value"`
}

// HandleSetting handles GET and PUT /settings/{key} requests.
func (h *SettingsHandler) HandleSetting(w http.ResponseWriter, r *http.Request) {
	const op = "api.setting"
	key := strings.TrimPrefix(r.URL.Path, "/settings/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	switch r.Method {
	case http.MethodGet:
		value, ok := h.deps.Setting(r.Context(), key)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, errors.New("setting not found")))
			return
		}
		writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})
	case http.MethodPut:
		var req putSettingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.PutSetting(r.Context(), key, req.Value); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})
	default:
		http.NotFound(w, r)
	}
}
