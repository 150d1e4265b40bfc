// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// Dependencies bundles everything the handlers need from the service layer,
// so wiring in main stays a single value. Each handler file declares the
// narrow slice it actually uses.
type Dependencies interface {
	SubmissionDependencies
	QueueDependencies
	IdentityDependencies
	LiveDependencies
	SurfaceDependencies
	SettingDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	submissionsHandler *SubmissionsHandler
	queueHandler       *QueueHandler
	identitiesHandler  *IdentitiesHandler
	liveHandler        *LiveHandler
	surfacesHandler    *SurfacesHandler
	settingsHandler    *SettingsHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// NewServer creates a new API server with all handlers. maxPageSize caps the
// size parameter on queue reads.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxPageSize int) *Server {
	return &Server{
		submissionsHandler: NewSubmissionsHandler(deps),
		queueHandler:       NewQueueHandler(deps, maxPageSize),
		identitiesHandler:  NewIdentitiesHandler(deps),
		liveHandler:        NewLiveHandler(deps),
		surfacesHandler:    NewSurfacesHandler(deps),
		settingsHandler:    NewSettingsHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.submissionsHandler.HandleCreate, "submissions"))
	mux.HandleFunc("/submissions/", MetricsMiddleware(s.submissionsHandler.HandleItem, "submission_item"))
	mux.HandleFunc("/queue", MetricsMiddleware(s.queueHandler.HandleQueue, "queue"))
	mux.HandleFunc("/queue/", MetricsMiddleware(s.queueHandler.HandleQueueOps, "queue_ops"))
	mux.HandleFunc("/identities/", MetricsMiddleware(s.identitiesHandler.HandleIdentities, "identities"))
	mux.HandleFunc("/live/", MetricsMiddleware(s.liveHandler.HandleLive, "live"))
	mux.HandleFunc("/surfaces", MetricsMiddleware(s.surfacesHandler.HandleCollection, "surfaces"))
	mux.HandleFunc("/surfaces/", MetricsMiddleware(s.surfacesHandler.HandleItem, "surface_item"))
	mux.HandleFunc("/settings/", MetricsMiddleware(s.settingsHandler.HandleSetting, "settings"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates a service-layer error to its transport shape.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, Wrap(op, err))
}
