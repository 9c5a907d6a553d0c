// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/peri/internal/adapters/mq/queue"
	"github.com/okian/peri/internal/adapters/repository"
	service "github.com/okian/peri/internal/app"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
	"github.com/okian/peri/internal/domain/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ProfileDependencies
	SymptomDependencies
	SessionDependencies
	RiskDependencies
}

// ProfileDependencies reads and writes profiles.
type ProfileDependencies interface {
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	PutProfile(ctx context.Context, userID string, p model.Profile) error
}

// SymptomDependencies reads and edits symptom logs.
type SymptomDependencies interface {
	GetLog(ctx context.Context, userID string) (model.SymptomLog, error)
	SetSeverity(ctx context.Context, userID string, id model.SymptomID, severity string) error
	SetFrequency(ctx context.Context, userID string, id model.SymptomID, frequency string) error
	ClearLog(ctx context.Context, userID string) error
}

// SessionDependencies drives interview sessions.
type SessionDependencies interface {
	StartSession(ctx context.Context, userID string) (service.SessionStart, error)
	HandleUtterance(ctx context.Context, sessionID, utteranceID, text string) (service.Turn, error)
	SaveDetected(ctx context.Context, sessionID string) (int, error)
	EndSession(ctx context.Context, sessionID string) error
}

// RiskDependencies computes and reads risk assessments.
type RiskDependencies interface {
	Assess(ctx context.Context, userID string) (service.Report, error)
	LatestAssessment(ctx context.Context, userID string) (types.Assessment, error)
	RequestRecompute(ctx context.Context, userID string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	profileHandler *ProfileHandler
	symptomHandler *SymptomHandler
	sessionHandler *SessionHandler
	riskHandler    *RiskHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		profileHandler: NewProfileHandler(deps),
		symptomHandler: NewSymptomHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		riskHandler:    NewRiskHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /users/{id}/profile", MetricsMiddleware(s.profileHandler.HandleGet, "profile"))
	mux.HandleFunc("PUT /users/{id}/profile", MetricsMiddleware(s.profileHandler.HandlePut, "profile"))

	mux.HandleFunc("GET /users/{id}/symptoms", MetricsMiddleware(s.symptomHandler.HandleGet, "symptoms"))
	mux.HandleFunc("DELETE /users/{id}/symptoms", MetricsMiddleware(s.symptomHandler.HandleClear, "symptoms"))
	mux.HandleFunc("PUT /users/{id}/symptoms/{symptom}", MetricsMiddleware(s.symptomHandler.HandlePut, "symptom"))

	mux.HandleFunc("POST /users/{id}/sessions", MetricsMiddleware(s.sessionHandler.HandleStart, "sessions"))
	mux.HandleFunc("POST /sessions/{sid}/utterances", MetricsMiddleware(s.sessionHandler.HandleUtterance, "utterances"))
	mux.HandleFunc("POST /sessions/{sid}/save", MetricsMiddleware(s.sessionHandler.HandleSave, "session_save"))
	mux.HandleFunc("DELETE /sessions/{sid}", MetricsMiddleware(s.sessionHandler.HandleEnd, "session"))

	mux.HandleFunc("GET /users/{id}/risk", MetricsMiddleware(s.riskHandler.HandleAssess, "risk"))
	mux.HandleFunc("GET /users/{id}/risk/latest", MetricsMiddleware(s.riskHandler.HandleLatest, "risk_latest"))
	mux.HandleFunc("POST /users/{id}/risk/recompute", MetricsMiddleware(s.riskHandler.HandleRecompute, "risk_recompute"))
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

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// writeServiceError translates upstream errors to a status and error code.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, service.ErrInvalidSymptom):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, scoring.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err)
	case errors.Is(err, queue.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, queue.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
