package api

import (
	"errors"
	"net/http"

	"github.com/okian/peri/internal/domain/model"
)

// SymptomHandler handles symptom log requests.
type SymptomHandler struct {
	deps SymptomDependencies
}

// NewSymptomHandler creates a new symptom handler.
func NewSymptomHandler(deps SymptomDependencies) *SymptomHandler {
	return &SymptomHandler{deps: deps}
}

type logResponse struct {
	Entries model.SymptomLog `json:"entries"`
	Active  int              `json:"active"`
}

// symptomRequest mirrors the OpenAPI schema for PUT /users/{id}/symptoms/{symptom}.
type symptomRequest struct {
	Severity  *string `json:"severity"`
	Frequency *string `json:"frequency"`
}

func (s symptomRequest) validate() error {
	if s.Severity == nil && s.Frequency == nil {
		return errors.New("one of severity or frequency is required")
	}
	return nil
}

// HandleGet handles GET /users/{id}/symptoms requests.
func (h *SymptomHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	log, err := h.deps.GetLog(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.get_symptoms", err)
		return
	}
	if log == nil {
		log = model.NewSymptomLog()
	}
	writeJSON(w, http.StatusOK, logResponse{Entries: log, Active: log.Active()})
}

// HandlePut handles PUT /users/{id}/symptoms/{symptom} requests.
func (h *SymptomHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_symptom"
	var req symptomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ctx := r.Context()
	userID := r.PathValue("id")
	id := model.SymptomID(r.PathValue("symptom"))

	if req.Severity != nil {
		if err := h.deps.SetSeverity(ctx, userID, id, *req.Severity); err != nil {
			writeServiceError(w, op, err)
			return
		}
	}
	if req.Frequency != nil {
		if err := h.deps.SetFrequency(ctx, userID, id, *req.Frequency); err != nil {
			writeServiceError(w, op, err)
			return
		}
	}

	log, err := h.deps.GetLog(ctx, userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	entry, _ := log.Entry(id)
	writeJSON(w, http.StatusOK, entry)
}

// HandleClear handles DELETE /users/{id}/symptoms requests.
func (h *SymptomHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearLog(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "api.clear_symptoms", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
