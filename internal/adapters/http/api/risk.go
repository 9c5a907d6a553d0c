package api

import (
	"net/http"
)

// RiskHandler handles risk assessment requests.
type RiskHandler struct {
	deps RiskDependencies
}

// NewRiskHandler creates a new risk handler.
func NewRiskHandler(deps RiskDependencies) *RiskHandler {
	return &RiskHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandleAssess handles GET /users/{id}/risk requests. It answers 422 when
// the profile lacks age or systolic pressure.
func (h *RiskHandler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Assess(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.assess", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleLatest handles GET /users/{id}/risk/latest requests.
func (h *RiskHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.LatestAssessment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.latest_assessment", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleRecompute handles POST /users/{id}/risk/recompute requests.
func (h *RiskHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RequestRecompute(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "api.recompute", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
