package api

import (
	"errors"
	"net/http"
	"strings"
)

// SessionHandler handles interview session requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// utteranceRequest mirrors the OpenAPI schema for POST /sessions/{sid}/utterances.
type utteranceRequest struct {
	UtteranceID string `json:"utterance_id"`
	Text        string `json:"text"`
}

func (u utteranceRequest) validate() error {
	if strings.TrimSpace(u.Text) == "" {
		return errors.New("missing text")
	}
	return nil
}

type saveResponse struct {
	Saved int `json:"saved"`
}

// HandleStart handles POST /users/{id}/sessions requests.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	start, err := h.deps.StartSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.start_session", err)
		return
	}
	writeJSON(w, http.StatusCreated, start)
}

// HandleUtterance handles POST /sessions/{sid}/utterances requests.
func (h *SessionHandler) HandleUtterance(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_utterance"
	var req utteranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	turn, err := h.deps.HandleUtterance(r.Context(), r.PathValue("sid"), req.UtteranceID, req.Text)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// HandleSave handles POST /sessions/{sid}/save requests.
func (h *SessionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.SaveDetected(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeServiceError(w, "api.save_session", err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Saved: n})
}

// HandleEnd handles DELETE /sessions/{sid} requests.
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.EndSession(r.Context(), r.PathValue("sid")); err != nil {
		writeServiceError(w, "api.end_session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
