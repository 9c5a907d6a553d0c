package api

import (
	"net/http"

	"github.com/okian/peri/internal/domain/model"
)

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// profileResponse adds derived values to the stored profile.
type profileResponse struct {
	model.Profile
	BMI *float64 `json:"bmi,omitempty"`
}

func newProfileResponse(p model.Profile) profileResponse {
	resp := profileResponse{Profile: p}
	if bmi, ok := p.BMI(); ok {
		resp.BMI = &bmi
	}
	return resp
}

// HandleGet handles GET /users/{id}/profile requests.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.get_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

// HandlePut handles PUT /users/{id}/profile requests. The body is the raw
// profile form; malformed numbers are dropped, not rejected.
func (h *ProfileHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_profile"
	var form model.ProfileForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p := form.Profile()
	if err := h.deps.PutProfile(r.Context(), r.PathValue("id"), p); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}
