// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/peri/internal/domain/scoring"
)

// Assessment is a stored risk snapshot for one user.
type Assessment struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Reason       string    `json:"reason,omitempty"`
	ComputedAt   time.Time `json:"computed_at"`
	Insufficient bool      `json:"insufficient"`

	Full          float64                `json:"full"`
	ClinicalOnly  float64                `json:"clinical_only"`
	SymptomDelta  float64                `json:"symptom_delta"`
	Band          scoring.Band           `json:"band,omitempty"`
	Elevated      bool                   `json:"elevated"`
	Contributions []scoring.Contribution `json:"contributions"`
}

// NewAssessment snapshots a breakdown.
func NewAssessment(userID, reason string, r scoring.Result, at time.Time) Assessment {
	contributions := r.Contributions
	if contributions == nil {
		contributions = []scoring.Contribution{}
	}
	return Assessment{
		ID:            uuid.NewString(),
		UserID:        userID,
		Reason:        reason,
		ComputedAt:    at,
		Full:          r.Full,
		ClinicalOnly:  r.ClinicalOnly,
		SymptomDelta:  r.SymptomDelta,
		Band:          r.Band,
		Elevated:      r.Elevated,
		Contributions: contributions,
	}
}

// InsufficientAssessment records that the profile could not be scored.
func InsufficientAssessment(userID, reason string, at time.Time) Assessment {
	return Assessment{
		ID:            uuid.NewString(),
		UserID:        userID,
		Reason:        reason,
		ComputedAt:    at,
		Insufficient:  true,
		Contributions: []scoring.Contribution{},
	}
}

// Result converts the snapshot back into a breakdown.
func (a Assessment) Result() scoring.Result {
	return scoring.Result{
		Full:          a.Full,
		ClinicalOnly:  a.ClinicalOnly,
		SymptomDelta:  a.SymptomDelta,
		Band:          a.Band,
		Elevated:      a.Elevated,
		Contributions: a.Contributions,
	}
}
