package loadgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/okian/peri/internal/domain/extract"
	"github.com/okian/peri/internal/domain/interview"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
)

// expected replays a persona locally: the same interview, the same
// extractor merge and the same scorer the service uses.
func expected(ctx context.Context, scorer scoring.Scorer, p Persona) (scoring.Result, error) {
	profile := p.Form.Profile()
	symptoms := model.NewSymptomLog()

	m := interview.NewMachine(interview.WithName(profile.Name))
	e := extract.New()
	for _, text := range p.Answers {
		e.Observe(text)
		m.Answer(text, symptoms)
	}
	if p.SaveDetect {
		e.MergeInto(symptoms, time.Now())
	}

	return scorer.Score(ctx, scoring.Input{Profile: profile, Log: symptoms})
}

// verifyResults compares every outcome against its local replay and
// returns an error when any differ.
func verifyResults(ctx context.Context, cfg *Config, personas []Persona, outcomes []Outcome, stats *Stats) error {
	log.Println("Verifying results...")

	scorer := scoring.NewLogisticScorer()
	for i, p := range personas {
		out := outcomes[i]
		if out.Err != "" {
			continue
		}

		want, err := expected(ctx, scorer, p)
		switch {
		case errors.Is(err, scoring.ErrInsufficientData):
			stats.Insufficient++
			if out.Status != http.StatusUnprocessableEntity {
				stats.Mismatches++
				log.Printf("user %s: expected 422, got %d", p.UserID, out.Status)
			}
			continue
		case err != nil:
			return fmt.Errorf("replay %s: %w", p.UserID, err)
		}

		stats.Assessed++
		if out.Status != http.StatusOK || math.Abs(out.Full-want.Full) > scoreTolerance || out.Band != string(want.Band) {
			stats.Mismatches++
			if cfg.Verbose || stats.Mismatches <= 10 {
				log.Printf("user %s: service %.6f %s (status %d), replay %.6f %s",
					p.UserID, out.Full, out.Band, out.Status, want.Full, want.Band)
			}
		}
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%d of %d outcomes differ from the local replay", stats.Mismatches, len(outcomes))
	}
	log.Println("Result verification completed")
	return nil
}

// verifyLatest checks that background recomputes left a snapshot for every
// driven user.
func verifyLatest(ctx context.Context, cfg *Config, outcomes []Outcome) int {
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	missing := 0
	for _, out := range outcomes {
		if out.Err != "" {
			continue
		}
		status, err := client.Do(ctx, http.MethodGet, "/users/"+out.UserID+"/risk/latest", nil, nil)
		if err != nil || status != http.StatusOK {
			missing++
		}
	}
	return missing
}
