package scoring

import (
	"sort"

	"github.com/okian/peri/internal/domain/model"
)

// Contribution ranks one logged symptom. It explains the result; it is not
// part of the probability.
type Contribution struct {
	Symptom      model.SymptomID `json:"symptom"`
	Name         string          `json:"name"`
	Score        float64         `json:"score"`
	Severity     model.Severity  `json:"severity"`
	Frequency    model.Frequency `json:"frequency"`
	Weight       float64         `json:"weight"`
	Contribution float64         `json:"contribution"`
}

// Result is the full risk breakdown for a profile and a symptom log.
type Result struct {
	Full          float64        `json:"full"`
	ClinicalOnly  float64        `json:"clinical_only"`
	SymptomDelta  float64        `json:"symptom_delta"`
	Logit         float64        `json:"logit"`
	Band          Band           `json:"band"`
	Elevated      bool           `json:"elevated"`
	Contributions []Contribution `json:"contributions"`
}

// Breakdown scores the profile twice, with the log and with an empty log.
//
// SymptomDelta is Full minus ClinicalOnly. It only approximates how much the
// symptoms moved the score: the logit is additive but the sigmoid is not, so
// the same symptoms shift the probability by different amounts on different
// clinical baselines.
func (s *LogisticScorer) Breakdown(p model.Profile, log model.SymptomLog) Result {
	full := s.Predict(p, log)
	clinical := s.Predict(p, nil)
	return Result{
		Full:          full.Probability,
		ClinicalOnly:  clinical.Probability,
		SymptomDelta:  full.Probability - clinical.Probability,
		Logit:         full.Logit,
		Band:          Classify(full.Probability),
		Elevated:      s.model.Elevated(full.Probability),
		Contributions: s.model.Contributions(log),
	}
}

// Contributions ranks every scored symptom with a nonzero composite by
// composite × importance × 100, largest first. Ties keep ranking order.
func (m Model) Contributions(log model.SymptomLog) []Contribution {
	out := []Contribution{}
	for _, s := range scored {
		score := SymptomScore(log, s.id)
		if score <= 0 {
			continue
		}
		e, _ := log.Entry(s.id)
		w := m.importance(SymptomFeature(s.id))
		out = append(out, Contribution{
			Symptom:      s.id,
			Name:         s.id.Name(),
			Score:        score,
			Severity:     e.Severity,
			Frequency:    e.Frequency,
			Weight:       w,
			Contribution: score * w * 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Contribution > out[j].Contribution
	})
	return out
}

// Elevated reports whether probability reaches the decision threshold.
func (m Model) Elevated(probability float64) bool {
	return probability >= m.Threshold
}
