package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/peri/internal/domain/interview"
	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/pkg/logger"
)

// Answer phrasings per intent. Confirmations carry the symptom keyword so
// the conversational extractor has something to find.
var (
	denials       = []string{"no", "not really", "nope, not at all", "never"}
	confirmations = []string{"yes, a little", "yes, it's pretty bad", "honestly it's terrible", "moderate I'd say", "some, yes"}
	frequencies   = []string{"every day", "a few times a week", "once a week", "all day long", "not that often"}
	closings      = []string{"thank you", "how do I get my report?", "ok", "I'll check the risk tab"}
)

// randomInt returns a uniform int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func pick(options []string) string {
	return options[randomInt(len(options))]
}

func between(lo, hi int) string {
	return strconv.Itoa(lo + randomInt(hi-lo+1))
}

// generatePersonas creates cfg.Users personas with unique user IDs.
func generatePersonas(ctx context.Context, cfg *Config, stats *Stats) ([]Persona, error) {
	logger.Get().Info(ctx, "generating personas", logger.Int("users", cfg.Users))

	personas := make([]Persona, cfg.Users)
	for i := range personas {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		personas[i] = generatePersona(uuid.NewString())
	}

	stats.UsersGenerated = len(personas)
	logger.Get().Info(ctx, "generated personas", logger.Int("count", len(personas)))
	return personas, nil
}

// generatePersona builds one persona. About one in eight omits blood
// pressure so the insufficient-data path is exercised.
func generatePersona(userID string) Persona {
	form := model.ProfileForm{
		Name:         "User " + userID[:8],
		Age:          between(38, 62),
		HeightUnit:   "cm",
		HeightVal:    between(150, 182),
		WeightUnit:   "kg",
		WeightVal:    between(48, 110),
		Gender:       "1",
		Systolic:     between(100, 190),
		Diastolic:    between(60, 110),
		Cholesterol:  between(1, 3),
		Glucose:      between(1, 3),
		Smoking:      between(0, 1),
		Alcohol:      between(0, 1),
		PhysActivity: between(0, 1),
	}
	if randomInt(8) == 0 {
		form.Systolic = ""
	}
	if randomInt(2) == 0 {
		form.HeightUnit, form.HeightVal = "ft", ""
		form.HeightFt, form.HeightIn = between(4, 6), between(0, 11)
	}

	var answers []string
	for _, q := range interview.Questions() {
		if q.Symptom == "" {
			answers = append(answers, pick(closings))
			continue
		}
		if randomInt(3) == 0 {
			answers = append(answers, pick(denials))
			continue
		}
		name := strings.ToLower(q.Symptom.Name())
		answers = append(answers, pick(confirmations)+", "+name, pick(frequencies))
	}

	return Persona{
		UserID:      userID,
		Form:        form,
		Answers:     answers,
		SaveDetect:  randomInt(2) == 0,
		ResendFirst: randomInt(4) == 0,
	}
}
