package scoring

import (
	"math"
	"strings"

	"github.com/okian/peri/internal/domain/model"
)

// Fallbacks substituted for absent, zero or malformed profile values.
const (
	FallbackAge         = 50.0
	FallbackHeightCm    = 165.0
	FallbackWeightKg    = 70.0
	FallbackSystolic    = 120.0
	FallbackDiastolic   = 80.0
	FallbackCholesterol = 1
	FallbackGlucose     = 1
	FallbackGender      = "female"
)

// Value is one named feature.
type Value struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
}

// Vector is an ordered list of named features.
type Vector []Value

// Get returns the value of the feature called name.
func (v Vector) Get(name string) (float64, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.X, true
		}
	}
	return 0, false
}

// Names returns the feature names in vector order.
func (v Vector) Names() []string {
	out := make([]string, len(v))
	for i, f := range v {
		out[i] = f.Name
	}
	return out
}

// Clinical is a profile with every fallback applied.
type Clinical struct {
	Age         float64
	HeightCm    float64
	WeightKg    float64
	Female      bool
	Systolic    float64
	Diastolic   float64
	Cholesterol int
	Glucose     int
	Smoking     bool
	Alcohol     bool
	Active      bool
}

// Resolve applies the documented fallbacks to p. It never fails.
func Resolve(p model.Profile) Clinical {
	gender := strings.ToLower(strings.TrimSpace(p.Gender))
	if gender == "" {
		gender = FallbackGender
	}
	return Clinical{
		Age:         orFloat(p.Age, FallbackAge),
		HeightCm:    orFloat(p.HeightCm, FallbackHeightCm),
		WeightKg:    orFloat(p.WeightKg, FallbackWeightKg),
		Female:      strings.HasPrefix(gender, "f"),
		Systolic:    orFloat(p.Systolic, FallbackSystolic),
		Diastolic:   orFloat(p.Diastolic, FallbackDiastolic),
		Cholesterol: orInt(p.Cholesterol, FallbackCholesterol),
		Glucose:     orInt(p.Glucose, FallbackGlucose),
		Smoking:     p.Smoking,
		Alcohol:     p.Alcohol,
		Active:      p.Active,
	}
}

// BMI is weight over height in metres squared.
func (c Clinical) BMI() float64 {
	m := c.HeightCm / 100
	return c.WeightKg / (m * m)
}

// PulsePressure is systolic minus diastolic.
func (c Clinical) PulsePressure() float64 { return c.Systolic - c.Diastolic }

// MeanArterialPressure approximates MAP as diastolic plus a third of the pulse pressure.
func (c Clinical) MeanArterialPressure() float64 { return c.Diastolic + c.PulsePressure()/3 }

// BPStage returns the hypertension stage for the resolved readings.
func (c Clinical) BPStage() int { return BPStage(c.Systolic, c.Diastolic) }

// BPStage buckets a reading into 0 normal, 1 elevated, 2 stage 1, 3 stage 2
// or 4 crisis. The highest matching bucket wins.
func BPStage(systolic, diastolic float64) int {
	switch {
	case systolic >= 180 || diastolic >= 120:
		return 4
	case systolic >= 140 || diastolic >= 90:
		return 3
	case systolic >= 130 || diastolic >= 80:
		return 2
	case systolic >= 120:
		return 1
	default:
		return 0
	}
}

// scored lists the symptoms that feed the model, in ranking order, with
// their weight in the symptom burden composite.
var scored = []struct {
	id     model.SymptomID
	weight float64
}{
	{model.Palpitations, 0.35},
	{model.HotFlashes, 0.18},
	{model.NightSweats, 0.14},
	{model.Sleep, 0.12},
	{model.Fatigue, 0.10},
	{model.Headaches, 0.08},
	{model.Mood, 0.06},
	{model.BrainFog, 0.06},
	{model.Weight, 0.05},
	{model.Joints, 0.04},
	{model.Urinary, 0.03},
	{model.Periods, 0.04},
}

// ScoredSymptoms returns the twelve symptoms the model uses, in ranking order.
func ScoredSymptoms() []model.SymptomID {
	out := make([]model.SymptomID, len(scored))
	for i, s := range scored {
		out[i] = s.id
	}
	return out
}

// CompositeWeight returns the symptom burden weight of id, zero when unscored.
func CompositeWeight(id model.SymptomID) float64 {
	for _, s := range scored {
		if s.id == id {
			return s.weight
		}
	}
	return 0
}

// SymptomFeature is the model feature name for a symptom.
func SymptomFeature(id model.SymptomID) string {
	return symptomFeaturePrefix + string(id)
}

// SeverityScore maps a severity onto [0,1]. Unknown and unset severities score 0.
func SeverityScore(s model.Severity) float64 {
	sev, ok := model.ParseSeverity(string(s))
	if !ok {
		return 0
	}
	switch sev {
	case model.SeverityMild:
		return 0.3
	case model.SeverityModerate:
		return 0.7
	case model.SeveritySevere:
		return 1.0
	default:
		return 0
	}
}

// FrequencyMultiplier maps a frequency label onto its multiplier. Labels
// outside the picker set, including unset, use 0.5.
func FrequencyMultiplier(f model.Frequency) float64 {
	switch f {
	case model.FrequencyMultipleDaily:
		return 1.0
	case model.FrequencyOnceDaily:
		return 0.85
	case model.FrequencySeveralWeekly:
		return 0.65
	case model.FrequencyWeekly:
		return 0.45
	case model.FrequencyRarely:
		return 0.2
	default:
		return 0.5
	}
}

// SymptomScore is severity times frequency multiplier for id, zero when
// the symptom is absent from the log or denied.
func SymptomScore(log model.SymptomLog, id model.SymptomID) float64 {
	e, ok := log.Entry(id)
	if !ok {
		return 0
	}
	return SeverityScore(e.Severity) * FrequencyMultiplier(e.Frequency)
}

// Build maps a profile and a symptom log onto the model's feature vector.
// The result has exactly one value per parameter, in parameter order.
func (m Model) Build(p model.Profile, log model.SymptomLog) Vector {
	c := Resolve(p)
	bmi := c.BMI()
	stage := float64(c.BPStage())

	features := map[string]float64{
		FeatureAge:         c.Age,
		FeatureGender:      boolFloat(c.Female),
		FeatureHeight:      c.HeightCm,
		FeatureWeight:      c.WeightKg,
		FeatureBMI:         bmi,
		FeatureSystolic:    c.Systolic,
		FeatureDiastolic:   c.Diastolic,
		FeatureCholesterol: float64(c.Cholesterol),
		FeatureGlucose:     float64(c.Glucose),
		FeatureSmoke:       boolFloat(c.Smoking),
		FeatureAlcohol:     boolFloat(c.Alcohol),
		FeatureActive:      boolFloat(c.Active),
		FeaturePulse:       c.PulsePressure(),
		FeatureMAP:         c.MeanArterialPressure(),
		FeatureBPStage:     stage,
		FeatureAgeBMI:      c.Age * bmi,
		FeatureAgeBP:       c.Age * stage,
		FeatureCholGluc:    float64(c.Cholesterol) * float64(c.Glucose),
	}

	var composite float64
	for _, s := range scored {
		score := SymptomScore(log, s.id)
		features[SymptomFeature(s.id)] = score
		composite += s.weight * score
	}
	features[FeatureComposite] = composite

	v := make(Vector, len(m.Params))
	for i, param := range m.Params {
		v[i] = Value{Name: param.Name, X: features[param.Name]}
	}
	return v
}

// BuildVector builds the feature vector with the default model.
func BuildVector(p model.Profile, log model.SymptomLog) Vector {
	return DefaultModel().Build(p, log)
}

func orFloat(v *float64, fallback float64) float64 {
	if v == nil || *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback
	}
	return *v
}

func orInt(v *int, fallback int) int {
	if v == nil || *v == 0 {
		return fallback
	}
	return *v
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
