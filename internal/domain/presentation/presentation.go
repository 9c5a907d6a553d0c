// Package presentation turns a risk breakdown into plain display data: gauge,
// bars, radar factors, explanation and recommendations. It renders nothing.
package presentation

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/peri/internal/domain/model"
	"github.com/okian/peri/internal/domain/scoring"
)

// maxSymptomBars caps the ranked symptom bars.
const maxSymptomBars = 10

// Palette holds the colours of a band.
type Palette struct {
	Color      string `json:"color"`
	Background string `json:"background"`
	Track      string `json:"track"`
}

var palettes = map[scoring.Band]Palette{
	scoring.BandLow:      {Color: "#2E7D5A", Background: "#E8F4EE", Track: "#A8D8B8"},
	scoring.BandModerate: {Color: "#B8860B", Background: "#FDF3D0", Track: "#F0CC60"},
	scoring.BandHigh:     {Color: "#C05020", Background: "#FDE8D8", Track: "#F0A060"},
	scoring.BandVeryHigh: {Color: "#901828", Background: "#FDE0E0", Track: "#F08080"},
}

// PaletteFor returns the colours of b, Moderate's for unknown bands.
func PaletteFor(b scoring.Band) Palette {
	if p, ok := palettes[b]; ok {
		return p
	}
	return palettes[scoring.BandModerate]
}

// Gauge is the headline dial.
type Gauge struct {
	Percent int          `json:"percent"`
	Value   float64      `json:"value"`
	Band    scoring.Band `json:"band"`
	Label   string       `json:"label"`
	Palette Palette      `json:"palette"`
}

// Bar is one horizontal bar. Width is relative to the largest bar in its group.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Width float64 `json:"width"`
}

// Bars are the breakdown bars.
type Bars struct {
	Clinical        int   `json:"clinical"`
	SymptomAdjusted int   `json:"symptom_adjusted"`
	Final           int   `json:"final"`
	Symptoms        []Bar `json:"symptoms"`
	// ActiveSymptoms counts every contributing symptom, including those
	// beyond the bar cap.
	ActiveSymptoms int `json:"active_symptoms"`
}

// Factor is one radar axis in [0,1].
type Factor struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// View is everything a client needs to draw the risk page.
type View struct {
	Gauge           Gauge    `json:"gauge"`
	Bars            Bars     `json:"bars"`
	Radar           []Factor `json:"radar"`
	Explanation     []string `json:"explanation"`
	Recommendations []string `json:"recommendations"`
	ThresholdPct    int      `json:"threshold_pct"`
}

// Build assembles the view for a breakdown of profile p.
func Build(p model.Profile, r scoring.Result, threshold float64) View {
	return View{
		Gauge:           NewGauge(r),
		Bars:            NewBars(r),
		Radar:           Radar(p, r.SymptomDelta),
		Explanation:     Explain(p, r, threshold),
		Recommendations: Recommendations(r.Band),
		ThresholdPct:    percent(threshold),
	}
}

// NewGauge builds the dial for r.
func NewGauge(r scoring.Result) Gauge {
	return Gauge{
		Percent: percent(r.Full),
		Value:   r.Full,
		Band:    r.Band,
		Label:   string(r.Band) + " Risk",
		Palette: PaletteFor(r.Band),
	}
}

// NewBars builds the clinical, symptom and final bars plus up to ten ranked
// symptom bars normalised to the largest contribution.
func NewBars(r scoring.Result) Bars {
	final := percent(r.Full)
	clinical := percent(r.ClinicalOnly)
	b := Bars{
		Clinical:        clinical,
		SymptomAdjusted: max(0, final-clinical),
		Final:           final,
		Symptoms:        []Bar{},
		ActiveSymptoms:  len(r.Contributions),
	}
	if len(r.Contributions) == 0 {
		return b
	}
	top := r.Contributions[0].Contribution
	for i, c := range r.Contributions {
		if i == maxSymptomBars {
			break
		}
		width := c.Contribution
		if top > 0 {
			width = math.Min(100, c.Contribution/top*100)
		}
		b.Symptoms = append(b.Symptoms, Bar{Label: c.Name, Value: c.Contribution, Width: width})
	}
	return b
}

// Radar scales seven risk factors onto [0,1].
func Radar(p model.Profile, symptomDelta float64) []Factor {
	c := scoring.Resolve(p)
	lifestyle := 0.45
	if c.Active {
		lifestyle = 0
	}
	if c.Smoking {
		lifestyle += 0.4
	}
	if c.Alcohol {
		lifestyle += 0.15
	}
	return []Factor{
		{Label: "Age", Value: clamp((c.Age - 30) / 40)},
		{Label: "Systolic BP", Value: clamp((c.Systolic - 90) / 150)},
		{Label: "Cholesterol", Value: math.Min(1, float64(c.Cholesterol)/3)},
		{Label: "BMI", Value: clamp((c.BMI() - 18) / 24)},
		{Label: "Glucose", Value: math.Min(1, float64(c.Glucose)/3)},
		{Label: "Lifestyle", Value: math.Min(1, lifestyle)},
		{Label: "Symptoms", Value: clamp(symptomDelta / 0.15)},
	}
}

// Explain writes the interpretation paragraphs for r.
func Explain(p model.Profile, r scoring.Result, threshold float64) []string {
	c := scoring.Resolve(p)
	final, clinical := percent(r.Full), percent(r.ClinicalOnly)
	reading := fmt.Sprintf("%s/%s mmHg", trim(c.Systolic), trim(c.Diastolic))

	var bp string
	switch {
	case c.Systolic >= 140 || c.Diastolic >= 90:
		bp = fmt.Sprintf("Your blood pressure (%s) is hypertensive, the strongest modifiable risk factor in this model.", reading)
	case c.Systolic >= 130:
		bp = fmt.Sprintf("Your blood pressure (%s) is elevated. Pre-hypertension increases cardiovascular risk over time.", reading)
	default:
		bp = fmt.Sprintf("Your blood pressure (%s) is well-controlled, which is protective.", reading)
	}

	var chol string
	switch c.Cholesterol {
	case 3:
		chol = "Your cholesterol is well above normal. This is a strong predictor of cardiovascular disease in the model."
	case 2:
		chol = "Your cholesterol is above normal. Estrogen decline in perimenopause causes LDL to rise, so monitor it closely."
	default:
		chol = "Your cholesterol is in the normal range."
	}

	symptoms := "No symptoms logged yet. Log symptoms to see how they shift your personalised risk score."
	if len(r.Contributions) > 0 {
		names := make([]string, 0, 3)
		for i, ct := range r.Contributions {
			if i == 3 {
				break
			}
			names = append(names, ct.Name)
		}
		symptoms = fmt.Sprintf("Your symptom log contributed %d percentage points to your final score. Top symptoms: %s.",
			max(0, final-clinical), strings.Join(names, ", "))
	}

	verdict := fmt.Sprintf("Score is below the model's decision threshold (%d%%). The model classifies this as lower cardiovascular risk at this time.", percent(threshold))
	if r.Elevated {
		verdict = fmt.Sprintf("Score exceeds the model's decision threshold (%d%%). The model classifies this as elevated cardiovascular risk. Please discuss it with your doctor.", percent(threshold))
	}

	return []string{
		fmt.Sprintf("Your risk probability is %d%% (%s). Clinical features account for %dpp. %s", final, r.Band, clinical, bp),
		chol,
		symptoms,
		verdict,
	}
}

func percent(p float64) int {
	return int(math.Round(p * 100))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func trim(v float64) string {
	return fmt.Sprintf("%g", v)
}
