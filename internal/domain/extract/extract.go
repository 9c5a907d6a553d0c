// Package extract detects symptoms mentioned in free conversation, outside
// the structured interview.
package extract

import (
	"strings"
	"sync"
	"time"

	"github.com/okian/peri/internal/domain/model"
)

// Trigger phrases per symptom, matched as lowercase substrings.
var keywords = []struct {
	id     model.SymptomID
	phrase []string
}{
	{model.HotFlashes, []string{"hot flash", "hot flashes", "flush", "flushing", "burning", "sudden heat"}},
	{model.NightSweats, []string{"night sweat", "sweating at night", "soaking", "drenched", "waking up soaked"}},
	{model.Sleep, []string{"can't sleep", "insomnia", "wake up", "waking up", "restless", "awake all night", "no sleep"}},
	{model.Mood, []string{"mood", "irritable", "anxious", "anxiety", "crying", "emotional", "anger", "tearful", "rage"}},
	{model.BrainFog, []string{"brain fog", "memory", "forget", "concentration", "focus", "confused", "fuzzy"}},
	{model.Periods, []string{"period", "bleeding", "irregular", "spotting", "heavy bleeding", "missed period"}},
	{model.VaginalDryness, []string{"dryness", "painful sex", "vaginal dryness", "vaginal discomfort", "dry vagina"}},
	{model.Libido, []string{"libido", "sex drive", "no desire", "not interested in sex"}},
	{model.Joints, []string{"joint pain", "ache", "stiff", "stiffness", "sore muscles", "body aches"}},
	{model.Headaches, []string{"headache", "migraine", "head pain"}},
	{model.Weight, []string{"weight gain", "bloat", "bloating", "gaining weight"}},
	{model.Fatigue, []string{"fatigue", "exhausted", "tired all", "no energy", "drained", "wiped out"}},
	{model.Palpitations, []string{"palpitation", "heart racing", "flutter", "racing heart", "heart pounding"}},
	{model.Urinary, []string{"urinary", "bladder", "leaking", "uti", "frequent urination"}},
	{model.SkinHair, []string{"hair loss", "thinning hair", "dry skin"}},
}

var (
	severeWords   = []string{"severe", "unbearable", "terrible", "worst", "constant", "debilitating", "10/10"}
	moderateWords = []string{"moderate", "really bad", "pretty bad", "frequent", "most days", "every day"}
)

// Detection is a symptom picked up from conversation.
type Detection struct {
	Symptom    model.SymptomID `json:"symptom"`
	Severity   model.Severity  `json:"severity"`
	Frequency  model.Frequency `json:"frequency"`
	DetectedAt time.Time       `json:"detected_at"`
}

// Extractor accumulates detections for one session. It is safe for
// concurrent use.
type Extractor struct {
	mu       sync.Mutex
	detected map[model.SymptomID]Detection
	now      func() time.Time
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an empty extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		detected: make(map[model.SymptomID]Detection),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe scans text and returns the symptoms it mentions. A symptom seen
// for the first time is recorded as mild, daily. Severity words in the same
// text upgrade the entry; they never downgrade it.
func (e *Extractor) Observe(text string) []model.SymptomID {
	lower := strings.ToLower(text)
	sev := intensity(lower)

	e.mu.Lock()
	defer e.mu.Unlock()

	var hits []model.SymptomID
	for _, k := range keywords {
		if !containsAny(lower, k.phrase) {
			continue
		}
		hits = append(hits, k.id)
		d, ok := e.detected[k.id]
		if !ok {
			d = Detection{
				Symptom:    k.id,
				Severity:   model.SeverityMild,
				Frequency:  model.FrequencyDaily,
				DetectedAt: e.now(),
			}
		}
		if sev.Rank() > d.Severity.Rank() {
			d.Severity = sev
		}
		e.detected[k.id] = d
	}
	return hits
}

// Detected returns the detections in catalog order.
func (e *Extractor) Detected() []Detection {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Detection, 0, len(e.detected))
	for _, k := range keywords {
		if d, ok := e.detected[k.id]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of detected symptoms.
func (e *Extractor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.detected)
}

// MergeInto writes every detection into log, overwriting existing entries,
// and returns how many were written.
func (e *Extractor) MergeInto(log model.SymptomLog, at time.Time) int {
	detected := e.Detected()
	for _, d := range detected {
		freq := d.Frequency
		if freq == model.FrequencyUnset {
			freq = model.FrequencyDaily
		}
		log.Record(d.Symptom, d.Severity, freq, at)
	}
	return len(detected)
}

func intensity(lower string) model.Severity {
	switch {
	case containsAny(lower, severeWords):
		return model.SeveritySevere
	case containsAny(lower, moderateWords):
		return model.SeverityModerate
	default:
		return model.SeverityMild
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
