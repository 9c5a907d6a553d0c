// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// SymptomID identifies one of the tracked perimenopause symptoms.
type SymptomID string

// Tracked symptoms, in interview order.
const (
	HotFlashes     SymptomID = "hot_flashes"
	NightSweats    SymptomID = "night_sweats"
	Sleep          SymptomID = "sleep"
	Mood           SymptomID = "mood"
	BrainFog       SymptomID = "brain_fog"
	Periods        SymptomID = "periods"
	VaginalDryness SymptomID = "vag_dry"
	Libido         SymptomID = "libido"
	Joints         SymptomID = "joints"
	Headaches      SymptomID = "headaches"
	Weight         SymptomID = "weight"
	Fatigue        SymptomID = "fatigue"
	Palpitations   SymptomID = "palp"
	Urinary        SymptomID = "urinary"
	SkinHair       SymptomID = "skin_hair"
)

// Symptom describes a catalog entry.
type Symptom struct {
	ID          SymptomID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

var catalog = []Symptom{
	{ID: HotFlashes, Name: "Hot Flashes", Description: "Sudden warmth, flushing, sweating"},
	{ID: NightSweats, Name: "Night Sweats", Description: "Soaking sweats during sleep"},
	{ID: Sleep, Name: "Sleep Disturbances", Description: "Difficulty falling or staying asleep"},
	{ID: Mood, Name: "Mood Changes", Description: "Irritability, anxiety, sadness"},
	{ID: BrainFog, Name: "Brain Fog / Memory", Description: "Forgetfulness, poor concentration"},
	{ID: Periods, Name: "Irregular Periods", Description: "Missed, heavy, or spotting"},
	{ID: VaginalDryness, Name: "Vaginal Dryness", Description: "Dryness, discomfort, painful sex"},
	{ID: Libido, Name: "Low Libido", Description: "Reduced sexual desire"},
	{ID: Joints, Name: "Joint & Muscle Pain", Description: "Aches, stiffness, joint pain"},
	{ID: Headaches, Name: "Headaches", Description: "Frequency or severity changes"},
	{ID: Weight, Name: "Weight / Bloating", Description: "Unexplained weight gain, bloating"},
	{ID: Fatigue, Name: "Fatigue", Description: "Persistent tiredness, low energy"},
	{ID: Palpitations, Name: "Heart Palpitations", Description: "Racing, fluttering, irregular heartbeat"},
	{ID: Urinary, Name: "Urinary Changes", Description: "Urgency, leaking, frequent UTIs"},
	{ID: SkinHair, Name: "Skin & Hair Changes", Description: "Dryness, thinning hair, acne"},
}

// Catalog returns a copy of the symptom catalog in interview order.
func Catalog() []Symptom {
	out := make([]Symptom, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id SymptomID) (Symptom, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Symptom{}, false
}

// Valid reports whether id is a catalog symptom.
func (id SymptomID) Valid() bool {
	_, ok := Lookup(id)
	return ok
}

// Name returns the display name, or the raw id for unknown symptoms.
func (id SymptomID) Name() string {
	if s, ok := Lookup(id); ok {
		return s.Name
	}
	return string(id)
}

// Severity is an ordered severity level. The empty value means "not logged".
type Severity string

// Severity levels, lowest first.
const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity normalizes s, accepting the short log-grid forms "mod" and "sev".
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return SeverityNone, true
	case "mild":
		return SeverityMild, true
	case "moderate", "mod":
		return SeverityModerate, true
	case "severe", "sev":
		return SeveritySevere, true
	}
	return "", false
}

// Rank orders severities: none/unset 0, mild 1, moderate 2, severe 3.
func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// Frequency is a free label from the log's frequency picker. The empty value means unset.
type Frequency string

// Frequency labels offered by the symptom log.
const (
	FrequencyMultipleDaily Frequency = "Multiple times a day"
	FrequencyOnceDaily     Frequency = "Once daily"
	FrequencySeveralWeekly Frequency = "Several times a week"
	FrequencyWeekly        Frequency = "Weekly"
	FrequencyRarely        Frequency = "Rarely"
	FrequencyUnset         Frequency = ""

	// FrequencyDaily is what the keyword extractor writes. It is not one of the
	// picker labels and scores like an unset frequency.
	FrequencyDaily Frequency = "Daily"
)

// Frequencies lists the picker labels in descending order of occurrence.
func Frequencies() []Frequency {
	return []Frequency{
		FrequencyMultipleDaily,
		FrequencyOnceDaily,
		FrequencySeveralWeekly,
		FrequencyWeekly,
		FrequencyRarely,
	}
}

// SymptomEntry is the most recent report for one symptom.
type SymptomEntry struct {
	Severity  Severity  `json:"severity,omitempty"`
	Frequency Frequency `json:"frequency"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SymptomLog maps a symptom to its latest entry. Writes overwrite.
type SymptomLog map[SymptomID]SymptomEntry

// NewSymptomLog returns an empty log.
func NewSymptomLog() SymptomLog {
	return make(SymptomLog)
}

// Entry returns the entry for id and whether it was logged.
func (l SymptomLog) Entry(id SymptomID) (SymptomEntry, bool) {
	if l == nil {
		return SymptomEntry{}, false
	}
	e, ok := l[id]
	return e, ok
}

// Record overwrites severity and frequency for id.
func (l SymptomLog) Record(id SymptomID, sev Severity, freq Frequency, at time.Time) {
	l[id] = SymptomEntry{Severity: sev, Frequency: freq, UpdatedAt: at}
}

// SetSeverity updates only the severity of id, keeping its frequency.
func (l SymptomLog) SetSeverity(id SymptomID, sev Severity, at time.Time) {
	e := l[id]
	e.Severity = sev
	e.UpdatedAt = at
	l[id] = e
}

// SetFrequency updates only the frequency of id, keeping its severity.
func (l SymptomLog) SetFrequency(id SymptomID, freq Frequency, at time.Time) {
	e := l[id]
	e.Frequency = freq
	e.UpdatedAt = at
	l[id] = e
}

// Clone returns an independent copy.
func (l SymptomLog) Clone() SymptomLog {
	out := make(SymptomLog, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Active counts entries with a severity other than none.
func (l SymptomLog) Active() int {
	n := 0
	for _, e := range l {
		if e.Severity != "" && e.Severity != SeverityNone {
			n++
		}
	}
	return n
}
