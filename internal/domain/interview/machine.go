package interview

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/peri/internal/domain/model"
)

// Transition names what an answer did to the interview.
type Transition string

// Transitions reported by Answer.
const (
	// TransitionDenied records severity none and moves on.
	TransitionDenied Transition = "denied"
	// TransitionFollowUp records the severity and asks how often.
	TransitionFollowUp Transition = "follow_up"
	// TransitionRecorded stores severity and frequency and moves on.
	TransitionRecorded Transition = "recorded"
	// TransitionClosed answers the closing statement and ends the interview.
	TransitionClosed Transition = "closed"
	// TransitionFallback answers input received after the interview ended.
	TransitionFallback Transition = "fallback"
)

// Step is the outcome of one answer.
type Step struct {
	Transition Transition      `json:"transition"`
	Symptom    model.SymptomID `json:"symptom,omitempty"`
	Severity   model.Severity  `json:"severity,omitempty"`
	Frequency  model.Frequency `json:"frequency,omitempty"`
	// Reply is what to say next: the follow-up, the next question or a
	// closing reply.
	Reply    string `json:"reply"`
	FollowUp bool   `json:"follow_up"`
	// Persist is set when the symptom log changed in a way worth storing.
	Persist  bool `json:"persist"`
	Complete bool `json:"complete"`
}

// State is the serialisable position of a machine.
type State struct {
	Index            int  `json:"index"`
	AwaitingFollowUp bool `json:"awaiting_follow_up"`
}

// Progress mirrors the interview progress bar.
type Progress struct {
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithName personalises the opening question.
func WithName(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}

// WithClock overrides the time source used to stamp log entries.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithState resumes a machine at a saved position.
func WithState(s State) Option {
	return func(m *Machine) {
		if s.Index >= 0 && s.Index <= len(m.questions) {
			m.index = s.Index
			m.awaiting = s.AwaitingFollowUp && s.Index < len(m.questions)
		}
	}
}

// Machine walks the question list. It is not safe for concurrent use; one
// machine belongs to one session.
type Machine struct {
	questions []Question
	index     int
	awaiting  bool
	name      string
	now       func() time.Time
}

// NewMachine creates a machine positioned on the opening question.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		questions: questions,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current position.
func (m *Machine) State() State {
	return State{Index: m.index, AwaitingFollowUp: m.awaiting}
}

// Complete reports whether every question, including the closing one, has
// been answered.
func (m *Machine) Complete() bool {
	return m.index >= len(m.questions)
}

// Current returns the question awaiting an answer.
func (m *Machine) Current() (Question, bool) {
	if m.Complete() {
		return Question{}, false
	}
	return m.questions[m.index], true
}

// Prompt returns what is currently being asked, empty once complete.
func (m *Machine) Prompt() string {
	q, ok := m.Current()
	if !ok {
		return ""
	}
	if m.awaiting {
		return FollowUp(q.Symptom)
	}
	return q.Prompt(m.name)
}

// Answer applies one free-text answer to the interview, writing to log.
//
// Every answer to a symptom question is classified for severity first. A
// denial records severity none with no frequency and advances, also when it
// answers the follow-up. Any other severity is recorded and a follow-up asks
// for the frequency; the follow-up answer overwrites the severity with its
// own, supplies the frequency and advances. The answer to the closing
// statement only completes the interview and gets no reply.
func (m *Machine) Answer(text string, log model.SymptomLog) Step {
	q, ok := m.Current()
	if !ok {
		return Step{Transition: TransitionFallback, Reply: Fallback(text), Complete: true}
	}

	if q.Symptom == "" {
		m.advance()
		return Step{Transition: TransitionClosed, Complete: true}
	}

	now := m.now()
	sev := ClassifySeverity(text)
	if sev == model.SeverityNone {
		log.Record(q.Symptom, model.SeverityNone, model.FrequencyUnset, now)
		m.advance()
		return Step{
			Transition: TransitionDenied,
			Symptom:    q.Symptom,
			Severity:   sev,
			Reply:      m.Prompt(),
			Persist:    true,
			Complete:   m.Complete(),
		}
	}

	if m.awaiting {
		freq := ClassifyFrequency(text)
		log.Record(q.Symptom, sev, freq, now)
		m.advance()
		return Step{
			Transition: TransitionRecorded,
			Symptom:    q.Symptom,
			Severity:   sev,
			Frequency:  freq,
			Reply:      m.Prompt(),
			Persist:    true,
			Complete:   m.Complete(),
		}
	}

	log.SetSeverity(q.Symptom, sev, now)
	m.awaiting = true
	return Step{
		Transition: TransitionFollowUp,
		Symptom:    q.Symptom,
		Severity:   sev,
		Reply:      FollowUp(q.Symptom),
		FollowUp:   true,
	}
}

func (m *Machine) advance() {
	m.awaiting = false
	m.index++
}

// Progress reports the position as the progress bar shows it: the opening
// and closing entries are not counted as questions.
func (m *Machine) Progress() Progress {
	total := len(m.questions) - 2
	step := m.index - 1
	if step < 0 {
		step = 0
	}
	pct := int(math.Round(float64(step) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	p := Progress{Step: step, Total: total, Percent: pct}
	switch {
	case m.index == 0:
		p.Label = "Starting session..."
	case m.index >= len(m.questions)-1:
		p.Label = "Session complete"
	default:
		p.Label = fmt.Sprintf("Question %d of %d", step, total)
	}
	return p
}
