// Package interview drives the structured symptom interview: a fixed list of
// questions, free-text answer classification and a follow-up for frequency.
package interview

import (
	"fmt"

	"github.com/okian/peri/internal/domain/model"
)

// Question is one entry of the interview. The closing entry has no symptom.
type Question struct {
	ID      string          `json:"id"`
	Symptom model.SymptomID `json:"symptom,omitempty"`
	text    string
}

// Prompt renders the question. Only the opening question uses name.
func (q Question) Prompt(name string) string {
	if q.ID != introID {
		return q.text
	}
	greeting := "Hello"
	if name != "" {
		greeting = fmt.Sprintf("Hello, %s", name)
	}
	return fmt.Sprintf(q.text, greeting)
}

const (
	introID = "intro"
	doneID  = "done"
)

var questions = []Question{
	{ID: introID, Symptom: model.HotFlashes, text: "%s! I'm Peri, your perimenopause companion. I'm going to ask you about 15 common symptoms so I can build a complete picture of how you're feeling. There are no right or wrong answers, just tell me what's true for you. Let's start: have you been experiencing any hot flashes or sudden waves of heat?"},
	{ID: "night_sweats", Symptom: model.NightSweats, text: "Thank you. What about night sweats? Are you waking up drenched or overheated during the night?"},
	{ID: "sleep", Symptom: model.Sleep, text: "How is your sleep overall? Are you having trouble falling asleep, staying asleep, or waking up too early?"},
	{ID: "mood", Symptom: model.Mood, text: "Have you noticed any changes in your mood? Things like irritability, anxiety, sudden tearfulness, or feeling more on edge than usual?"},
	{ID: "brain_fog", Symptom: model.BrainFog, text: "What about your memory and concentration? Are you experiencing brain fog, forgetfulness, or difficulty focusing?"},
	{ID: "periods", Symptom: model.Periods, text: "How have your periods been? Are they irregular, heavier, lighter, or have they stopped altogether?"},
	{ID: "vag_dry", Symptom: model.VaginalDryness, text: "Are you experiencing any vaginal dryness, discomfort, or pain during sex?"},
	{ID: "libido", Symptom: model.Libido, text: "Has your sex drive changed? Do you feel less interested in intimacy than you used to?"},
	{ID: "joints", Symptom: model.Joints, text: "What about joint or muscle pain? Are you noticing aches, stiffness, or soreness that wasn't there before?"},
	{ID: "headaches", Symptom: model.Headaches, text: "Have your headaches changed at all? More frequent, more intense, or happening at different times?"},
	{ID: "weight", Symptom: model.Weight, text: "Have you noticed any unexplained weight changes or bloating, particularly around the midsection?"},
	{ID: "fatigue", Symptom: model.Fatigue, text: "How is your energy? Are you feeling persistently tired or exhausted even after a full night of sleep?"},
	{ID: "palp", Symptom: model.Palpitations, text: "Have you noticed any heart palpitations? A racing, fluttering, or pounding sensation in your chest?"},
	{ID: "urinary", Symptom: model.Urinary, text: "Any changes with your bladder? Things like urgency, leaking when you laugh or sneeze, or frequent urinary tract infections?"},
	{ID: "skin_hair", Symptom: model.SkinHair, text: "Last one: have you noticed changes to your skin or hair? Dryness, thinning hair, breakouts, or changes in texture?"},
	{ID: doneID, text: "That's all 15 symptoms covered. Thank you for sharing all of that with me. I've been tracking everything you've told me. You can now save this to your symptom log, or generate a clinical report to share with your doctor. Is there anything else you'd like to tell me?"},
}

// Questions returns the interview in order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

var followUps = map[model.SymptomID]string{
	model.HotFlashes:     "How often are the hot flashes happening? A few times a day, or more like once or twice?",
	model.NightSweats:    "How often are they waking you up? Most nights, or just occasionally?",
	model.Sleep:          "How many nights a week does this affect your sleep?",
	model.Mood:           "Is this something you're noticing most days, or does it come and go?",
	model.BrainFog:       "Is the brain fog affecting you daily, or is it more intermittent?",
	model.Periods:        "How long has your cycle been irregular or changed?",
	model.VaginalDryness: "Is this constant discomfort, or does it mainly bother you during intimacy?",
	model.Libido:         "Has this been a gradual change, or did it shift more suddenly?",
	model.Joints:         "Which joints or areas bother you most, and is it worse in the morning?",
	model.Headaches:      "How often are they happening compared to before?",
	model.Weight:         "How much weight would you estimate you've gained, and over what timeframe?",
	model.Fatigue:        "Is this affecting you every day, or mainly on certain days?",
	model.Palpitations:   "How long do they typically last, and do you ever feel dizzy or short of breath with them?",
	model.Urinary:        "How often is this happening? Daily, a few times a week?",
	model.SkinHair:       "Is the hair thinning noticeable to others, or mainly something you've noticed yourself?",
}

// GenericFollowUp is asked for symptoms without a dedicated follow-up.
const GenericFollowUp = "How often does this affect you? Daily, weekly, or occasionally?"

// FollowUp returns the frequency follow-up for id.
func FollowUp(id model.SymptomID) string {
	if q, ok := followUps[id]; ok {
		return q
	}
	return GenericFollowUp
}
