package interview

import (
	"regexp"
	"strings"

	"github.com/okian/peri/internal/domain/model"
)

// rule pairs a predicate with its result. Tables are evaluated top-down and
// the first match wins.
type rule[T any] struct {
	match  func(string) bool
	result T
}

func evaluate[T any](rules []rule[T], text string, fallback T) T {
	t := strings.ToLower(text)
	for _, r := range rules {
		if r.match(t) {
			return r.result
		}
	}
	return fallback
}

// words matches any of the phrases as whole words.
func words(phrases ...string) func(string) bool {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return re.MatchString
}

// contains matches any of the phrases as plain substrings.
func contains(phrases ...string) func(string) bool {
	return func(t string) bool {
		for _, p := range phrases {
			if strings.Contains(t, p) {
				return true
			}
		}
		return false
	}
}

var severityRules = []rule[model.Severity]{
	{
		match:  words("none", "no", "not really", "nope", "not at all", "never", "don't have", "don't notice", "not experiencing"),
		result: model.SeverityNone,
	},
	{
		match:  words("severe", "terrible", "unbearable", "constant", "debilitating", "really bad", "very bad", "awful", "worst", "10", "9"),
		result: model.SeveritySevere,
	},
	{
		match:  words("moderate", "pretty bad", "quite a bit", "most days", "every day", "often", "frequent", "regularly", "7", "8"),
		result: model.SeverityModerate,
	},
}

var frequencyRules = []rule[model.Frequency]{
	{
		match:  words("all day", "constant", "always", "multiple times a day", "every hour"),
		result: model.FrequencyMultipleDaily,
	},
	{
		match:  words("once a day", "daily", "every day", "every night"),
		result: model.FrequencyOnceDaily,
	},
	{
		match:  words("few times a week", "several times", "most days", "most nights"),
		result: model.FrequencySeveralWeekly,
	},
	{
		match:  words("once a week", "weekly", "about once"),
		result: model.FrequencyWeekly,
	},
}

// ClassifySeverity maps a free-text answer onto a severity. Denials win over
// intensity words; anything unrecognised is mild.
func ClassifySeverity(text string) model.Severity {
	return evaluate(severityRules, text, model.SeverityMild)
}

// ClassifyFrequency maps a free-text answer onto a frequency label, defaulting
// to several times a week.
func ClassifyFrequency(text string) model.Frequency {
	return evaluate(frequencyRules, text, model.FrequencySeveralWeekly)
}

// Closing replies, used once the interview is complete.
const (
	ReplyReport  = "You can generate your clinical report using the Report button below."
	ReplySave    = "Hit the Save to Log button below and all your symptoms will be saved."
	ReplyRisk    = "Head to the Risk Analysis tab to see your cardiovascular risk score."
	ReplyThanks  = "It was my pleasure. Take care of yourself."
	ReplyDefault = "I've captured everything from our conversation. You can save your symptom log, generate a report for your doctor, or check your risk score in the Risk Analysis tab."
)

var fallbackRules = []rule[string]{
	{match: contains("report"), result: ReplyReport},
	{match: contains("save"), result: ReplySave},
	{match: contains("risk"), result: ReplyRisk},
	{match: contains("thank"), result: ReplyThanks},
}

// Fallback answers free text after the interview is complete.
func Fallback(text string) string {
	return evaluate(fallbackRules, text, ReplyDefault)
}
