// Package guardrails holds the rule-based checks applied to incoming questions
// and to generated answers.
package guardrails

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mathrouter/mathrouter/apimodels"
)

const (
	minQueryLength  = 5
	maxQueryLength  = 500
	minAnswerLength = 20
)

const (
	ReasonTooShort      = "Query too short. Please ask a complete math question."
	ReasonTooLong       = "Query too long. Please keep it under 500 characters."
	ReasonOffTopic      = "This system only handles mathematics questions."
	ReasonNotMath       = "Please ask a mathematics-related question."
	ReasonValidQuery    = "Valid math query"
	ReasonTooBrief      = "Response too brief"
	ReasonRefusal       = "Response contains refusal"
	ReasonUnstructured  = "Valid response (note: could be more structured)"
	ReasonValidResponse = "Valid response"
)

var (
	blockedTopics = []string{
		"politics", "religion", "violence", "adult", "illegal",
		"personal information", "password", "hack", "exploit", "porn",
	}

	mathKeywords = []string{
		"solve", "derivative", "integral", "equation", "calculate",
		"find", "prove", "simplify", "factor", "graph", "matrix",
		"vector", "trigonometry", "algebra", "calculus", "geometry",
		"probability", "statistics", "theorem", "formula", "evaluate",
	}

	mathSymbols = regexp.MustCompile(`[\p{Nd}+\-*/=^∫∑√π]`)

	stepIndicators = []string{"Step", "step", "1.", "2.", "First", "Next", "Finally"}

	refusalPhrases = []string{"i cannot help", "i refuse", "i will not"}
)

// Validator is satisfied by both guards.
type Validator interface {
	Validate(text string) apimodels.ValidationOutcome
}

type InputGuard struct{}

func NewInputGuard() *InputGuard { return &InputGuard{} }

// Validate applies the rules in order; the first failing rule decides.
func (InputGuard) Validate(query string) apimodels.ValidationOutcome {
	n := utf8.RuneCountInString(query)
	if n < minQueryLength {
		return reject(ReasonTooShort)
	}
	if n > maxQueryLength {
		return reject(ReasonTooLong)
	}

	lower := strings.ToLower(query)
	if containsAny(lower, blockedTopics) {
		return reject(ReasonOffTopic)
	}
	if !containsAny(lower, mathKeywords) && !mathSymbols.MatchString(query) {
		return reject(ReasonNotMath)
	}
	return accept(ReasonValidQuery)
}

type OutputGuard struct{}

func NewOutputGuard() *OutputGuard { return &OutputGuard{} }

// Validate inspects a generated answer. Unstructured answers are accepted with a note
// before the refusal check runs.
func (OutputGuard) Validate(answer string) apimodels.ValidationOutcome {
	if utf8.RuneCountInString(answer) < minAnswerLength {
		return reject(ReasonTooBrief)
	}
	if !containsAny(answer, stepIndicators) {
		return accept(ReasonUnstructured)
	}
	if containsAny(strings.ToLower(answer), refusalPhrases) {
		return reject(ReasonRefusal)
	}
	return accept(ReasonValidResponse)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func accept(reason string) apimodels.ValidationOutcome {
	return apimodels.ValidationOutcome{Accepted: true, Reason: reason}
}

func reject(reason string) apimodels.ValidationOutcome {
	return apimodels.ValidationOutcome{Accepted: false, Reason: reason}
}
