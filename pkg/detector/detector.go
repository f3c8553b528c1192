// Package detector classifies caption fragments as questions using a fixed
// rule table. It is deterministic and makes no external calls.
package detector

import (
	"strings"
)

// QuestionType labels the category of a detected question
type QuestionType string

const (
	TypeTechnical     QuestionType = "technical"
	TypeBehavioral    QuestionType = "behavioral"
	TypeClarification QuestionType = "clarification"
	TypeFollowUp      QuestionType = "follow-up"
	TypeGeneral       QuestionType = "general"
)

// Complexity is a rough effort estimate for answering a question
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Result holds the classification of a single text fragment
type Result struct {
	IsQuestion bool         `json:"is_question"`
	Type       QuestionType `json:"type"`
	Confidence float64      `json:"confidence"`
	Complexity Complexity   `json:"complexity"`
}

/* ---- RULE TABLES ---- */

// interrogativeLeads are words that open a question when they start a sentence
var interrogativeLeads = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"describe", "explain", "tell", "can", "could", "would", "do", "does",
	"did", "is", "are", "have", "has",
}

// technicalKeywords indicate a technical question
var technicalKeywords = []string{
	"algorithm", "complexity", "data structure", "database", "architecture",
	"design pattern", "api", "scale", "scaling", "performance", "latency",
	"concurrency", "thread", "cache", "index", "query", "runtime",
	"implement", "optimize", "big o", "trade-off", "tradeoff", "system design",
}

// behavioralPhrases indicate a behavioral question
var behavioralPhrases = []string{
	"tell me about a time", "describe a situation", "give me an example",
	"how did you handle", "have you ever", "walk me through a time",
	"biggest challenge", "strength", "weakness", "conflict", "teamwork",
	"disagree", "leadership", "proud of",
}

// clarificationPhrases indicate the speaker is asking for a restatement
var clarificationPhrases = []string{
	"what do you mean", "could you clarify", "can you clarify",
	"could you repeat", "can you repeat", "say that again", "elaborate",
	"not sure i understand", "in other words",
}

// followUpLeads indicate the question builds on a previous answer
var followUpLeads = []string{
	"and then", "what about", "how about", "following up", "also,",
	"anything else", "what else", "going back to", "you mentioned",
}

/* ---- CLASSIFIER ---- */

// Detect classifies a text fragment. Empty text or text lacking any question
// indicator yields IsQuestion=false.
func Detect(text string) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Result{Type: TypeGeneral, Complexity: ComplexityLow}
	}

	// Confidence is a weighted sum of indicator hits, clamped to [0,1]
	var confidence float64

	hasQuestionMark := strings.HasSuffix(normalized, "?") || strings.Contains(normalized, "? ")
	if hasQuestionMark {
		confidence += 0.5
	}

	if startsWithAny(normalized, interrogativeLeads) {
		confidence += 0.3
	}

	technicalHits := countContains(normalized, technicalKeywords)
	behavioralHits := countContains(normalized, behavioralPhrases)
	clarificationHits := countContains(normalized, clarificationPhrases)
	followUpHits := countContains(normalized, followUpLeads)

	if technicalHits+behavioralHits+clarificationHits+followUpHits > 0 {
		confidence += 0.2
	}

	if confidence > 1.0 {
		confidence = 1.0
	}

	// No indicator at all means this is not a question
	if confidence < 0.3 {
		return Result{Type: TypeGeneral, Complexity: ComplexityLow}
	}

	result := Result{
		IsQuestion: true,
		Confidence: confidence,
		Type:       classify(technicalHits, behavioralHits, clarificationHits, followUpHits),
	}
	result.Complexity = estimateComplexity(normalized, technicalHits)

	return result
}

// classify picks the question type from category hit counts, most specific
// category first
func classify(technical, behavioral, clarification, followUp int) QuestionType {
	switch {
	case clarification > 0:
		return TypeClarification
	case behavioral > 0:
		return TypeBehavioral
	case technical > 0:
		return TypeTechnical
	case followUp > 0:
		return TypeFollowUp
	default:
		return TypeGeneral
	}
}

// estimateComplexity guesses answer effort from length and technical depth
func estimateComplexity(normalized string, technicalHits int) Complexity {
	words := len(strings.Fields(normalized))

	switch {
	case technicalHits >= 2 || words > 25:
		return ComplexityHigh
	case technicalHits == 1 || words > 12:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// startsWithAny checks if the text begins with any of the given lead words
func startsWithAny(text string, leads []string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.!?")

	for _, lead := range leads {
		if first == lead {
			return true
		}
	}
	return false
}

// countContains counts how many of the given phrases appear in the text
func countContains(text string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			count++
		}
	}
	return count
}
