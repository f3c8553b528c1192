package memory

import "strings"

// Importance bounds. Scores are heuristic priorities, not exact relevance.
const (
	baseImportance = 1.0
	maxImportance  = 3.0
)

// technicalKeywords bump an entry's importance when they appear in content
var technicalKeywords = []string{
	"algorithm", "complexity", "architecture", "database", "design",
	"performance", "scale", "concurrency", "cache", "api", "security",
	"testing", "deployment",
}

// ScoreImportance computes the heuristic importance of an interaction:
// base 1.0, +0.5 for question/answer kinds, +0.3 per matched technical
// keyword, +0.3 for long content, capped at 3.0.
func ScoreImportance(kind Kind, content string) float64 {
	score := baseImportance

	if kind == KindQuestion || kind == KindAnswer {
		score += 0.5
	}

	lower := strings.ToLower(content)
	for _, keyword := range technicalKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.3
		}
	}

	if len(content) > 200 {
		score += 0.3
	}

	if score > maxImportance {
		score = maxImportance
	}
	return score
}
