package sentiment

import "strings"

// Band is the label bucket a score falls into.
type Band string

const (
	Positive Band = "positive"
	Neutral  Band = "neutral"
	Negative Band = "negative"
)

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "wonderful", "fantastic"}
	negativeWords = []string{"bad", "poor", "terrible", "awful", "horrible", "disappointing"}
)

// Score rates free text between -1 and 1. Every positive keyword present adds
// 0.2 and every negative keyword subtracts 0.2, then the result is clamped.
// Matching is substring based, so "badly" counts as "bad".
func Score(text string) float64 {
	lowered := strings.ToLower(text)

	var score float64
	for _, word := range positiveWords {
		if strings.Contains(lowered, word) {
			score += 0.2
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lowered, word) {
			score -= 0.2
		}
	}

	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// Classify maps a score onto a band: above 0.3 is positive, below -0.3 is
// negative, everything in between is neutral.
func Classify(score float64) Band {
	switch {
	case score > 0.3:
		return Positive
	case score < -0.3:
		return Negative
	default:
		return Neutral
	}
}
