// Package tokens provides approximate token counting for budget enforcement.
package tokens

import "strings"

// wordsPerToken is the fixed English word-to-token ratio used everywhere
// budgets are enforced. The estimate is an approximation contract, not a
// guarantee against any provider's real tokenizer.
const wordsPerToken = 1.33

// Estimator approximates token counts from word counts.
type Estimator struct{}

// NewEstimator creates a new Estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate returns the approximate token count for a text span.
func (e *Estimator) Estimate(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) / wordsPerToken)
}
