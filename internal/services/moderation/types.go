// Package moderation classifies text against harm categories and maps
// category scores to pipeline actions.
package moderation

import "context"

// Classification is the raw result from the external classifier.
type Classification struct {
	Flagged bool
	Scores  map[string]float64
}

// Classifier is the external moderation provider.
type Classifier interface {
	// Classify scores the text against the provider's harm categories.
	Classify(ctx context.Context, text string) (*Classification, error)
}
