// Package safety assesses user messages for crisis risk.
//
// Detection is pattern based and cannot distinguish first-person
// disclosure from third-person reference or meta-questions ("what are
// signs of suicidal ideation?"). False positives on such inputs are an
// accepted safety-over-precision tradeoff; do not narrow the patterns
// without product sign-off.
package safety

import (
	"github.com/havenmind/agent-service/internal/domain/models"
)

const (
	// confidencePerExtraMatch is added for each match beyond the first.
	confidencePerExtraMatch = 0.05
	// maxExtraMatches caps the confidence contribution of extra matches.
	maxExtraMatches = 3
)

// Detector classifies text into a crisis severity level.
type Detector struct {
	region string
}

// NewDetector creates a detector attaching resources for the given region.
func NewDetector(region string) *Detector {
	return &Detector{region: region}
}

// Detect evaluates every tier against the text and returns an assessment
// at the highest matching level. All tiers are checked; matched signals
// from lower tiers are still reported.
func (d *Detector) Detect(text string) models.CrisisAssessment {
	assessment := models.CrisisAssessment{
		Level:          models.CrisisNone,
		MatchedSignals: []string{},
	}

	for _, t := range tiers {
		for _, pattern := range t.patterns {
			if match := pattern.FindString(text); match != "" {
				assessment.MatchedSignals = append(assessment.MatchedSignals, match)
				if t.level > assessment.Level {
					assessment.Level = t.level
					assessment.Confidence = t.baseConfidence
				}
			}
		}
	}

	if assessment.Level == models.CrisisNone {
		return assessment
	}

	extra := len(assessment.MatchedSignals) - 1
	if extra > maxExtraMatches {
		extra = maxExtraMatches
	}
	assessment.Confidence += float64(extra) * confidencePerExtraMatch
	if assessment.Confidence > 1.0 {
		assessment.Confidence = 1.0
	}

	if assessment.Level >= models.CrisisHigh {
		assessment.RequiresIntervention = true
		assessment.Resources = ResourcesForRegion(d.region)
	}

	return assessment
}
