package moderation

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// blockMargin is how far above its threshold a category score must be
// before input moderation escalates a WARN to a BLOCK.
const blockMargin = 0.2

// Config holds moderator configuration.
type Config struct {
	// Thresholds maps category name to its score threshold.
	Thresholds map[string]float64
	// StrictMode makes input moderation fail closed when the classifier
	// is unreachable. Output moderation always fails closed.
	StrictMode bool
}

// Moderator applies decision rules on top of an external classifier.
type Moderator struct {
	classifier Classifier
	thresholds map[string]float64
	strictMode bool
}

// NewModerator creates a new Moderator.
func NewModerator(classifier Classifier, cfg Config) *Moderator {
	return &Moderator{
		classifier: classifier,
		thresholds: cfg.Thresholds,
		strictMode: cfg.StrictMode,
	}
}

// ModerateInput classifies user input. Self-harm disclosure below its
// threshold is explicitly allowed: risk handling belongs to crisis
// detection, not suppression.
func (m *Moderator) ModerateInput(ctx context.Context, text string) *models.ModerationResult {
	classification, err := m.classifier.Classify(ctx, text)
	if err != nil {
		log.Warn().Err(err).Bool("strict", m.strictMode).Msg("input moderation classifier unavailable")
		if m.strictMode {
			return &models.ModerationResult{
				Flagged: true,
				Action:  models.ActionBlock,
				Reason:  "moderation unavailable",
			}
		}
		return &models.ModerationResult{Action: models.ActionAllow}
	}

	result := &models.ModerationResult{
		Flagged:        classification.Flagged,
		CategoryScores: classification.Scores,
		Action:         models.ActionAllow,
	}

	for category, score := range classification.Scores {
		threshold, ok := m.thresholds[category]
		if !ok {
			continue
		}

		if isZeroTolerance(category) && score > threshold {
			result.Action = models.ActionBlock
			result.Reason = category
			return result
		}

		if score <= threshold {
			continue
		}
		if isSelfHarm(category) {
			// Let crisis detection handle the disclosure.
			continue
		}

		if score > threshold+blockMargin {
			result.Action = models.ActionBlock
			result.Reason = category
			return result
		}
		if result.Action != models.ActionBlock {
			result.Action = models.ActionWarn
			result.Reason = category
		}
	}

	return result
}

// ModerateOutput classifies generated text with a stricter rule: any
// category over its threshold blocks outright, and classifier failure
// blocks too. Unmoderated generated text never reaches the user.
func (m *Moderator) ModerateOutput(ctx context.Context, text string) *models.ModerationResult {
	classification, err := m.classifier.Classify(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("output moderation classifier unavailable, blocking")
		return &models.ModerationResult{
			Flagged: true,
			Action:  models.ActionBlock,
			Reason:  "moderation unavailable",
		}
	}

	result := &models.ModerationResult{
		Flagged:        classification.Flagged,
		CategoryScores: classification.Scores,
		Action:         models.ActionAllow,
	}

	for category, score := range classification.Scores {
		threshold, ok := m.thresholds[category]
		if !ok {
			continue
		}
		if score > threshold {
			result.Action = models.ActionBlock
			result.Reason = category
			return result
		}
	}

	return result
}

// SafeAlternative maps a blocked reason to a canned supportive reply.
// The pipeline persists and returns this text in place of the blocked
// content.
func SafeAlternative(reason string) string {
	switch {
	case strings.Contains(reason, "harassment"):
		return "I can hear that you're feeling a lot of frustration right now. I'm here to support you, and I'd like to keep our conversation respectful so I can actually help. What's been weighing on you?"
	case strings.Contains(reason, "hate"):
		return "I want this to be a safe space for you and everyone. I can't engage with that kind of content, but I'm genuinely here to listen to what's going on for you. What's been on your mind?"
	case strings.Contains(reason, "violence"):
		return "It sounds like some really intense feelings are coming up. I can't continue in that direction, but strong emotions like anger often have something important underneath them. Would you like to talk about what's driving this?"
	case strings.Contains(reason, "sexual"):
		return "That's not something I can discuss here, but I'm here to support you with what you're going through. Is there something on your mind you'd like to talk about?"
	default:
		return "I'm not able to continue with that, but I'm still here for you. Let's take a step back. How are you doing right now?"
	}
}

func isSelfHarm(category string) bool {
	return strings.HasPrefix(category, "self-harm")
}

func isZeroTolerance(category string) bool {
	return strings.Contains(category, "minors")
}
