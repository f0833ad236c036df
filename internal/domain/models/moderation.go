package models

// ModerationAction is the decision derived from category scores.
type ModerationAction string

const (
	// ActionAllow lets the content through unchanged.
	ActionAllow ModerationAction = "ALLOW"
	// ActionWarn lets the content through but records the violation.
	ActionWarn ModerationAction = "WARN"
	// ActionBlock replaces the content with a safe alternative.
	ActionBlock ModerationAction = "BLOCK"
	// ActionEscalate blocks the content and flags it for review.
	ActionEscalate ModerationAction = "ESCALATE"
)

// ModerationResult is the outcome of classifying one text span.
// Results are produced fresh per call and logged, never persisted.
type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	CategoryScores map[string]float64 `json:"categoryScores"`
	Action         ModerationAction   `json:"action"`
	Reason         string             `json:"reason,omitempty"`
}

// Blocked reports whether the result requires substituting the content.
func (r *ModerationResult) Blocked() bool {
	return r.Action == ActionBlock || r.Action == ActionEscalate
}
