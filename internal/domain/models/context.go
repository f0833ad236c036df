package models

import "time"

// ConversationSummary is one recent conversation reduced to its essentials
// for inclusion in the model context.
type ConversationSummary struct {
	ConversationID string    `json:"conversationId"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Topics         []string  `json:"topics"`
	MessageCount   int       `json:"messageCount"`
	FirstPreview   string    `json:"firstMessagePreview"`
}

// SimilarMoment is a past turn retrieved by semantic similarity to the
// current user message.
type SimilarMoment struct {
	ConversationID string  `json:"conversationId"`
	TurnIndex      int     `json:"turnIndex"`
	Speaker        string  `json:"speaker"`
	TextChunk      string  `json:"textChunk"`
	Similarity     float64 `json:"similarity"`
}

// TokenUsage tracks estimated token spend against the context budget.
type TokenUsage struct {
	Used      int            `json:"used"`
	Budget    int            `json:"budget"`
	Breakdown map[string]int `json:"breakdown"`
}

// Utilization is the used/budget fraction, for observability.
func (u TokenUsage) Utilization() float64 {
	if u.Budget == 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Budget)
}

// ContextBundle is the composed context handed to the model, built fresh
// per request. Token usage never exceeds the budget; sub-sections that
// cannot be filled are left under-used.
type ContextBundle struct {
	CurrentSessionText string                `json:"currentSessionText"`
	RecentHistory      []ConversationSummary `json:"recentHistory"`
	SimilarMoments     []SimilarMoment       `json:"similarMoments"`
	TokenUsage         TokenUsage            `json:"tokenUsage"`
}

// Empty returns a zero-usage bundle for the given budget. Used when
// context assembly fails and the pipeline must degrade gracefully.
func EmptyContextBundle(budget int) *ContextBundle {
	return &ContextBundle{
		RecentHistory:  []ConversationSummary{},
		SimilarMoments: []SimilarMoment{},
		TokenUsage: TokenUsage{
			Budget:    budget,
			Breakdown: map[string]int{},
		},
	}
}
