// Package contextbuilder composes the size-bounded model context from the
// current session, recent conversation summaries, and semantically similar
// past moments.
package contextbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/havenmind/agent-service/internal/core/cache"
	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/core/vectorstore"
	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/services/embeddings"
	"github.com/havenmind/agent-service/internal/services/tokens"
)

const (
	// Sub-budget fractions of the total token budget. Unused capacity in
	// one section is never redistributed to another.
	currentSessionFraction = 0.40
	recentHistoryFraction  = 0.35
	similarMomentsFraction = 0.25

	historyLookback     = 90 * 24 * time.Hour
	historyLimit        = 4
	similarLimit        = 5
	similarityThreshold = 0.7

	// Messages read per past conversation when deriving its topics.
	topicSampleLimit = 50
)

// Assembler builds ContextBundles under a token budget, with a short-TTL
// cache keyed by user and conversation.
type Assembler struct {
	conversations store.ConversationsCollection
	messages      store.MessagesCollection
	vectors       vectorstore.Client
	embedder      embeddings.Embedder
	cache         cache.Client
	estimator     *tokens.Estimator
	cacheTTL      time.Duration
}

// NewAssembler creates a context assembler.
func NewAssembler(
	conversations store.ConversationsCollection,
	messages store.MessagesCollection,
	vectors vectorstore.Client,
	embedder embeddings.Embedder,
	cacheClient cache.Client,
	cacheTTL time.Duration,
) *Assembler {
	return &Assembler{
		conversations: conversations,
		messages:      messages,
		vectors:       vectors,
		embedder:      embedder,
		cache:         cacheClient,
		estimator:     tokens.NewEstimator(),
		cacheTTL:      cacheTTL,
	}
}

func cacheKey(userID, conversationID string) string {
	return fmt.Sprintf("context:%s:%s", userID, conversationID)
}

// Build composes a context bundle for the current turn. It never fails:
// on any internal error it returns an empty bundle so the pipeline can
// proceed without context.
func (a *Assembler) Build(ctx context.Context, currentTurn []*models.Message, userID, conversationID string, tokenBudget int) *models.ContextBundle {
	if cached := a.fromCache(ctx, userID, conversationID); cached != nil {
		return cached
	}

	sessionBudget := int(float64(tokenBudget) * currentSessionFraction)
	historyBudget := int(float64(tokenBudget) * recentHistoryFraction)
	similarBudget := int(float64(tokenBudget) * similarMomentsFraction)

	sessionText, sessionUsed := a.buildCurrentSession(currentTurn, sessionBudget)

	// Recent history and similar moments are read-only and independent,
	// so they fetch concurrently.
	var (
		wg         sync.WaitGroup
		summaries  []models.ConversationSummary
		historyUse int
		historyErr error
		moments    []models.SimilarMoment
		similarUse int
		similarErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summaries, historyUse, historyErr = a.buildRecentHistory(ctx, userID, conversationID, historyBudget)
	}()
	go func() {
		defer wg.Done()
		moments, similarUse, similarErr = a.buildSimilarMoments(ctx, currentTurn, similarBudget)
	}()
	wg.Wait()

	if historyErr != nil || similarErr != nil {
		log.Warn().
			AnErr("history_error", historyErr).
			AnErr("similar_error", similarErr).
			Str("user_id", userID).
			Msg("context assembly failed, returning empty bundle")
		return models.EmptyContextBundle(tokenBudget)
	}

	bundle := &models.ContextBundle{
		CurrentSessionText: sessionText,
		RecentHistory:      summaries,
		SimilarMoments:     moments,
		TokenUsage: models.TokenUsage{
			Used:   sessionUsed + historyUse + similarUse,
			Budget: tokenBudget,
			Breakdown: map[string]int{
				"currentSession": sessionUsed,
				"recentHistory":  historyUse,
				"similarMoments": similarUse,
			},
		},
	}

	a.toCache(ctx, userID, conversationID, bundle)
	return bundle
}

// Invalidate drops the cached bundle for a conversation. Called after
// every new message so the next build sees fresh state.
func (a *Assembler) Invalidate(ctx context.Context, userID, conversationID string) {
	if _, err := a.cache.Delete(ctx, cacheKey(userID, conversationID)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate context cache")
	}
}

// buildCurrentSession formats the turn as speaker-tagged lines, dropping
// the oldest messages until the result fits the sub-budget.
func (a *Assembler) buildCurrentSession(turn []*models.Message, budget int) (string, int) {
	for len(turn) > 0 {
		text := formatSession(turn)
		used := a.estimator.Estimate(text)
		if used <= budget {
			return text, used
		}
		turn = turn[1:]
	}
	return "", 0
}

// buildRecentHistory summarizes the user's recent conversations, shrinking
// the list from the end until it fits the sub-budget.
func (a *Assembler) buildRecentHistory(ctx context.Context, userID, currentConversationID string, budget int) ([]models.ConversationSummary, int, error) {
	since := time.Now().UTC().Add(-historyLookback)
	conversations, err := a.conversations.ListByUser(ctx, userID, since, historyLimit+1)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recent conversations: %w", err)
	}

	summaries := make([]models.ConversationSummary, 0, historyLimit)
	for _, conv := range conversations {
		if conv.ID == currentConversationID {
			continue
		}
		if len(summaries) == historyLimit {
			break
		}
		summary, err := a.summarize(ctx, conv)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, *summary)
	}

	for len(summaries) > 0 {
		used := a.estimator.Estimate(formatSummaries(summaries))
		if used <= budget {
			return summaries, used, nil
		}
		summaries = summaries[:len(summaries)-1]
	}
	return []models.ConversationSummary{}, 0, nil
}

// summarize reduces one past conversation to its summary form.
func (a *Assembler) summarize(ctx context.Context, conv *models.Conversation) (*models.ConversationSummary, error) {
	msgs, err := a.messages.List(ctx, &store.ListMessagesOptions{
		ConversationID: conv.ID,
		Limit:          topicSampleLimit,
		OrderBy:        store.SortOrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for summary: %w", err)
	}

	count, err := a.messages.CountByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages for summary: %w", err)
	}

	var combined string
	var firstPreview string
	for i, msg := range msgs {
		combined += msg.Content + " "
		if i == 0 {
			firstPreview = preview(msg.Content)
		}
	}

	return &models.ConversationSummary{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Date:           conv.CreatedAt,
		Topics:         DeriveTopics(combined),
		MessageCount:   int(count),
		FirstPreview:   firstPreview,
	}, nil
}

// buildSimilarMoments embeds the last user message of the turn and
// retrieves the most similar past moments above the similarity threshold,
// shrinking from the end until the section fits its sub-budget.
func (a *Assembler) buildSimilarMoments(ctx context.Context, turn []*models.Message, budget int) ([]models.SimilarMoment, int, error) {
	var query string
	for i := len(turn) - 1; i >= 0; i-- {
		if turn[i].Sender == models.SenderUser {
			query = turn[i].Content
			break
		}
	}
	if query == "" {
		return []models.SimilarMoment{}, 0, nil
	}

	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to embed query message: %w", err)
	}

	matches, err := a.vectors.QueryNear(ctx, vector, similarLimit, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query similar moments: %w", err)
	}

	moments := make([]models.SimilarMoment, 0, len(matches))
	for _, match := range matches {
		similarity := match.Similarity()
		if similarity < similarityThreshold {
			continue
		}
		moments = append(moments, models.SimilarMoment{
			ConversationID: match.Record.ConversationID,
			TurnIndex:      match.Record.TurnIndex,
			Speaker:        match.Record.Speaker,
			TextChunk:      match.Record.TextChunk,
			Similarity:     similarity,
		})
	}

	for len(moments) > 0 {
		used := a.estimator.Estimate(formatMoments(moments))
		if used <= budget {
			return moments, used, nil
		}
		moments = moments[:len(moments)-1]
	}
	return []models.SimilarMoment{}, 0, nil
}

func (a *Assembler) fromCache(ctx context.Context, userID, conversationID string) *models.ContextBundle {
	data, err := a.cache.Get(ctx, cacheKey(userID, conversationID))
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("context cache read failed")
		return nil
	}
	if data == nil {
		return nil
	}

	var bundle models.ContextBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("discarding malformed cached context")
		return nil
	}
	return &bundle
}

func (a *Assembler) toCache(ctx context.Context, userID, conversationID string, bundle *models.ContextBundle) {
	data, err := json.Marshal(bundle)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, cacheKey(userID, conversationID), data, a.cacheTTL); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("context cache write failed")
	}
}
