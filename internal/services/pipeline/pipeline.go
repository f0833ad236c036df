// Package pipeline orchestrates the per-message processing flow: sanitize,
// moderate input, assess crisis risk, assemble context, generate, moderate
// output, persist, then index in the background.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/domain/errors"
	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/services/contextbuilder"
	"github.com/havenmind/agent-service/internal/services/embeddings"
	"github.com/havenmind/agent-service/internal/services/moderation"
	"github.com/havenmind/agent-service/internal/services/safety"
	"github.com/havenmind/agent-service/internal/services/sanitize"
)

// sessionWindow is how many persisted messages of the active conversation
// feed the current-session context section.
const sessionWindow = 20

// Deps are the collaborators the orchestrator is wired with at startup.
type Deps struct {
	Sanitizer     *sanitize.Sanitizer
	Moderator     *moderation.Moderator
	Detector      *safety.Detector
	Assembler     *contextbuilder.Assembler
	Generator     *Generator
	Titles        *TitleGenerator
	Indexer       *embeddings.Indexer
	Refresher     *ProfileRefresher
	Conversations store.ConversationsCollection
	Messages      store.MessagesCollection
	TokenBudget   int
}

// Orchestrator runs the message pipeline. Stages are strictly sequential
// per request; only post-persist side effects run in the background.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// ProcessMessage handles one inbound user message and returns the persisted
// agent reply. A moderation block still produces a normal reply for the
// caller, with substituted content. Persistence failure is the only
// non-validation error surfaced: without a persisted message there is
// nothing to return.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userID, text, conversationID string) (*models.Message, error) {
	result := o.deps.Sanitizer.Validate(text)
	if !result.Valid {
		return nil, errors.NewValidationError("invalid message", strings.Join(result.Issues, "; "))
	}
	sanitized := result.Sanitized

	conv, err := o.resolveConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	inputVerdict := o.deps.Moderator.ModerateInput(ctx, sanitized)
	if inputVerdict.Blocked() {
		log.Info().
			Str("conversation_id", conv.ID).
			Str("reason", inputVerdict.Reason).
			Msg("input blocked by moderation")
		return o.persistBlockedTurn(ctx, userID, conv, inputVerdict.Reason)
	}

	assessment := o.deps.Detector.Detect(sanitized)
	if assessment.RequiresIntervention {
		log.Warn().
			Str("conversation_id", conv.ID).
			Str("level", assessment.Level.String()).
			Float64("confidence", assessment.Confidence).
			Msg("crisis intervention triggered")
	}

	turn, err := o.currentTurn(ctx, conv.ID)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to load session messages")
		turn = nil
	}
	turn = append(turn, models.NewMessage(conv.ID, models.SenderUser, sanitized))

	bundle := o.deps.Assembler.Build(ctx, turn, userID, conv.ID, o.deps.TokenBudget)

	reply := o.deps.Generator.Generate(ctx, bundle, assessment, sanitized)

	outputVerdict := o.deps.Moderator.ModerateOutput(ctx, reply)
	if outputVerdict.Blocked() {
		log.Info().
			Str("conversation_id", conv.ID).
			Str("reason", outputVerdict.Reason).
			Msg("generated output blocked by moderation")
		reply = moderation.SafeAlternative(outputVerdict.Reason)
		if assessment.RequiresIntervention {
			reply = safety.FormatResourceBlock(assessment.Resources) + "\n\n" + reply
		}
	} else if outputVerdict.Action == models.ActionWarn {
		log.Info().
			Str("conversation_id", conv.ID).
			Str("reason", outputVerdict.Reason).
			Msg("generated output flagged by moderation")
	}

	userMsg := models.NewMessage(conv.ID, models.SenderUser, sanitized)
	if err := o.deps.Messages.Add(ctx, userMsg); err != nil {
		return nil, errors.NewInternalError("failed to persist user message", err)
	}
	agentMsg := models.NewMessage(conv.ID, models.SenderAgent, reply)
	if err := o.deps.Messages.Add(ctx, agentMsg); err != nil {
		return nil, errors.NewInternalError("failed to persist agent message", err)
	}

	o.afterPersist(ctx, userID, conv, sanitized, reply)
	return agentMsg, nil
}

// GetHistory returns the user's most recent messages across conversations,
// newest first.
func (o *Orchestrator) GetHistory(ctx context.Context, userID string, limit int64) ([]*models.Message, error) {
	msgs, err := o.deps.Messages.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to load message history", err)
	}
	return msgs, nil
}

// ListConversations returns the user's conversations, newest first.
func (o *Orchestrator) ListConversations(ctx context.Context, userID string, limit int64) ([]*models.Conversation, error) {
	convs, err := o.deps.Conversations.ListByUser(ctx, userID, time.Time{}, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to load conversations", err)
	}
	return convs, nil
}

// persistBlockedTurn stores only the safe-alternative agent message. The
// blocked user text is never persisted.
func (o *Orchestrator) persistBlockedTurn(ctx context.Context, userID string, conv *models.Conversation, reason string) (*models.Message, error) {
	agentMsg := models.NewMessage(conv.ID, models.SenderAgent, moderation.SafeAlternative(reason))
	if err := o.deps.Messages.Add(ctx, agentMsg); err != nil {
		return nil, errors.NewInternalError("failed to persist agent message", err)
	}
	o.deps.Assembler.Invalidate(ctx, userID, conv.ID)
	return agentMsg, nil
}

// resolveConversation finds the target conversation, falling back to the
// user's most recent one or creating a new one. Two concurrent first
// messages may race and create two conversations; later lookups resolve
// by most recent creation time (last-write-wins).
func (o *Orchestrator) resolveConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	if conversationID != "" {
		conv, err := o.deps.Conversations.Get(ctx, conversationID)
		if err != nil {
			return nil, errors.NewInternalError("failed to load conversation", err)
		}
		if conv == nil || conv.UserID != userID {
			return nil, errors.NewNotFoundError("conversation", conversationID)
		}
		return conv, nil
	}

	conv, err := o.deps.Conversations.MostRecentByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up conversation", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv = models.NewConversation(userID, "")
	if err := o.deps.Conversations.Add(ctx, conv); err != nil {
		return nil, errors.NewInternalError("failed to create conversation", err)
	}
	return conv, nil
}

// currentTurn loads the most recent persisted messages of the conversation
// in chronological order.
func (o *Orchestrator) currentTurn(ctx context.Context, conversationID string) ([]*models.Message, error) {
	msgs, err := o.deps.Messages.List(ctx, &store.ListMessagesOptions{
		ConversationID: conversationID,
		Limit:          sessionWindow,
		OrderBy:        store.SortOrderDesc,
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// afterPersist launches the fire-and-forget side effects. The response has
// already been decided; failures here are logged and ignored.
func (o *Orchestrator) afterPersist(ctx context.Context, userID string, conv *models.Conversation, userText, agentText string) {
	o.deps.Assembler.Invalidate(ctx, userID, conv.ID)

	if o.deps.Indexer != nil {
		o.deps.Indexer.EnqueueTurn(conv.ID, userText, agentText)
	}
	if o.deps.Titles != nil && conv.Title == "" {
		o.deps.Titles.GenerateAsync(conv.ID, userText, agentText)
	}
	if o.deps.Refresher != nil {
		o.deps.Refresher.RecordActivity(userID)
	}
}
