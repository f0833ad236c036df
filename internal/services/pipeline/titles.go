package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/services/providers"
)

const (
	titleTimeout   = 15 * time.Second
	titleMaxLength = 80
)

// TitleGenerator derives a conversation title from its first exchange.
// Title generation is fire-and-forget: it runs after the response has been
// returned and its failure is only logged.
type TitleGenerator struct {
	provider      providers.CompletionClient
	conversations store.ConversationsCollection
}

// NewTitleGenerator creates a title generator.
func NewTitleGenerator(provider providers.CompletionClient, conversations store.ConversationsCollection) *TitleGenerator {
	return &TitleGenerator{provider: provider, conversations: conversations}
}

// GenerateAsync titles the conversation in the background.
func (t *TitleGenerator) GenerateAsync(conversationID, userText, agentText string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		title, err := t.provider.Complete(ctx, &providers.CompletionRequest{
			SystemPrompt: titlePrompt,
			UserMessage:  fmt.Sprintf("USER: %s\nAGENT: %s", userText, agentText),
		})
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("title generation failed")
			return
		}

		title = cleanTitle(title)
		if title == "" {
			return
		}
		if err := t.conversations.UpdateTitle(ctx, conversationID, title); err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to store conversation title")
		}
	}()
}

// cleanTitle strips quotes and newlines from the model output and bounds
// its length.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	if len(title) > titleMaxLength {
		title = title[:titleMaxLength]
	}
	return strings.TrimSpace(title)
}
