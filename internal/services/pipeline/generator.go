package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/services/providers"
	"github.com/havenmind/agent-service/internal/services/safety"
)

// Generator produces the agent reply for one turn. It never returns an
// error: provider failures degrade to a supportive fallback string.
type Generator struct {
	provider providers.CompletionClient
}

// NewGenerator creates a response generator bound to the configured provider.
func NewGenerator(provider providers.CompletionClient) *Generator {
	return &Generator{provider: provider}
}

// Generate invokes the provider with the assembled context. When crisis
// intervention is required the reply is prefixed with the emergency
// resource block, which is deterministic text independent of what the
// model produces.
func (g *Generator) Generate(ctx context.Context, bundle *models.ContextBundle, assessment models.CrisisAssessment, userMessage string) string {
	reply, err := g.provider.Complete(ctx, &providers.CompletionRequest{
		SystemPrompt: buildSystemPrompt(bundle, assessment),
		UserMessage:  userMessage,
	})
	if err != nil || reply == "" {
		log.Warn().Err(err).Msg("provider completion failed, using fallback reply")
		reply = fallbackReplies[len(userMessage)%len(fallbackReplies)]
	}

	if assessment.RequiresIntervention {
		return safety.FormatResourceBlock(assessment.Resources) + "\n\n" + reply
	}
	return reply
}
