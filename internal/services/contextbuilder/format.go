package contextbuilder

import (
	"fmt"
	"strings"

	"github.com/havenmind/agent-service/internal/domain/models"
)

const previewLength = 120

// formatSession renders turn messages as speaker-tagged lines.
func formatSession(messages []*models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Sender, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// formatSummaries renders conversation summaries as one line per conversation.
func formatSummaries(summaries []models.ConversationSummary) string {
	lines := make([]string, 0, len(summaries))
	for _, s := range summaries {
		topics := "none"
		if len(s.Topics) > 0 {
			topics = strings.Join(s.Topics, ", ")
		}
		lines = append(lines, fmt.Sprintf("[%s] topics: %s; %d messages; started with: %s",
			s.Date.Format("2006-01-02"), topics, s.MessageCount, s.FirstPreview))
	}
	return strings.Join(lines, "\n")
}

// formatMoments renders similar past moments as speaker-tagged lines.
func formatMoments(moments []models.SimilarMoment) string {
	lines := make([]string, 0, len(moments))
	for _, m := range moments {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Speaker, m.TextChunk))
	}
	return strings.Join(lines, "\n")
}

// preview truncates text to a short first-message preview.
func preview(text string) string {
	if len(text) <= previewLength {
		return text
	}
	return text[:previewLength] + "..."
}
