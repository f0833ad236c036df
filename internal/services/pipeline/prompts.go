package pipeline

import (
	"fmt"
	"strings"

	"github.com/havenmind/agent-service/internal/domain/models"
)

const basePrompt = `You are Haven, a warm, supportive companion for people navigating difficult moments. You listen without judgment, reflect feelings back, and gently encourage healthy coping. You are not a therapist and you never diagnose, prescribe, or promise outcomes. Keep replies conversational and grounded in what the person actually said.`

const crisisProtocol = `CRISIS RESPONSE PROTOCOL: The person may be at risk of harming themselves. Respond with warmth and without panic. Acknowledge their pain directly, tell them their life matters, and encourage them to contact a crisis line or someone they trust right now. Do not lecture, do not change the subject, and do not end the conversation abruptly.`

const titlePrompt = `Write a short title (at most six words) for a conversation that starts with the following exchange. Reply with the title only, no quotes.`

const profilePrompt = `Summarize the recurring themes, stressors, and coping patterns in the following messages from one person, in two or three sentences written for a future conversation with them. Be factual and compassionate; do not diagnose.`

// fallbackReplies are returned when the provider is unreachable. The worst
// case a user ever sees is one of these, never a raw provider error.
var fallbackReplies = []string{
	"I'm having a little trouble gathering my thoughts right now, but I'm still here with you. Could you tell me a bit more about what's going on?",
	"I didn't quite manage to put my response together, but I'm listening. What's been weighing on you most today?",
	"Something went wrong on my end just now. I'm still here, though. Take your time and tell me what's on your mind.",
}

// buildSystemPrompt composes the system prompt from the base instructions,
// the assembled context, and the crisis protocol when intervention is
// required.
func buildSystemPrompt(bundle *models.ContextBundle, assessment models.CrisisAssessment) string {
	var b strings.Builder

	if assessment.RequiresIntervention {
		b.WriteString(crisisProtocol)
		b.WriteString("\n\n")
	}
	b.WriteString(basePrompt)

	if len(bundle.RecentHistory) > 0 {
		b.WriteString("\n\nWhat you know from recent conversations:\n")
		for _, s := range bundle.RecentHistory {
			topics := "no particular topics"
			if len(s.Topics) > 0 {
				topics = strings.Join(s.Topics, ", ")
			}
			b.WriteString(fmt.Sprintf("- %s (%s): %s\n", s.Date.Format("Jan 2"), topics, s.FirstPreview))
		}
	}

	if len(bundle.SimilarMoments) > 0 {
		b.WriteString("\nMoments from past conversations that feel related:\n")
		for _, m := range bundle.SimilarMoments {
			b.WriteString(fmt.Sprintf("- %s: %s\n", m.Speaker, m.TextChunk))
		}
	}

	if bundle.CurrentSessionText != "" {
		b.WriteString("\nThe conversation so far:\n")
		b.WriteString(bundle.CurrentSessionText)
	}

	return b.String()
}
