package contextbuilder

import "strings"

// topicKeywords maps fixed topic buckets to trigger keywords.
var topicKeywords = map[string][]string{
	"anxiety":       {"anxious", "anxiety", "worry", "worried", "panic", "nervous"},
	"depression":    {"depressed", "depression", "sad", "hopeless", "empty", "numb"},
	"stress":        {"stress", "stressed", "pressure", "overwhelmed", "burnout"},
	"sleep":         {"sleep", "insomnia", "tired", "exhausted", "nightmare"},
	"relationships": {"relationship", "partner", "friend", "family", "lonely", "breakup"},
	"work":          {"work", "job", "boss", "career", "coworker", "fired"},
}

// topicOrder keeps derived topic lists deterministic.
var topicOrder = []string{"anxiety", "depression", "stress", "sleep", "relationships", "work"}

// DeriveTopics returns the topic buckets whose keywords appear in the text.
func DeriveTopics(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for _, topic := range topicOrder {
		for _, keyword := range topicKeywords[topic] {
			if strings.Contains(lower, keyword) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}
