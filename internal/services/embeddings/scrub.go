package embeddings

import (
	"regexp"
	"strings"
)

// chunkSize is the maximum number of words per embedded chunk.
const chunkSize = 800

// Identifier patterns removed from text before it leaves the service
// boundary for embedding.
var phiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                                  // SSN
	regexp.MustCompile(`\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),                // phone
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),     // email
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),                      // date
	regexp.MustCompile(`(?i)\bmrn\s*[:#]?\s*\d+\b`),                              // medical record number
	regexp.MustCompile(`(?i)\bpatient\s*id\s*[:#]?\s*\d+\b`),                     // patient id
}

// scrub replaces personally identifying patterns with a redaction marker
// and normalizes whitespace.
func scrub(text string) string {
	for _, pattern := range phiPatterns {
		text = pattern.ReplaceAllString(text, "[REDACTED]")
	}
	return strings.Join(strings.Fields(text), " ")
}

// chunk splits text into chunks of at most chunkSize words.
func chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	for i := 0; i < len(words); i += chunkSize {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
