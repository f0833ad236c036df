// Package sanitize validates and cleans raw user input before it enters
// the pipeline.
package sanitize

import (
	"regexp"
	"strings"
)

const (
	// maxCharRepeat is the longest run of one character before the
	// message is flagged as repetition.
	maxCharRepeat = 10
	// maxWordRepeat is how often one word (longer than 2 characters)
	// may appear before the message is flagged as spam.
	maxWordRepeat = 5
)

// Injection-looking patterns. Matching input is flagged invalid but a
// sanitized rendition is still produced.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>`),
	regexp.MustCompile(`(?is)</script>`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)data:`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)expression\s*\(`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Result is the outcome of validating one raw user message.
type Result struct {
	Valid     bool     `json:"valid"`
	Sanitized string   `json:"sanitized"`
	Issues    []string `json:"issues"`
}

// Sanitizer validates and cleans raw user text.
type Sanitizer struct {
	maxLength int
}

// NewSanitizer creates a sanitizer enforcing the given maximum length.
func NewSanitizer(maxLength int) *Sanitizer {
	return &Sanitizer{maxLength: maxLength}
}

// Validate checks the text and produces a sanitized rendition. A message
// that fails validation must never reach the moderator or the model.
func (s *Sanitizer) Validate(text string) Result {
	result := Result{Valid: true, Issues: []string{}}

	if strings.TrimSpace(text) == "" {
		return Result{Valid: false, Sanitized: "", Issues: []string{"Empty message"}}
	}

	sanitized := text

	if len(sanitized) > s.maxLength {
		result.Valid = false
		result.Issues = append(result.Issues, "Message exceeds maximum length")
		sanitized = sanitized[:s.maxLength]
	}

	if cleaned, stripped := stripControlChars(sanitized); stripped {
		result.Valid = false
		result.Issues = append(result.Issues, "Message contains control characters")
		sanitized = cleaned
	}

	if hasCharRepetition(sanitized) || hasWordRepetition(sanitized) {
		result.Valid = false
		result.Issues = append(result.Issues, "Message contains excessive repetition")
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(sanitized) {
			result.Valid = false
			result.Issues = append(result.Issues, "Message contains potentially unsafe markup")
			break
		}
	}

	// Normalize whitespace, collapse runs to single spaces, trim.
	result.Sanitized = strings.TrimSpace(whitespaceRun.ReplaceAllString(sanitized, " "))
	return result
}

// stripControlChars removes control characters other than tab and newline.
func stripControlChars(text string) (string, bool) {
	var b strings.Builder
	stripped := false
	for _, r := range text {
		if r < 0x20 && r != '\t' && r != '\n' || r == 0x7f {
			stripped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), stripped
}

// hasCharRepetition reports whether any character repeats more than
// maxCharRepeat times consecutively.
func hasCharRepetition(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run > maxCharRepeat {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// hasWordRepetition reports whether any word longer than two characters
// appears more than maxWordRepeat times.
func hasWordRepetition(text string) bool {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(word) <= 2 {
			continue
		}
		counts[word]++
		if counts[word] > maxWordRepeat {
			return true
		}
	}
	return false
}
