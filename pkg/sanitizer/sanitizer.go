package sanitizer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"legal-advisor-be/pkg/llm"
)

// Sanitizer redacts personal data (names, emails, phone numbers) from text.
// Document content is sanitized before it is persisted; chat queries are
// sanitized only on the copy forwarded to the generation provider, while
// the stored transcript keeps the user's original wording. Redacted spans
// are replaced with the fixed placeholders [CLIENT], [EMAIL], [PHONE].
//
// The sanitizer fails open: any provider error returns the original text
// unchanged so the pipeline never blocks on redaction.
type Sanitizer struct {
	llmProvider llm.LLMProvider
	maxChars    int
	logger      *log.Logger
}

func NewSanitizer(llmProvider llm.LLMProvider, maxChars int, logger *log.Logger) *Sanitizer {
	if maxChars <= 0 {
		maxChars = 2000
	}
	return &Sanitizer{
		llmProvider: llmProvider,
		maxChars:    maxChars,
		logger:      logger,
	}
}

// Sanitize redacts PII from text. Calling it on already-sanitized text is
// safe: the placeholders survive a second pass unchanged.
func (s *Sanitizer) Sanitize(ctx context.Context, text string) string {
	if len(text) < 10 {
		return text
	}

	// Only the leading window goes through the model to keep the call
	// bounded; the remainder is carried over untouched.
	head := text
	tail := ""
	runes := []rune(text)
	if len(runes) > s.maxChars {
		head = string(runes[:s.maxChars])
		tail = string(runes[s.maxChars:])
	}

	prompt := fmt.Sprintf(`Task: Redact PII (Person Names, Emails, Phone Numbers) from the text below.
Replace with [CLIENT], [EMAIL], [PHONE].
Keep all other legal details intact.
Output ONLY the sanitized text.

Text:
%s`, head)

	response, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		s.logger.Printf("[SANITIZER] redaction failed, passing text through: %v", err)
		return text
	}

	sanitized := strings.TrimSpace(response)
	if sanitized == "" {
		s.logger.Printf("[SANITIZER] empty redaction output, passing text through")
		return text
	}

	return sanitized + tail
}
