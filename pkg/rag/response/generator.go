package response

import (
	"context"
	"fmt"
	"log"
	"strings"

	"legal-advisor-be/pkg/llm"
	"legal-advisor-be/pkg/rag/router"
)

// Disclaimer is appended to every generated answer. Appending it here is
// mandatory; model compliance is not trusted for this.
const Disclaimer = "DISCLAIMER: I am an AI, not a lawyer."

const refusalPhrase = "I cannot find this in the document."

// Generator produces the final answer from assembled context, conversation
// history and router metadata. Provider failures come back as a user-visible
// error string so the caller can still persist and return a response.
type Generator struct {
	llmProvider llm.LLMProvider
	maxTokens   int
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, maxTokens int, logger *log.Logger) *Generator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{
		llmProvider: llmProvider,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Generate builds the persona prompt and calls the generation provider.
// The returned string always carries the disclaimer suffix.
func (g *Generator) Generate(ctx context.Context, query string, contextBlock string, history string, metadata router.LegalMetadata) string {
	jurisdiction := metadata.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = "General"
	}

	systemPrompt := fmt.Sprintf(
		"You are an expert %s Legal Advisor. "+
			"I have provided one or more documents below. "+
			"Answer the user's question based strictly on these documents. "+
			"If comparing documents, explicitly cite differences in clauses or terms between them. "+
			"If the answer is missing from the documents, state '%s' "+
			"Do not hallucinate.",
		jurisdiction, refusalPhrase,
	)

	userPrompt := fmt.Sprintf(`CHAT HISTORY:
%s

ACTIVE DOCUMENTS:
%s

QUESTION:
%s`, history, contextBlock, query)

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	answer, err := g.llmProvider.Chat(ctx, messages,
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(g.maxTokens),
		// Stop before the model rolls into a synthetic follow-up turn.
		llm.WithStop("\nQUESTION:", "\nQuestion:"),
	)
	if err != nil {
		g.logger.Printf("[GENERATION] provider failed: %v", err)
		answer = "I'm sorry, I couldn't generate an answer right now. Please try again in a moment."
	}

	return finalize(answer)
}

// finalize trims the answer, ensures terminal punctuation and appends the
// disclaimer.
func finalize(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = refusalPhrase
	}
	if !strings.HasSuffix(answer, ".") && !strings.HasSuffix(answer, "!") && !strings.HasSuffix(answer, "?") {
		answer += "."
	}
	return answer + "\n\n" + Disclaimer
}
