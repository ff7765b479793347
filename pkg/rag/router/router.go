package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"legal-advisor-be/internal/constant"
	"legal-advisor-be/pkg/llm"
)

// DecisionType tags the two shapes a routing decision can take
type DecisionType string

const (
	DecisionGeneral DecisionType = "GENERAL"
	DecisionLegal   DecisionType = "LEGAL"
)

// LegalMetadata carries retrieval hints extracted by the classifier
type LegalMetadata struct {
	Jurisdiction string   `json:"jurisdiction"`
	Keywords     []string `json:"keywords"`
}

// Decision is the routing outcome. Exactly one of Reply (GENERAL) or
// Metadata (LEGAL) is meaningful, discriminated by Type. Provider records
// which backend produced the decision, for logging only.
type Decision struct {
	Type     DecisionType
	Reply    string
	Metadata LegalMetadata
	Provider string
}

// rawDecision is the wire shape the classifier prompt asks for
type rawDecision struct {
	Type     string `json:"type"`
	Reply    string `json:"reply"`
	Metadata struct {
		Jurisdiction string   `json:"jurisdiction"`
		Keywords     []string `json:"keywords"`
	} `json:"metadata"`
}

// Router classifies queries as GENERAL (answer directly) or LEGAL (needs
// document grounding). It tries the primary provider first and falls back
// to the secondary on any failure, then to a static GENERAL apology.
// Route never returns an error.
type Router struct {
	primary        llm.LLMProvider
	secondary      llm.LLMProvider
	primaryModel   string
	secondaryModel string
	logger         *log.Logger
}

func NewRouter(primary, secondary llm.LLMProvider, primaryModel, secondaryModel string, logger *log.Logger) *Router {
	return &Router{
		primary:        primary,
		secondary:      secondary,
		primaryModel:   primaryModel,
		secondaryModel: secondaryModel,
		logger:         logger,
	}
}

const classifierPrompt = `You are a query classifier for a legal assistant.
Classify the user's message and return a SINGLE JSON object, nothing else.

Shapes:
- Small talk, greetings, anything not about law, contracts or documents:
  {"type": "GENERAL", "reply": "<your short direct answer>"}
- Questions about law, contracts, clauses, penalties or uploaded documents:
  {"type": "LEGAL", "metadata": {"jurisdiction": "<jurisdiction or 'General'>", "keywords": ["<search term>", ...]}}

Message:
%s`

// Route classifies query, optionally prefixed with recent history so
// pronoun references resolve. Always returns a valid Decision.
func (r *Router) Route(ctx context.Context, query string, historyContext string) *Decision {
	input := query
	if historyContext != "" {
		input = fmt.Sprintf("Recent conversation:\n%s\n\nCurrent message:\n%s", historyContext, query)
	}
	prompt := fmt.Sprintf(classifierPrompt, input)

	if decision, err := r.callProvider(ctx, r.primary, r.primaryModel, prompt); err == nil {
		decision.Provider = "primary"
		return decision
	} else {
		r.logger.Printf("[ROUTER] primary classification failed: %v", err)
	}

	if decision, err := r.callProvider(ctx, r.secondary, r.secondaryModel, prompt); err == nil {
		decision.Provider = "secondary"
		return decision
	} else {
		r.logger.Printf("[ROUTER] secondary classification failed: %v", err)
	}

	// Both providers exhausted. Degrade to a safe GENERAL decision so the
	// caller still gets a well-formed response.
	return &Decision{
		Type:     DecisionGeneral,
		Reply:    constant.ReplyRouterDown,
		Provider: "fallback",
	}
}

func (r *Router) callProvider(ctx context.Context, provider llm.LLMProvider, model string, prompt string) (*Decision, error) {
	opts := []llm.Option{
		llm.WithTemperature(0.0),
		llm.WithJSONMode(),
	}
	if model != "" {
		opts = append(opts, llm.WithModel(model))
	}

	response, err := provider.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	return parseDecision(response)
}

// parseDecision extracts the JSON object from a model response, tolerating
// code fences and surrounding chatter.
func parseDecision(response string) (*Decision, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in router response: %q", response)
	}
	cleaned = cleaned[start : end+1]

	var raw rawDecision
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal router response: %w", err)
	}

	switch DecisionType(strings.ToUpper(raw.Type)) {
	case DecisionGeneral:
		if raw.Reply == "" {
			return nil, fmt.Errorf("GENERAL decision without reply")
		}
		return &Decision{Type: DecisionGeneral, Reply: raw.Reply}, nil
	case DecisionLegal:
		jurisdiction := raw.Metadata.Jurisdiction
		if jurisdiction == "" {
			jurisdiction = "General"
		}
		return &Decision{
			Type: DecisionLegal,
			Metadata: LegalMetadata{
				Jurisdiction: jurisdiction,
				Keywords:     raw.Metadata.Keywords,
			},
		}, nil
	default:
		// An unrecognized type is treated the same as malformed JSON so
		// the fallback chain keeps going.
		return nil, fmt.Errorf("unrecognized router decision type: %q", raw.Type)
	}
}
