package router

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"legal-advisor-be/internal/constant"
	"legal-advisor-be/pkg/llm"
)

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

func newTestRouter(primary, secondary llm.LLMProvider) *Router {
	return NewRouter(primary, secondary, "", "", log.New(io.Discard, "", 0))
}

func TestRoute_PrimaryGeneralDecision(t *testing.T) {
	primary := &stubProvider{reply: `{"type": "GENERAL", "reply": "Hello! How can I help?"}`}
	secondary := &stubProvider{}
	r := newTestRouter(primary, secondary)

	decision := r.Route(context.Background(), "Hi", "")

	assert.Equal(t, DecisionGeneral, decision.Type)
	assert.Equal(t, "Hello! How can I help?", decision.Reply)
	assert.Equal(t, "primary", decision.Provider)
	assert.Equal(t, 0, secondary.calls)
}

func TestRoute_LegalDecisionExtractsMetadata(t *testing.T) {
	primary := &stubProvider{reply: `{"type": "LEGAL", "metadata": {"jurisdiction": "Indian", "keywords": ["penalty", "termination clause"]}}`}
	r := newTestRouter(primary, &stubProvider{})

	decision := r.Route(context.Background(), "What is the penalty for early termination?", "")

	assert.Equal(t, DecisionLegal, decision.Type)
	assert.Equal(t, "Indian", decision.Metadata.Jurisdiction)
	assert.Equal(t, []string{"penalty", "termination clause"}, decision.Metadata.Keywords)
}

func TestRoute_FallsBackToSecondary(t *testing.T) {
	primary := &stubProvider{err: errors.New("timeout")}
	secondary := &stubProvider{reply: `{"type":"GENERAL", "reply":"hi"}`}
	r := newTestRouter(primary, secondary)

	decision := r.Route(context.Background(), "Hi", "")

	assert.Equal(t, DecisionGeneral, decision.Type)
	assert.Equal(t, "hi", decision.Reply)
	assert.Equal(t, "secondary", decision.Provider)
}

func TestRoute_BothProvidersDownReturnsStaticApology(t *testing.T) {
	primary := &stubProvider{err: errors.New("down")}
	secondary := &stubProvider{err: errors.New("also down")}
	r := newTestRouter(primary, secondary)

	decision := r.Route(context.Background(), "Hi", "")

	assert.Equal(t, DecisionGeneral, decision.Type)
	assert.Equal(t, constant.ReplyRouterDown, decision.Reply)
	assert.Equal(t, "fallback", decision.Provider)
}

func TestRoute_MalformedPrimaryJSONFallsBack(t *testing.T) {
	primary := &stubProvider{reply: "I think this is a legal question about penalties."}
	secondary := &stubProvider{reply: `{"type": "GENERAL", "reply": "ok"}`}
	r := newTestRouter(primary, secondary)

	decision := r.Route(context.Background(), "Hi", "")

	assert.Equal(t, "secondary", decision.Provider)
}

func TestRoute_UnrecognizedTypeTreatedAsParseFailure(t *testing.T) {
	primary := &stubProvider{reply: `{"type": "BILLING", "reply": "pay up"}`}
	secondary := &stubProvider{reply: `{"type": "GENERAL", "reply": "ok"}`}
	r := newTestRouter(primary, secondary)

	decision := r.Route(context.Background(), "Hi", "")

	assert.Equal(t, DecisionGeneral, decision.Type)
	assert.Equal(t, "secondary", decision.Provider)
}

func TestParseDecision_StripsCodeFences(t *testing.T) {
	decision, err := parseDecision("```json\n{\"type\": \"GENERAL\", \"reply\": \"hey\"}\n```")

	assert.NoError(t, err)
	assert.Equal(t, DecisionGeneral, decision.Type)
	assert.Equal(t, "hey", decision.Reply)
}

func TestParseDecision_DefaultsEmptyJurisdiction(t *testing.T) {
	decision, err := parseDecision(`{"type": "LEGAL", "metadata": {"keywords": ["lease"]}}`)

	assert.NoError(t, err)
	assert.Equal(t, "General", decision.Metadata.Jurisdiction)
}
