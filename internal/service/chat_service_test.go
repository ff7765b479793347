package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-advisor-be/internal/constant"
	"legal-advisor-be/internal/dto"
	"legal-advisor-be/internal/entity"
	"legal-advisor-be/internal/repository/contract"
	"legal-advisor-be/internal/repository/specification"
	"legal-advisor-be/internal/repository/unitofwork"
	"legal-advisor-be/pkg/embedding"
	"legal-advisor-be/pkg/llm"
	"legal-advisor-be/pkg/rag/assembler"
	"legal-advisor-be/pkg/rag/response"
	"legal-advisor-be/pkg/rag/retrieval"
	"legal-advisor-be/pkg/rag/router"
	"legal-advisor-be/pkg/rag/session"
	"legal-advisor-be/pkg/sanitizer"
)

// --- In-memory store fakes ---

type memDocumentRepo struct {
	docs         map[uuid.UUID]*entity.Document
	list         []*entity.Document
	findAllSpecs []specification.Specification
}

func (r *memDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.docs[doc.Id] = doc
	return nil
}
func (r *memDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.docs, id)
	return nil
}
func (r *memDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.docs[byID.ID], nil
		}
	}
	return nil, nil
}
func (r *memDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.findAllSpecs = specs
	return r.list, nil
}
func (r *memDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.docs)), nil
}

type memChunkRepo struct {
	searchResults []*contract.ScoredDocumentChunk
	searchCalls   int
}

func (r *memChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error { return nil }
func (r *memChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (r *memChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (r *memChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (r *memChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (r *memChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, documentId *uuid.UUID, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	r.searchCalls++
	return r.searchResults, nil
}

type memSessionRepo struct {
	sessions map[string]*entity.ChatSession
}

func (r *memSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	r.sessions[s.Id] = s
	return nil
}
func (r *memSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	r.sessions[s.Id] = s
	return nil
}
func (r *memSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByStringID); ok {
			return r.sessions[byID.ID], nil
		}
	}
	return nil, nil
}
func (r *memSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type memMessageRepo struct {
	todayUserCount int64
	messages       []*entity.ChatMessage
}

func (r *memMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	r.messages = append(r.messages, m)
	return nil
}
func (r *memMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	// Newest first, like the real implementation under OrderBy desc.
	out := make([]*entity.ChatMessage, len(r.messages))
	copy(out, r.messages)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
func (r *memMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return r.todayUserCount, nil
}

type memUow struct {
	docRepo     *memDocumentRepo
	chunkRepo   *memChunkRepo
	sessionRepo *memSessionRepo
	messageRepo *memMessageRepo
}

func (u *memUow) Begin(ctx context.Context) error                           { return nil }
func (u *memUow) Commit() error                                             { return nil }
func (u *memUow) Rollback() error                                           { return nil }
func (u *memUow) DocumentRepository() contract.DocumentRepository           { return u.docRepo }
func (u *memUow) DocumentChunkRepository() contract.DocumentChunkRepository { return u.chunkRepo }
func (u *memUow) ChatSessionRepository() contract.ChatSessionRepository     { return u.sessionRepo }
func (u *memUow) ChatMessageRepository() contract.ChatMessageRepository     { return u.messageRepo }

type memFactory struct {
	uow *memUow
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func newMemUow() *memUow {
	return &memUow{
		docRepo:     &memDocumentRepo{docs: map[uuid.UUID]*entity.Document{}},
		chunkRepo:   &memChunkRepo{},
		sessionRepo: &memSessionRepo{sessions: map[string]*entity.ChatSession{}},
		messageRepo: &memMessageRepo{},
	}
}

// --- Provider stubs ---

type scriptedProvider struct {
	reply      string
	err        error
	calls      int
	lastPrompt string
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.calls++
	for _, m := range history {
		p.lastPrompt += m.Content + "\n"
	}
	return p.reply, p.err
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type stubEmbedder struct{}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

// --- Pipeline assembly ---

type pipeline struct {
	service  IChatService
	uow      *memUow
	routerP  *scriptedProvider
	genP     *scriptedProvider
	sanitize *scriptedProvider
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	discard := log.New(io.Discard, "", 0)
	uow := newMemUow()
	factory := &memFactory{uow: uow}

	routerProvider := &scriptedProvider{}
	genProvider := &scriptedProvider{}
	// Sanitizer provider fails so sanitize passes text through untouched.
	sanitizeProvider := &scriptedProvider{err: errors.New("sanitizer offline")}

	sessionManager := session.NewManager(factory, 50, 5, discard)
	queryRouter := router.NewRouter(routerProvider, routerProvider, "", "", discard)
	contextAssembler := assembler.NewAssembler(factory, discard)
	searcher := retrieval.NewSearcher(&stubEmbedder{}, factory, retrieval.Config{
		TopK:       5,
		MaxRetries: 5,
		RetryDelay: time.Millisecond,
	}, discard)
	generator := response.NewGenerator(genProvider, 1024, discard)
	dataSanitizer := sanitizer.NewSanitizer(sanitizeProvider, 2000, discard)

	svc := NewChatService(
		sessionManager,
		queryRouter,
		contextAssembler,
		searcher,
		generator,
		dataSanitizer,
		nil,
		30000,
		5,
	)

	return &pipeline{
		service:  svc,
		uow:      uow,
		routerP:  routerProvider,
		genP:     genProvider,
		sanitize: sanitizeProvider,
	}
}

// --- Tests ---

func TestProcessMessage_GeneralReturnsRouterReplyVerbatim(t *testing.T) {
	p := newPipeline(t)
	p.routerP.reply = `{"type": "GENERAL", "reply": "Hello! How can I help you today?"}`

	res, err := p.service.ProcessMessage(context.Background(), &dto.ChatRequest{
		SessionId: "sess-1",
		Message:   "Hi",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you today?", res.Response)
	assert.Equal(t, "GENERAL", res.RouterDecision)

	// No generation and no retrieval happened.
	assert.Equal(t, 0, p.genP.calls)
	assert.Equal(t, 0, p.uow.chunkRepo.searchCalls)

	// Both sides of the turn were persisted.
	require.Len(t, p.uow.messageRepo.messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, p.uow.messageRepo.messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, p.uow.messageRepo.messages[1].Role)
}

func TestProcessMessage_QuotaExceededShortCircuits(t *testing.T) {
	p := newPipeline(t)
	p.uow.messageRepo.todayUserCount = 50

	res, err := p.service.ProcessMessage(context.Background(), &dto.ChatRequest{
		SessionId: "sess-1",
		Message:   "Hi",
	})

	require.NoError(t, err)
	assert.Equal(t, constant.ReplyQuotaExceeded, res.Response)
	assert.Equal(t, "QUOTA_EXCEEDED", res.RouterDecision)

	// No routing, no generation, no persistence.
	assert.Equal(t, 0, p.routerP.calls)
	assert.Equal(t, 0, p.genP.calls)
	assert.Empty(t, p.uow.messageRepo.messages)
}

func TestProcessMessage_PenaltyQuestionAnsweredFromDocument(t *testing.T) {
	p := newPipeline(t)

	docID := uuid.New()
	p.uow.docRepo.docs[docID] = &entity.Document{
		Id:       docID,
		Filename: "service_agreement.txt",
		Content:  "Late delivery incurs a penalty of $1,000,000 payable within 30 days.",
	}

	p.routerP.reply = `{"type": "LEGAL", "metadata": {"jurisdiction": "Indian", "keywords": ["penalty"]}}`
	p.genP.reply = "The penalty amount is $1,000,000, payable within 30 days."

	res, err := p.service.ProcessMessage(context.Background(), &dto.ChatRequest{
		SessionId:  "sess-1",
		DocumentId: docID.String(),
		Message:    "What is the penalty amount?",
	})

	require.NoError(t, err)
	assert.Contains(t, res.Response, "1,000,000")
	assert.True(t, strings.HasSuffix(res.Response, response.Disclaimer))
	assert.Equal(t, "LEGAL", res.RouterDecision)
	assert.Equal(t, []string{"service_agreement.txt"}, res.Sources)

	// The generator was grounded in the document text.
	assert.Contains(t, p.genP.lastPrompt, "penalty of $1,000,000")
	assert.Contains(t, p.genP.lastPrompt, "service_agreement.txt")

	// The session got associated with the document.
	require.Contains(t, p.uow.sessionRepo.sessions, "sess-1")
	assert.Equal(t, docID.String(), p.uow.sessionRepo.sessions["sess-1"].DocumentId)
}

func TestProcessMessage_LegalWithNothingUsableAndNoHistory(t *testing.T) {
	p := newPipeline(t)
	p.routerP.reply = `{"type": "LEGAL", "metadata": {"jurisdiction": "General", "keywords": ["lease"]}}`

	res, err := p.service.ProcessMessage(context.Background(), &dto.ChatRequest{
		SessionId: "sess-1",
		Message:   "What does my lease say about subletting?",
	})

	require.NoError(t, err)
	assert.Equal(t, constant.ReplyNoInformation, res.Response)
	assert.Equal(t, 0, p.genP.calls)

	// The exchange is still recorded.
	assert.Len(t, p.uow.messageRepo.messages, 2)
}

func TestProcessMessage_LegalFallsBackToRetrieval(t *testing.T) {
	p := newPipeline(t)
	p.routerP.reply = `{"type": "LEGAL", "metadata": {"jurisdiction": "General", "keywords": ["termination"]}}`
	p.genP.reply = "Either party may terminate with 60 days notice."

	chunkDoc := uuid.New()
	p.uow.chunkRepo.searchResults = []*contract.ScoredDocumentChunk{
		{
			Chunk: &entity.DocumentChunk{
				Id:         uuid.New(),
				DocumentId: chunkDoc,
				Filename:   "msa.txt",
				Content:    "Termination requires 60 days written notice.",
			},
			Similarity: 0.91,
		},
	}

	// No document id on the request, so assembly yields nothing and the
	// searcher supplies the grounding.
	res, err := p.service.ProcessMessage(context.Background(), &dto.ChatRequest{
		SessionId: "sess-1",
		Message:   "How do I terminate the contract?",
	})

	require.NoError(t, err)
	assert.Contains(t, res.Response, "terminate")
	assert.Equal(t, []string{"msa.txt"}, res.Sources)
	assert.GreaterOrEqual(t, p.uow.chunkRepo.searchCalls, 1)
	assert.Contains(t, p.genP.lastPrompt, "Termination requires 60 days written notice.")
}

func TestProcessMessage_RouterDownStillAnswers(t *testing.T) {
	p := newPipeline(t)
	p.routerP.err = errors.New("all providers down")

	res, err := p.service.ProcessMessage(context.Background(), &dto.ChatRequest{
		SessionId: "sess-1",
		Message:   "Hi",
	})

	require.NoError(t, err)
	assert.Equal(t, constant.ReplyRouterDown, res.Response)
	assert.Equal(t, "GENERAL", res.RouterDecision)
}
