package retrieval

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"legal-advisor-be/internal/entity"
	"legal-advisor-be/internal/repository/contract"
	"legal-advisor-be/internal/repository/specification"
	"legal-advisor-be/internal/repository/unitofwork"
	"legal-advisor-be/pkg/embedding"
)

type stubEmbedder struct{}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

// fakeChunkRepo serves a scripted sequence of search results, one per call
type fakeChunkRepo struct {
	results [][]*contract.ScoredDocumentChunk
	calls   int
}

func (f *fakeChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error { return nil }
func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, documentId *uuid.UUID, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		return nil, nil
	}
	return f.results[idx], nil
}

type fakeUow struct {
	chunkRepo *fakeChunkRepo
}

func (f *fakeUow) Begin(ctx context.Context) error                           { return nil }
func (f *fakeUow) Commit() error                                             { return nil }
func (f *fakeUow) Rollback() error                                           { return nil }
func (f *fakeUow) DocumentRepository() contract.DocumentRepository           { return nil }
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository { return f.chunkRepo }
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository     { return nil }
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository     { return nil }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func newTestSearcher(repo *fakeChunkRepo) *Searcher {
	config := Config{TopK: 5, MaxRetries: 5, RetryDelay: time.Millisecond, DBThreshold: 0.0}
	factory := &fakeFactory{uow: &fakeUow{chunkRepo: repo}}
	return NewSearcher(&stubEmbedder{}, factory, config, log.New(io.Discard, "", 0))
}

func scoredChunk(text string, score float64) *contract.ScoredDocumentChunk {
	return &contract.ScoredDocumentChunk{
		Chunk: &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: uuid.New(),
			Filename:   "contract.txt",
			Content:    text,
		},
		Similarity: score,
	}
}

func TestSearch_FilteredRetriesUntilIndexCatchesUp(t *testing.T) {
	repo := &fakeChunkRepo{
		results: [][]*contract.ScoredDocumentChunk{
			nil, nil, nil, nil,
			{scoredChunk("penalty clause text", 0.9)},
		},
	}
	s := newTestSearcher(repo)

	matches, err := s.Search(context.Background(), "penalty", uuid.New().String(), 5)

	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "penalty clause text", matches[0].Text)
	assert.Equal(t, 5, repo.calls)
}

func TestSearch_FilteredStopsAtMaxRetries(t *testing.T) {
	repo := &fakeChunkRepo{}
	s := newTestSearcher(repo)

	matches, err := s.Search(context.Background(), "penalty", uuid.New().String(), 5)

	assert.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 5, repo.calls)
}

func TestSearch_FilteredReturnsEarlyOnFirstHit(t *testing.T) {
	repo := &fakeChunkRepo{
		results: [][]*contract.ScoredDocumentChunk{
			{scoredChunk("first try", 0.8)},
		},
	}
	s := newTestSearcher(repo)

	matches, err := s.Search(context.Background(), "penalty", uuid.New().String(), 5)

	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, 1, repo.calls)
}

func TestSearch_UnfilteredSingleAttempt(t *testing.T) {
	repo := &fakeChunkRepo{}
	s := newTestSearcher(repo)

	matches, err := s.Search(context.Background(), "penalty", "", 5)

	assert.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 1, repo.calls)
}

func TestSearch_MalformedFilterIDRejected(t *testing.T) {
	s := newTestSearcher(&fakeChunkRepo{})

	_, err := s.Search(context.Background(), "penalty", "not-a-uuid", 5)

	assert.Error(t, err)
}
