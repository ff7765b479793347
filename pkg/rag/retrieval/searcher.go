package retrieval

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"legal-advisor-be/internal/repository/unitofwork"
	"legal-advisor-be/pkg/embedding"
)

// Match is one ranked retrieval hit
type Match struct {
	Text       string
	Score      float64
	DocumentID string
	Filename   string
}

// Config bundles the retry policy and ranking parameters
type Config struct {
	TopK        int
	MaxRetries  int
	RetryDelay  time.Duration
	DBThreshold float64
}

func DefaultConfig() Config {
	return Config{
		TopK:        5,
		MaxRetries:  5,
		RetryDelay:  2 * time.Second,
		DBThreshold: 0.0,
	}
}

// Searcher embeds queries and runs vector search over document chunks.
//
// Filtered searches (scoped to one document) tolerate index lag: chunks of
// a freshly ingested document may not be visible yet, so the search retries
// up to MaxRetries with RetryDelay between attempts and returns as soon as
// anything matches. Unfiltered searches return the first attempt as-is.
type Searcher struct {
	embeddingProvider embedding.EmbeddingProvider
	uowFactory        unitofwork.RepositoryFactory
	config            Config
	logger            *log.Logger
}

func NewSearcher(
	embeddingProvider embedding.EmbeddingProvider,
	uowFactory unitofwork.RepositoryFactory,
	config Config,
	logger *log.Logger,
) *Searcher {
	return &Searcher{
		embeddingProvider: embeddingProvider,
		uowFactory:        uowFactory,
		config:            config,
		logger:            logger,
	}
}

// Search runs a similarity search for query. An empty filterDocID means a
// global search. Exhausted retries yield an empty slice, not an error; the
// caller decides what "no grounding" means.
func (s *Searcher) Search(ctx context.Context, query string, filterDocID string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = s.config.TopK
	}

	embeddingRes, err := s.embeddingProvider.Generate(query, embedding.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	queryVector := embeddingRes.Embedding.Values

	var filterID *uuid.UUID
	if filterDocID != "" {
		parsed, err := uuid.Parse(filterDocID)
		if err != nil {
			return nil, fmt.Errorf("malformed document id filter %q: %w", filterDocID, err)
		}
		filterID = &parsed
	}

	attempts := 1
	if filterID != nil {
		attempts = s.config.MaxRetries
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	for attempt := 1; attempt <= attempts; attempt++ {
		scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(
			ctx,
			queryVector,
			topK,
			filterID,
			s.config.DBThreshold,
		)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}

		if len(scored) > 0 {
			matches := make([]Match, 0, len(scored))
			for _, sc := range scored {
				matches = append(matches, Match{
					Text:       sc.Chunk.Content,
					Score:      sc.Similarity,
					DocumentID: sc.Chunk.DocumentId.String(),
					Filename:   sc.Chunk.Filename,
				})
			}
			return matches, nil
		}

		if attempt < attempts {
			s.logger.Printf("[RETRIEVAL] no matches for doc %s (attempt %d/%d), waiting for index", filterDocID, attempt, attempts)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}
	}

	return []Match{}, nil
}
