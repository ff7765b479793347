package assembler

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"legal-advisor-be/internal/entity"
	"legal-advisor-be/internal/repository/contract"
	"legal-advisor-be/internal/repository/specification"
	"legal-advisor-be/internal/repository/unitofwork"
)

// fakeDocumentRepo serves documents from a map keyed by id
type fakeDocumentRepo struct {
	docs map[uuid.UUID]*entity.Document
}

func (f *fakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error { return nil }
func (f *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error              { return nil }
func (f *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return f.docs[byID.ID], nil
		}
	}
	return nil, nil
}

type fakeUow struct {
	docRepo *fakeDocumentRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) DocumentRepository() contract.DocumentRepository {
	return f.docRepo
}
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository { return nil }
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository     { return nil }
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository     { return nil }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func newTestAssembler(docs map[uuid.UUID]*entity.Document) *Assembler {
	factory := &fakeFactory{uow: &fakeUow{docRepo: &fakeDocumentRepo{docs: docs}}}
	return NewAssembler(factory, log.New(io.Discard, "", 0))
}

func TestAssemble_TwoDocumentsSplitBudget(t *testing.T) {
	idA, idB := uuid.New(), uuid.New()
	docs := map[uuid.UUID]*entity.Document{
		idA: {Id: idA, Filename: "lease.txt", Content: strings.Repeat("a", 20000)},
		idB: {Id: idB, Filename: "nda.txt", Content: strings.Repeat("b", 20000)},
	}
	a := newTestAssembler(docs)

	block := a.Assemble(context.Background(), []string{idA.String(), idB.String()}, 30000)

	assert.Equal(t, 2, block.DocumentCount)
	assert.Equal(t, []string{"lease.txt", "nda.txt"}, block.Sources)
	assert.Contains(t, block.Content, "--- START DOCUMENT: lease.txt ---")
	assert.Contains(t, block.Content, "--- START DOCUMENT: nda.txt ---")
	assert.Contains(t, block.Content, "--- END DOCUMENT ---")

	// Each 20k document must be cut to the 15k per-document share.
	assert.Equal(t, 2, strings.Count(block.Content, truncationMarker))
	assert.NotContains(t, block.Content, strings.Repeat("a", 15001))
	assert.NotContains(t, block.Content, strings.Repeat("b", 15001))
}

func TestAssemble_ContentWithinBudgetNotTruncated(t *testing.T) {
	id := uuid.New()
	docs := map[uuid.UUID]*entity.Document{
		id: {Id: id, Filename: "short.txt", Content: "The penalty is $1,000,000."},
	}
	a := newTestAssembler(docs)

	block := a.Assemble(context.Background(), []string{id.String()}, 30000)

	assert.Equal(t, 1, block.DocumentCount)
	assert.Contains(t, block.Content, "The penalty is $1,000,000.")
	assert.NotContains(t, block.Content, truncationMarker)
}

func TestAssemble_NonASCIIDocumentWithinBudgetNotTruncated(t *testing.T) {
	id := uuid.New()
	content := strings.Repeat("न", 10000) // 10,000 chars, 30,000 bytes
	docs := map[uuid.UUID]*entity.Document{
		id: {Id: id, Filename: "hindi_contract.txt", Content: content},
	}
	a := newTestAssembler(docs)

	block := a.Assemble(context.Background(), []string{id.String()}, 15000)

	assert.NotContains(t, block.Content, truncationMarker)
	assert.Contains(t, block.Content, content)
	assert.True(t, utf8.ValidString(block.Content))
}

func TestAssemble_NonASCIITruncationCountsRunesAndStaysValidUTF8(t *testing.T) {
	id := uuid.New()
	docs := map[uuid.UUID]*entity.Document{
		id: {Id: id, Filename: "hindi_contract.txt", Content: strings.Repeat("क", 2000)},
	}
	a := newTestAssembler(docs)

	block := a.Assemble(context.Background(), []string{id.String()}, 1000)

	assert.Equal(t, 1, strings.Count(block.Content, truncationMarker))
	assert.Contains(t, block.Content, strings.Repeat("क", 1000))
	assert.NotContains(t, block.Content, strings.Repeat("क", 1001))
	assert.True(t, utf8.ValidString(block.Content))
}

func TestAssemble_NoResolvableDocumentsReturnsSentinel(t *testing.T) {
	a := newTestAssembler(map[uuid.UUID]*entity.Document{})

	block := a.Assemble(context.Background(), []string{uuid.New().String()}, 30000)

	assert.Equal(t, 0, block.DocumentCount)
	assert.Equal(t, SentinelBlock, block.Content)
	assert.Empty(t, block.Sources)
}

func TestAssemble_MissingDocumentSkippedNotFatal(t *testing.T) {
	id := uuid.New()
	docs := map[uuid.UUID]*entity.Document{
		id: {Id: id, Filename: "found.txt", Content: "clause text"},
	}
	a := newTestAssembler(docs)

	block := a.Assemble(context.Background(), []string{uuid.New().String(), id.String()}, 30000)

	assert.Equal(t, 1, block.DocumentCount)
	assert.Equal(t, []string{"found.txt"}, block.Sources)
}

func TestParseDocumentIDs(t *testing.T) {
	assert.Nil(t, ParseDocumentIDs(""))
	assert.Nil(t, ParseDocumentIDs("general"))
	assert.Nil(t, ParseDocumentIDs("general_chat"))
	assert.Equal(t, []string{"a", "b"}, ParseDocumentIDs(" a , b "))
	assert.Equal(t, []string{"a"}, ParseDocumentIDs("a,,general"))
}
