package assembler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"legal-advisor-be/internal/constant"
	"legal-advisor-be/internal/repository/specification"
	"legal-advisor-be/internal/repository/unitofwork"
)

// ContextBlock is the bounded context handed to the answer generator
type ContextBlock struct {
	Content       string
	Sources       []string
	DocumentCount int
}

// SentinelBlock instructs the generator to answer from general knowledge
// when no document content could be assembled.
const SentinelBlock = "No documents found in context. Answer based on general legal knowledge."

const truncationMarker = "...[truncated]"

// Assembler fetches document content and merges it into a single context
// block bounded by a character budget. The budget is split evenly across
// the requested documents so total size stays fixed no matter how many
// documents a request names.
type Assembler struct {
	uowFactory unitofwork.RepositoryFactory
	logger     *log.Logger
}

func NewAssembler(uowFactory unitofwork.RepositoryFactory, logger *log.Logger) *Assembler {
	return &Assembler{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// ParseDocumentIDs splits the wire form (comma-delimited) into a list,
// dropping sentinel and empty entries.
func ParseDocumentIDs(raw string) []string {
	if constant.IsSentinelDocumentID(raw) {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" || constant.IsSentinelDocumentID(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Assemble fetches each document and builds the merged context block. A
// document that cannot be resolved is skipped with a warning; only when
// nothing at all resolves does the sentinel block come back.
func (a *Assembler) Assemble(ctx context.Context, docIDs []string, budgetChars int) *ContextBlock {
	if budgetChars <= 0 {
		budgetChars = 30000
	}

	var parts []string
	var sources []string

	perDocBudget := budgetChars / max(1, len(docIDs))

	uow := a.uowFactory.NewUnitOfWork(ctx)

	for _, rawID := range docIDs {
		docID, err := uuid.Parse(rawID)
		if err != nil {
			a.logger.Printf("[ASSEMBLER] skipping malformed document id %q: %v", rawID, err)
			continue
		}

		doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: docID})
		if err != nil {
			a.logger.Printf("[ASSEMBLER] failed to fetch document %s: %v", docID, err)
			continue
		}
		if doc == nil {
			a.logger.Printf("[ASSEMBLER] document %s not found, skipping", docID)
			continue
		}

		// The budget counts characters, not bytes; slicing runes keeps
		// multi-byte scripts intact.
		text := doc.Content
		if runes := []rune(text); len(runes) > perDocBudget {
			text = string(runes[:perDocBudget]) + truncationMarker
		}

		parts = append(parts, fmt.Sprintf("\n--- START DOCUMENT: %s ---\n%s\n--- END DOCUMENT ---\n", doc.Filename, text))
		sources = append(sources, doc.Filename)
	}

	if len(parts) == 0 {
		return &ContextBlock{
			Content:       SentinelBlock,
			Sources:       nil,
			DocumentCount: 0,
		}
	}

	return &ContextBlock{
		Content:       strings.Join(parts, "\n"),
		Sources:       sources,
		DocumentCount: len(parts),
	}
}
