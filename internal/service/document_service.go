package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"legal-advisor-be/internal/dto"
	"legal-advisor-be/internal/pkg/logger"
	"legal-advisor-be/internal/repository/specification"
	"legal-advisor-be/internal/repository/unitofwork"
	"legal-advisor-be/pkg/events"
	"legal-advisor-be/pkg/extract"
	pktNats "legal-advisor-be/pkg/nats"
	"legal-advisor-be/pkg/rag/session"
	"legal-advisor-be/pkg/sanitizer"
)

type IDocumentService interface {
	Upload(ctx context.Context, filename string, data []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, page, limit int) ([]*dto.ListDocumentsResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessionManager   *session.Manager
	extractService   *extract.Service
	sanitizer        *sanitizer.Sanitizer
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
	minTextChars     int
	maxTextChars     int
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	sessionManager *session.Manager,
	extractService *extract.Service,
	sanitizer *sanitizer.Sanitizer,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	logger logger.ILogger,
	minTextChars int,
	maxTextChars int,
) IDocumentService {
	if minTextChars <= 0 {
		minTextChars = 50
	}
	if maxTextChars <= 0 {
		maxTextChars = 50000
	}
	return &documentService{
		uowFactory:       uowFactory,
		sessionManager:   sessionManager,
		extractService:   extractService,
		sanitizer:        sanitizer,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           logger,
		minTextChars:     minTextChars,
		maxTextChars:     maxTextChars,
	}
}

// Upload validates, extracts, sanitizes and stores an uploaded file, then
// queues it for asynchronous chunk indexing.
func (s *documentService) Upload(ctx context.Context, filename string, data []byte) (*dto.UploadDocumentResponse, error) {
	rawText, err := s.extractService.ExtractText(filename, data)
	if err != nil {
		return nil, err
	}

	textLen := len(rawText)
	s.logger.Info("document", "Extracted text from upload", map[string]interface{}{
		"filename": filename,
		"chars":    textLen,
	})

	if textLen < s.minTextChars {
		return nil, extract.NewContentError("File appears empty or is an image-based PDF.")
	}
	if textLen > s.maxTextChars {
		return nil, extract.NewContentError("Document text too long (%d chars). Limit is %d.", textLen, s.maxTextChars)
	}

	safeText := s.sanitizer.Sanitize(ctx, rawText)

	docID := uuid.New()
	if err := s.sessionManager.RegisterDocument(ctx, docID, filename, int64(len(data)), safeText); err != nil {
		return nil, err
	}

	msgPayload := dto.PublishIndexDocumentMessage{
		DocumentId: docID,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	// Audit is auxiliary; log and move on if the bus is unavailable.
	if s.eventPublisher != nil {
		evt := events.NewDocumentIngested(docID.String(), filename, int64(len(data)))
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("document", "Failed to publish DOCUMENT_INGESTED event", map[string]interface{}{
				"doc_id": docID.String(),
				"error":  err.Error(),
			})
		}
	}

	return &dto.UploadDocumentResponse{
		Status: "success",
		DocId:  docID.String(),
	}, nil
}

func (s *documentService) List(ctx context.Context, page, limit int) ([]*dto.ListDocumentsResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ListDocumentsResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, &dto.ListDocumentsResponse{
			Id:       doc.Id,
			Filename: doc.Filename,
			Size:     doc.SizeBytes,
		})
	}
	return res, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}
