package dto

import "github.com/google/uuid"

type UploadDocumentResponse struct {
	Status string `json:"status"`
	DocId  string `json:"doc_id"`
}

type ListDocumentsResponse struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size_bytes"`
}

// PublishIndexDocumentMessage is the payload queued for the indexing worker
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
