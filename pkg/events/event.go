package events

import "time"

// Event types emitted by the ingestion and chat pipelines.
const (
	TypeDocumentIngested = "DOCUMENT_INGESTED"
	TypeDocumentIndexed  = "DOCUMENT_INDEXED"
	TypeChatTurn         = "CHAT_TURN"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the standard Event implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewDocumentIngested builds the audit event for a completed upload.
func NewDocumentIngested(docID, filename string, sizeBytes int64) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"doc_id":     docID,
			"filename":   filename,
			"size_bytes": sizeBytes,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIndexed builds the audit event for completed chunk indexing.
func NewDocumentIndexed(docID string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentIndexed,
		Data: map[string]interface{}{
			"doc_id":      docID,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatTurn builds the audit event for a completed chat exchange.
func NewChatTurn(sessionID, routerDecision string) Event {
	return BaseEvent{
		Type: TypeChatTurn,
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"router_decision": routerDecision,
		},
		OccurredAt: time.Now(),
	}
}
