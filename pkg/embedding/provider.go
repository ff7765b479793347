package embedding

// Task types understood by embedding backends. Documents are embedded with
// TaskTypeDocument at index time and queries with TaskTypeQuery at search
// time; mixing them degrades similarity scores.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}
