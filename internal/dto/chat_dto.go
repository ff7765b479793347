package dto

// ChatRequest is one inbound user turn. DocumentId may carry several
// comma-joined document ids for multi-document questions, or a sentinel
// ("general"/"general_chat"/empty) when no document is targeted.
type ChatRequest struct {
	SessionId  string `json:"session_id" validate:"required"`
	DocumentId string `json:"document_id"`
	Message    string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Response       string   `json:"response"`
	RouterDecision string   `json:"router_decision"`
	Sources        []string `json:"sources"`
}

type GetChatHistoryResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
