package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// Sentinel document ids meaning "no specific document". A session whose
// active document is a sentinel is a general-knowledge chat.
const (
	DocumentIDGeneral     = "general"
	DocumentIDGeneralChat = "general_chat"
)

func IsSentinelDocumentID(id string) bool {
	return id == "" || id == DocumentIDGeneral || id == DocumentIDGeneralChat
}

// Static pipeline replies. These are returned without calling any
// generation provider.
const (
	ReplyQuotaExceeded = "You have reached your daily question limit. Please try again tomorrow."
	ReplyRouterDown    = "I'm sorry, I'm having trouble understanding requests right now. Please try again in a moment."
	ReplyNoInformation = "I couldn't find any relevant information in your documents to answer that question."
)
