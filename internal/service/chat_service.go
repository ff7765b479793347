package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"legal-advisor-be/internal/constant"
	"legal-advisor-be/internal/dto"
	"legal-advisor-be/pkg/events"
	pktNats "legal-advisor-be/pkg/nats"
	"legal-advisor-be/pkg/rag/assembler"
	"legal-advisor-be/pkg/rag/response"
	"legal-advisor-be/pkg/rag/retrieval"
	"legal-advisor-be/pkg/rag/router"
	"legal-advisor-be/pkg/rag/session"
	"legal-advisor-be/pkg/sanitizer"
)

type IChatService interface {
	ProcessMessage(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, sessionID string) ([]*dto.GetChatHistoryResponse, error)
}

// chatService runs one request through the pipeline: quota, routing,
// context assembly or retrieval, generation, persistence. Every step after
// the quota gate degrades rather than fails; the caller always receives a
// well-formed response.
type chatService struct {
	sessionManager     *session.Manager
	queryRouter        *router.Router
	contextAssembler   *assembler.Assembler
	searcher           *retrieval.Searcher
	generator          *response.Generator
	sanitizer          *sanitizer.Sanitizer
	eventPublisher     *pktNats.Publisher
	contextBudgetChars int
	retrievalTopK      int
}

func NewChatService(
	sessionManager *session.Manager,
	queryRouter *router.Router,
	contextAssembler *assembler.Assembler,
	searcher *retrieval.Searcher,
	generator *response.Generator,
	sanitizer *sanitizer.Sanitizer,
	eventPublisher *pktNats.Publisher,
	contextBudgetChars int,
	retrievalTopK int,
) IChatService {
	if contextBudgetChars <= 0 {
		contextBudgetChars = 30000
	}
	if retrievalTopK <= 0 {
		retrievalTopK = 5
	}
	return &chatService{
		sessionManager:     sessionManager,
		queryRouter:        queryRouter,
		contextAssembler:   contextAssembler,
		searcher:           searcher,
		generator:          generator,
		sanitizer:          sanitizer,
		eventPublisher:     eventPublisher,
		contextBudgetChars: contextBudgetChars,
		retrievalTopK:      retrievalTopK,
	}
}

func (s *chatService) ProcessMessage(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	// 1. QUOTA
	if !s.sessionManager.CheckQuota(ctx, req.SessionId) {
		return &dto.ChatResponse{
			Response:       constant.ReplyQuotaExceeded,
			RouterDecision: "QUOTA_EXCEEDED",
			Sources:        []string{},
		}, nil
	}

	// 2. ROUTE
	history := s.sessionManager.GetHistory(ctx, req.SessionId)
	historyText := session.FormatHistory(history)

	decision := s.queryRouter.Route(ctx, req.Message, historyText)

	docIDs := assembler.ParseDocumentIDs(req.DocumentId)
	primaryDoc := constant.DocumentIDGeneral
	if len(docIDs) > 0 {
		primaryDoc = docIDs[0]
	}

	routerMeta := map[string]interface{}{
		"type":     string(decision.Type),
		"provider": decision.Provider,
	}

	// 3. BRANCH
	var answer string
	var sources []string

	if decision.Type == router.DecisionGeneral {
		answer = decision.Reply
		sources = []string{}
	} else {
		routerMeta["jurisdiction"] = decision.Metadata.Jurisdiction
		routerMeta["keywords"] = decision.Metadata.Keywords

		answer, sources = s.answerLegal(ctx, req, decision, docIDs, historyText)
		if answer == "" {
			// Nothing usable and no history to lean on.
			s.sessionManager.SaveTurn(ctx, req.SessionId, primaryDoc, req.Message, constant.ReplyNoInformation, routerMeta)
			return &dto.ChatResponse{
				Response:       constant.ReplyNoInformation,
				RouterDecision: string(decision.Type),
				Sources:        []string{},
			}, nil
		}
	}

	// 4. PERSIST
	s.sessionManager.SaveTurn(ctx, req.SessionId, primaryDoc, req.Message, answer, routerMeta)

	if s.eventPublisher != nil {
		evt := events.NewChatTurn(req.SessionId, string(decision.Type))
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish CHAT_TURN event: %v", err)
		}
	}

	// 5. RETURN
	return &dto.ChatResponse{
		Response:       answer,
		RouterDecision: string(decision.Type),
		Sources:        sources,
	}, nil
}

// answerLegal assembles grounding and generates the answer. An empty answer
// means nothing usable was found and there was no history to fall back on.
func (s *chatService) answerLegal(ctx context.Context, req *dto.ChatRequest, decision *router.Decision, docIDs []string, historyText string) (string, []string) {
	searchQuery := req.Message
	if len(decision.Metadata.Keywords) > 0 {
		searchQuery = req.Message + " " + strings.Join(decision.Metadata.Keywords, " ")
	}

	contextBlock := s.contextAssembler.Assemble(ctx, docIDs, s.contextBudgetChars)
	contextText := contextBlock.Content
	sources := contextBlock.Sources

	if contextBlock.DocumentCount == 0 {
		// No direct document content; fall back to the vector index.
		filterDocID := ""
		if len(docIDs) == 1 {
			filterDocID = docIDs[0]
		}

		matches, err := s.searcher.Search(ctx, searchQuery, filterDocID, s.retrievalTopK)
		if err != nil {
			log.Printf("[WARN] Retrieval failed, continuing without grounding: %v", err)
		}

		if len(matches) > 0 {
			contextText, sources = buildRetrievalContext(matches)
		} else if historyText == "" {
			return "", nil
		}
		// With history present, the sentinel block stands in for grounding
		// and the generator answers from the conversation so far.
	}

	safeQuery := s.sanitizer.Sanitize(ctx, req.Message)
	answer := s.generator.Generate(ctx, safeQuery, contextText, historyText, decision.Metadata)

	if sources == nil {
		sources = []string{}
	}
	return answer, sources
}

// buildRetrievalContext renders ranked chunks in the same marker format the
// assembler uses so the generator sees one consistent context shape.
func buildRetrievalContext(matches []retrieval.Match) (string, []string) {
	var parts []string
	seen := map[string]bool{}
	var sources []string

	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("\n--- START DOCUMENT: %s ---\n%s\n--- END DOCUMENT ---\n", m.Filename, m.Text))
		if !seen[m.Filename] {
			seen[m.Filename] = true
			sources = append(sources, m.Filename)
		}
	}

	return strings.Join(parts, "\n"), sources
}

func (s *chatService) GetHistory(ctx context.Context, sessionID string) ([]*dto.GetChatHistoryResponse, error) {
	turns := s.sessionManager.GetHistory(ctx, sessionID)
	res := make([]*dto.GetChatHistoryResponse, 0, len(turns))
	for _, t := range turns {
		res = append(res, &dto.GetChatHistoryResponse{
			Role:    t.Role,
			Content: t.Content,
		})
	}
	return res, nil
}
