package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"legal-advisor-be/internal/constant"
	"legal-advisor-be/internal/entity"
	"legal-advisor-be/internal/repository/specification"
	"legal-advisor-be/internal/repository/unitofwork"
)

// Turn is one side of a conversation exchange
type Turn struct {
	Role    string
	Content string
}

// Manager owns session rows, chat history and the per-session daily quota.
//
// Store failures never abort the pipeline: quota checks fail open, history
// reads degrade to empty, and SaveTurn logs instead of raising. Losing a
// turn or over-admitting a session is preferred over refusing service.
type Manager struct {
	uowFactory    unitofwork.RepositoryFactory
	dailyQuota    int
	historyWindow int
	// Caches sessions already known to be over quota so repeat offenders
	// don't hit the store again before the UTC day rolls over.
	quotaVerdicts *gocache.Cache
	logger        *log.Logger
}

func NewManager(uowFactory unitofwork.RepositoryFactory, dailyQuota int, historyWindow int, logger *log.Logger) *Manager {
	if dailyQuota <= 0 {
		dailyQuota = 50
	}
	if historyWindow <= 0 {
		historyWindow = 5
	}
	return &Manager{
		uowFactory:    uowFactory,
		dailyQuota:    dailyQuota,
		historyWindow: historyWindow,
		quotaVerdicts: gocache.New(gocache.NoExpiration, 10*time.Minute),
		logger:        logger,
	}
}

// CheckQuota reports whether the session may send another message today.
// The window is the current UTC calendar day. Fails open on store errors.
func (m *Manager) CheckQuota(ctx context.Context, sessionID string) bool {
	if _, exceeded := m.quotaVerdicts.Get(sessionID); exceeded {
		return false
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	uow := m.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.ByRole{Role: constant.ChatMessageRoleUser},
		specification.CreatedAtAfter{Time: dayStart},
	)
	if err != nil {
		m.logger.Printf("[SESSION] quota check failed for %s, allowing: %v", sessionID, err)
		return true
	}

	if count >= int64(m.dailyQuota) {
		nextMidnight := dayStart.Add(24 * time.Hour)
		m.quotaVerdicts.Set(sessionID, true, time.Until(nextMidnight))
		return false
	}
	return true
}

// GetHistory returns at most the configured window of turns in
// chronological order. Read failures degrade to empty history.
func (m *Manager) GetHistory(ctx context.Context, sessionID string) []Turn {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: m.historyWindow},
	)
	if err != nil {
		m.logger.Printf("[SESSION] history fetch failed for %s, continuing without: %v", sessionID, err)
		return nil
	}

	// Newest-first from the store, reversed so context reads top to bottom.
	turns := make([]Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, Turn{
			Role:    messages[i].Role,
			Content: messages[i].Content,
		})
	}
	return turns
}

// FormatHistory renders turns as "role: content" lines for prompt use
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// SaveTurn persists both sides of an exchange and upserts the session row.
// docID is the primary resolved document id; sentinel values never
// overwrite a real association.
func (m *Manager) SaveTurn(ctx context.Context, sessionID string, docID string, userMsg string, aiMsg string, routerMeta map[string]interface{}) {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		m.logger.Printf("[SESSION] begin failed for %s: %v", sessionID, err)
		return
	}

	if err := m.saveTurnTx(ctx, uow, sessionID, docID, userMsg, aiMsg, routerMeta); err != nil {
		m.logger.Printf("[SESSION] save turn failed for %s: %v", sessionID, err)
		if rbErr := uow.Rollback(); rbErr != nil {
			m.logger.Printf("[SESSION] rollback failed for %s: %v", sessionID, rbErr)
		}
		return
	}

	if err := uow.Commit(); err != nil {
		m.logger.Printf("[SESSION] commit failed for %s: %v", sessionID, err)
	}
}

func (m *Manager) saveTurnTx(ctx context.Context, uow unitofwork.UnitOfWork, sessionID string, docID string, userMsg string, aiMsg string, routerMeta map[string]interface{}) error {
	now := time.Now()

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: sessionID})
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if session == nil {
		newSession := &entity.ChatSession{
			Id:         sessionID,
			DocumentId: constant.DocumentIDGeneral,
			CreatedAt:  now,
		}
		if !constant.IsSentinelDocumentID(docID) {
			newSession.DocumentId = docID
		}
		if err := uow.ChatSessionRepository().Create(ctx, newSession); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
	} else if !constant.IsSentinelDocumentID(docID) && session.DocumentId != docID {
		session.DocumentId = docID
		session.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return fmt.Errorf("update session document: %w", err)
		}
	}

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionID,
		Role:          constant.ChatMessageRoleUser,
		Content:       userMsg,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return fmt.Errorf("save user message: %w", err)
	}

	aiMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionID,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       aiMsg,
		RouterMeta:    routerMeta,
		CreatedAt:     now.Add(time.Millisecond),
	}
	if err := uow.ChatMessageRepository().Create(ctx, aiMessage); err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}

	return nil
}

// RegisterDocument persists an ingested document
func (m *Manager) RegisterDocument(ctx context.Context, docID uuid.UUID, filename string, sizeBytes int64, content string) error {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	doc := &entity.Document{
		Id:        docID,
		Filename:  filename,
		SizeBytes: sizeBytes,
		Content:   content,
		CreatedAt: time.Now(),
	}
	return uow.DocumentRepository().Create(ctx, doc)
}
