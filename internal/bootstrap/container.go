package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"legal-advisor-be/internal/config"
	"legal-advisor-be/internal/controller"
	"legal-advisor-be/internal/pkg/logger"
	"legal-advisor-be/internal/repository/unitofwork"
	"legal-advisor-be/internal/service"
	"legal-advisor-be/pkg/embedding"
	"legal-advisor-be/pkg/extract"
	"legal-advisor-be/pkg/llm"
	"legal-advisor-be/pkg/llm/factory"
	pktNats "legal-advisor-be/pkg/nats"
	"legal-advisor-be/pkg/rag/assembler"
	"legal-advisor-be/pkg/rag/response"
	"legal-advisor-be/pkg/rag/retrieval"
	"legal-advisor-be/pkg/rag/router"
	"legal-advisor-be/pkg/rag/session"
	"legal-advisor-be/pkg/sanitizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Shared infrastructure
	Redis     *redis.Client
	SysLogger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := initRagLogger()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider := mustProvider(cfg, cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	routerPrimary := mustProvider(cfg, cfg.Ai.RouterPrimaryProvider, cfg.Ai.RouterPrimaryModel)
	routerSecondary := mustProvider(cfg, cfg.Ai.RouterSecondaryProvider, cfg.Ai.RouterSecondaryModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 5. Domain Components
	dataSanitizer := sanitizer.NewSanitizer(llmProvider, cfg.Policy.SanitizeMaxChars, ragLogger)
	sessionManager := session.NewManager(uowFactory, cfg.Policy.DailyQuota, cfg.Policy.HistoryWindow, ragLogger)
	queryRouter := router.NewRouter(routerPrimary, routerSecondary, cfg.Ai.RouterPrimaryModel, cfg.Ai.RouterSecondaryModel, ragLogger)
	contextAssembler := assembler.NewAssembler(uowFactory, ragLogger)
	searcher := retrieval.NewSearcher(embeddingProvider, uowFactory, retrieval.Config{
		TopK:        cfg.Policy.RetrievalTopK,
		MaxRetries:  cfg.Policy.RetrievalMaxRetries,
		RetryDelay:  cfg.Policy.RetrievalRetryDelay,
		DBThreshold: 0.0,
	}, ragLogger)
	generator := response.NewGenerator(llmProvider, cfg.Policy.AnswerMaxTokens, ragLogger)
	extractService := extract.NewService(cfg.Policy.MaxFileSizeBytes)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.IndexTopicName, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IndexTopicName,
		uowFactory,
		embeddingProvider,
		natsPub,
		cfg.Policy.ChunkSize,
		cfg.Policy.ChunkOverlap,
	)

	chatService := service.NewChatService(
		sessionManager,
		queryRouter,
		contextAssembler,
		searcher,
		generator,
		dataSanitizer,
		natsPub,
		cfg.Policy.ContextBudgetChars,
		cfg.Policy.RetrievalTopK,
	)
	documentService := service.NewDocumentService(
		uowFactory,
		sessionManager,
		extractService,
		dataSanitizer,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Policy.MinTextChars,
		cfg.Policy.MaxTextChars,
	)

	// 7. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),
		ConsumerService:    consumerService,
		Redis:              rdb,
		SysLogger:          sysLogger,
	}
}

func mustProvider(cfg *config.Config, providerType, model string) llm.LLMProvider {
	provider, err := factory.NewLLMProvider(
		providerType,
		model,
		cfg.Ai.OllamaBaseURL,
		apiKeyFor(cfg, providerType),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider %s: %v", providerType, err)
	}
	return provider
}

func apiKeyFor(cfg *config.Config, providerType string) string {
	switch providerType {
	case "groq":
		return cfg.Keys.Groq
	case "huggingface":
		return cfg.Keys.HuggingFace
	default:
		return ""
	}
}

func initRagLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
