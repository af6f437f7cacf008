package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"sales-research-be/internal/config"
	"sales-research-be/internal/controller"
	"sales-research-be/internal/pkg/logger"
	sessionmem "sales-research-be/internal/repository/memory"
	"sales-research-be/internal/repository/unitofwork"
	"sales-research-be/internal/repository/vector"
	"sales-research-be/internal/service"
	"sales-research-be/internal/websocket"
	"sales-research-be/pkg/ai/relevance"
	"sales-research-be/pkg/ai/router"
	"sales-research-be/pkg/embedding"
	"sales-research-be/pkg/embedding/jina"
	"sales-research-be/pkg/llm/factory"
	"sales-research-be/pkg/memory"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/rag/corpus"
	"sales-research-be/pkg/rag/retriever"
	"sales-research-be/pkg/rag/vectorstore"
	"sales-research-be/pkg/research"
	"sales-research-be/pkg/websearch"

	pktNats "sales-research-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// IngestTopicName is the in-process topic for knowledge-base indexing.
const IngestTopicName = "INDEX_KNOWLEDGE_DOCUMENT"

type Container struct {
	// Controllers
	ChatController        controller.IChatController
	ResearchController    controller.IResearchController
	DiagnosticsController controller.IDiagnosticsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub

	// Shared infrastructure
	PubSub    *gochannel.GoChannel
	SysLogger logger.ILogger
}

// rejectionRelay lets the relevance filter be built before the
// diagnostics service it reports to.
type rejectionRelay struct {
	target relevance.RejectionSink
}

func (r *rejectionRelay) RecordRejection(query string, confidence int, reason string) {
	if r.target != nil {
		r.target.RecordRejection(query, confidence, reason)
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	engineLogger := log.New(os.Stdout, "", log.LstdFlags)

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
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Models.StandardModel,
		cfg.Ai.LLMBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Ai.LLMProvider)

	models := modelrouter.NewRouter(modelrouter.Config{
		FastModel:         cfg.Models.FastModel,
		StandardModel:     cfg.Models.StandardModel,
		HighModel:         cfg.Models.HighModel,
		DeepResearchModel: cfg.Models.DeepResearchModel,
	})

	// 4. Session state
	sessionRepo := sessionmem.NewSessionRepository()

	// 5. Infrastructure: NATS, Redis
	// Keep the interface nil on failure so services can skip publishing.
	var eventPublisher service.EventPublisher
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub

		// The stream uses work-queue retention; without a consumer
		// published events would pile up unread.
		if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else if err := natsSub.Subscribe("assistant.>", "assistant-audit", service.NewEventAuditHandler(sysLogger)); err != nil {
			log.Printf("[WARN] Failed to subscribe to assistant events: %v", err)
		}
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/research_stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()
	bridge := websocket.NewStreamBridge(pubSub, wsHub, wsLogger)

	// 6. Retrieval engine
	var chunkStore vectorstore.VectorStore = vectorstore.NewMemoryStore()
	if cfg.Retrieval.PersistentStore {
		chunkStore = vector.NewStore(uowFactory)
		log.Printf("[INFO] Using persistent pgvector chunk store")
	}
	loader := corpus.NewLoader(cfg.Retrieval.CorpusCandidates, engineLogger)
	engine := retriever.NewEngine(
		chunkStore,
		embeddingProvider,
		loader,
		retriever.Config{
			ChunkSize:           cfg.Retrieval.ChunkSize,
			ChunkOverlap:        cfg.Retrieval.ChunkOverlap,
			TopK:                cfg.Retrieval.TopK,
			MinMatchRatio:       cfg.Retrieval.MinMatchRatio,
			SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		},
		engineLogger,
	)

	// 7. Web search chain, most capable provider first
	var searchProviders []websearch.Provider
	if cfg.Keys.Tavily != "" {
		searchProviders = append(searchProviders, websearch.NewTavilyProvider(cfg.Keys.Tavily))
	}
	if cfg.Keys.Serper != "" {
		searchProviders = append(searchProviders, websearch.NewSerperProvider(cfg.Keys.Serper))
	}
	searchProviders = append(searchProviders, websearch.NewDuckDuckGoProvider())

	chain := websearch.NewChain(searchProviders, websearch.Config{
		PrimaryCooldown: cfg.Search.PrimaryCooldown,
		MaxQueryWords:   cfg.Search.MaxQueryWords,
	}, engineLogger)

	// 8. Routing layer
	relay := &rejectionRelay{}
	filter := relevance.NewFilter(llmProvider, relevance.Config{
		Timeout:       cfg.Routing.RelevanceTimeout,
		HighThreshold: cfg.Routing.RelevanceThreshold,
	}, relay, engineLogger)

	classifier := router.NewClassifier(llmProvider, filter, router.Config{
		Disabled:        cfg.Routing.ClassifierDisabled,
		Timeout:         cfg.Routing.ClassifierTimeout,
		BreakerCooldown: cfg.Routing.BreakerCooldown,
		RejectThreshold: cfg.Routing.RejectThreshold,
	}, time.Now, engineLogger)

	// 9. Research agent
	planner := research.NewPlanner(llmProvider, engineLogger)
	capture := research.NewPageCapture()
	agentCfg := research.DefaultConfig()
	agentCfg.MaxQueries = cfg.Research.MaxQueries
	agentCfg.MaxResultsPerQuery = cfg.Research.MaxResultsPerQuery
	agentCfg.CaptureTopN = cfg.Research.CaptureTopN
	agentCfg.ChunkSize = cfg.Retrieval.ChunkSize
	agentCfg.ChunkOverlap = cfg.Retrieval.ChunkOverlap
	agent := research.NewAgent(chain, engine, llmProvider, models, planner, capture, agentCfg, engineLogger)

	// 10. Conversational memory
	memoryMgr := memory.NewManager(llmProvider, models, memory.Config{
		TokenBudget:    cfg.Memory.TokenBudget,
		SummarizeEvery: cfg.Memory.SummarizeEvery,
		Timeout:        4 * time.Second,
	}, engineLogger)

	// 11. Services
	assistantService := service.NewAssistantService(
		uowFactory,
		sessionRepo,
		classifier,
		engine,
		agent,
		llmProvider,
		models,
		memoryMgr,
		service.AssistantConfig{
			DirectAnswerMin:    cfg.Routing.DirectAnswerMinimum,
			IndexResearchPages: cfg.Research.IndexResults,
		},
		eventPublisher,
	)

	researchService := service.NewResearchService(agent, pubSub, eventPublisher, cfg.Research.IndexResults, engineLogger)

	diagnosticsService := service.NewDiagnosticsService(
		engine,
		classifier.Breaker(),
		chain,
		sessionRepo,
		cfg.App.DiagnosticsLogPath,
	)
	relay.target = diagnosticsService

	consumerService := service.NewConsumerService(
		pubSub,
		IngestTopicName,
		uowFactory,
		embeddingProvider,
		cfg.Retrieval.ChunkSize,
		cfg.Retrieval.ChunkOverlap,
	)

	// 12. Controllers
	return &Container{
		ChatController:        controller.NewChatController(assistantService),
		ResearchController:    controller.NewResearchController(researchService, wsHub, bridge, wsLogger),
		DiagnosticsController: controller.NewDiagnosticsController(diagnosticsService, sysLogger),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
		PubSub:          pubSub,
		SysLogger:       sysLogger,
	}
}
