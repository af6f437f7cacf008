package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-research-be/internal/constant"
	"sales-research-be/internal/dto"
	"sales-research-be/internal/entity"
	sessionmem "sales-research-be/internal/repository/memory"
	"sales-research-be/internal/repository/specification"
	"sales-research-be/internal/repository/unitofwork"
	"sales-research-be/pkg/ai/router"
	"sales-research-be/pkg/events"
	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/memory"
	"sales-research-be/pkg/modelrouter"
	"sales-research-be/pkg/rag/retriever"
	"sales-research-be/pkg/research"
	"sales-research-be/pkg/store"

	"github.com/google/uuid"
)

// EventPublisher decouples the service from the NATS transport.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// AssistantConfig carries the orchestrator tunables consulted per turn.
type AssistantConfig struct {
	// DirectAnswerMin is the extraction confidence below which the
	// knowledge-base path falls back to retrieval plus generation.
	DirectAnswerMin float64
	// IndexResearchPages captures top research result pages into the
	// retrieval engine for future turns.
	IndexResearchPages bool
}

// IAssistantService defines the conversational assistant interface
type IAssistantService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

// assistantService coordinates routing, retrieval, research and memory
// for every conversation turn.
type assistantService struct {
	uowFactory  unitofwork.RepositoryFactory
	sessionRepo *sessionmem.SessionRepository
	classifier  *router.Classifier
	engine      *retriever.Engine
	agent       *research.Agent
	llmProvider llm.LLMProvider
	models      *modelrouter.Router
	memoryMgr   *memory.Manager
	cfg         AssistantConfig
	publisher   EventPublisher
	llmLogger   *log.Logger
}

func NewAssistantService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *sessionmem.SessionRepository,
	classifier *router.Classifier,
	engine *retriever.Engine,
	agent *research.Agent,
	llmProvider llm.LLMProvider,
	models *modelrouter.Router,
	memoryMgr *memory.Manager,
	cfg AssistantConfig,
	publisher EventPublisher,
) IAssistantService {
	return &assistantService{
		uowFactory:  uowFactory,
		sessionRepo: sessionRepo,
		classifier:  classifier,
		engine:      engine,
		agent:       agent,
		llmProvider: llmProvider,
		models:      models,
		memoryMgr:   memoryMgr,
		cfg:         cfg,
		publisher:   publisher,
		llmLogger:   initLLMLogger(),
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_routing.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-ROUTING] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// CreateSession creates a new chat session with the assistant greeting.
func (as *assistantService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Unnamed session",
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Content:       constant.InitialAssistantGreeting,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Id:       chatSession.Id,
		Greeting: constant.InitialAssistantGreeting,
	}, nil
}

// GetAllSessions retrieves all chat sessions
func (as *assistantService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves chat history for a session
func (as *assistantService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	sess, err := as.verifySession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sess.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Route:     msg.Route,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// DeleteSession soft-deletes a session and its messages, and drops the
// in-memory state.
func (as *assistantService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	sess, err := as.verifySession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sess.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sess.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	as.sessionRepo.Delete(sess.Id.String())
	return nil
}

// SendChat processes one conversation turn: route, answer, persist.
func (as *assistantService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := as.verifySession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	session := as.loadSession(ctx, uow, chatSession)
	query := strings.TrimSpace(request.Chat)

	decision := as.classifier.Route(ctx, query, session.RecentContext(4))
	as.llmLogger.Printf("[ROUTE] session=%s route=%s confidence=%d reasoning=%q",
		session.ID, decision.Route, decision.Confidence, decision.Reasoning)

	var reply string
	var sources []dto.SourceDTO
	var searchQueries []string

	if decision.IsReject() {
		// No retrieval, search or generation happens for a rejected turn
		reply = constant.RejectionReply
		as.publishEvent(ctx, events.NewQueryRejected(userId.String(), query, decision.Reasoning, decision.Confidence))
	} else {
		switch decision.Route {
		case store.RouteResearch:
			reply, sources, searchQueries = as.handleResearch(ctx, userId, query, decision, request.Profile)
		case store.RouteKnowledgeBase:
			reply, sources = as.handleKnowledgeBase(ctx, userId, query, session)
		default:
			reply = as.handleGeneralChat(ctx, query, session)
		}
	}

	now := time.Now()
	as.recordTurn(ctx, session, query, reply)

	if err := as.persistTurn(ctx, uow, chatSession, session, query, reply, decision.Route, now); err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		ChatSessionId: chatSession.Id,
		Reply:         reply,
		Route:         decision.Route,
		Confidence:    decision.Confidence,
		Sources:       sources,
		SearchQueries: searchQueries,
		CreatedAt:     now,
	}, nil
}

func (as *assistantService) handleResearch(ctx context.Context, userId uuid.UUID, query string, decision *store.RouteDecision, profile *dto.UserProfileDTO) (string, []dto.SourceDTO, []string) {
	opts := research.Options{
		UseWeb:       decision.UseWeb,
		UseRAG:       decision.UseRAG,
		TaskType:     classifyResearchTask(query),
		IndexResults: as.cfg.IndexResearchPages,
	}
	if profile != nil {
		opts.Industry = profile.Industry
		opts.Region = profile.Region
	}

	result := as.agent.Research(ctx, query, opts, nil)
	as.publishEvent(ctx, events.NewResearchCompleted(userId.String(), query, result.TaskType, len(result.Sources)))

	return result.Answer, toSourceDTOs(result.DetailedSources), result.SearchQueries
}

func (as *assistantService) handleKnowledgeBase(ctx context.Context, userId uuid.UUID, query string, session *store.Session) (string, []dto.SourceDTO) {
	// Cheap path first: a confident extractive answer needs no generation
	if answer, confidence, err := as.engine.DirectAnswer(ctx, query, as.cfg.DirectAnswerMin); err == nil && answer != "" {
		as.llmLogger.Printf("[KB] Direct answer served (confidence %.2f)", confidence)
		return answer, nil
	}

	results, err := as.engine.Search(ctx, query)
	if err != nil || len(results) == 0 {
		if err != nil {
			as.llmLogger.Printf("[KB] Retrieval failed: %v", err)
		}
		as.publishEvent(ctx, events.NewKnowledgeGap(userId.String(), query))
		return "I couldn't find that in our knowledge base. Could you rephrase, or ask me to research it instead?", nil
	}

	var contextText strings.Builder
	for _, r := range results {
		contextText.WriteString("- ")
		contextText.WriteString(r.Content)
		contextText.WriteString("\n")
	}

	handle := as.models.Route(modelrouter.TaskChat, modelrouter.AnalyzeComplexity(query), modelrouter.Policy{PrivateData: true})
	prompt := fmt.Sprintf(
		"Answer the question using only the knowledge-base excerpts below. If they don't cover it, say so.\n\nExcerpts:\n%s\nQuestion: %s",
		contextText.String(), query,
	)

	reply, err := as.llmProvider.Generate(ctx, prompt,
		llm.WithModel(handle.Model),
		llm.WithTemperature(handle.Profile.Temperature),
		llm.WithMaxTokens(handle.Profile.MaxTokens),
	)
	if err != nil {
		as.llmLogger.Printf("[KB] Generation failed, serving top excerpt: %v", err)
		return results[0].Content, kbSources(results)
	}
	return reply, kbSources(results)
}

func (as *assistantService) handleGeneralChat(ctx context.Context, query string, session *store.Session) string {
	handle := as.models.Route(modelrouter.TaskChat, modelrouter.AnalyzeComplexity(query), modelrouter.Policy{})

	messages := []llm.Message{{
		Role:    store.RoleSystem,
		Content: "You are a helpful sales research assistant. Keep answers concise and business-focused.",
	}}
	if session.Summary != nil && session.Summary.Summary != "" {
		messages = append(messages, llm.Message{
			Role:    store.RoleSystem,
			Content: "Conversation so far: " + session.Summary.Summary,
		})
	}
	for _, m := range as.memoryMgr.Trim(session.Messages) {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: store.RoleUser, Content: query})

	reply, err := as.llmProvider.Chat(ctx, messages,
		llm.WithModel(handle.Model),
		llm.WithTemperature(handle.Profile.Temperature),
		llm.WithMaxTokens(handle.Profile.MaxTokens),
	)
	if err != nil {
		as.llmLogger.Printf("[CHAT] Generation failed: %v", err)
		return "I'm having trouble answering right now. Please try again in a moment."
	}
	return reply
}

// loadSession restores in-memory conversation state, rebuilding it from
// the database after a restart or cache eviction.
func (as *assistantService) loadSession(ctx context.Context, uow unitofwork.UnitOfWork, chatSession *entity.ChatSession) *store.Session {
	if session, found := as.sessionRepo.Get(chatSession.Id.String()); found {
		return session
	}

	session := &store.Session{
		ID:        chatSession.Id.String(),
		UserID:    chatSession.UserId.String(),
		LastQuery: chatSession.LastQuery,
	}
	if chatSession.Summary != nil {
		session.Summary = &store.Summary{
			Summary:    chatSession.Summary.Summary,
			KeyTopics:  chatSession.Summary.KeyTopics,
			UserIntent: chatSession.Summary.UserIntent,
			UpdatedAt:  chatSession.Summary.UpdatedAt,
		}
	}

	persisted, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatSession.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		as.llmLogger.Printf("[SESSION] History reload failed for %s: %v", chatSession.Id, err)
	}
	for _, msg := range persisted {
		role := store.RoleAssistant
		if msg.Role == constant.ChatMessageRoleUser {
			role = store.RoleUser
		}
		session.Messages = append(session.Messages, store.Message{
			Role:      role,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		})
	}

	as.sessionRepo.Save(session)
	return session
}

func (as *assistantService) recordTurn(ctx context.Context, session *store.Session, query, reply string) {
	session.Append(store.RoleUser, query)
	session.Append(store.RoleAssistant, reply)
	session.LastQuery = query
	session.Messages = as.memoryMgr.Trim(session.Messages)

	if as.memoryMgr.ShouldSummarize(session) {
		summary := as.memoryMgr.Summarize(ctx, session)
		session.Summary = &summary
	}

	as.sessionRepo.Save(session)
}

func (as *assistantService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, chatSession *entity.ChatSession, session *store.Session, query, reply, route string, now time.Time) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Content:       query,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}
	modelMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Content:       reply,
		Role:          constant.ChatMessageRoleModel,
		Route:         route,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now.Add(1 * time.Second),
	}

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &modelMessage); err != nil {
		return err
	}

	chatSession.LastQuery = query
	if chatSession.Title == "Unnamed session" {
		chatSession.Title = truncateTitle(query, 80)
	}
	if session.Summary != nil {
		chatSession.Summary = &entity.SessionSummary{
			Summary:    session.Summary.Summary,
			KeyTopics:  session.Summary.KeyTopics,
			UserIntent: session.Summary.UserIntent,
			UpdatedAt:  session.Summary.UpdatedAt,
		}
	}
	updatedAt := now
	chatSession.UpdatedAt = &updatedAt
	if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
		return err
	}

	return uow.Commit()
}

func (as *assistantService) verifySession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}
	return sess, nil
}

func (as *assistantService) publishEvent(ctx context.Context, event events.Event) {
	if as.publisher == nil {
		return
	}
	if err := as.publisher.Publish(ctx, event); err != nil {
		as.llmLogger.Printf("[EVENT] Publish failed for %s: %v", event.EventType(), err)
	}
}

// classifyResearchTask picks the research template family from query shape.
func classifyResearchTask(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "lead") || strings.Contains(lower, "prospect"):
		return store.TaskLeadGeneration
	case strings.Contains(lower, "icp") || strings.Contains(lower, "ideal customer"):
		return store.TaskICPDevelopment
	case router.HasResearchMarker(query):
		return store.TaskCompanyAnalysis
	default:
		return store.TaskOpenResearch
	}
}

func toSourceDTOs(detailed []store.DetailedSource) []dto.SourceDTO {
	out := make([]dto.SourceDTO, 0, len(detailed))
	for _, s := range detailed {
		out = append(out, dto.SourceDTO{
			Title:   s.Title,
			URL:     s.URL,
			Domain:  s.Domain,
			Snippet: s.Snippet,
		})
	}
	return out
}

func kbSources(results []store.SearchResult) []dto.SourceDTO {
	out := make([]dto.SourceDTO, 0, len(results))
	for _, r := range results {
		out = append(out, dto.SourceDTO{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Snippet,
		})
	}
	return out
}

func truncateTitle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
