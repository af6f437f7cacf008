package service

import (
	"context"
	"log"
	"time"

	"sales-research-be/internal/dto"
	"sales-research-be/pkg/events"
	"sales-research-be/pkg/research"
	"sales-research-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IResearchService interface {
	Run(ctx context.Context, userId uuid.UUID, request *dto.ResearchRequest) (*dto.ResearchResponse, error)
	Start(ctx context.Context, userId uuid.UUID, request *dto.ResearchRequest) (*dto.StartResearchResponse, error)
}

// researchService exposes the research agent directly, synchronously for
// API calls and asynchronously for websocket streaming.
type researchService struct {
	agent        *research.Agent
	pubSub       *gochannel.GoChannel
	publisher    EventPublisher
	indexResults bool
	runTimeout   time.Duration
	logger       *log.Logger
}

func NewResearchService(
	agent *research.Agent,
	pubSub *gochannel.GoChannel,
	publisher EventPublisher,
	indexResults bool,
	logger *log.Logger,
) IResearchService {
	return &researchService{
		agent:        agent,
		pubSub:       pubSub,
		publisher:    publisher,
		indexResults: indexResults,
		runTimeout:   5 * time.Minute,
		logger:       logger,
	}
}

func (rs *researchService) Run(ctx context.Context, userId uuid.UUID, request *dto.ResearchRequest) (*dto.ResearchResponse, error) {
	result := rs.agent.Research(ctx, request.Query, rs.buildOptions(request), nil)
	rs.notifyCompleted(ctx, userId, request.Query, result)

	return &dto.ResearchResponse{
		Answer:        result.Answer,
		TaskType:      result.TaskType,
		Sources:       toSourceDTOs(result.DetailedSources),
		SearchQueries: result.SearchQueries,
		Timestamp:     result.Timestamp,
	}, nil
}

// Start launches a research run in the background and returns its stream
// id. Progress events flow through the in-process bus to the websocket.
func (rs *researchService) Start(ctx context.Context, userId uuid.UUID, request *dto.ResearchRequest) (*dto.StartResearchResponse, error) {
	runId := uuid.New().String()
	topic := research.TopicFor(runId)
	emitter := research.NewStreamPublisher(rs.pubSub, topic, rs.logger)

	go func() {
		// The run outlives the HTTP request that started it
		runCtx, cancel := context.WithTimeout(context.Background(), rs.runTimeout)
		defer cancel()

		result := rs.agent.Research(runCtx, request.Query, rs.buildOptions(request), emitter)
		rs.notifyCompleted(runCtx, userId, request.Query, result)
	}()

	return &dto.StartResearchResponse{
		RunId: runId,
		Topic: topic,
	}, nil
}

func (rs *researchService) buildOptions(request *dto.ResearchRequest) research.Options {
	opts := research.Options{
		UseWeb:       true,
		TaskType:     request.TaskType,
		IndexResults: rs.indexResults,
	}
	if opts.TaskType == "" {
		opts.TaskType = classifyResearchTask(request.Query)
	}
	if request.Profile != nil {
		opts.Industry = request.Profile.Industry
		opts.Region = request.Profile.Region
	}
	return opts
}

func (rs *researchService) notifyCompleted(ctx context.Context, userId uuid.UUID, query string, result *store.ResearchResult) {
	if rs.publisher == nil {
		return
	}
	event := events.NewResearchCompleted(userId.String(), query, result.TaskType, len(result.Sources))
	if err := rs.publisher.Publish(ctx, event); err != nil {
		rs.logger.Printf("[RESEARCH] Event publish failed: %v", err)
	}
}
