package research

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"sales-research-be/pkg/store"
)

// Event types emitted over the research stream. Consumers must treat
// "sources" events as cumulative discovery notifications that may arrive
// before the final result.
const (
	EventLog      = "log"
	EventSources  = "sources"
	EventResult   = "result"
	EventComplete = "complete"
	EventError    = "error"
)

// StreamEvent is one typed progress notification from a research run.
type StreamEvent struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message,omitempty"`
	Sources []store.DetailedSource `json:"sources,omitempty"`
	Answer  string                 `json:"answer,omitempty"`
}

// Emitter receives progress events during a research run. Implementations
// must not block research; dropping an event is preferable.
type Emitter interface {
	Emit(event StreamEvent)
}

// nopEmitter is used when the caller does not stream.
type nopEmitter struct{}

func (nopEmitter) Emit(StreamEvent) {}

// NopEmitter returns an emitter that discards everything.
func NopEmitter() Emitter { return nopEmitter{} }

// StreamPublisher bridges research events onto a watermill topic, one
// topic per research run, so transport code (websocket bridge) can
// subscribe without knowing anything about the agent.
type StreamPublisher struct {
	pubSub *gochannel.GoChannel
	topic  string
	logger *log.Logger
}

var _ Emitter = &StreamPublisher{}

func NewStreamPublisher(pubSub *gochannel.GoChannel, topic string, logger *log.Logger) *StreamPublisher {
	return &StreamPublisher{
		pubSub: pubSub,
		topic:  topic,
		logger: logger,
	}
}

// TopicFor names the stream topic for one research run.
func TopicFor(runID string) string {
	return "research.stream." + runID
}

func (p *StreamPublisher) Emit(event StreamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Printf("[STREAM] Failed to marshal event: %v", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(p.topic, msg); err != nil {
		p.logger.Printf("[STREAM] Failed to publish event: %v", err)
	}
}

// Subscribe opens the event stream for one run.
func (p *StreamPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.pubSub.Subscribe(ctx, p.topic)
}
