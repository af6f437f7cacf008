package websocket

import (
	"context"
	"encoding/json"

	"sales-research-be/internal/pkg/logger"
	"sales-research-be/pkg/research"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// StreamBridge forwards research stream events from the in-process bus to
// the websocket hub. One Pump per research run.
type StreamBridge struct {
	pubSub *gochannel.GoChannel
	hub    *Hub
	logger logger.ILogger
}

func NewStreamBridge(pubSub *gochannel.GoChannel, hub *Hub, log logger.ILogger) *StreamBridge {
	return &StreamBridge{
		pubSub: pubSub,
		hub:    hub,
		logger: log,
	}
}

// Pump relays events for one run until the run completes, errors out, or
// the context is cancelled.
func (b *StreamBridge) Pump(ctx context.Context, runID string) error {
	messages, err := b.pubSub.Subscribe(ctx, research.TopicFor(runID))
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			b.hub.Publish(runID, msg.Payload)
			msg.Ack()

			var event research.StreamEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				continue
			}
			if event.Type == research.EventComplete || event.Type == research.EventError {
				b.logger.Info("StreamBridge", "Run stream closed", map[string]interface{}{
					"run_id": runID,
					"final":  event.Type,
				})
				return
			}
		}
	}()

	return nil
}
