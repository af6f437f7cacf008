package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"sales-research-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "research_stream_events"

// Hub fans research stream events out to websocket watchers. Clients are
// keyed by run id; Redis carries events to watchers connected to other
// instances.
type Hub struct {
	// Registered clients map: RunID -> watchers (multi-tab)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.RunID] = append(h.clients[client.RunID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Watcher registered", map[string]interface{}{"run_id": client.RunID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.RunID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.RunID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.RunID]) == 0 {
					delete(h.clients, client.RunID)
					h.logger.Info("Hub", "Run has no watchers left", map[string]interface{}{"run_id": client.RunID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers one serialized stream event to every watcher of a run,
// locally and via Redis to other instances.
func (h *Hub) Publish(runID string, message []byte) {
	h.deliverLocal(runID, message)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"run_id":  runID,
			"message": json.RawMessage(message),
		})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

func (h *Hub) deliverLocal(runID string, message []byte) {
	h.mu.RLock()
	clients, ok := h.clients[runID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("Hub", "Watcher send buffer full, dropping", map[string]interface{}{"run_id": runID})
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			RunID   string          `json:"run_id"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		h.deliverLocal(payload.RunID, payload.Message)
	}
}
