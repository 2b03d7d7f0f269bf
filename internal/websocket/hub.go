package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/events"

	"github.com/redis/go-redis/v9"
)

// Hub fans assistant events out to every connected browser session. Unlike a
// chat hub there is no per-user routing: the UI mirrors one shared assistant
// state, so every event goes to every socket.
type Hub struct {
	// Registered clients, keyed by connection id.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. May be nil.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conn_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"conn_id": client.ID})
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast delivers an assistant event to all local clients and relays it to
// the other instances through Redis.
func (h *Hub) Broadcast(env events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event envelope", map[string]interface{}{"error": err.Error()})
		return
	}

	h.sendToLocal(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(relayPayload{Origin: h.instanceKey(), Message: data})
		h.rdb.Publish(context.Background(), "assistant_events", payload)
	}
}

func (h *Hub) sendToLocal(data []byte) {
	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"conn_id": client.ID})
			close(client.Send)
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
	h.mu.RUnlock()
}

// relayPayload wraps a broadcast so an instance can skip the messages it
// published itself.
type relayPayload struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

func (h *Hub) instanceKey() string {
	// Pointer identity is enough to tell our own relays apart within a
	// process lifetime; instances never share address space.
	return fmt.Sprintf("%p", h)
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "assistant_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload relayPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		// Skip our own relays: local clients already got the event.
		if payload.Origin == h.instanceKey() {
			continue
		}

		h.sendToLocal(payload.Message)
	}
}
