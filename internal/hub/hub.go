package hub

import (
	"encoding/json"
	"expvar"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var droppedMessages = expvar.NewInt("realtime_dropped_total")

// Subscription filters the lead feed. Empty fields match everything.
type Subscription struct {
	Service string
	Status  string
}

type Client struct {
	ID           string
	Email        string
	Send         chan []byte
	Subscription Subscription
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

type SubscribeMessage struct {
	Action  string `json:"action"`
	Service string `json:"service"`
	Status  string `json:"status"`
}

func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Subscription = sub
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast hands payload to every matching client without blocking; a
// client whose buffer is full misses the message.
func (h *Hub) Broadcast(payload []byte, meta Subscription) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, client := range h.clients {
		if !match(client.Subscription, meta) {
			continue
		}
		select {
		case client.Send <- payload:
			delivered++
		default:
			droppedMessages.Add(1)
			h.logger.Warn("drop message for slow client", zap.String("client_id", client.ID))
		}
	}
	return delivered
}

func match(sub Subscription, meta Subscription) bool {
	if sub.Service != "" && meta.Service != sub.Service {
		return false
	}
	if sub.Status != "" && meta.Status != sub.Status {
		return false
	}
	return true
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	msg.Service = strings.TrimSpace(msg.Service)
	msg.Status = strings.TrimSpace(msg.Status)
	return msg, true
}
