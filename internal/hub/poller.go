package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"go.uber.org/zap"
)

// Consumer is the outbox offset name the poller reads under.
const Consumer = "realtime"

// Envelope is what connected clients receive for each outbox event.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type Poller struct {
	store     store.OutboxStore
	hub       *Hub
	batchSize int
	logger    *zap.Logger
	running   int32
}

func NewPoller(st store.OutboxStore, h *Hub, batchSize int, logger *zap.Logger) *Poller {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{store: st, hub: h, batchSize: batchSize, logger: logger}
}

// Poll broadcasts one batch of outbox events and stores the new offset.
// Overlapping calls return immediately.
func (p *Poller) Poll(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return nil
	}
	defer atomic.StoreInt32(&p.running, 0)

	offset, err := p.store.GetOffset(ctx, Consumer)
	if err != nil {
		return fmt.Errorf("get offset: %w", err)
	}
	events, err := p.store.ListOutboxEvents(ctx, offset, p.batchSize)
	if err != nil {
		return fmt.Errorf("list outbox: %w", err)
	}
	if len(events) == 0 {
		return nil
	}
	for _, event := range events {
		payload, err := json.Marshal(Envelope{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt})
		if err != nil {
			p.logger.Error("encode envelope", zap.String("event_id", event.EventID), zap.Error(err))
		} else {
			p.hub.Broadcast(payload, extractMeta(event.Payload))
		}
		offset = offset.Advance(event)
	}
	if err := p.store.UpdateOffset(ctx, Consumer, offset); err != nil {
		return fmt.Errorf("update offset: %w", err)
	}
	return nil
}

// Start polls every interval until ctx is cancelled.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := p.Poll(pollCtx); err != nil {
				p.logger.Error("realtime poll", zap.Error(err))
			}
			cancel()
		}
	}
}

func extractMeta(payload []byte) Subscription {
	var data struct {
		Service string `json:"service"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		return Subscription{}
	}
	return Subscription{Service: data.Service, Status: data.Status}
}
