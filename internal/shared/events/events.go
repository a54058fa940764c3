package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

type Type string

const (
	LotEdited  Type = "lot_edit"
	LotDeleted Type = "lot_delete"
)

// Event is a change notification for a single lot.
type Event struct {
	Type      Type   `json:"type"`
	LotID     string `json:"lotId"`
	AuctionID string `json:"auctionId,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Handler func(ctx context.Context, event Event)

// Bus dispatches events to in-process subscribers synchronously.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
	log.Debug("event dispatched",
		zap.String("type", string(event.Type)),
		zap.String("lotID", event.LotID),
		zap.Int("handlers", len(handlers)),
	)
	return nil
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notify publishes and only logs failures. Callers use it after the
// change is already committed.
func Notify(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("lotID", event.LotID),
			zap.Error(err),
		)
	}
}
