package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
)

// EventHandler consumes events published on a channel.
type EventHandler interface {
	Handle(ctx context.Context, event indexsync.Event) error
	Name() string
}

// PublishResult records the outcome of one publish.
type PublishResult struct {
	EventID     string            `json:"eventId"`
	Channel     indexsync.Channel `json:"channel"`
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// EventBus is the in-process synchronous publish/subscribe bus. Handlers run
// in subscription order on the publishing goroutine.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[indexsync.Channel][]EventHandler

	muHistory  sync.Mutex
	history    []PublishResult
	historyCap int
}

// NewEventBus keeps the last historySize publish results; 0 disables history.
func NewEventBus(historySize int) *EventBus {
	return &EventBus{
		handlers:   make(map[indexsync.Channel][]EventHandler),
		history:    make([]PublishResult, 0),
		historyCap: historySize,
	}
}

// Publish implements indexsync.Publisher. Handler failures do not stop the
// remaining handlers; they are joined into the returned error.
func (bus *EventBus) Publish(ctx context.Context, channel indexsync.Channel, event indexsync.Event) error {
	if channel == "" {
		return fmt.Errorf("channel cannot be empty")
	}

	bus.mu.RLock()
	handlers := append([]EventHandler(nil), bus.handlers[channel]...)
	bus.mu.RUnlock()

	result := PublishResult{
		EventID:     event.ID.String(),
		Channel:     channel,
		Success:     true,
		PublishedAt: time.Now(),
	}
	if len(handlers) == 0 {
		result.Message = "no handlers subscribed"
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", handler.Name(), err))
		}
	}
	if len(errs) > 0 {
		result.Success = false
		result.Message = fmt.Sprintf("%d handlers failed", len(errs))
	}
	bus.record(result)

	if len(errs) > 0 {
		return fmt.Errorf("channel %s: %w", channel, errors.Join(errs...))
	}
	return nil
}

// Subscribe registers handler on channel. Handler names are unique per channel.
func (bus *EventBus) Subscribe(channel indexsync.Channel, handler EventHandler) error {
	if channel == "" {
		return fmt.Errorf("channel cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, h := range bus.handlers[channel] {
		if h.Name() == handler.Name() {
			return fmt.Errorf("handler %s already subscribed to %s", handler.Name(), channel)
		}
	}
	bus.handlers[channel] = append(bus.handlers[channel], handler)
	return nil
}

// Unsubscribe removes the handler with the same name, if any.
func (bus *EventBus) Unsubscribe(channel indexsync.Channel, handler EventHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	handlers := bus.handlers[channel]
	for i, h := range handlers {
		if h.Name() == handler.Name() {
			bus.handlers[channel] = append(handlers[:i:i], handlers[i+1:]...)
			return
		}
	}
}

// History returns a copy of the retained publish results, oldest first.
func (bus *EventBus) History() []PublishResult {
	bus.muHistory.Lock()
	defer bus.muHistory.Unlock()

	history := make([]PublishResult, len(bus.history))
	copy(history, bus.history)
	return history
}

func (bus *EventBus) record(result PublishResult) {
	if bus.historyCap <= 0 {
		return
	}
	bus.muHistory.Lock()
	defer bus.muHistory.Unlock()

	bus.history = append(bus.history, result)
	if len(bus.history) > bus.historyCap {
		bus.history = bus.history[len(bus.history)-bus.historyCap:]
	}
}

// FuncHandler adapts a function to EventHandler.
type FuncHandler struct {
	name string
	fn   func(context.Context, indexsync.Event) error
}

func NewFuncHandler(name string, fn func(context.Context, indexsync.Event) error) *FuncHandler {
	if name == "" {
		name = fmt.Sprintf("func-handler-%d", time.Now().UnixNano())
	}
	return &FuncHandler{name: name, fn: fn}
}

func (h *FuncHandler) Handle(ctx context.Context, event indexsync.Event) error {
	return h.fn(ctx, event)
}

func (h *FuncHandler) Name() string {
	return h.name
}

// LoggingEventHandler writes every event it receives to the global logger.
type LoggingEventHandler struct{}

func NewLoggingEventHandler() *LoggingEventHandler {
	return &LoggingEventHandler{}
}

func (h *LoggingEventHandler) Handle(_ context.Context, event indexsync.Event) error {
	zap.S().Infow("update event",
		"event_id", event.ID,
		"channel", event.Channel,
		"occurred_at", event.OccurredAt,
		"payload", event.Payload,
	)
	return nil
}

func (h *LoggingEventHandler) Name() string {
	return "logging-event-handler"
}
