// Package event is an in-process dispatcher. Services fire domain events
// (order placed, discussion posted); listeners wired at boot fan them
// out to metrics and the websocket hub.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

// Event names fired by the services.
const (
	OrderPlaced          = "order.placed"
	CommunityDiscussion  = "community.discussion"
	CommunityReply       = "community.reply"
	WorkshopRegistration = "workshop.registration"
	ProductsImported     = "products.imported"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

// Bus holds listeners by event name. The zero value is not usable; use
// NewBus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Default is the process-wide bus.
var Default = NewBus()

// Listen registers h for name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) snapshot(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[name]...)
}

// Fire runs every listener for name synchronously. A panicking listener
// is logged and does not stop the others.
func (b *Bus) Fire(ctx context.Context, name string, payload any) {
	for _, h := range b.snapshot(name) {
		call(ctx, name, h, payload)
	}
}

// FireAsync runs the listeners on their own goroutines, detached from
// the request's cancellation.
func (b *Bus) FireAsync(ctx context.Context, name string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range b.snapshot(name) {
		go call(detached, name, h, payload)
	}
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

func call(ctx context.Context, name string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", name, "panic", r)
		}
	}()
	h(ctx, payload)
}

func Listen(name string, h Handler)                           { Default.Listen(name, h) }
func Fire(ctx context.Context, name string, payload any)      { Default.Fire(ctx, name, payload) }
func FireAsync(ctx context.Context, name string, payload any) { Default.FireAsync(ctx, name, payload) }
