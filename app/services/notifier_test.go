package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/mail"
	"github.com/shashiranjanraj/wellness360/pkg/queue"
)

type outbox struct {
	mu   sync.Mutex
	sent []*mail.Message
}

func (o *outbox) Send(_ context.Context, m *mail.Message) error {
	o.mu.Lock()
	o.sent = append(o.sent, m)
	o.mu.Unlock()
	return nil
}

func (o *outbox) messages() []*mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*mail.Message(nil), o.sent...)
}

func runNotifier(t *testing.T) (*event.Bus, *outbox) {
	t.Helper()
	box := &outbox{}
	q := queue.New(queue.NewMemoryDriver(10))
	bus := event.NewBus()
	NewNotifier(q, box).Listen(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx, 1)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return bus, box
}

func TestOrderPlacedSendsReceipt(t *testing.T) {
	bus, box := runNotifier(t)
	bus.Fire(context.Background(), event.OrderPlaced, OrderPlaced{
		OrderID: 3, Email: "ama@example.com", Name: "Ama", InvoiceNo: "W360-20260301-0003",
		Total: decimal.RequireFromString("49.99"), Currency: "GHS", Items: 2,
	})

	require.Eventually(t, func() bool { return len(box.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	m := box.messages()[0]
	assert.Equal(t, []string{"ama@example.com"}, m.Recipients())
	assert.Equal(t, "Your Wellness360 order W360-20260301-0003", m.SubjectLine())
	assert.Contains(t, m.Content(), "GHS 49.99")
	assert.Contains(t, m.Content(), "Thank you, Ama!")
}

func TestWorkshopBookedSendsConfirmation(t *testing.T) {
	bus, box := runNotifier(t)
	starts := time.Date(2026, 11, 3, 18, 30, 0, 0, time.UTC)
	bus.Fire(context.Background(), event.WorkshopRegistration, WorkshopBooked{
		WorkshopID: 9, Title: "Breathwork <basics>", StartsAt: starts, Email: "kofi@example.com", Name: "Kofi",
	})

	require.Eventually(t, func() bool { return len(box.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	m := box.messages()[0]
	assert.Equal(t, "Workshop booked: Breathwork <basics>", m.SubjectLine())
	assert.Contains(t, m.Content(), "Breathwork &lt;basics&gt;")
	assert.Contains(t, m.Content(), "Tue Nov 3, 18:30")
	assert.Contains(t, m.Content(), "/api/workshops/9")
}

func TestEventsWithoutEmailAreIgnored(t *testing.T) {
	bus, box := runNotifier(t)
	bus.Fire(context.Background(), event.OrderPlaced, OrderPlaced{OrderID: 1})
	bus.Fire(context.Background(), event.OrderPlaced, "not a payload")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, box.messages())
}
