package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/wellness360/app/views"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/mail"
	"github.com/shashiranjanraj/wellness360/pkg/queue"
)

// Notifier turns domain events into queued emails.
type Notifier struct {
	q      *queue.Manager
	sender mail.Sender
}

func NewNotifier(q *queue.Manager, sender mail.Sender) *Notifier {
	n := &Notifier{q: q, sender: sender}
	q.Register(func() queue.Job { return &OrderReceiptJob{sender: sender} })
	q.Register(func() queue.Job { return &WorkshopBookedJob{sender: sender} })
	return n
}

// Listen subscribes to the events that send mail.
func (n *Notifier) Listen(bus *event.Bus) {
	bus.Listen(event.OrderPlaced, func(ctx context.Context, payload any) {
		o, ok := payload.(OrderPlaced)
		if !ok || o.Email == "" {
			return
		}
		n.dispatch(ctx, &OrderReceiptJob{
			Email: o.Email, Name: o.Name, InvoiceNo: o.InvoiceNo,
			Total: o.Total.StringFixed(2), Currency: o.Currency, Items: o.Items,
		})
	})
	bus.Listen(event.WorkshopRegistration, func(ctx context.Context, payload any) {
		w, ok := payload.(WorkshopBooked)
		if !ok || w.Email == "" {
			return
		}
		n.dispatch(ctx, &WorkshopBookedJob{
			WorkshopID: w.WorkshopID, Email: w.Email, Name: w.Name, Title: w.Title, StartsAt: w.StartsAt,
		})
	})
}

func (n *Notifier) dispatch(ctx context.Context, job queue.Job) {
	if err := n.q.Dispatch(ctx, job); err != nil {
		logger.WithCtx(ctx).Error("notification not queued", "job", fmt.Sprintf("%T", job), "error", err)
	}
}

// OrderReceiptJob mails the receipt for a placed order.
type OrderReceiptJob struct {
	Email     string
	Name      string
	InvoiceNo string
	Total     string
	Currency  string
	Items     int

	sender mail.Sender
}

func (j *OrderReceiptJob) Handle(ctx context.Context) error {
	body, err := views.RenderMail("order_receipt.html", struct {
		*OrderReceiptJob
		OrdersURL string
	}{j, config.AppURL() + "/api/orders"})
	if err != nil {
		return err
	}
	msg := mail.To(j.Email).Subject("Your Wellness360 order " + j.InvoiceNo).Body(body)
	return j.sender.Send(ctx, msg)
}

// WorkshopBookedJob confirms a workshop seat.
type WorkshopBookedJob struct {
	WorkshopID uint
	Email      string
	Name       string
	Title      string
	StartsAt   time.Time

	sender mail.Sender
}

func (j *WorkshopBookedJob) Handle(ctx context.Context) error {
	body, err := views.RenderMail("workshop_booked.html", struct {
		*WorkshopBookedJob
		WorkshopURL string
	}{j, fmt.Sprintf("%s/api/workshops/%d", config.AppURL(), j.WorkshopID)})
	if err != nil {
		return err
	}
	msg := mail.To(j.Email).Subject("Workshop booked: " + j.Title).Body(body)
	return j.sender.Send(ctx, msg)
}
