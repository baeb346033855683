// Package broker streams domain events from the in-process bus to Kafka
// so reporting and fulfilment services can consume them. Each event name
// maps to a topic: "order.placed" goes to "<prefix>order.placed".
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/reqid"
	"github.com/shashiranjanraj/wellness360/pkg/tracing"
)

// Keyed payloads choose their partition key. Events for one order or one
// workshop then stay in order.
type Keyed interface {
	EventKey() string
}

// Envelope is the JSON value of every message.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
	Data       any       `json:"data"`
}

type Publisher struct {
	producer sarama.SyncProducer
	prefix   string
}

// NewKafka connects a synchronous producer that waits for all in-sync
// replicas.
func NewKafka(brokers []string, prefix string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = "wellness360"
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("broker: kafka producer: %w", err)
	}
	logger.Info("broker: kafka producer ready", "brokers", brokers)
	return NewPublisher(p, prefix), nil
}

func NewPublisher(p sarama.SyncProducer, prefix string) *Publisher {
	return &Publisher{producer: p, prefix: prefix}
}

func (p *Publisher) Topic(name string) string { return p.prefix + name }

// Publish sends one event and injects the trace context into the headers.
func (p *Publisher) Publish(ctx context.Context, name string, payload any) error {
	topic := p.Topic(name)
	ctx, span := tracing.Tracer().Start(ctx, "kafka.publish "+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
		),
	)
	defer span.End()

	env := Envelope{
		ID:         uuid.NewString(),
		Type:       name,
		OccurredAt: time.Now().UTC(),
		RequestID:  reqid.FromCtx(ctx),
		Data:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal")
		return fmt.Errorf("broker: encode %s: %w", name, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(name)},
		{Key: []byte("event_id"), Value: []byte(env.ID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(value), Headers: headers}
	if k, ok := payload.(Keyed); ok && k.EventKey() != "" {
		msg.Key = sarama.StringEncoder(k.EventKey())
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		return fmt.Errorf("broker: send %s: %w", topic, err)
	}
	span.SetAttributes(
		attribute.Int("messaging.kafka.destination.partition", int(partition)),
		attribute.Int64("messaging.kafka.message.offset", offset),
	)
	logger.WithCtx(ctx).Debug("event published", "topic", topic, "event_id", env.ID, "partition", partition, "offset", offset)
	return nil
}

// Forward publishes every listed event fired on bus. Failures are logged;
// the in-process listeners are not affected.
func (p *Publisher) Forward(bus *event.Bus, names ...string) {
	for _, name := range names {
		bus.Listen(name, func(ctx context.Context, payload any) {
			if err := p.Publish(ctx, name, payload); err != nil {
				logger.WithCtx(ctx).Error("event not published", "event", name, "error", err)
			}
		})
	}
}

func (p *Publisher) Close(context.Context) error { return p.producer.Close() }
