package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/pkg/event"
)

type orderPlaced struct {
	InvoiceNo string `json:"invoice_no"`
}

func (o orderPlaced) EventKey() string { return o.InvoiceNo }

func producer(t *testing.T) *mocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}

func TestPublishWrapsPayload(t *testing.T) {
	sp := producer(t)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Type != event.OrderPlaced || env.ID == "" {
			return errors.New("bad envelope")
		}
		data := env.Data.(map[string]any)
		if data["invoice_no"] != "W360-20260301-0001" {
			return errors.New("bad data")
		}
		return nil
	})

	p := NewPublisher(sp, "wellness360.")
	require.NoError(t, p.Publish(context.Background(), event.OrderPlaced, orderPlaced{InvoiceNo: "W360-20260301-0001"}))
	assert.Equal(t, "wellness360.order.placed", p.Topic(event.OrderPlaced))
	require.NoError(t, p.Close(context.Background()))
}

func TestPublishReportsSendFailure(t *testing.T) {
	sp := producer(t)
	sp.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	err := NewPublisher(sp, "w.").Publish(context.Background(), event.ProductsImported, map[string]int{"created": 2})
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, sp.Close())
}

func TestForwardPublishesBusEvents(t *testing.T) {
	sp := producer(t)
	sp.ExpectSendMessageAndSucceed()
	sp.ExpectSendMessageAndSucceed()

	bus := event.NewBus()
	NewPublisher(sp, "w.").Forward(bus, event.CommunityDiscussion, event.CommunityReply)
	bus.Fire(context.Background(), event.CommunityDiscussion, map[string]any{"id": 1})
	bus.Fire(context.Background(), event.CommunityReply, map[string]any{"id": 2})
	bus.Fire(context.Background(), event.OrderPlaced, map[string]any{"ignored": true})
	require.NoError(t, sp.Close())
}
