package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Listen(OrderPlaced, func(_ context.Context, p any) { got = append(got, "a:"+p.(string)) })
	b.Listen(OrderPlaced, func(_ context.Context, p any) { got = append(got, "b:"+p.(string)) })
	b.Listen(CommunityReply, func(_ context.Context, _ any) { got = append(got, "other") })

	b.Fire(context.Background(), OrderPlaced, "INV-1")

	assert.Equal(t, []string{"a:INV-1", "b:INV-1"}, got)
}

func TestFireSurvivesPanickingListener(t *testing.T) {
	b := NewBus()
	called := false
	b.Listen(OrderPlaced, func(context.Context, any) { panic("boom") })
	b.Listen(OrderPlaced, func(context.Context, any) { called = true })

	assert.NotPanics(t, func() { b.Fire(context.Background(), OrderPlaced, nil) })
	assert.True(t, called)
}

func TestFireAsyncIgnoresRequestCancellation(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	b.Listen(CommunityDiscussion, func(ctx context.Context, _ any) {
		time.Sleep(5 * time.Millisecond)
		ctxErr = ctx.Err()
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.FireAsync(ctx, CommunityDiscussion, nil)
	cancel()
	wg.Wait()

	require.NoError(t, ctxErr)
}

func TestFlush(t *testing.T) {
	b := NewBus()
	b.Listen(OrderPlaced, func(context.Context, any) { t.Fatal("listener should be gone") })
	b.Flush()
	b.Fire(context.Background(), OrderPlaced, nil)
}
