package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	ch := make(chan Message, 1)
	require.NoError(t, q.Subscribe("querylens.query.events", collect(ch)))

	data := []byte(`{"question":"open tickets"}`)
	require.NoError(t, q.Publish(context.Background(), Message{Subject: "querylens.query.events", Key: "sess-1", Data: data}))
	data[0] = 'X'

	msg := receive(t, ch)
	assert.Equal(t, "querylens.query.events", msg.Subject)
	assert.Equal(t, "sess-1", msg.Key)
	assert.Equal(t, `{"question":"open tickets"}`, string(msg.Data))
}

func TestMemoryQueue_PendingUntilSubscribed(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Publish(ctx, Message{Subject: "s", Data: []byte{byte(i)}}))
	}
	assert.Equal(t, 3, q.PendingCount("s"))
	assert.Equal(t, 0, q.PendingCount("other"))

	ch := make(chan Message, 3)
	require.NoError(t, q.Subscribe("s", collect(ch)))
	for i := 0; i < 3; i++ {
		assert.Equal(t, []byte{byte(i)}, receive(t, ch).Data)
	}
}

func TestMemoryQueue_HandlerErrorsDropMessage(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var calls atomic.Int32
	done := make(chan Message, 1)
	require.NoError(t, q.Subscribe("s", func(_ context.Context, msg Message) error {
		if calls.Add(1) == 1 {
			return errors.New("boom")
		}
		done <- msg
		return nil
	}))

	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, Message{Subject: "s", Key: "first"}))
	require.NoError(t, q.Publish(ctx, Message{Subject: "s", Key: "second"}))
	assert.Equal(t, "second", receive(t, done).Key)
}

func TestMemoryQueue_SubscriptionErrors(t *testing.T) {
	q := NewMemoryQueue()

	noop := func(context.Context, Message) error { return nil }
	require.NoError(t, q.Subscribe("s", noop))
	assert.Error(t, q.Subscribe("s", noop))
	assert.Error(t, q.Unsubscribe("missing"))
	require.NoError(t, q.Unsubscribe("s"))
	require.NoError(t, q.Subscribe("s", noop))

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.Error(t, q.Publish(context.Background(), Message{Subject: "s"}))
	assert.Error(t, q.Subscribe("t", noop))
}

func TestMemoryQueue_Full(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	for i := 0; i < memoryBufferSize; i++ {
		require.NoError(t, q.Publish(ctx, Message{Subject: "s"}))
	}
	assert.ErrorContains(t, q.Publish(ctx, Message{Subject: "s"}), "channel full")
}
