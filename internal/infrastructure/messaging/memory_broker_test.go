package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startSubscriber(t *testing.T, b *MemoryBroker, sub, topic string, h shared.MessageHandler) (cancel func(), done <-chan error) {
	t.Helper()
	require.NoError(t, b.EnsureSubscription(context.Background(), sub, topic))
	ctx, cancelFn := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Subscribe(ctx, sub, topic, h) }()
	return cancelFn, errCh
}

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker(zap.NewNop(), WithWorkers(2))
	defer b.Close()

	received := make(chan *shared.Message, 1)
	cancel, done := startSubscriber(t, b, "mdm-raw-data", "raw-data", func(_ context.Context, m *shared.Message) error {
		received <- m
		return nil
	})

	id, err := b.Publish(context.Background(), "raw-data", []byte(`{"tenantId":"t1"}`), map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case m := <-received:
		assert.Equal(t, id, m.ID)
		assert.Equal(t, "raw-data", m.Topic)
		assert.JSONEq(t, `{"tenantId":"t1"}`, string(m.Data))
		assert.Equal(t, "v", m.Attributes["k"])
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemoryBroker_FanOutAcrossSubscriptions(t *testing.T) {
	b := NewMemoryBroker(zap.NewNop(), WithWorkers(1))
	defer b.Close()

	var a, c atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	cancelA, _ := startSubscriber(t, b, "a", "topic", func(context.Context, *shared.Message) error { a.Add(1); wg.Done(); return nil })
	cancelC, _ := startSubscriber(t, b, "c", "topic", func(context.Context, *shared.Message) error { c.Add(1); wg.Done(); return nil })
	defer cancelA()
	defer cancelC()

	_, err := b.Publish(context.Background(), "topic", []byte("x"), nil)
	require.NoError(t, err)
	_, err = b.Publish(context.Background(), "other", []byte("y"), nil)
	require.NoError(t, err)

	wg.Wait()
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), c.Load())
}

func TestMemoryBroker_RedeliversFailures(t *testing.T) {
	b := NewMemoryBroker(zap.NewNop(), WithWorkers(1), WithMaxDeliveries(3))
	defer b.Close()

	var attempts atomic.Int32
	delivered := make(chan struct{})
	cancel, _ := startSubscriber(t, b, "s", "t", func(context.Context, *shared.Message) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		close(delivered)
		return nil
	})
	defer cancel()

	_, err := b.Publish(context.Background(), "t", nil, nil)
	require.NoError(t, err)

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("message not redelivered")
	}
	assert.Equal(t, int32(3), attempts.Load())
}

func TestMemoryBroker_PanicIsRecovered(t *testing.T) {
	b := NewMemoryBroker(zap.NewNop(), WithWorkers(1), WithMaxDeliveries(2))
	defer b.Close()

	var attempts atomic.Int32
	ok := make(chan struct{})
	cancel, _ := startSubscriber(t, b, "s", "t", func(context.Context, *shared.Message) error {
		if attempts.Add(1) == 1 {
			panic("boom")
		}
		close(ok)
		return nil
	})
	defer cancel()

	_, err := b.Publish(context.Background(), "t", nil, nil)
	require.NoError(t, err)

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestMemoryBroker_CloseDrainsInFlight(t *testing.T) {
	b := NewMemoryBroker(zap.NewNop(), WithWorkers(1))

	started := make(chan struct{})
	var finished atomic.Bool
	_, done := startSubscriber(t, b, "s", "t", func(context.Context, *shared.Message) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	_, err := b.Publish(context.Background(), "t", nil, nil)
	require.NoError(t, err)
	<-started

	require.NoError(t, b.Close())
	assert.True(t, finished.Load())
	assert.NoError(t, <-done)

	_, err = b.Publish(context.Background(), "t", nil, nil)
	assert.ErrorIs(t, err, ErrBrokerClosed)
	assert.ErrorIs(t, b.Subscribe(context.Background(), "s", "t", nil), ErrBrokerClosed)
}

func TestMemoryBroker_SubscriptionTopicMismatch(t *testing.T) {
	b := NewMemoryBroker(zap.NewNop())
	defer b.Close()

	require.NoError(t, b.EnsureSubscription(context.Background(), "s", "a"))
	assert.Error(t, b.EnsureSubscription(context.Background(), "s", "b"))
}
