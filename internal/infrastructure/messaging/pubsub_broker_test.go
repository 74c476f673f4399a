package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestPubSubBroker(t *testing.T, createTopics bool) *PubSubBroker {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "mdm-test", option.WithGRPCConn(conn))
	require.NoError(t, err)

	b := NewPubSubBrokerWithClient(client, zap.NewNop(), createTopics, 2)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPubSubBroker_PublishSubscribe(t *testing.T) {
	b := newTestPubSubBroker(t, true)
	ctx := context.Background()

	require.NoError(t, b.EnsureSubscription(ctx, "mdm-invoice-requests", "invoice-requests"))

	id, err := b.Publish(ctx, "invoice-requests", []byte(`{"tokenTicket":"ticket-123"}`), map[string]string{"source": "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan *shared.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- b.Subscribe(subCtx, "mdm-invoice-requests", "invoice-requests", func(_ context.Context, m *shared.Message) error {
			select {
			case received <- m:
			default:
			}
			return nil
		})
	}()

	select {
	case m := <-received:
		assert.Equal(t, id, m.ID)
		assert.Equal(t, "invoice-requests", m.Topic)
		assert.Equal(t, "test", m.Attributes["source"])
		assert.JSONEq(t, `{"tokenTicket":"ticket-123"}`, string(m.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("subscribe did not stop")
	}
}

func TestPubSubBroker_NackRedelivers(t *testing.T) {
	b := newTestPubSubBroker(t, true)
	ctx := context.Background()

	require.NoError(t, b.EnsureSubscription(ctx, "s", "t"))
	_, err := b.Publish(ctx, "t", []byte("x"), nil)
	require.NoError(t, err)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var attempts atomic.Int32
	acked := make(chan struct{}, 1)
	go func() {
		_ = b.Subscribe(subCtx, "s", "t", func(context.Context, *shared.Message) error {
			if attempts.Add(1) == 1 {
				return errors.New("transient")
			}
			select {
			case acked <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	select {
	case <-acked:
		assert.GreaterOrEqual(t, attempts.Load(), int32(2))
	case <-time.After(10 * time.Second):
		t.Fatal("message not redelivered after nack")
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	b, err := New(context.Background(), &config.MessagingConfig{Driver: "memory", Workers: 1}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryBroker{}, b)
	require.NoError(t, b.Close())

	_, err = New(context.Background(), &config.MessagingConfig{Driver: "kafka"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(context.Background(), &config.MessagingConfig{Driver: "pubsub"}, zap.NewNop())
	assert.Error(t, err)
}
