package messaging

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/cache"
	broker "github.com/flechaamarilla/mdm/internal/infrastructure/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunner_RawDataToProcessedData(t *testing.T) {
	log := zap.NewNop()
	b := broker.NewMemoryBroker(log, broker.WithWorkers(2))
	defer b.Close()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	raw := mdm.NewRawRecord(mdm.EntityTypeReceiver, "t1", mdm.SourceCSVImport, "batch-9", map[string]string{"rfc": "XAXX010101000"})
	ingest := new(mockIngester)
	ingest.On("Ingest", mock.Anything, raw).
		Return(mdm.NewProcessedData(mdm.EntityTypeReceiver, "t1", uuid.New(), mdm.CleanedRecord{"rfc": "XAXX010101000"}, 0.25, "batch-9"), nil)

	processed := make(chan *shared.Message, 1)
	runner := NewRunner(b, store, shared.DefaultIdempotencyConfig(), log).
		Add(Route{
			Name:         "raw-data",
			Subscription: "mdm-raw-data",
			Topic:        "raw-data",
			Handler:      NewRawDataConsumer(ingest, b, "processed-data", log).Handle,
		}).
		Add(Route{
			Name:         "processed-data-probe",
			Subscription: "probe",
			Topic:        "processed-data",
			Handler: func(_ context.Context, m *shared.Message) error {
				processed <- m
				return nil
			},
		})
	require.Len(t, runner.Routes(), 2)
	require.NoError(t, runner.EnsureSubscriptions(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	data, err := json.Marshal(raw)
	require.NoError(t, err)
	_, err = b.Publish(context.Background(), "raw-data", data, map[string]string{"tenantId": "t1"})
	require.NoError(t, err)

	select {
	case m := <-processed:
		var got mdm.ProcessedData
		require.NoError(t, json.Unmarshal(m.Data, &got))
		assert.Equal(t, "RECEIVER", got.EntityType)
		assert.Equal(t, "batch-9", got.BatchID)
		assert.Equal(t, "t1", m.Attributes["tenantId"])
	case <-time.After(2 * time.Second):
		t.Fatal("processed record not published")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	ingest.AssertNumberOfCalls(t, "Ingest", 1)
}

func TestRunner_EnsureSubscriptionsRejectsRebinding(t *testing.T) {
	b := broker.NewMemoryBroker(zap.NewNop())
	defer b.Close()
	require.NoError(t, b.EnsureSubscription(context.Background(), "shared-sub", "raw-data"))

	runner := NewRunner(b, nil, shared.DefaultIdempotencyConfig(), zap.NewNop()).
		Add(Route{Name: "x", Subscription: "shared-sub", Topic: "invoice-requests"})

	assert.Error(t, runner.EnsureSubscriptions(context.Background()))
}

func TestRunner_UndecodablePayloadIsRedeliveredUntilCap(t *testing.T) {
	log := zap.NewNop()
	b := broker.NewMemoryBroker(log, broker.WithWorkers(1), broker.WithMaxDeliveries(2))
	defer b.Close()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	ingest := new(mockIngester)
	consumer := NewRawDataConsumer(ingest, b, "processed-data", log)
	var attempts atomic.Int32
	runner := NewRunner(b, store, shared.DefaultIdempotencyConfig(), log).
		Add(Route{
			Name:         "raw-data",
			Subscription: "mdm-raw-data",
			Topic:        "raw-data",
			Handler: func(ctx context.Context, m *shared.Message) error {
				attempts.Add(1)
				return consumer.Handle(ctx, m)
			},
		})
	require.NoError(t, runner.EnsureSubscriptions(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	_, err := b.Publish(context.Background(), "raw-data", []byte("{truncated"), nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return attempts.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())
	ingest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}
