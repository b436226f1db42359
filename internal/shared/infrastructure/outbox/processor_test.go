package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

func seed(t *testing.T, repo *outbox.InMemoryRepository, n int) []*outbox.Message {
	t.Helper()
	msgs := make([]*outbox.Message, 0, n)
	for i := 0; i < n; i++ {
		msg, err := outbox.NewMessage(newSlotHeld("slot"))
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	require.NoError(t, repo.SaveBatch(context.Background(), msgs))
	return msgs
}

func TestProcessor_PublishesPendingMessages(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	seed(t, repo, 2)

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, "notification.options-available", mock.Anything).Return(nil).Twice()

	metrics := observability.NewInMemoryMetrics()
	p := outbox.NewProcessor(repo, pub, outbox.DefaultProcessorConfig(), nil, outbox.WithMetrics(metrics))

	require.NoError(t, p.ProcessOnce(context.Background()))

	pub.AssertExpectations(t)
	for _, msg := range repo.Messages() {
		assert.True(t, msg.IsPublished())
	}
	stats := p.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricEventsPublished,
		observability.T("routing_key", "notification.options-available"),
		observability.T("outcome", "published")))

	// Nothing left to publish.
	require.NoError(t, p.ProcessOnce(context.Background()))
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestProcessor_SchedulesRetryOnFailure(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	seed(t, repo, 1)

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	cfg := outbox.DefaultProcessorConfig()
	cfg.RetryBackoffBase = time.Hour
	p := outbox.NewProcessor(repo, pub, cfg, nil)

	before := time.Now()
	require.NoError(t, p.ProcessOnce(context.Background()))

	msg := repo.Messages()[0]
	assert.False(t, msg.IsPublished())
	assert.Equal(t, 1, msg.RetryCount)
	require.NotNil(t, msg.LastError)
	assert.Equal(t, "broker down", *msg.LastError)
	require.NotNil(t, msg.NextRetryAt)
	assert.True(t, msg.NextRetryAt.After(before.Add(59*time.Minute)))

	// Not yet due, so the next pass skips it.
	require.NoError(t, p.ProcessOnce(context.Background()))
	pub.AssertNumberOfCalls(t, "Publish", 1)

	stats := p.GetStats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "broker down", stats.LastError)
}

func TestProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	msgs := seed(t, repo, 1)
	msgs[0].RetryCount = 2

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("rejected"))

	cfg := outbox.DefaultProcessorConfig()
	cfg.MaxRetries = 3
	p := outbox.NewProcessor(repo, pub, cfg, nil)

	require.NoError(t, p.ProcessOnce(context.Background()))

	msg := repo.Messages()[0]
	require.NotNil(t, msg.DeadLetteredAt)
	require.NotNil(t, msg.DeadLetterReason)
	assert.Equal(t, "rejected", *msg.DeadLetterReason)
	assert.Equal(t, uint64(1), p.GetStats().DeadCount)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	seed(t, repo, 1)

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = 5 * time.Millisecond
	p := outbox.NewProcessor(repo, pub, cfg, nil)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool {
		return p.GetStats().PublishedCount == 1
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.IsRunning())
	assert.False(t, p.GetStats().IsRunning)
}

func TestInMemoryRepository_DeleteOld(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	msgs := seed(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, repo.MarkPublished(ctx, msgs[0].ID))
	old := time.Now().Add(-30 * 24 * time.Hour)
	msgs[0].PublishedAt = &old

	deleted, err := repo.DeleteOld(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, repo.Messages(), 1)
}
