package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func recipientsRange(from, to uint) []models.Recipient {
	var out []models.Recipient
	for id := from; id <= to; id++ {
		out = append(out, models.Recipient{ID: id, TelegramID: int64(1000 + id)})
	}
	return out
}

type broadcastFixture struct {
	campaigns *memCampaigns
	progress  *memProgress
	deliverer *recordingDeliverer
	executor  *BroadcastExecutor
}

func newBroadcastFixture(t *testing.T, c *models.Campaign, recipients []models.Recipient, cfg config.DeliveryConfig) *broadcastFixture {
	f := &broadcastFixture{
		campaigns: newMemCampaigns(c),
		progress:  newMemProgress(),
		deliverer: &recordingDeliverer{},
	}
	f.executor = NewBroadcastExecutor(f.campaigns, f.progress, &memUsers{recipients: recipients}, passthroughTx{}, f.deliverer, cfg, time.Second, zaptest.NewLogger(t))
	f.executor.sleep = noSleep
	return f
}

func TestBroadcastDeliversToEveryRecipient(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 3), config.DeliveryConfig{})

	require.NoError(t, f.executor.Execute(context.Background(), c))

	assert.Equal(t, []int64{1001, 1002, 1003}, f.deliverer.recipients())
	got := f.campaigns.get(1)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 3, got.SentCount)
	assert.Equal(t, 0, got.FailedCount)

	checkpoint, err := f.progress.ByCampaignID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestBroadcastResumesAfterCheckpoint(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 100), config.DeliveryConfig{PageSize: 10})
	require.NoError(t, f.progress.Upsert(context.Background(), &models.BroadcastProgress{CampaignID: 1, LastUserID: 47, SentCount: 45, FailedCount: 2}))

	require.NoError(t, f.executor.Execute(context.Background(), c))

	var want []int64
	for id := int64(48); id <= 100; id++ {
		want = append(want, 1000+id)
	}
	assert.Equal(t, want, f.deliverer.recipients())

	got := f.campaigns.get(1)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 98, got.SentCount)
	assert.Equal(t, 2, got.FailedCount)
}

func TestBroadcastCountsFailures(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Photo: "file-id", Caption: "new"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 4), config.DeliveryConfig{})
	f.deliverer.fail = map[int64]bool{1002: true, 1004: true}

	require.NoError(t, f.executor.Execute(context.Background(), c))

	got := f.campaigns.get(1)
	assert.Equal(t, 2, got.SentCount)
	assert.Equal(t, 2, got.FailedCount)
}

func TestBroadcastInvalidPayloadCompletesEmpty(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, map[string]string{})
	f := newBroadcastFixture(t, c, recipientsRange(1, 3), config.DeliveryConfig{})

	require.NoError(t, f.executor.Execute(context.Background(), c))

	assert.Empty(t, f.deliverer.recipients())
	got := f.campaigns.get(1)
	assert.True(t, got.IsCompleted)
	assert.Zero(t, got.SentCount)
	assert.Zero(t, got.FailedCount)
}

func TestBroadcastCheckpointsPeriodically(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 12), config.DeliveryConfig{BatchSize: 5, CheckpointEvery: 100, PageSize: 4})

	require.NoError(t, f.executor.Execute(context.Background(), c))

	// one checkpoint after each full batch of five
	assert.Equal(t, 2, f.progress.upserts)
}

func TestBroadcastShutdownSavesCheckpoint(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 50), config.DeliveryConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.deliverer.onDeliver = func(n int) {
		if n == 10 {
			cancel()
		}
	}

	err := f.executor.Execute(ctx, c)
	require.ErrorIs(t, err, errInterrupted)

	checkpoint, err := f.progress.ByCampaignID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint(10), checkpoint.LastUserID)
	assert.Equal(t, 10, checkpoint.SentCount)
	assert.False(t, f.campaigns.get(1).IsCompleted)

	f.deliverer.onDeliver = nil
	require.NoError(t, f.executor.Execute(context.Background(), c))

	got := f.campaigns.get(1)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 50, got.SentCount)
	assert.Len(t, f.deliverer.recipients(), 50)
}

// rateLimitOnceTransport answers the first message to limited with a rate limit, then succeeds
type rateLimitOnceTransport struct {
	mu      sync.Mutex
	limited int64
	tripped bool
	sent    []int64
}

func (r *rateLimitOnceTransport) SendText(_ context.Context, recipient int64, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recipient)
	if recipient == r.limited && !r.tripped {
		r.tripped = true
		return &RetryAfterError{After: time.Second}
	}
	return nil
}

func (r *rateLimitOnceTransport) SendMedia(ctx context.Context, recipient int64, _, caption string) error {
	return r.SendText(ctx, recipient, caption)
}

func TestBroadcastShutdownDuringRetryWaitKeepsRecipient(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 3), config.DeliveryConfig{})

	transport := &rateLimitOnceTransport{limited: 1002}
	deliverer := NewDeliverer(transport, testDeliveryConfig(), zaptest.NewLogger(t))
	f.executor.deliverer = deliverer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deliverer.sleep = func(context.Context, time.Duration) bool {
		cancel()
		return false
	}

	require.ErrorIs(t, f.executor.Execute(ctx, c), errInterrupted)

	checkpoint, err := f.progress.ByCampaignID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint(1), checkpoint.LastUserID)
	assert.Equal(t, 1, checkpoint.SentCount)
	assert.Equal(t, 0, checkpoint.FailedCount)
	assert.False(t, f.campaigns.get(1).IsCompleted)

	deliverer.sleep = noSleep
	require.NoError(t, f.executor.Execute(context.Background(), c))

	assert.Equal(t, []int64{1001, 1002, 1002, 1003}, transport.sent)
	got := f.campaigns.get(1)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 3, got.SentCount)
	assert.Equal(t, 0, got.FailedCount)
}

func TestBroadcastSkipsCampaignCompletedElsewhere(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 5), config.DeliveryConfig{})
	stale := *c

	changed, err := f.campaigns.Complete(context.Background(), 1, 5, 0)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, f.executor.Execute(context.Background(), &stale))

	assert.Empty(t, f.deliverer.recipients())
	assert.Zero(t, f.progress.upserts)
	assert.Equal(t, 5, f.campaigns.get(1).SentCount)
}

func TestBroadcastSkipsMissingCampaign(t *testing.T) {
	c := newCampaign(t, 1, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})
	f := newBroadcastFixture(t, c, recipientsRange(1, 3), config.DeliveryConfig{})
	ghost := newCampaign(t, 2, models.CampaignTypeBroadcast, models.MessagePayload{Text: "hello"})

	require.NoError(t, f.executor.Execute(context.Background(), ghost))
	assert.Empty(t, f.deliverer.recipients())
}
