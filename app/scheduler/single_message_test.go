package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSingleMessageExecutor(t *testing.T) {
	tests := []struct {
		name       string
		content    models.SingleMessageContent
		fail       bool
		wantSent   int
		wantFailed int
		wantCalls  int
	}{
		{
			name:      "delivered",
			content:   models.SingleMessageContent{MessagePayload: models.MessagePayload{Text: "hi"}, TargetUserID: utils.ToPtr(int64(555))},
			wantSent:  1,
			wantCalls: 1,
		},
		{
			name:       "delivery failed",
			content:    models.SingleMessageContent{MessagePayload: models.MessagePayload{Text: "hi"}, TargetUserID: utils.ToPtr(int64(555))},
			fail:       true,
			wantFailed: 1,
			wantCalls:  1,
		},
		{
			name:       "missing target",
			content:    models.SingleMessageContent{MessagePayload: models.MessagePayload{Text: "hi"}},
			wantFailed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCampaign(t, 9, models.CampaignTypeSingleMessage, tt.content)
			campaigns := newMemCampaigns(c)
			deliverer := &recordingDeliverer{}
			if tt.fail {
				deliverer.fail = map[int64]bool{555: true}
			}

			executor := NewSingleMessageExecutor(campaigns, deliverer, time.Second, zaptest.NewLogger(t))
			require.NoError(t, executor.Execute(context.Background(), c))

			got := campaigns.get(9)
			assert.True(t, got.IsCompleted)
			assert.Equal(t, tt.wantSent, got.SentCount)
			assert.Equal(t, tt.wantFailed, got.FailedCount)
			require.Len(t, deliverer.calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, int64(555), deliverer.calls[0].recipient)
				assert.Equal(t, models.MessagePayload{Text: "hi"}, deliverer.calls[0].payload)
			}
		})
	}
}

func TestCompleteCampaignIsIdempotent(t *testing.T) {
	c := newCampaign(t, 3, models.CampaignTypeSingleMessage, models.SingleMessageContent{})
	campaigns := newMemCampaigns(c)
	logger := zaptest.NewLogger(t)

	require.NoError(t, completeCampaign(context.Background(), campaigns, logger, 3, 4, 1))
	require.NoError(t, completeCampaign(context.Background(), campaigns, logger, 3, 9, 9))

	got := campaigns.get(3)
	assert.Equal(t, 4, got.SentCount)
	assert.Equal(t, 1, got.FailedCount)
}

func TestSingleMessageSkipsCampaignCompletedElsewhere(t *testing.T) {
	content := models.SingleMessageContent{MessagePayload: models.MessagePayload{Text: "hi"}, TargetUserID: utils.ToPtr(int64(555))}
	c := newCampaign(t, 9, models.CampaignTypeSingleMessage, content)
	campaigns := newMemCampaigns(c)
	stale := *c
	_, err := campaigns.Complete(context.Background(), 9, 1, 0)
	require.NoError(t, err)

	deliverer := &recordingDeliverer{}
	executor := NewSingleMessageExecutor(campaigns, deliverer, time.Second, zaptest.NewLogger(t))
	require.NoError(t, executor.Execute(context.Background(), &stale))

	assert.Empty(t, deliverer.calls)
	assert.Equal(t, 1, campaigns.get(9).SentCount)
}

func TestSingleMessageInterruptedStaysPending(t *testing.T) {
	content := models.SingleMessageContent{MessagePayload: models.MessagePayload{Text: "hi"}, TargetUserID: utils.ToPtr(int64(555))}
	c := newCampaign(t, 9, models.CampaignTypeSingleMessage, content)
	campaigns := newMemCampaigns(c)
	deliverer := &recordingDeliverer{interrupt: map[int64]bool{555: true}}
	executor := NewSingleMessageExecutor(campaigns, deliverer, time.Second, zaptest.NewLogger(t))

	require.ErrorIs(t, executor.Execute(context.Background(), c), errInterrupted)
	assert.False(t, campaigns.get(9).IsCompleted)

	require.NoError(t, executor.Execute(context.Background(), c))
	got := campaigns.get(9)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 1, got.SentCount)
	assert.Len(t, deliverer.calls, 2)
}
