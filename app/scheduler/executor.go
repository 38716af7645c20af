package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"go.uber.org/zap"
)

// errInterrupted marks an execution stopped by shutdown. Its progress is durable and the
// campaign stays pending for the next run.
var errInterrupted = errors.New("campaign execution interrupted")

const defaultPersistTimeout = 10 * time.Second

// persistContext detaches from ctx cancellation so checkpoints still land during shutdown
func persistContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// completeCampaign writes the final counts. A campaign that was already completed is logged, not failed.
func completeCampaign(ctx context.Context, campaigns repository.CampaignRepository, logger *zap.Logger, id uint, sent, failed int) error {
	changed, err := campaigns.Complete(ctx, id, sent, failed)
	if err != nil {
		return fmt.Errorf("complete campaign %d: %w", id, err)
	}
	if !changed {
		logger.Info("campaign already completed", zap.Uint("campaign_id", id))
	}
	return nil
}

// reloadPending re-reads the campaign before execution. The dispatcher may hold a copy from an
// earlier scan that another process has completed since. It returns nil when the campaign is
// gone or already completed.
func reloadPending(ctx context.Context, campaigns repository.CampaignRepository, id uint) (*models.Campaign, error) {
	c, err := campaigns.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload campaign %d: %w", id, err)
	}
	if c == nil || c.IsCompleted {
		return nil, nil
	}
	return c, nil
}
