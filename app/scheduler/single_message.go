package scheduler

import (
	"context"
	"time"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"go.uber.org/zap"
)

// SingleMessageExecutor delivers one payload to one external recipient id
type SingleMessageExecutor struct {
	campaigns      repository.CampaignRepository
	deliverer      Deliverer
	persistTimeout time.Duration
	logger         *zap.Logger
}

func NewSingleMessageExecutor(campaigns repository.CampaignRepository, deliverer Deliverer, persistTimeout time.Duration, logger *zap.Logger) *SingleMessageExecutor {
	return &SingleMessageExecutor{
		campaigns:      campaigns,
		deliverer:      deliverer,
		persistTimeout: persistTimeout,
		logger:         logger,
	}
}

func (e *SingleMessageExecutor) Execute(ctx context.Context, c *models.Campaign) error {
	log := e.logger.With(zap.Uint("campaign_id", c.ID), zap.String("type", c.Type.String()))

	c, err := reloadPending(ctx, e.campaigns, c.ID)
	if err != nil {
		return err
	}
	if c == nil {
		log.Debug("single message already completed, skipping")
		return nil
	}

	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()

	content, err := c.SingleMessage()
	if err != nil || content.TargetUserID == nil {
		log.Warn("single message has no usable target", zap.Error(err))
		return completeCampaign(pctx, e.campaigns, e.logger, c.ID, 0, 1)
	}

	switch e.deliverer.Deliver(ctx, *content.TargetUserID, content.MessagePayload) {
	case Delivered:
		log.Info("single message sent", zap.Int64("recipient", *content.TargetUserID))
		return completeCampaign(pctx, e.campaigns, e.logger, c.ID, 1, 0)
	case Interrupted:
		log.Info("single message interrupted, will retry", zap.Int64("recipient", *content.TargetUserID))
		return errInterrupted
	}

	log.Warn("single message failed", zap.Int64("recipient", *content.TargetUserID))
	return completeCampaign(pctx, e.campaigns, e.logger, c.ID, 0, 1)
}
