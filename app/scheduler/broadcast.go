package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/amirphl/promo-engine/utils"
	"go.uber.org/zap"
)

// BroadcastExecutor sends one payload to every non-blocked user, checkpointing a cursor so an
// interrupted broadcast resumes after the last recipient it reached.
type BroadcastExecutor struct {
	campaigns      repository.CampaignRepository
	progress       repository.BroadcastProgressRepository
	users          repository.UserRepository
	tx             repository.Transactor
	deliverer      Deliverer
	cfg            config.DeliveryConfig
	persistTimeout time.Duration
	logger         *zap.Logger
	sleep          func(ctx context.Context, d time.Duration) bool
}

func NewBroadcastExecutor(
	campaigns repository.CampaignRepository,
	progress repository.BroadcastProgressRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	deliverer Deliverer,
	cfg config.DeliveryConfig,
	persistTimeout time.Duration,
	logger *zap.Logger,
) *BroadcastExecutor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 100
	}
	return &BroadcastExecutor{
		campaigns:      campaigns,
		progress:       progress,
		users:          users,
		tx:             tx,
		deliverer:      deliverer,
		cfg:            cfg,
		persistTimeout: persistTimeout,
		logger:         logger,
		sleep:          utils.SleepContext,
	}
}

// Execute runs or resumes a broadcast. It returns errInterrupted when ctx ends first.
func (e *BroadcastExecutor) Execute(ctx context.Context, c *models.Campaign) error {
	log := e.logger.With(zap.Uint("campaign_id", c.ID), zap.String("type", c.Type.String()))

	c, err := reloadPending(ctx, e.campaigns, c.ID)
	if err != nil {
		return err
	}
	if c == nil {
		log.Debug("broadcast already completed, skipping")
		return nil
	}

	payload, err := c.Broadcast()
	if err == nil {
		err = payload.Validate()
	}
	if err != nil {
		log.Error("broadcast payload invalid, completing without sending", zap.Error(err))
		return e.finish(ctx, c.ID, 0, 0)
	}

	state := models.BroadcastProgress{CampaignID: c.ID}
	checkpoint, err := e.progress.ByCampaignID(ctx, c.ID)
	if err != nil {
		return err
	}
	if checkpoint != nil {
		state = *checkpoint
		log.Info("resuming broadcast",
			zap.Uint("last_user_id", state.LastUserID),
			zap.Int("sent", state.SentCount),
			zap.Int("failed", state.FailedCount))
	}

	for {
		if ctx.Err() != nil {
			return e.interrupt(ctx, &state, log)
		}

		page, err := e.users.ListRecipientsAfter(ctx, state.LastUserID, e.cfg.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return e.interrupt(ctx, &state, log)
			}
			return fmt.Errorf("list recipients after %d: %w", state.LastUserID, err)
		}
		if len(page) == 0 {
			break
		}

		for _, r := range page {
			if ctx.Err() != nil {
				return e.interrupt(ctx, &state, log)
			}

			switch e.deliverer.Deliver(ctx, r.TelegramID, payload) {
			case Delivered:
				state.SentCount++
			case Interrupted:
				return e.interrupt(ctx, &state, log)
			default:
				state.FailedCount++
			}
			state.LastUserID = r.ID

			total := state.SentCount + state.FailedCount
			batchDone := total%e.cfg.BatchSize == 0
			if batchDone {
				e.sleep(ctx, e.cfg.BatchDelay())
			}
			if batchDone || total%e.cfg.CheckpointEvery == 0 {
				if err := e.persist(ctx, &state); err != nil {
					log.Warn("failed to save broadcast checkpoint", zap.Error(err))
				}
			}
		}
	}

	if err := e.finish(ctx, c.ID, state.SentCount, state.FailedCount); err != nil {
		return err
	}
	log.Info("broadcast complete", zap.Int("sent", state.SentCount), zap.Int("failed", state.FailedCount))
	return nil
}

// finish deletes the checkpoint and completes the campaign in one transaction
func (e *BroadcastExecutor) finish(ctx context.Context, id uint, sent, failed int) error {
	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()

	return e.tx.WithinTransaction(pctx, func(txCtx context.Context) error {
		if err := e.progress.DeleteByCampaignID(txCtx, id); err != nil {
			return err
		}
		return completeCampaign(txCtx, e.campaigns, e.logger, id, sent, failed)
	})
}

func (e *BroadcastExecutor) persist(ctx context.Context, state *models.BroadcastProgress) error {
	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()
	return e.progress.Upsert(pctx, state)
}

func (e *BroadcastExecutor) interrupt(ctx context.Context, state *models.BroadcastProgress, log *zap.Logger) error {
	if err := e.persist(ctx, state); err != nil {
		log.Error("failed to save broadcast checkpoint on shutdown", zap.Error(err))
		return fmt.Errorf("%w: checkpoint not saved: %v", errInterrupted, err)
	}
	log.Info("broadcast interrupted, checkpoint saved",
		zap.Uint("last_user_id", state.LastUserID),
		zap.Int("sent", state.SentCount),
		zap.Int("failed", state.FailedCount))
	return errInterrupted
}
