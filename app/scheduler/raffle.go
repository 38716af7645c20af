package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/amirphl/promo-engine/app/services"
	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/amirphl/promo-engine/utils"
	"go.uber.org/zap"
)

var errSelectionPending = errors.New("winner selection held by another execution and not yet visible")

const (
	defaultWinText  = "Congratulations! You won {prize}."
	defaultLoseText = "The raffle is over. Thank you for taking part!"
)

// MessageSource resolves configurable settings and message texts
type MessageSource interface {
	Setting(ctx context.Context, key, fallback string) string
	Message(ctx context.Context, key, fallback string) string
}

// RaffleExecutor picks winners once, then notifies winners and losers. Notification progress is
// durable per user so a resumed raffle never messages anyone twice.
type RaffleExecutor struct {
	campaigns      repository.CampaignRepository
	winners        repository.WinnerRepository
	losers         repository.RaffleLoserRepository
	users          repository.UserRepository
	locker         services.Locker
	messages       MessageSource
	deliverer      Deliverer
	messageDelay   time.Duration
	pollInterval   time.Duration
	pollAttempts   int
	persistTimeout time.Duration
	logger         *zap.Logger
	sleep          func(ctx context.Context, d time.Duration) bool
	intN           func(n int) int
}

func NewRaffleExecutor(
	campaigns repository.CampaignRepository,
	winners repository.WinnerRepository,
	losers repository.RaffleLoserRepository,
	users repository.UserRepository,
	locker services.Locker,
	messages MessageSource,
	deliverer Deliverer,
	deliveryCfg config.DeliveryConfig,
	schedulerCfg config.SchedulerConfig,
	logger *zap.Logger,
) *RaffleExecutor {
	pollAttempts := schedulerCfg.SelectionPollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 25
	}
	pollInterval := schedulerCfg.SelectionPollInterval
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	return &RaffleExecutor{
		campaigns:      campaigns,
		winners:        winners,
		losers:         losers,
		users:          users,
		locker:         locker,
		messages:       messages,
		deliverer:      deliverer,
		messageDelay:   deliveryCfg.MessageDelay,
		pollInterval:   pollInterval,
		pollAttempts:   pollAttempts,
		persistTimeout: schedulerCfg.PersistTimeout,
		logger:         logger,
		sleep:          utils.SleepContext,
		intN:           rand.IntN,
	}
}

func (e *RaffleExecutor) Execute(ctx context.Context, c *models.Campaign) error {
	log := e.logger.With(zap.Uint("campaign_id", c.ID), zap.String("type", c.Type.String()))

	c, err := reloadPending(ctx, e.campaigns, c.ID)
	if err != nil {
		return err
	}
	if c == nil {
		log.Debug("raffle already completed, skipping")
		return nil
	}

	content, err := c.Raffle()
	if err == nil {
		err = content.Validate()
	}
	if err != nil {
		log.Error("raffle content invalid, completing without drawing", zap.Error(err))
		return e.complete(ctx, c.ID, 0, 0)
	}
	prizeName := content.PrizeNameOr(e.messages.Setting(ctx, utils.SettingKeyDefaultPrize, utils.DefaultPrizeName))

	all, err := e.winners.ListByCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	pool, err := e.users.ListParticipants(ctx)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	if len(all) == 0 {
		if len(pool) == 0 {
			log.Info("raffle has no participants")
			return e.complete(ctx, c.ID, 0, 0)
		}
		picked := e.sample(pool, content.WinnerCount())
		all, err = e.selectWinners(ctx, c.ID, picked, prizeName)
		if err != nil {
			return err
		}
		log.Info("raffle winners selected", zap.Int("winners", len(all)), zap.Int("pool", len(pool)))
	}

	winnerIDs := make(map[uint]bool, len(all))
	for _, w := range all {
		winnerIDs[w.UserID] = true
	}

	unnotified, err := e.winners.ListUnnotified(ctx, c.ID)
	if err != nil {
		return err
	}

	winPayload := e.resolvePayload(ctx, content.WinMsg, utils.MessageKeyRaffleWin, defaultWinText, prizeName)
	for _, w := range unnotified {
		if ctx.Err() != nil {
			log.Info("raffle interrupted during winner notifications")
			return errInterrupted
		}
		switch e.deliverer.Deliver(ctx, w.TelegramID, winPayload) {
		case Delivered:
			if err := e.markNotified(ctx, w.ID); err != nil {
				log.Error("failed to mark winner notified", zap.Uint("winner_id", w.ID), zap.Error(err))
			}
		case Interrupted:
			log.Info("raffle interrupted during winner notifications")
			return errInterrupted
		}
		e.sleep(ctx, e.messageDelay)
	}

	alreadyNotified, err := e.losers.NotifiedUserIDs(ctx, c.ID)
	if err != nil {
		return err
	}

	losePayload := e.resolvePayload(ctx, content.LoseMsg, utils.MessageKeyRaffleLose, defaultLoseText, prizeName)
	for _, p := range pool {
		if winnerIDs[p.UserID] || alreadyNotified[p.UserID] {
			continue
		}
		if ctx.Err() != nil {
			log.Info("raffle interrupted during loser notifications")
			return errInterrupted
		}
		outcome := e.deliverer.Deliver(ctx, p.TelegramID, losePayload)
		if outcome == Interrupted {
			log.Info("raffle interrupted during loser notifications")
			return errInterrupted
		}
		if err := e.recordLoser(ctx, c.ID, p.UserID, outcome == Delivered); err != nil {
			log.Error("failed to record loser notification", zap.Uint("user_id", p.UserID), zap.Error(err))
		}
		e.sleep(ctx, e.messageDelay)
	}

	sent, failed, err := e.tally(ctx, c.ID, len(all))
	if err != nil {
		return err
	}
	if err := e.complete(ctx, c.ID, sent, failed); err != nil {
		return err
	}
	log.Info("raffle complete", zap.Int("sent", sent), zap.Int("failed", failed))
	return nil
}

// sample draws count participants uniformly without replacement, or everyone when the pool is small enough
func (e *RaffleExecutor) sample(pool []models.Participant, count int) []models.Participant {
	picked := make([]models.Participant, len(pool))
	copy(picked, pool)
	if len(picked) <= count {
		return picked
	}
	for i := 0; i < count; i++ {
		j := i + e.intN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:count]
}

// selectWinners persists the picked winners at most once per campaign. The loser of a concurrent
// selection waits for the winner's committed rows instead of inserting its own.
func (e *RaffleExecutor) selectWinners(ctx context.Context, campaignID uint, picked []models.Participant, prizeName string) ([]*models.Winner, error) {
	rows := make([]*models.Winner, 0, len(picked))
	for _, p := range picked {
		rows = append(rows, &models.Winner{
			CampaignID: campaignID,
			UserID:     p.UserID,
			TelegramID: p.TelegramID,
			PrizeName:  prizeName,
		})
	}

	key := fmt.Sprintf("raffle:%d", campaignID)
	acquired, err := e.locker.WithTryLock(ctx, key, func(lockCtx context.Context) error {
		existing, err := e.winners.CountByCampaign(lockCtx, campaignID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		_, err = e.winners.InsertIgnoreConflicts(lockCtx, rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select winners: %w", err)
	}
	if acquired {
		return e.winners.ListByCampaign(ctx, campaignID)
	}

	e.logger.Info("winner selection held elsewhere, waiting", zap.Uint("campaign_id", campaignID))
	for range e.pollAttempts {
		if !e.sleep(ctx, e.pollInterval) {
			return nil, errInterrupted
		}
		all, err := e.winners.ListByCampaign(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		if len(all) > 0 {
			return all, nil
		}
	}
	return nil, errSelectionPending
}

func (e *RaffleExecutor) resolvePayload(ctx context.Context, configured models.MessagePayload, key, fallback, prizeName string) models.MessagePayload {
	if !configured.IsEmpty() {
		return configured
	}
	text := e.messages.Message(ctx, key, fallback)
	return models.MessagePayload{Text: strings.ReplaceAll(text, "{prize}", prizeName)}
}

// tally derives final counts from durable notification state
func (e *RaffleExecutor) tally(ctx context.Context, campaignID uint, winners int) (int, int, error) {
	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()

	notified, err := e.winners.CountNotified(pctx, campaignID)
	if err != nil {
		return 0, 0, err
	}
	delivered, undelivered, err := e.losers.CountByOutcome(pctx, campaignID)
	if err != nil {
		return 0, 0, err
	}
	sent := int(notified + delivered)
	failed := winners - int(notified) + int(undelivered)
	return sent, failed, nil
}

func (e *RaffleExecutor) markNotified(ctx context.Context, winnerID uint) error {
	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()
	_, err := e.winners.MarkNotified(pctx, winnerID, utils.UTCNow())
	return err
}

func (e *RaffleExecutor) recordLoser(ctx context.Context, campaignID, userID uint, delivered bool) error {
	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()
	return e.losers.Record(pctx, campaignID, userID, delivered)
}

func (e *RaffleExecutor) complete(ctx context.Context, id uint, sent, failed int) error {
	pctx, cancel := persistContext(ctx, e.persistTimeout)
	defer cancel()
	return completeCampaign(pctx, e.campaigns, e.logger, id, sent, failed)
}
