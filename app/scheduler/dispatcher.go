// Package scheduler executes campaigns: it receives campaign ids from the store's change
// notifications, falls back to a periodic scan, and runs each campaign with the executor for its type.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/amirphl/promo-engine/utils"
	"go.uber.org/zap"
)

// Executor runs one campaign to completion or until ctx ends
type Executor interface {
	Execute(ctx context.Context, c *models.Campaign) error
}

type executeFunc func(ctx context.Context, c *models.Campaign) error

// Dispatcher is the single loop that executes campaigns one at a time
type Dispatcher struct {
	campaigns repository.CampaignRepository
	executors map[models.CampaignType]executeFunc
	queue     chan uint
	wake      chan struct{}
	cfg       config.SchedulerConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(
	campaigns repository.CampaignRepository,
	broadcast Executor,
	raffle Executor,
	singleMessage Executor,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	executors := make(map[models.CampaignType]executeFunc, 3)
	for typ, exec := range map[models.CampaignType]Executor{
		models.CampaignTypeBroadcast:     broadcast,
		models.CampaignTypeRaffle:        raffle,
		models.CampaignTypeSingleMessage: singleMessage,
	} {
		if exec != nil {
			executors[typ] = exec.Execute
		}
	}
	return &Dispatcher{
		campaigns: campaigns,
		executors: executors,
		queue:     make(chan uint, cfg.QueueSize),
		wake:      make(chan struct{}, 1),
		cfg:       cfg,
		logger:    logger,
		now:       utils.UTCNow,
	}
}

// Enqueue offers a campaign id without blocking. It reports false when the queue is full.
func (d *Dispatcher) Enqueue(id uint) bool {
	select {
	case d.queue <- id:
	default:
		return false
	}
	dispatchQueueDepth.Set(float64(len(d.queue)))
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Start launches the dispatch loop and returns a stop function. Stop cancels the loop and waits
// up to ShutdownGrace for the running campaign to save its progress.
func (d *Dispatcher) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(d.cfg.Interval)
		defer ticker.Stop()

		d.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.wake:
				d.drain(ctx)
			case <-ticker.C:
				d.RunOnce(ctx)
			}
		}
	}()

	d.logger.Info("dispatcher started", zap.Duration("interval", d.cfg.Interval))

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			grace := d.cfg.ShutdownGrace
			if grace <= 0 {
				grace = 30 * time.Second
			}
			select {
			case <-done:
				d.logger.Info("dispatcher stopped")
			case <-time.After(grace):
				d.logger.Warn("dispatcher did not stop within shutdown grace", zap.Duration("grace", grace))
			}
		})
	}
}

// RunOnce drains the notification queue and then scans for every eligible campaign
func (d *Dispatcher) RunOnce(ctx context.Context) {
	d.drain(ctx)
	if ctx.Err() != nil {
		return
	}
	d.scan(ctx)
}

func (d *Dispatcher) drain(ctx context.Context) {
	for ctx.Err() == nil {
		var id uint
		select {
		case id = <-d.queue:
		default:
			return
		}
		dispatchQueueDepth.Set(float64(len(d.queue)))

		c, err := d.campaigns.ByID(ctx, id)
		if err != nil {
			d.logger.Error("failed to load notified campaign", zap.Uint("campaign_id", id), zap.Error(err))
			continue
		}
		if c == nil || c.IsCompleted {
			d.logger.Debug("notified campaign absent or completed", zap.Uint("campaign_id", id))
			continue
		}
		if !c.IsDue(d.now()) {
			d.logger.Debug("notified campaign not yet due",
				zap.Uint("campaign_id", id),
				zap.Timep("scheduled_for", c.ScheduledFor))
			continue
		}
		d.execute(ctx, c)
	}
}

func (d *Dispatcher) scan(ctx context.Context) {
	eligible, err := d.campaigns.ListEligible(ctx, d.now())
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Error("failed to list eligible campaigns", zap.Error(err))
		}
		return
	}
	if len(eligible) > 0 {
		d.logger.Info("eligible campaigns found", zap.Int("count", len(eligible)))
	}
	for _, c := range eligible {
		if ctx.Err() != nil {
			return
		}
		d.execute(ctx, c)
	}
}

// execute runs one campaign. A failing campaign never stops the loop.
func (d *Dispatcher) execute(ctx context.Context, c *models.Campaign) {
	log := d.logger.With(zap.Uint("campaign_id", c.ID), zap.String("type", c.Type.String()))

	run, ok := d.executors[c.Type]
	if !ok || run == nil {
		log.Warn("unknown campaign type, skipping")
		campaignExecutionsTotal.WithLabelValues(c.Type.String(), "skipped").Inc()
		return
	}

	start := time.Now()
	err := d.safeRun(ctx, run, c)
	campaignExecutionDuration.WithLabelValues(c.Type.String()).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		campaignExecutionsTotal.WithLabelValues(c.Type.String(), "completed").Inc()
	case errors.Is(err, errInterrupted):
		log.Info("campaign interrupted, will resume on next run", zap.Error(err))
		campaignExecutionsTotal.WithLabelValues(c.Type.String(), "interrupted").Inc()
	default:
		log.Error("campaign execution failed", zap.Error(err))
		campaignExecutionsTotal.WithLabelValues(c.Type.String(), "failed").Inc()
	}
}

func (d *Dispatcher) safeRun(ctx context.Context, run executeFunc, c *models.Campaign) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic executing campaign %d: %v", c.ID, r)
		}
	}()
	return run(ctx, c)
}
