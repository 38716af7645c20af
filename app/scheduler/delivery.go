package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
	"go.uber.org/zap"
)

// DeliveryOutcome is the value result of one delivery
type DeliveryOutcome int

const (
	Delivered DeliveryOutcome = iota + 1
	SoftFailed
	// Interrupted means ctx ended during a wait between attempts. The recipient was not
	// processed and must be retried by the next run.
	Interrupted
)

func (o DeliveryOutcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case SoftFailed:
		return "soft_failed"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Deliverer sends one payload to one recipient. It never returns an error: every outcome is a value.
type Deliverer interface {
	Deliver(ctx context.Context, recipient int64, payload models.MessagePayload) DeliveryOutcome
}

// RetryingDeliverer wraps a Transport with bounded retries.
// Provider rate limits are waited out without using the retry budget, up to MaxRetryAfter in total.
// Unreachable recipients fail at once. Other errors back off exponentially from BaseBackoff.
type RetryingDeliverer struct {
	transport Transport
	cfg       config.DeliveryConfig
	logger    *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) bool
}

func NewDeliverer(transport Transport, cfg config.DeliveryConfig, logger *zap.Logger) *RetryingDeliverer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &RetryingDeliverer{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		sleep:     utils.SleepContext,
	}
}

// Deliver sends the payload. Cancelling ctx interrupts waits between attempts, yielding Interrupted,
// but never a request already in flight.
func (d *RetryingDeliverer) Deliver(ctx context.Context, recipient int64, payload models.MessagePayload) DeliveryOutcome {
	outcome := d.deliver(ctx, recipient, payload)
	deliveriesTotal.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (d *RetryingDeliverer) deliver(ctx context.Context, recipient int64, payload models.MessagePayload) DeliveryOutcome {
	if err := payload.Validate(); err != nil {
		d.logger.Warn("refusing to deliver invalid payload", zap.Int64("recipient", recipient), zap.Error(err))
		return SoftFailed
	}

	sendCtx := context.WithoutCancel(ctx)
	attempts := 0
	var waited time.Duration

	for {
		err := d.send(sendCtx, recipient, payload)
		if err == nil {
			return Delivered
		}

		var retryAfter *RetryAfterError
		switch {
		case errors.As(err, &retryAfter):
			wait := retryAfter.After + time.Second
			if d.cfg.MaxRetryAfter > 0 && waited+wait > d.cfg.MaxRetryAfter {
				d.logger.Warn("rate limit wait exceeds budget",
					zap.Int64("recipient", recipient),
					zap.Duration("retry_after", retryAfter.After),
					zap.Duration("waited", waited))
				return SoftFailed
			}
			waited += wait
			deliveryRetriesTotal.WithLabelValues("retry_after").Inc()
			d.logger.Debug("rate limited, waiting", zap.Int64("recipient", recipient), zap.Duration("wait", wait))
			if !d.sleep(ctx, wait) {
				return Interrupted
			}
			continue

		case errors.Is(err, ErrRecipientUnreachable):
			d.logger.Debug("recipient unreachable", zap.Int64("recipient", recipient), zap.Error(err))
			return SoftFailed
		}

		attempts++
		if attempts >= d.cfg.MaxRetries {
			d.logger.Debug("delivery failed",
				zap.Int64("recipient", recipient),
				zap.Int("attempts", attempts),
				zap.Error(err))
			return SoftFailed
		}

		backoff := d.cfg.BaseBackoff << (attempts - 1)
		deliveryRetriesTotal.WithLabelValues("transient").Inc()
		if !d.sleep(ctx, backoff) {
			return Interrupted
		}
	}
}

func (d *RetryingDeliverer) send(ctx context.Context, recipient int64, payload models.MessagePayload) error {
	if payload.IsMedia() {
		return d.transport.SendMedia(ctx, recipient, payload.Photo, payload.Caption)
	}
	return d.transport.SendText(ctx, recipient, payload.Text)
}
