package scheduler

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/utils"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// CampaignQueue accepts campaign ids for execution without blocking
type CampaignQueue interface {
	Enqueue(id uint) bool
}

// NotificationBridge listens on the new campaign channel and forwards each id to the queue.
// Missed notifications are harmless: the dispatcher's fallback scan picks the campaign up.
type NotificationBridge struct {
	dsn     string
	channel string
	queue   CampaignQueue
	cfg     config.SchedulerConfig
	logger  *zap.Logger
}

func NewNotificationBridge(dsn string, queue CampaignQueue, cfg config.SchedulerConfig, logger *zap.Logger) *NotificationBridge {
	if cfg.ListenerMinReconnect <= 0 {
		cfg.ListenerMinReconnect = 10 * time.Second
	}
	if cfg.ListenerMaxReconnect < cfg.ListenerMinReconnect {
		cfg.ListenerMaxReconnect = cfg.ListenerMinReconnect
	}
	if cfg.ListenerPingInterval <= 0 {
		cfg.ListenerPingInterval = 90 * time.Second
	}
	return &NotificationBridge{
		dsn:     dsn,
		channel: utils.NewCampaignChannel,
		queue:   queue,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start connects the listener in the background and returns a stop function
func (b *NotificationBridge) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	listener := pq.NewListener(b.dsn, b.cfg.ListenerMinReconnect, b.cfg.ListenerMaxReconnect, b.onEvent)

	var (
		wg    sync.WaitGroup
		pings pingGuard
	)
	wg.Add(1)
	go func() {
		defer wg.Done()

		// Listen blocks until the first connection succeeds
		if err := listener.Listen(b.channel); err != nil {
			if ctx.Err() == nil {
				b.logger.Error("failed to listen for campaign notifications", zap.String("channel", b.channel), zap.Error(err))
			}
			return
		}
		b.logger.Info("listening for campaign notifications", zap.String("channel", b.channel))

		ticker := time.NewTicker(b.cfg.ListenerPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				b.handleNotification(n)
			case <-ticker.C:
				if !pings.start(listener.Ping, func(err error) {
					b.logger.Warn("notification listener ping failed", zap.Error(err))
				}) {
					b.logger.Warn("previous notification listener ping still pending")
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := listener.Close(); err != nil {
				b.logger.Warn("failed to close notification listener", zap.Error(err))
			}
			wg.Wait()
			pings.wait()
		})
	}
}

// pingGuard keeps at most one listener ping in flight. A ping stuck on a half-dead connection
// returns once the listener is closed.
type pingGuard struct {
	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// start runs ping in the background unless one is still pending. It reports whether it started.
func (g *pingGuard) start(ping func() error, onErr func(error)) bool {
	if !g.inFlight.CompareAndSwap(false, true) {
		return false
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.inFlight.Store(false)
		if err := ping(); err != nil {
			onErr(err)
		}
	}()
	return true
}

func (g *pingGuard) wait() {
	g.wg.Wait()
}

func (b *NotificationBridge) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		b.logger.Info("notification listener connected")
	case pq.ListenerEventReconnected:
		b.logger.Info("notification listener reconnected")
	case pq.ListenerEventDisconnected:
		b.logger.Warn("notification listener disconnected", zap.Error(err))
	case pq.ListenerEventConnectionAttemptFailed:
		b.logger.Warn("notification listener connection attempt failed", zap.Error(err))
	}
}

// handleNotification forwards one payload. A nil notification follows a reconnect and carries nothing.
func (b *NotificationBridge) handleNotification(n *pq.Notification) {
	if n == nil {
		return
	}

	id, err := strconv.ParseUint(strings.TrimSpace(n.Extra), 10, 64)
	if err != nil || id == 0 {
		b.logger.Warn("dropping malformed campaign notification", zap.String("payload", n.Extra))
		notificationsTotal.WithLabelValues("malformed").Inc()
		return
	}

	if !b.queue.Enqueue(uint(id)) {
		b.logger.Warn("dispatch queue full, dropping notification", zap.Uint64("campaign_id", id))
		notificationsTotal.WithLabelValues("dropped").Inc()
		return
	}
	b.logger.Debug("campaign notification queued", zap.Uint64("campaign_id", id))
	notificationsTotal.WithLabelValues("queued").Inc()
}
