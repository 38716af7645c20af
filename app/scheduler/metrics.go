package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Delivery outcomes partitioned by outcome (delivered, soft_failed)
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_deliveries_total",
			Help: "Total number of delivery attempts by final outcome",
		},
		[]string{"outcome"},
	)

	// Retries partitioned by reason (retry_after, transient)
	deliveryRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_delivery_retries_total",
			Help: "Total number of delivery retries by reason",
		},
		[]string{"reason"},
	)

	// Campaign executions partitioned by type and result (completed, interrupted, failed, skipped)
	campaignExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_campaign_executions_total",
			Help: "Total number of campaign executions by type and result",
		},
		[]string{"type", "result"},
	)

	campaignExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promo_campaign_execution_duration_seconds",
			Help:    "Campaign execution latencies in seconds",
			Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 3600},
		},
		[]string{"type"},
	)

	// Notifications received from the store, partitioned by result (queued, dropped, malformed)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_campaign_notifications_total",
			Help: "Total number of campaign notifications by result",
		},
		[]string{"result"},
	)

	dispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "promo_dispatch_queue_depth",
			Help: "Number of campaign ids waiting in the dispatch queue",
		},
	)
)
