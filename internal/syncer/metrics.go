package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	drainsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsmart_sync_drains_total",
		Help: "Number of completed queue drains.",
	})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsmart_sync_actions_total",
		Help: "Replayed offline actions by outcome.",
	}, []string{"outcome"})

	pendingActions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splitsmart_sync_pending_actions",
		Help: "Offline actions currently waiting in the queue.",
	})
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeDropped = "dropped"
)
