package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Strategy counters and gauges. Token amounts are exported in whole want/reward units.

var (
	// Harvest cycles
	HarvestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpstrategy",
		Subsystem: "harvest",
		Name:      "total",
		Help:      "Total harvest calls by result",
	}, []string{"result"})

	HarvestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lpstrategy",
		Subsystem: "harvest",
		Name:      "duration_seconds",
		Help:      "Harvest call duration",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	ReportedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpstrategy",
		Subsystem: "harvest",
		Name:      "reported_amount_total",
		Help:      "Profit, loss and debt payment reported to the vault",
	}, []string{"kind"})

	TendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpstrategy",
		Subsystem: "keeper",
		Name:      "tends_total",
		Help:      "Total adjustPosition calls made by the keeper, by result",
	}, []string{"result"})

	TriggerEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpstrategy",
		Subsystem: "keeper",
		Name:      "trigger_evaluations_total",
		Help:      "Harvest trigger evaluations by outcome reason",
	}, []string{"reason"})

	// Slippage guard
	SlippageRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpstrategy",
		Subsystem: "slippage",
		Name:      "rejections_total",
		Help:      "Staking moves rejected by the slippage guard",
	}, []string{"direction"})

	// Position
	Position = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lpstrategy",
		Subsystem: "position",
		Name:      "balance",
		Help:      "Current idle, staked and total want balance",
	}, []string{"kind"})

	// Rewards
	RewardFlow = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lpstrategy",
		Subsystem: "rewards",
		Name:      "amount_total",
		Help:      "Reward tokens claimed, skimmed and sold",
	}, []string{"kind"})
)
