package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "compound_engine_pool_count",
		Help: "Number of pools registered in the ledger",
	})

	RewardCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "compound_engine_reward_count",
		Help: "Number of depositor positions in the ledger",
	})

	TotalFarmShare = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "compound_engine_total_farm_share",
		Help: "Farm shares outstanding across all pools",
	})

	Earning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "compound_engine_earning",
		Help: "Base-asset commission earned by the strategy",
	})

	// Operation metrics
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_engine_operations_total",
			Help: "Total number of strategy operations",
		},
		[]string{"op", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compound_engine_operation_duration_seconds",
			Help:    "Strategy operation duration in seconds, including the commit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"op"},
	)

	CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compound_engine_commit_duration_seconds",
		Help:    "Ledger batch commit duration in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// Compound metrics
	CompoundReward = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "compound_engine_compound_reward",
			Help: "Farm reward claimed by the last compound cycle of a pool",
		},
		[]string{"asset"},
	)

	CompoundCommission = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_engine_compound_commission_total",
			Help: "Farm-token commission taken by compound cycles",
		},
		[]string{"asset"},
	)

	CompoundActions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compound_engine_compound_actions",
		Help:    "Number of actions emitted per compound cycle",
		Buckets: []float64{1, 2, 4, 6, 8, 10, 12, 16, 20},
	})

	KeeperRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_engine_keeper_runs_total",
			Help: "Total number of scheduled compound runs",
		},
		[]string{"status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_engine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compound_engine_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
