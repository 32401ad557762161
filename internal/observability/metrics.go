// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Balance fetching metrics
	FetchRequestsTotal *prometheus.CounterVec
	FetchRetriesTotal  prometheus.Counter
	ChainFailuresTotal *prometheus.CounterVec
	FetchLatency       *prometheus.HistogramVec

	// Scoring metrics
	WalletsProcessed  prometheus.Counter
	WalletsSkipped    prometheus.Counter
	WalletsFailed     prometheus.Counter
	ScoreDistribution prometheus.Histogram
	TiersAssigned     *prometheus.CounterVec

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Checkpoint metrics
	CheckpointWrites      prometheus.Counter
	CheckpointWriteErrors prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_risk_scorer"
	}

	return &Metrics{
		// Balance fetching metrics
		FetchRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balances",
			Name:      "fetch_requests_total",
			Help:      "Total number of balance fetch attempts by outcome",
		}, []string{"outcome"}),
		FetchRetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balances",
			Name:      "fetch_retries_total",
			Help:      "Total number of retried balance fetch attempts",
		}),
		ChainFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balances",
			Name:      "chain_failures_total",
			Help:      "Total number of chain fetch failures by chain ID",
		}, []string{"chain"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "balances",
			Name:      "fetch_latency_seconds",
			Help:      "Balance API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain"}),

		// Scoring metrics
		WalletsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_processed_total",
			Help:      "Total number of wallets scored",
		}),
		WalletsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_skipped_total",
			Help:      "Total number of wallets skipped due to an existing checkpoint",
		}),
		WalletsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_failed_total",
			Help:      "Total number of wallets whose snapshot failed on every chain",
		}),
		ScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score",
			Help:      "Distribution of assigned risk scores",
			Buckets:   []float64{0, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000},
		}),
		TiersAssigned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tiers_assigned_total",
			Help:      "Total number of wallets assigned to each risk tier",
		}, []string{"tier"}),

		// Run metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of scoring runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Scoring run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),

		// Checkpoint metrics
		CheckpointWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "writes_total",
			Help:      "Total number of checkpoint records written",
		}),
		CheckpointWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "write_errors_total",
			Help:      "Total number of failed checkpoint writes",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one balance fetch attempt with its outcome.
func (m *Metrics) RecordFetch(chain string, seconds float64, outcome string) {
	if m == nil {
		return
	}
	m.FetchRequestsTotal.WithLabelValues(outcome).Inc()
	m.FetchLatency.WithLabelValues(chain).Observe(seconds)
}

// RecordFetchRetry counts one retried balance fetch attempt.
func (m *Metrics) RecordFetchRetry() {
	if m == nil {
		return
	}
	m.FetchRetriesTotal.Inc()
}

// RecordChainFailure increments the failure counter for one chain.
func (m *Metrics) RecordChainFailure(chain string) {
	if m == nil {
		return
	}
	m.ChainFailuresTotal.WithLabelValues(chain).Inc()
}

// RecordScore records a scored wallet.
func (m *Metrics) RecordScore(score int, tier string) {
	if m == nil {
		return
	}
	m.WalletsProcessed.Inc()
	m.ScoreDistribution.Observe(float64(score))
	m.TiersAssigned.WithLabelValues(tier).Inc()
}

// RecordSkipped records a wallet skipped via checkpoint.
func (m *Metrics) RecordSkipped() {
	if m == nil {
		return
	}
	m.WalletsSkipped.Inc()
}

// RecordFailed records a wallet whose snapshot failed entirely.
func (m *Metrics) RecordFailed() {
	if m == nil {
		return
	}
	m.WalletsProcessed.Inc()
	m.WalletsFailed.Inc()
}

// RecordCheckpointWrite records one checkpoint write and its error, if any.
func (m *Metrics) RecordCheckpointWrite(err error) {
	if m == nil {
		return
	}
	m.CheckpointWrites.Inc()
	if err != nil {
		m.CheckpointWriteErrors.Inc()
	}
}

// RecordRun records a completed scoring run.
func (m *Metrics) RecordRun(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(durationSeconds)
}
