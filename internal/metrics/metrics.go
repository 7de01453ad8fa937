// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package metrics exposes Prometheus instrumentation for the batch:
// per-signal read volumes, aggregation sizes, factorization timing, and
// upsert outcomes. Collectors are registered on the default registry and
// served by the optional metrics listener while a run is in flight.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalRows counts interaction rows read per signal source.
	SignalRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_signal_rows_total",
			Help: "Total interaction rows read per signal source",
		},
		[]string{"signal"},
	)

	// AggregatePairs reports the size of the aggregated weight table per
	// entity type for the latest run.
	AggregatePairs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommender_aggregate_pairs",
			Help: "Aggregated (user, entity) pairs with positive weight in the latest run",
		},
		[]string{"entity_type"},
	)

	// FactorizeDuration measures TF-IDF plus truncated SVD time per entity type.
	FactorizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_factorize_duration_seconds",
			Help:    "Duration of matrix factorization and scoring per entity type",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"entity_type"},
	)

	// UsersRecommended reports how many users received a fresh payload per
	// entity type in the latest run.
	UsersRecommended = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommender_users_recommended",
			Help: "Users with an upserted recommendation payload in the latest run",
		},
		[]string{"entity_type"},
	)

	// UpsertRows counts recommendation rows written.
	UpsertRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_upsert_rows_total",
			Help: "Total recommendation rows upserted",
		},
		[]string{"entity_type"},
	)

	// UpsertErrors counts failed upsert transactions.
	UpsertErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_upsert_errors_total",
			Help: "Total failed recommendation upsert transactions",
		},
		[]string{"entity_type"},
	)

	// RunDuration measures end-to-end batch duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_run_duration_seconds",
			Help:    "End-to-end batch run duration",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	// RunsTotal counts batch runs by outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_runs_total",
			Help: "Total batch runs by outcome",
		},
		[]string{"status"},
	)

	// LastSuccessTimestamp is the unix time of the last successful run, for
	// staleness alerting.
	LastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful batch run",
		},
	)
)

// ObserveRun records the outcome of a completed batch run.
func ObserveRun(start time.Time, err error) {
	RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		RunsTotal.WithLabelValues("error").Inc()
		return
	}
	RunsTotal.WithLabelValues("success").Inc()
	LastSuccessTimestamp.SetToCurrentTime()
}
