// Package metrics - коллекторы Prometheus для синхронизации фида NEO.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neo_sync_chunks_total",
		Help: "Processed feed chunks by mode and outcome",
	}, []string{"mode", "outcome"})

	RowsInsertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neo_sync_rows_inserted_total",
		Help: "Rows actually inserted by entity",
	}, []string{"entity"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neo_sync_fetch_duration_seconds",
		Help:    "Latency of NEO feed requests",
		Buckets: prometheus.DefBuckets,
	})

	LastSuccessTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "neo_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last fully successful run by mode",
	}, []string{"mode"})
)

const (
	ModeBackfill    = "backfill"
	ModeIncremental = "incremental"

	OutcomeOK            = "ok"
	OutcomeFetchFailed   = "fetch_failed"
	OutcomePersistFailed = "persist_failed"
)
