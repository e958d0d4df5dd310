/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics provides Prometheus metrics for soft-delete collections
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the operation counters and latencies
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	SoftDeletedTotal  *prometheus.CounterVec
	RestoredTotal     *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg registers
// with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_operations_total",
				Help: "Total number of soft-delete layer operations",
			},
			[]string{"op", "visibility", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "softdelete_operation_duration_seconds",
				Help:    "Duration of soft-delete layer operations in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		SoftDeletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_records_deleted_total",
				Help: "Total number of records flagged as deleted",
			},
			[]string{"collection"},
		),
		RestoredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_records_restored_total",
				Help: "Total number of records restored",
			},
			[]string{"collection"},
		),
	}
}

// RecordOperation records the outcome and duration of an operation
func (m *Metrics) RecordOperation(op, visibility string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.OperationsTotal.WithLabelValues(op, visibility, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordDeleted counts records flagged as deleted
func (m *Metrics) RecordDeleted(collection string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SoftDeletedTotal.WithLabelValues(collection).Add(float64(n))
}

// RecordRestored counts restored records
func (m *Metrics) RecordRestored(collection string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RestoredTotal.WithLabelValues(collection).Add(float64(n))
}
