/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/suparena/softdelete/metrics"
)

func TestRecordOperation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordOperation("find", "active", time.Millisecond, nil)
	m.RecordOperation("find", "active", time.Millisecond, nil)
	m.RecordOperation("find", "active", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("find", "active", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("find", "active", "error")))
}

func TestRecordDeletedAndRestored(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordDeleted("widgets", 3)
	m.RecordDeleted("widgets", 0)
	m.RecordRestored("widgets", 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SoftDeletedTotal.WithLabelValues("widgets")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RestoredTotal.WithLabelValues("widgets")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.RecordOperation("count", "all", time.Millisecond, nil)
	m.RecordDeleted("widgets", 1)
}
