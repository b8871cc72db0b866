package syncer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/blockmirror/internal/metrics"
)

const (
	subsystem = "sync"
)

var (
	passes = metrics.NewCounter(
		"passes_total",
		subsystem,
		"number of synchronization passes",
		[]string{"outcome"},
	)
	passConsistent = passes.WithLabelValues("consistent")
	passFault      = passes.WithLabelValues("fault")

	copiedBytes = metrics.NewCounter(
		"copied_bytes_total",
		subsystem,
		"bytes copied from the local to the remote buffer",
		[]string{"strategy"},
	)

	appliedRanges = metrics.NewCounter(
		"applied_ranges_total",
		subsystem,
		"ranges applied to the remote buffer",
		[]string{"strategy"},
	)

	truncatedScans = metrics.NewCounter(
		"truncated_scans_total",
		subsystem,
		"differential scan windows that hit the max span",
		[]string{},
	).WithLabelValues()

	splitWrites = metrics.NewCounter(
		"split_writes_total",
		subsystem,
		"writes split into several log entries",
		[]string{},
	).WithLabelValues()

	logLength = metrics.NewGauge(
		"log_length",
		subsystem,
		"entries waiting in the write log",
		[]string{},
	).WithLabelValues()

	passDuration = metrics.NewHistogramWithBuckets(
		"pass_duration_seconds",
		subsystem,
		"time spent in a synchronization pass",
		[]string{"strategy"},
		prometheus.ExponentialBuckets(0.0001, 4, 10),
	)
)
