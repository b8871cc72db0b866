package blockdev

import (
	"github.com/joshuapare/blockmirror/internal/metrics"
)

const subsystem = "device"

var callbacks = metrics.NewCounter(
	"callbacks_total",
	subsystem,
	"transport callbacks by operation and result",
	[]string{"op", "result"},
)

var (
	readOK        = callbacks.WithLabelValues("read", "ok")
	readRejected  = callbacks.WithLabelValues("read", "rejected")
	writeOK       = callbacks.WithLabelValues("write", "ok")
	writeRejected = callbacks.WithLabelValues("write", "rejected")
	flushOK       = callbacks.WithLabelValues("flush", "ok")
	flushFault    = callbacks.WithLabelValues("flush", "fault")
	trimOK        = callbacks.WithLabelValues("trim", "ok")
	disconnects   = callbacks.WithLabelValues("disconnect", "ok")
)
