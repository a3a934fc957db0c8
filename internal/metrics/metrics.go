package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_poll_cycles_total",
		Help: "Completed poll cycles",
	})
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockwatch_poll_cycle_duration_seconds",
		Help:    "Wall time of one poll cycle including the join",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms -> ~20s
	})
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockwatch_fetches_total",
		Help: "Per-symbol fetch outcomes",
	}, []string{"result"}) // ok/error

	Rows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stockwatch_rows",
		Help: "Rows currently held per watchlist group",
	}, []string{"group"})

	WriterFlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_writer_flushes_total",
		Help: "History writer batch flushes",
	})
	WriterRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_writer_rows_total",
		Help: "Quote rows written to history",
	})
	WriterDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_writer_dropped_total",
		Help: "Cycles dropped because the writer buffer was full",
	})
	WriterErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_writer_errors_total",
		Help: "Failed history flushes",
	})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockwatch_stream_clients",
		Help: "Connected websocket clients",
	})
	StreamPushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_stream_pushed_total",
		Help: "Snapshots written to websocket clients",
	})
)

// ObserveCycle records one finished poll cycle.
func ObserveCycle(ok, failed int, dur time.Duration) {
	CyclesTotal.Inc()
	CycleDuration.Observe(dur.Seconds())
	if ok > 0 {
		FetchesTotal.WithLabelValues("ok").Add(float64(ok))
	}
	if failed > 0 {
		FetchesTotal.WithLabelValues("error").Add(float64(failed))
	}
}
