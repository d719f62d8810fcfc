package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Messages pulled off the queue, before any processing
	EventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_events_consumed_total",
		Help: "Total number of bus messages consumed",
	})

	// Events that reached a terminal processed status
	EventsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_events_processed_total",
		Help: "Total number of events marked processed",
	})

	// Events that reached a terminal failed status
	EventsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_events_failed_total",
		Help: "Total number of events marked failed",
	})

	// Stuck pending events republished by the sweeper
	EventsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_events_swept_total",
		Help: "Total number of stuck events republished by the sweeper",
	})

	// Secondary handler failures, by handler name
	HandlerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_handler_failures_total",
		Help: "Total number of secondary handler failures",
	}, []string{"handler"})

	// Effects applied by the executor, by effect type
	EffectsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_effects_applied_total",
		Help: "Total number of effects applied",
	}, []string{"type"})
)

func Init() {
	prometheus.MustRegister(
		EventsConsumed,
		EventsProcessed,
		EventsFailed,
		EventsSwept,
		HandlerFailures,
		EffectsApplied,
	)
}
