package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AttendanceWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_writes_total",
			Help: "Attendance upserts per choir by outcome",
		},
		[]string{"choir", "outcome"},
	)

	ConfigurationSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configuration_saves_total",
			Help: "Configuration upserts per choir",
		},
		[]string{"choir"},
	)

	FeedPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_published_total",
			Help: "Change events published to the notification feed",
		},
		[]string{"table"},
	)

	FeedDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_delivered_total",
			Help: "Change events handed to subscribers",
		},
		[]string{"table"},
	)

	FeedDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_discarded_total",
			Help: "Change events dropped before reaching a subscriber",
		},
		[]string{"table", "reason"},
	)

	ActiveSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_active_subscriptions",
			Help: "Open notification feed subscriptions",
		},
		[]string{"table"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Record store calls that failed, by operation",
		},
		[]string{"op"},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(AttendanceWrites)
	prometheus.MustRegister(ConfigurationSaves)
	prometheus.MustRegister(FeedPublished)
	prometheus.MustRegister(FeedDelivered)
	prometheus.MustRegister(FeedDiscarded)
	prometheus.MustRegister(ActiveSubscriptions)
	prometheus.MustRegister(StoreErrors)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
