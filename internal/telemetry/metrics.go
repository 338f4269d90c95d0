package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	AssignmentsCreated   = prometheus.NewCounter(prometheus.CounterOpts{Name: "market_assignments_created_total", Help: "Assignments committed by the allocator"})
	AssignmentRaces      = prometheus.NewCounter(prometheus.CounterOpts{Name: "market_assignment_races_total", Help: "Accept calls resolved idempotently after losing the insert race"})
	TimeConflicts        = prometheus.NewCounter(prometheus.CounterOpts{Name: "market_time_conflicts_total", Help: "Accept calls rejected by the overlap detector"})
	NotificationsSent    = prometheus.NewCounter(prometheus.CounterOpts{Name: "market_notifications_sent_total", Help: "Notifications persisted and handed to the transport"})
	NotificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "market_notifications_suppressed_total", Help: "Notifications suppressed by the dedupe window"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			AssignmentsCreated,
			AssignmentRaces,
			TimeConflicts,
			NotificationsSent,
			NotificationsDropped,
		)
	})
	return promhttp.Handler()
}
