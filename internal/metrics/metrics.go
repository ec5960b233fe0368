package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MirrorDivergence = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_follow_mirror_divergence_total",
		Help: "Follow toggles that updated only one of the two mirrors",
	}, []string{"op"})
	ToggleConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_toggle_conflicts_total",
		Help: "Toggles that gave up after losing a race twice",
	}, []string{"kind"})
	ReconcileRepairs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_reconcile_repairs_total",
		Help: "Follow mirror edges repaired by reconciliation",
	}, []string{"result"})

	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_realtime_events_published_total",
		Help: "Realtime events enqueued to sessions",
	}, []string{"event"})
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_realtime_events_dropped_total",
		Help: "Realtime events dropped because a session queue was full",
	}, []string{"event"})
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flock_realtime_sessions",
		Help: "Connected realtime sessions",
	})

	MaintenanceRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_maintenance_runs_total",
		Help: "Scheduled maintenance job runs",
	}, []string{"job", "result"})
	MaintenanceDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flock_maintenance_duration_seconds",
		Help:    "Maintenance job duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(
		MirrorDivergence, ToggleConflicts, ReconcileRepairs,
		EventsPublished, EventsDropped, Sessions,
		MaintenanceRuns, MaintenanceDuration,
	)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// GraphRecorder reports social graph anomalies
type GraphRecorder struct{}

func (GraphRecorder) MirrorDivergence(op string) { MirrorDivergence.WithLabelValues(op).Inc() }
func (GraphRecorder) ToggleConflict(kind string) { ToggleConflicts.WithLabelValues(kind).Inc() }

// BusRecorder reports realtime fan-out
type BusRecorder struct{}

func (BusRecorder) Published(event string) { EventsPublished.WithLabelValues(event).Inc() }
func (BusRecorder) Dropped(event string)   { EventsDropped.WithLabelValues(event).Inc() }
func (BusRecorder) SessionOpened()         { Sessions.Inc() }
func (BusRecorder) SessionClosed()         { Sessions.Dec() }

// ObserveJob records the outcome and duration of a maintenance job
func ObserveJob(job string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MaintenanceRuns.WithLabelValues(job, result).Inc()
	MaintenanceDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

// ObserveReconcile records repaired and failed edge counts
func ObserveReconcile(repaired, failed int) {
	ReconcileRepairs.WithLabelValues("repaired").Add(float64(repaired))
	ReconcileRepairs.WithLabelValues("failed").Add(float64(failed))
}
