// Package metrics exposes Prometheus collectors for planning runs and the HTTP API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugenenazirov/fleet-planner/internal/planner"
)

var (
	// Registry is the dedicated Prometheus registry for the planner.
	Registry = prometheus.NewRegistry()

	// PlanRuns counts planning runs by outcome (ok, invalid, unroutable, error).
	PlanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planner_runs_total", Help: "Planning runs by outcome."},
		[]string{"outcome"},
	)
	// PlanDuration records how long planning runs take in seconds.
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "planner_run_duration_seconds", Help: "Planning run duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// TripsPlanned counts trips produced by successful runs.
	TripsPlanned = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "planner_trips_total", Help: "Trips produced by successful planning runs."},
	)
	// WeightCarried sums the payload weight of planned trips.
	WeightCarried = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "planner_weight_carried_total", Help: "Payload weight carried by planned trips."},
	)
	// CapacityWasted sums the unused lead capacity across planned trips.
	CapacityWasted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "planner_capacity_wasted_total", Help: "Unused lead capacity across planned trips."},
	)

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)
)

// Planning run outcomes used as the PlanRuns label.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeUnroutable = "unroutable"
	OutcomeError      = "error"
)

var regOnce sync.Once

// Register adds every collector to Registry. It is safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(PlanRuns, PlanDuration, TripsPlanned, WeightCarried, CapacityWasted)
		Registry.MustRegister(HTTPRequests, HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObservePlan records the statistics of a successful run. It satisfies planner.Observer.
func ObservePlan(stats planner.Stats) {
	TripsPlanned.Add(float64(stats.Trips))
	WeightCarried.Add(float64(stats.TotalWeight))
	CapacityWasted.Add(float64(stats.Wasted))
}

// ObserveRun records the outcome and duration of one planning run.
func ObserveRun(outcome string, elapsed time.Duration) {
	PlanRuns.WithLabelValues(outcome).Inc()
	PlanDuration.Observe(elapsed.Seconds())
}

// Outcome classifies the error returned by a planning run.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, planner.ErrUnroutableLocation):
		return OutcomeUnroutable
	case errors.Is(err, planner.ErrEmptyFleet),
		errors.Is(err, planner.ErrInvalidVehicle),
		errors.Is(err, planner.ErrInvalidLocation),
		errors.Is(err, planner.ErrDuplicateName),
		errors.Is(err, planner.ErrPlanTooLarge):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
