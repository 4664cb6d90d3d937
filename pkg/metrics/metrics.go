package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Serving gate metrics
	ServingOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "holdfast_serving_open",
			Help: "Whether the serving gate is open (1 = open, 0 = closed)",
		},
	)

	ServingReason = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "holdfast_serving_reason",
			Help: "Current serving reason (exactly one series is 1)",
		},
		[]string{"reason"},
	)

	// Membership metrics
	PeersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "holdfast_peers_total",
			Help: "Number of tracked peers by state",
		},
		[]string{"state"},
	)

	MembershipUpdatesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holdfast_membership_updates_applied_total",
			Help: "Total number of membership updates applied to the view",
		},
	)

	MembershipUpdatesDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holdfast_membership_updates_discarded_total",
			Help: "Total number of stale or invalid membership updates discarded",
		},
	)

	// Reconciliation metrics
	ReconcileCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holdfast_reconcile_cycles_total",
			Help: "Total number of reconciliation cycles",
		},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "holdfast_reconcile_duration_seconds",
			Help:    "Duration of a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holdfast_state_transitions_total",
			Help: "Total number of loop state transitions by from/to state",
		},
		[]string{"from", "to"},
	)

	// Override metrics
	OverrideActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "holdfast_override_active",
			Help: "Whether a readiness override is currently active (1 = active)",
		},
	)

	OverrideExpirations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holdfast_override_expirations_total",
			Help: "Total number of overrides that expired without convergence",
		},
	)

	// Probe metrics
	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holdfast_probes_total",
			Help: "Total number of peer heartbeat probes by result",
		},
		[]string{"result"},
	)

	// API metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holdfast_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(ServingOpen)
	prometheus.MustRegister(ServingReason)
	prometheus.MustRegister(PeersTotal)
	prometheus.MustRegister(MembershipUpdatesApplied)
	prometheus.MustRegister(MembershipUpdatesDiscarded)
	prometheus.MustRegister(ReconcileCyclesTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(StateTransitionsTotal)
	prometheus.MustRegister(OverrideActive)
	prometheus.MustRegister(OverrideExpirations)
	prometheus.MustRegister(ProbesTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
