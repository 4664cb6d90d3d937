/*
Package metrics provides Prometheus metrics for Holdfast.

All metrics are registered at package init and exposed through Handler(),
mounted at /metrics by the HTTP front door.

# Metric Groups

Serving gate:
  - holdfast_serving_open: 1 when the gate is open
  - holdfast_serving_reason{reason}: which reason is current

Membership:
  - holdfast_peers_total{state}: tracked peers by state
  - holdfast_membership_updates_applied_total
  - holdfast_membership_updates_discarded_total: stale/invalid updates

Reconciliation:
  - holdfast_reconcile_cycles_total
  - holdfast_reconcile_duration_seconds
  - holdfast_state_transitions_total{from,to}

Override:
  - holdfast_override_active
  - holdfast_override_expirations_total: fail-safe revocations

Probe and API:
  - holdfast_probes_total{result}
  - holdfast_http_requests_total{route,status}

# Usage

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconcileDuration)

Exposing metrics:

	mux.Handle("/metrics", metrics.Handler())

# Alerting Hints

  - holdfast_serving_open == 0 for longer than the override TTL means the
    node is refusing traffic and needs operator attention
  - a rising holdfast_override_expirations_total means forced serving keeps
    timing out without real convergence
  - holdfast_serving_reason{reason="forced_override"} == 1 is the signal
    that a node is serving on an override rather than real quorum
*/
package metrics
