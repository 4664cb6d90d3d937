/*
Package probe implements the built-in TCP heartbeat prober.

Holdfast treats the gossip/heartbeat transport as an external collaborator:
anything that can deliver (peer, state, incarnation, timestamp) tuples into
the membership view works. The prober is the minimal built-in such
transport, for deployments that have nothing better: it dials each seed
peer's address on an interval and reports Up on success or Unreachable
after a run of consecutive failures.

# Failure Detection

	success            → Up (failure counter reset)
	failure < retries  → no report; the previous state ages out naturally
	failure >= retries → Unreachable

A failure below the retry threshold deliberately reports nothing: the
peer's last Up observation simply goes stale, and the convergence gate's
freshness window already treats stale entries as unreachable. Reporting
early would turn every transient blip into a state flap.

# Incarnations

The prober is the local observer for its targets, so it owns their
incarnation counters: every reported observation bumps the counter. This
keeps last-seen timestamps fresh for peers that are steadily Up while
respecting the view's strict monotonicity rule. Do not mix the prober with
another transport for the same peers; two observers assigning incarnations
to one peer will starve each other.

# Usage

	prober := probe.NewProber(view, broker, []probe.Target{
		{ID: "peer-1", Addr: "10.0.0.1:7070"},
	}, probe.DefaultConfig())
	prober.Start()
	defer prober.Stop()

# See Also

  - pkg/membership: receives the observations
  - pkg/api: the POST /v1/peers/updates alternative for external transports
*/
package probe
