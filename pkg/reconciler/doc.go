/*
Package reconciler runs the control loop that decides whether this node
serves traffic.

The Loop is the single writer of the serving gate. Every tick it snapshots
the membership view, evaluates the quorum policy, consults the override,
and drives a small state machine. All other components either feed the
inputs (membership updates, an armed override) or read the output (the
gate signal).

# State Machine

	WaitingForConvergence ──(converged)──────► ServingConverged
	        │                                        │
	        │(override active)                       │(fresh Up < viable floor)
	        ▼                                        ▼
	  ServingForced ──(converged)──► ServingConverged
	        │                         WaitingForConvergence ──(loss budget spent)──► Stopped
	        └──(TTL expired)──► WaitingForConvergence

The gate is open in ServingForced (reason ForcedOverride) and
ServingConverged (reason NormalConvergence), closed everywhere else. Every
transition updates the gate, the state-transition metric, the event broker,
and the audit trail in that order; the gate write comes first so readers
never observe a logged transition before the signal reflects it.

# Override Semantics

An armed override only matters in WaitingForConvergence. If the cluster is
already converged the override is retired untouched and the reason stays
NormalConvergence; forced serving is a bridge to convergence, not a
parallel mode. TTL expiry is checked by wall-clock comparison every tick,
so a forced-open node closes within one interval of the deadline even if
no membership traffic arrives.

# Quorum Loss and Recovery

Losing the viable floor while ServingConverged closes the gate and returns
to waiting. An exponential backoff hold then keeps the override path from
re-forcing the gate open immediately after a loss; real convergence reopens
it at any time. Reaching convergence resets both the loss counter and the
backoff. Exceeding MaxQuorumRecoveries
transitions to Stopped, a terminal state that asks for operator attention
rather than masking a persistent split.

Earlier iterations of this controller let a forced-open node bypass
convergence indefinitely. That behavior was removed on purpose: the TTL
and the silent demotion on convergence are what make the override safe to
hand to operators.

# Usage

	loop := reconciler.NewLoop(view, ov, g, broker, store, reconciler.Config{
		Interval: time.Second,
		Policy:   cfg.Policy(),
	})
	loop.Start()
	defer loop.Stop()

Stop is graceful: an in-flight cycle finishes, then the gate closes and
the state becomes Stopped.

# Integration Points

  - pkg/membership: Snapshot read every tick
  - pkg/convergence: Evaluate and BelowViableFloor
  - pkg/override: IsActive / Retire / Revoke
  - pkg/gate: the only writer of the serving signal
  - pkg/events, pkg/storage: transition events and audit records
*/
package reconciler
