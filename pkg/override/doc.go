/*
Package override holds the operator-armed readiness override.

An Override is an explicit, audited decision to serve traffic before the
cluster has converged. Arming one requires a non-empty justification and a
finite TTL; both are recorded and logged at warn level because a forced-open
node serves from a membership view it cannot vouch for.

# Lifecycle

	Arm ──► active ──(TTL elapses)──► expired (Revoke, gate closes)
	              └──(cluster converges)──► retired (Retire, gate stays open)

IsActive is the only question the reconciliation loop asks, and it is
answered against the caller's clock: armed && now < ExpiresAt. Expiry is
fail-safe by construction. There is no renewal; an operator who needs more
time arms a new override with a new justification.

Retire and Revoke both deactivate the override but mean different things.
Retire fires when real convergence arrives while the override is still
live: the node keeps serving, only the recorded reason changes. Revoke
fires when the TTL lapses without convergence: the loop closes the gate and
falls back to waiting.

# Usage

	ov, err := override.Arm("staging bring-up, peers not deployed yet", 10*time.Minute, time.Now())
	if err != nil {
		return err
	}
	if ov.IsActive(time.Now()) {
		// serve with reason ForcedOverride
	}

# Integration Points

  - pkg/reconciler: polls IsActive each tick, calls Retire on convergence
    and Revoke on expiry
  - pkg/api: GET /v1/status exposes the current Decision
  - pkg/storage: arm/expire events land in the audit trail
*/
package override
