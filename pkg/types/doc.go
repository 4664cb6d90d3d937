/*
Package types defines the shared domain types for Holdfast's readiness
control plane: peer identity and state, membership snapshots, convergence
verdicts, override decisions, and the serving signal.

The types package has no dependencies on other Holdfast packages and holds
only data definitions plus small pure helpers. Every other package imports
it; it imports none of them.

# Core Types

Peer tracking:
  - PeerID: opaque, immutable member identifier
  - PeerState: joining → up/unreachable → down → removed
  - PeerInfo: state, incarnation number, and last-seen timestamp per peer
  - MembershipUpdate: one observation delivered by the transport
  - MembershipSnapshot: immutable point-in-time copy of all tracked peers

Readiness decision:
  - QuorumPolicy: required fresh-Up seed count, freshness window, viability floor
  - Verdict: converged / pending(reason) / unreachable
  - OverrideDecision: operator-armed forced readiness with TTL
  - ServingSignal: the single externally visible output (open + reason)
  - AuditRecord: persisted trace of arming, expiry, and transitions

# State Ordering

PeerState transitions are monotonic with one exception: Up and Unreachable
share a rank and may oscillate as connectivity flaps. CanTransitionTo
encodes the order; the membership view additionally rejects any update whose
incarnation number does not strictly exceed the stored one, which is the
rule that makes stale gossip harmless.

# Usage

	snap := view.Snapshot()
	up := snap.CountFreshUp(time.Now(), 10*time.Second)

	if verdict.Converged() {
		// quorum reached
	}

# See Also

  - pkg/membership: owns and mutates the data these types describe
  - pkg/convergence: evaluates QuorumPolicy against snapshots
  - pkg/reconciler: produces ServingSignal values
*/
package types
