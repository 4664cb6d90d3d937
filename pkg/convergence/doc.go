/*
Package convergence evaluates quorum policy against membership snapshots.

Evaluate is deliberately a pure function: snapshot and policy in, verdict
out, no clock reads, no locks, no I/O. The reconciliation loop supplies its
own notion of "now", which is what lets every verdict be reproduced exactly
in tests.

# Verdicts

  - Converged: at least RequiredUp seed peers are Up with fresh
    observations, and no seed peer is still Joining
  - Pending: quorum is not (yet) met, or a join is still in flight
  - Unreachable: no seed peer has a fresh observation at all

# Freshness

A seed peer counts toward the required Up count only if its last
observation is within the freshness window (default 10s). Stale "Up"
entries are treated as unreachable for quorum purposes, so a node that has
been partitioned for a minute cannot declare convergence off old gossip.

A fresh Joining observation blocks convergence even when the Up quorum is
met: a join in flight means the membership protocol itself has not settled.

# Usage

	verdict := convergence.Evaluate(view.Snapshot(), policy, time.Now())
	if verdict.Converged() {
		// open the gate with reason NormalConvergence
	}

BelowViableFloor implements the catastrophic-loss check used once a node is
already serving converged: fewer fresh Up peers than MinViablePeers.

# See Also

  - pkg/reconciler: calls Evaluate once per tick and acts on the verdict
*/
package convergence
