package convergence

import (
	"fmt"
	"time"

	"github.com/holdfast-io/holdfast/pkg/types"
)

// Evaluate is a pure function of a membership snapshot and a quorum policy.
// It never blocks and has no side effects, which is what makes the
// reconciliation logic testable without a cluster.
//
// A seed peer counts toward the required Up count only if its state is Up
// and its last observation falls within the freshness window; a stale "Up"
// entry is treated as unreachable so outdated gossip can never declare
// convergence.
// Convergence additionally requires that no seed peer is still Joining: a
// fresh Joining observation means the membership protocol is mid-transition,
// and declaring convergence while a join is in flight would hand out a view
// the joiner has not agreed to yet.
func Evaluate(snap types.MembershipSnapshot, policy types.QuorumPolicy, now time.Time) types.Verdict {
	freshUp := 0
	freshSeen := 0
	freshJoining := 0
	for _, id := range policy.SeedPeers {
		info, ok := snap.Peer(id)
		if !ok {
			continue
		}
		if info.Fresh(now, policy.FreshnessWindow) && !info.LastSeen.IsZero() {
			freshSeen++
			switch info.State {
			case types.PeerStateUp:
				freshUp++
			case types.PeerStateJoining:
				freshJoining++
			}
		}
	}

	verdict := types.Verdict{
		FreshUp:  freshUp,
		Required: policy.RequiredUp,
	}

	switch {
	case freshSeen == 0:
		verdict.Kind = types.VerdictUnreachable
		verdict.Reason = "no fresh observations from any seed peer"
	case freshUp >= policy.RequiredUp && freshJoining == 0:
		verdict.Kind = types.VerdictConverged
	case freshUp >= policy.RequiredUp:
		verdict.Kind = types.VerdictPending
		verdict.Reason = fmt.Sprintf("%d seed peers still joining", freshJoining)
	default:
		verdict.Kind = types.VerdictPending
		verdict.Reason = fmt.Sprintf("%d of %d required seed peers up", freshUp, policy.RequiredUp)
	}
	return verdict
}

// BelowViableFloor reports whether a previously converged cluster has
// degraded below the minimum viable peer count. This is the catastrophic
// membership loss condition; it is evaluated with the same freshness rule
// as Evaluate.
func BelowViableFloor(snap types.MembershipSnapshot, policy types.QuorumPolicy, now time.Time) bool {
	return snap.CountFreshUp(now, policy.FreshnessWindow) < policy.MinViablePeers
}
