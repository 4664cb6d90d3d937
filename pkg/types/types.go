package types

import (
	"time"
)

// PeerID uniquely identifies a cluster member. It is opaque to Holdfast and
// immutable once assigned; typical values are "host:port" or a UUID.
type PeerID string

func (id PeerID) String() string {
	return string(id)
}

// PeerState represents the perceived state of a cluster member
type PeerState string

const (
	PeerStateJoining     PeerState = "joining"
	PeerStateUp          PeerState = "up"
	PeerStateUnreachable PeerState = "unreachable"
	PeerStateDown        PeerState = "down"
	PeerStateRemoved     PeerState = "removed"
)

// rank orders states for monotonicity checks. Up and Unreachable share a
// rank because they may oscillate; every other transition only moves
// forward.
func (s PeerState) rank() int {
	switch s {
	case PeerStateJoining:
		return 0
	case PeerStateUp, PeerStateUnreachable:
		return 1
	case PeerStateDown:
		return 2
	case PeerStateRemoved:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is a known peer state
func (s PeerState) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether a transition from s to next respects the
// monotonic state order. Up and Unreachable may oscillate.
func (s PeerState) CanTransitionTo(next PeerState) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// PeerInfo is the tracked state of a single cluster member
type PeerInfo struct {
	ID          PeerID    `json:"id"`
	Addr        string    `json:"addr,omitempty"`
	State       PeerState `json:"state"`
	Incarnation uint64    `json:"incarnation"`
	LastSeen    time.Time `json:"last_seen"`
}

// Fresh reports whether the peer was seen within the freshness window
func (p PeerInfo) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeen) <= window
}

// MembershipUpdate is a single state observation delivered by the
// gossip/heartbeat transport
type MembershipUpdate struct {
	ID          PeerID    `json:"id"`
	Addr        string    `json:"addr,omitempty"`
	State       PeerState `json:"state"`
	Incarnation uint64    `json:"incarnation"`
	Timestamp   time.Time `json:"timestamp"`
}

// MembershipSnapshot is an immutable copy of the membership view at a point
// in time. Callers receive their own copy and may not affect the view
// through it. Two snapshots taken with no intervening ingest are equal.
type MembershipSnapshot struct {
	Peers map[PeerID]PeerInfo `json:"peers"`
}

// Peer returns the tracked info for a peer, if present
func (s MembershipSnapshot) Peer(id PeerID) (PeerInfo, bool) {
	p, ok := s.Peers[id]
	return p, ok
}

// Len returns the number of tracked peers
func (s MembershipSnapshot) Len() int {
	return len(s.Peers)
}

// CountFreshUp returns the number of peers that are Up and were seen within
// the freshness window. Stale Up entries do not count.
func (s MembershipSnapshot) CountFreshUp(now time.Time, window time.Duration) int {
	count := 0
	for _, p := range s.Peers {
		if p.State == PeerStateUp && p.Fresh(now, window) {
			count++
		}
	}
	return count
}

// VerdictKind classifies a convergence evaluation
type VerdictKind string

const (
	VerdictConverged   VerdictKind = "converged"
	VerdictPending     VerdictKind = "pending"
	VerdictUnreachable VerdictKind = "unreachable"
)

// Verdict is the result of evaluating a quorum policy against a snapshot
type Verdict struct {
	Kind     VerdictKind `json:"kind"`
	Reason   string      `json:"reason,omitempty"`
	FreshUp  int         `json:"fresh_up"`
	Required int         `json:"required"`
}

// Converged reports whether the verdict declares convergence
func (v Verdict) Converged() bool {
	return v.Kind == VerdictConverged
}

// QuorumPolicy defines when the membership view counts as converged
type QuorumPolicy struct {
	// RequiredUp is how many seed peers must be Up and fresh
	RequiredUp int `json:"required_up" yaml:"required_up"`

	// SeedPeers are the peers counted toward RequiredUp
	SeedPeers []PeerID `json:"seed_peers" yaml:"seed_peers"`

	// FreshnessWindow bounds how old a peer's last observation may be
	// before its Up state is distrusted (default: 10s)
	FreshnessWindow time.Duration `json:"freshness_window" yaml:"freshness_window"`

	// MinViablePeers is the floor below which an already-converged cluster
	// is considered catastrophically degraded (default: 1)
	MinViablePeers int `json:"min_viable_peers" yaml:"min_viable_peers"`
}

// OverrideDecision records an explicit operator decision to serve traffic
// before convergence. It is only ever created from configuration; nothing
// creates one implicitly.
type OverrideDecision struct {
	ID            string    `json:"id"`
	Armed         bool      `json:"armed"`
	ArmedAt       time.Time `json:"armed_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Justification string    `json:"justification"`
}

// ServingReason explains why the serving gate is in its current position
type ServingReason string

const (
	ServingReasonNormalConvergence ServingReason = "normal_convergence"
	ServingReasonForcedOverride    ServingReason = "forced_override"
	ServingReasonNotReady          ServingReason = "not_ready"
)

// ServingSignal is the externally visible output of the reconciliation
// loop. The loop is its single writer; the front door only reads it.
type ServingSignal struct {
	Open      bool          `json:"open"`
	Reason    ServingReason `json:"reason"`
	ChangedAt time.Time     `json:"changed_at"`
}

// AuditRecord is one persisted entry in the readiness audit trail
type AuditRecord struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Audit record kinds
const (
	AuditOverrideArmed   = "override.armed"
	AuditOverrideExpired = "override.expired"
	AuditTransition      = "state.transition"
	AuditQuorumLost      = "quorum.lost"
)
