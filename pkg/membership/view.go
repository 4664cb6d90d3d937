package membership

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/metrics"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// View maintains the local snapshot of known peers and their perceived
// states. It is the single owner of that state: transports deliver
// observations through Ingest, everything else reads immutable copies
// through Snapshot.
type View struct {
	mu     sync.RWMutex
	peers  map[types.PeerID]types.PeerInfo
	logger zerolog.Logger
}

// NewView creates an empty membership view
func NewView() *View {
	return &View{
		peers:  make(map[types.PeerID]types.PeerInfo),
		logger: log.WithComponent("membership"),
	}
}

// Seed registers a peer known from configuration. Seeded peers start as
// Joining with incarnation 0 so that any genuine observation (incarnation
// >= 1) supersedes them.
func (v *View) Seed(id types.PeerID, addr string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.peers[id]; exists {
		return
	}
	v.peers[id] = types.PeerInfo{
		ID:    id,
		Addr:  addr,
		State: types.PeerStateJoining,
	}
}

// Ingest applies a membership update. The update is applied only if its
// incarnation number strictly exceeds the stored one for that peer;
// otherwise it is discarded and false is returned. A discarded stale
// update is an expected condition, not an error.
//
// Ingest may be called concurrently from any number of transport
// goroutines; updates for the same peer serialize on the view's lock,
// which preserves the incarnation monotonicity invariant.
func (v *View) Ingest(update types.MembershipUpdate) bool {
	if !update.State.Valid() {
		v.logger.Debug().
			Str("peer_id", update.ID.String()).
			Str("state", string(update.State)).
			Msg("discarding update with unknown peer state")
		metrics.MembershipUpdatesDiscarded.Inc()
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	stored, exists := v.peers[update.ID]
	if exists {
		if update.Incarnation <= stored.Incarnation {
			v.logger.Debug().
				Str("peer_id", update.ID.String()).
				Uint64("stored_incarnation", stored.Incarnation).
				Uint64("update_incarnation", update.Incarnation).
				Msg("discarding stale membership update")
			metrics.MembershipUpdatesDiscarded.Inc()
			return false
		}
		if !stored.State.CanTransitionTo(update.State) {
			// A Removed peer never comes back under the same identity
			v.logger.Debug().
				Str("peer_id", update.ID.String()).
				Str("stored_state", string(stored.State)).
				Str("update_state", string(update.State)).
				Msg("discarding state-regressing membership update")
			metrics.MembershipUpdatesDiscarded.Inc()
			return false
		}
	}

	info := types.PeerInfo{
		ID:          update.ID,
		Addr:        update.Addr,
		State:       update.State,
		Incarnation: update.Incarnation,
		LastSeen:    update.Timestamp,
	}
	if info.Addr == "" && exists {
		info.Addr = stored.Addr
	}
	v.peers[update.ID] = info

	metrics.MembershipUpdatesApplied.Inc()
	return true
}

// Restore applies previously persisted peer records, typically at warm
// start. Records go through the same monotonicity rules as live updates.
func (v *View) Restore(peers []types.PeerInfo) {
	for _, p := range peers {
		v.Ingest(types.MembershipUpdate{
			ID:          p.ID,
			Addr:        p.Addr,
			State:       p.State,
			Incarnation: p.Incarnation,
			Timestamp:   p.LastSeen,
		})
	}
}

// Snapshot returns an immutable copy of the current membership state. It
// never blocks ingestion for longer than the copy takes.
func (v *View) Snapshot() types.MembershipSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	peers := make(map[types.PeerID]types.PeerInfo, len(v.peers))
	for id, info := range v.peers {
		peers[id] = info
	}
	return types.MembershipSnapshot{Peers: peers}
}

// Len returns the number of tracked peers
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.peers)
}
