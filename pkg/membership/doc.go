/*
Package membership maintains the local view of cluster peers and their
perceived states.

The View is the single owner of membership state. Transports (the built-in
prober, the ingestion API, or any external gossip substrate) deliver
observations through Ingest; every other component reads immutable copies
through Snapshot. Nothing in this package does network I/O.

# Architecture

	transport goroutines ──► View.Ingest ──► peers map (single lock)
	                                            │
	reconciler / API ◄── View.Snapshot ◄── copy-on-read

# Stale-Update Rejection

Each peer carries an incarnation number, a monotonically increasing version
tag assigned by the peer itself. Ingest applies an update only when its
incarnation strictly exceeds the stored one; anything else is discarded and
logged at debug level. This is the classic gossip safety rule: out-of-order
delivery can reorder observations, but it can never roll tracked state
backwards.

Two additional guards:
  - updates with an unknown PeerState are discarded
  - a Removed peer never regresses to an earlier state, regardless of
    incarnation; a rejoining node must present a new identity

Discarded updates increment holdfast_membership_updates_discarded_total;
applied ones increment the applied counter. A discard is not an error
anywhere in the system: POST /v1/peers/updates reports it as
applied=false with status 200.

# Warm Start

Restore replays persisted peer records through Ingest at process start, so
restored state obeys the same monotonicity rules as live traffic. The
restored incarnations are the high-water marks any transport must resume
above; the built-in prober seeds its counters from the view for exactly
this reason. A transport that restarts its incarnations from zero will
have every observation discarded until it passes the persisted value.

# Concurrency

Ingest may be called from any number of goroutines; updates serialize on
the view's mutex, which is what preserves per-peer monotonicity. Snapshot
copies under a read lock, so readers never block each other and block
ingestion only for the duration of the copy. Two snapshots taken with no
intervening ingest are equal.

# Usage

Seeding and ingesting:

	view := membership.NewView()
	view.Seed("peer-1", "10.0.0.1:7070")

	applied := view.Ingest(types.MembershipUpdate{
		ID:          "peer-1",
		State:       types.PeerStateUp,
		Incarnation: 3,
		Timestamp:   time.Now(),
	})

Warm start from persistence:

	persisted, err := store.ListPeers()
	if err != nil {
		return err
	}
	restored := make([]types.PeerInfo, 0, len(persisted))
	for _, p := range persisted {
		restored = append(restored, *p)
	}
	view.Restore(restored)

Reading:

	snap := view.Snapshot()
	if info, ok := snap.Peer("peer-1"); ok {
		fresh := info.Fresh(time.Now(), policy.FreshnessWindow)
		_ = fresh
	}

# Troubleshooting

A peer's LastSeen never advances even though updates arrive: the updates
are being discarded. The debug log carries the stored and offered
incarnations per discard; compare them with GET /v1/peers. The usual cause
is a transport that resets its incarnation counter across restarts.

A peer stays Joining after Seed: Seed only registers the identity at
incarnation zero. Some transport must deliver an Up observation before the
peer counts toward convergence; seed entries alone never satisfy quorum.

# Integration Points

  - pkg/probe: feeds Up/Unreachable observations from heartbeats
  - pkg/api: POST /v1/peers/updates feeds external observations
  - pkg/reconciler: polls Snapshot every tick and persists peer records
  - pkg/storage: persists peer records; Restore warm-starts the view

# See Also

  - pkg/convergence for how snapshots become verdicts
  - pkg/types for the PeerState transition rules
*/
package membership
