/*
Package storage provides BoltDB-backed persistence for Holdfast.

Two things are persisted, in separate buckets:

  - peers: the last known record per peer, written by the reconciliation
    loop after each cycle and used to warm-start the membership view after
    a restart. Warm-started records go through the same incarnation
    monotonicity rules as live updates, so a stale database can never roll
    membership backwards.
  - audit: an append-only trail of override armings, expiries, loop state
    transitions, and quorum-loss events. Keys are timestamp-prefixed so
    bucket iteration order is chronological.

# Architecture

	reconciler ──► SavePeer / AppendAudit ──► bbolt (holdfast.db)
	view.Restore ◄── ListPeers ◄──┘
	GET /v1/audit ◄── ListAudit

# Usage

	store, err := storage.NewBoltStore("/var/lib/holdfast")
	if err != nil {
		return err
	}
	defer store.Close()

	records, _ := store.ListAudit(50) // newest first

The Store interface exists so tests and embedders can substitute their own
backend; BoltStore is the only implementation shipped.

# Design Notes

BoltDB gives single-file, transactional storage with no external process,
which fits a component that must come up before the rest of the cluster
does. Audit writes happen at transition frequency (rare), peer writes at
reconcile frequency (default 1s), both well inside bbolt's comfort zone.
*/
package storage
