package storage

import (
	"github.com/holdfast-io/holdfast/pkg/types"
)

// Store defines the interface for readiness state persistence. It holds
// the last known peer records, used to warm-start the membership view
// after a restart, and the append-only audit trail of override and
// transition events.
type Store interface {
	// Peers
	SavePeer(peer *types.PeerInfo) error
	ListPeers() ([]*types.PeerInfo, error)
	DeletePeer(id types.PeerID) error

	// Audit trail
	AppendAudit(record *types.AuditRecord) error
	ListAudit(limit int) ([]*types.AuditRecord, error)

	// Utility
	Close() error
}
