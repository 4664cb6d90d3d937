package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdfast-io/holdfast/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestPeerRoundTrip tests saving, listing and deleting peer records
func TestPeerRoundTrip(t *testing.T) {
	store := newTestStore(t)

	peer := &types.PeerInfo{
		ID:          "peer-1",
		Addr:        "10.0.0.1:7070",
		State:       types.PeerStateUp,
		Incarnation: 7,
		LastSeen:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.SavePeer(peer))

	peers, err := store.ListPeers()
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, peer, peers[0])

	// Upsert
	peer.Incarnation = 8
	require.NoError(t, store.SavePeer(peer))
	peers, err = store.ListPeers()
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, uint64(8), peers[0].Incarnation)

	require.NoError(t, store.DeletePeer("peer-1"))
	peers, err = store.ListPeers()
	require.NoError(t, err)
	assert.Empty(t, peers)
}

// TestAuditOrdering tests that audit listing is newest first and honors
// the limit
func TestAuditOrdering(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendAudit(&types.AuditRecord{
			Kind:      types.AuditTransition,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Message:   string(rune('a' + i)),
		}))
	}

	records, err := store.ListAudit(3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "e", records[0].Message)
	assert.Equal(t, "d", records[1].Message)
	assert.Equal(t, "c", records[2].Message)

	all, err := store.ListAudit(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

// TestAuditAssignsID tests that records without an ID get one
func TestAuditAssignsID(t *testing.T) {
	store := newTestStore(t)

	record := &types.AuditRecord{
		Kind:      types.AuditOverrideArmed,
		Timestamp: time.Now().UTC(),
		Message:   "override armed",
		Fields:    map[string]string{"justification": "dev-mode"},
	}
	require.NoError(t, store.AppendAudit(record))
	assert.NotEmpty(t, record.ID)

	records, err := store.ListAudit(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, "dev-mode", records[0].Fields["justification"])
}
