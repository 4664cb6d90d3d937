package probe

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdfast-io/holdfast/pkg/membership"
	"github.com/holdfast-io/holdfast/pkg/types"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lis.Close() })
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return lis
}

func testConfig() Config {
	return Config{
		Interval: 50 * time.Millisecond,
		Timeout:  200 * time.Millisecond,
		Retries:  2,
	}
}

// TestProbeSuccess tests that a reachable peer is reported Up
func TestProbeSuccess(t *testing.T) {
	lis := listen(t)
	view := membership.NewView()
	target := Target{ID: "peer-1", Addr: lis.Addr().String()}

	p := NewProber(view, nil, []Target{target}, testConfig())
	p.probe(target)

	info, ok := view.Snapshot().Peer("peer-1")
	require.True(t, ok)
	assert.Equal(t, types.PeerStateUp, info.State)
	assert.Equal(t, uint64(1), info.Incarnation)
	assert.WithinDuration(t, time.Now(), info.LastSeen, time.Second)
}

// TestProbeRefreshesLastSeen tests that repeated successes keep the peer
// fresh by bumping the incarnation
func TestProbeRefreshesLastSeen(t *testing.T) {
	lis := listen(t)
	view := membership.NewView()
	target := Target{ID: "peer-1", Addr: lis.Addr().String()}

	p := NewProber(view, nil, []Target{target}, testConfig())
	p.probe(target)
	first, _ := view.Snapshot().Peer("peer-1")

	p.probe(target)
	second, _ := view.Snapshot().Peer("peer-1")

	assert.Greater(t, second.Incarnation, first.Incarnation)
	assert.False(t, second.LastSeen.Before(first.LastSeen))
}

// TestProbeFailureThreshold tests that a peer only becomes Unreachable
// after the configured number of consecutive failures
func TestProbeFailureThreshold(t *testing.T) {
	// A listener that is immediately closed gives a connection-refused
	// address nothing else is likely to claim
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	view := membership.NewView()
	view.Seed("peer-1", addr)
	target := Target{ID: "peer-1", Addr: addr}

	p := NewProber(view, nil, []Target{target}, testConfig())

	// First failure: below threshold, the view keeps the seeded state
	p.probe(target)
	info, _ := view.Snapshot().Peer("peer-1")
	assert.Equal(t, types.PeerStateJoining, info.State)

	// Second failure reaches the threshold
	p.probe(target)
	info, _ = view.Snapshot().Peer("peer-1")
	assert.Equal(t, types.PeerStateUnreachable, info.State)
}

// TestProbeRecovery tests Unreachable -> Up oscillation
func TestProbeRecovery(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	view := membership.NewView()
	target := Target{ID: "peer-1", Addr: addr}
	p := NewProber(view, nil, []Target{target}, testConfig())

	p.probe(target)
	p.probe(target)
	info, _ := view.Snapshot().Peer("peer-1")
	require.Equal(t, types.PeerStateUnreachable, info.State)

	// Peer comes back
	recovered := listen(t)
	target.Addr = recovered.Addr().String()
	p.targets = []Target{target}
	p.probe(target)

	info, _ = view.Snapshot().Peer("peer-1")
	assert.Equal(t, types.PeerStateUp, info.State)
}

// TestStartStop tests the probe loop lifecycle
func TestStartStop(t *testing.T) {
	lis := listen(t)
	view := membership.NewView()

	p := NewProber(view, nil, []Target{{ID: "peer-1", Addr: lis.Addr().String()}}, testConfig())
	p.Start()

	require.Eventually(t, func() bool {
		info, ok := view.Snapshot().Peer("peer-1")
		return ok && info.State == types.PeerStateUp
	}, 2*time.Second, 20*time.Millisecond)

	p.Stop()
	p.Stop() // idempotent
}

// TestProbeAfterRestore tests that a peer restored from disk with a high
// incarnation is still refreshed by the first probe after a restart
func TestProbeAfterRestore(t *testing.T) {
	lis := listen(t)
	view := membership.NewView()
	target := Target{ID: "peer-1", Addr: lis.Addr().String()}

	staleSeen := time.Now().Add(-time.Hour)
	view.Restore([]types.PeerInfo{{
		ID:          "peer-1",
		Addr:        target.Addr,
		State:       types.PeerStateUp,
		Incarnation: 100,
		LastSeen:    staleSeen,
	}})

	p := NewProber(view, nil, []Target{target}, testConfig())
	p.probe(target)

	info, ok := view.Snapshot().Peer("peer-1")
	require.True(t, ok)
	assert.Equal(t, types.PeerStateUp, info.State)
	assert.Equal(t, uint64(101), info.Incarnation)
	assert.WithinDuration(t, time.Now(), info.LastSeen, time.Second)
}
