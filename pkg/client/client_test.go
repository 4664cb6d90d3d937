package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdfast-io/holdfast/pkg/api"
	"github.com/holdfast-io/holdfast/pkg/gate"
	"github.com/holdfast-io/holdfast/pkg/membership"
	"github.com/holdfast-io/holdfast/pkg/types"
)

func startTestNode(t *testing.T) (*Client, *membership.View, *gate.Gate) {
	t.Helper()
	view := membership.NewView()
	g := gate.New()
	srv := api.NewServer(view, nil, g, nil, nil, api.Config{
		NodeID: "node-1",
		Policy: types.QuorumPolicy{
			RequiredUp:      1,
			SeedPeers:       []types.PeerID{"p1"},
			FreshnessWindow: 10 * time.Second,
			MinViablePeers:  1,
		},
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL), view, g
}

func TestStatus(t *testing.T) {
	c, view, _ := startTestNode(t)
	view.Ingest(types.MembershipUpdate{ID: "p1", State: types.PeerStateUp, Incarnation: 1, Timestamp: time.Now()})

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "node-1", status.NodeID)
	assert.Equal(t, types.VerdictConverged, status.Verdict.Kind)
	assert.Equal(t, 1, status.Peers)
}

func TestReady(t *testing.T) {
	c, _, g := startTestNode(t)

	ready, err := c.Ready(context.Background())
	require.NoError(t, err)
	assert.False(t, ready.Ready)

	g.Set(types.ServingSignal{Open: true, Reason: types.ServingReasonNormalConvergence})

	ready, err = c.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ready.Ready)
	assert.Equal(t, types.ServingReasonNormalConvergence, ready.Reason)
}

func TestReportUpdate(t *testing.T) {
	c, view, _ := startTestNode(t)

	applied, err := c.ReportUpdate(context.Background(), types.MembershipUpdate{
		ID:          "p1",
		State:       types.PeerStateUp,
		Incarnation: 3,
		Timestamp:   time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, view.Len())
}

func TestUnreachableNode(t *testing.T) {
	c := NewClient("127.0.0.1:1")
	_, err := c.Status(context.Background())
	assert.Error(t, err)
}
