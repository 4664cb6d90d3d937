package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdfast-io/holdfast/pkg/types"
)

func validConfig() *Config {
	cfg := &Config{
		NodeID: "node-1",
		Quorum: QuorumConfig{
			RequiredUp: 2,
			SeedPeers:  []string{"peer-1=10.0.0.1:7070", "peer-2=10.0.0.2:7070", "peer-3=10.0.0.3:7070"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// TestValidate tests fail-fast validation of the configuration
func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "required_up zero",
			mutate:    func(c *Config) { c.Quorum.RequiredUp = 0 },
			wantField: "quorum.required_up",
		},
		{
			name:      "required_up exceeds seeds",
			mutate:    func(c *Config) { c.Quorum.RequiredUp = 4 },
			wantField: "quorum.required_up",
		},
		{
			name:      "no seed peers",
			mutate:    func(c *Config) { c.Quorum.SeedPeers = nil },
			wantField: "quorum.seed_peers",
		},
		{
			name:      "duplicate seed peer",
			mutate:    func(c *Config) { c.Quorum.SeedPeers = append(c.Quorum.SeedPeers, "peer-1") },
			wantField: "quorum.seed_peers",
		},
		{
			name: "override enabled without justification",
			mutate: func(c *Config) {
				c.Override = OverrideConfig{Enabled: true, Justification: "   ", TTL: time.Minute}
			},
			wantField: "override.justification",
		},
		{
			name: "override enabled with zero ttl",
			mutate: func(c *Config) {
				c.Override = OverrideConfig{Enabled: true, Justification: "dev-mode"}
			},
			wantField: "override.ttl",
		},
		{
			name: "probe enabled but seed has no address",
			mutate: func(c *Config) {
				c.Probe.Enabled = true
				c.Quorum.SeedPeers = []string{"peer-1"}
				c.Quorum.RequiredUp = 1
			},
			wantField: "quorum.seed_peers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

// TestSeedPeers tests seed peer entry parsing
func TestSeedPeers(t *testing.T) {
	cfg := validConfig()
	cfg.Quorum.SeedPeers = []string{"peer-1=10.0.0.1:7070", "  peer-2  ", ""}

	peers, err := cfg.SeedPeers()
	require.NoError(t, err)
	require.Len(t, peers, 2)

	assert.Equal(t, types.PeerID("peer-1"), peers[0].ID)
	assert.Equal(t, "10.0.0.1:7070", peers[0].Addr)
	assert.Equal(t, types.PeerID("peer-2"), peers[1].ID)
	assert.Empty(t, peers[1].Addr)
}

// TestSeedPeersInvalid tests rejection of malformed entries
func TestSeedPeersInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Quorum.SeedPeers = []string{"peer-1="}

	_, err := cfg.SeedPeers()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "quorum.seed_peers", cfgErr.Field)
}

// TestApplyDefaults tests default values
func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultReconcileInterval, cfg.ReconcileInterval)
	assert.Equal(t, DefaultMaxQuorumRecoveries, cfg.MaxQuorumRecoveries)
	assert.Equal(t, DefaultFreshnessWindow, cfg.Quorum.FreshnessWindow)
	assert.Equal(t, DefaultMinViablePeers, cfg.Quorum.MinViablePeers)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultProbeInterval, cfg.Probe.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestLoad tests loading a config file end to end
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holdfast.yaml")

	data := `
node_id: node-1
reconcile_interval: 500ms
max_quorum_recoveries: 5
quorum:
  required_up: 2
  seed_peers:
    - peer-1=10.0.0.1:7070
    - peer-2=10.0.0.2:7070
    - peer-3=10.0.0.3:7070
  freshness_window: 5s
override:
  enabled: true
  justification: dev-mode
  ttl: 60s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "node-1", cfg.NodeID)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconcileInterval)
	assert.Equal(t, 5, cfg.MaxQuorumRecoveries)
	assert.Equal(t, 5*time.Second, cfg.Quorum.FreshnessWindow)
	assert.True(t, cfg.Override.Enabled)
	assert.Equal(t, "dev-mode", cfg.Override.Justification)
	assert.Equal(t, time.Minute, cfg.Override.TTL)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 2, policy.RequiredUp)
	assert.Len(t, policy.SeedPeers, 3)
}

// TestLoadInvalid tests that invalid files fail fast
func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holdfast.yaml")

	// Override enabled but no justification
	data := `
quorum:
  required_up: 1
  seed_peers: [peer-1]
override:
  enabled: true
  ttl: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := Load(path)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "override.justification", cfgErr.Field)
}
