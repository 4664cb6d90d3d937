package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/holdfast-io/holdfast/pkg/types"
)

// Defaults applied by ApplyDefaults
const (
	DefaultReconcileInterval   = 1 * time.Second
	DefaultMaxQuorumRecoveries = 3
	DefaultFreshnessWindow     = 10 * time.Second
	DefaultMinViablePeers      = 1
	DefaultProbeInterval       = 2 * time.Second
	DefaultProbeTimeout        = 1 * time.Second
	DefaultProbeRetries        = 3
	DefaultHTTPAddr            = ":7070"
)

// ConfigError describes an invalid configuration value. It is the only
// error that crosses the reconciler boundary, and only at construction
// time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// SeedPeer is a seed cluster member, optionally with a dialable address
// for the built-in heartbeat prober
type SeedPeer struct {
	ID   types.PeerID
	Addr string
}

// Config is the full Holdfast node configuration, loaded from YAML at
// process start. There is no runtime reconfiguration and no
// environment-variable behavior branching; everything is validated here,
// fail-fast.
type Config struct {
	NodeID   string `yaml:"node_id"`
	DataDir  string `yaml:"data_dir"`
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`

	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	// MaxQuorumRecoveries bounds how many quorum losses the reconciler
	// recovers from before stopping for good
	MaxQuorumRecoveries int `yaml:"max_quorum_recoveries"`

	Quorum   QuorumConfig   `yaml:"quorum"`
	Override OverrideConfig `yaml:"override"`
	Probe    ProbeConfig    `yaml:"probe"`
	Log      LogConfig      `yaml:"log"`
}

// QuorumConfig configures the convergence policy
type QuorumConfig struct {
	RequiredUp int `yaml:"required_up"`

	// SeedPeers lists seed members as "id" or "id=host:port"
	SeedPeers []string `yaml:"seed_peers"`

	FreshnessWindow time.Duration `yaml:"freshness_window"`
	MinViablePeers  int           `yaml:"min_viable_peers"`
}

// OverrideConfig configures the optional readiness override. Arming is
// only possible through this block; there is no runtime API for it.
type OverrideConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Justification string        `yaml:"justification"`
	TTL           time.Duration `yaml:"ttl"`
}

// ProbeConfig configures the built-in TCP heartbeat prober. When disabled,
// membership updates must arrive through the ingestion API.
type ProbeConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads and validates a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills in unset optional values
func (c *Config) ApplyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = DefaultReconcileInterval
	}
	if c.MaxQuorumRecoveries <= 0 {
		c.MaxQuorumRecoveries = DefaultMaxQuorumRecoveries
	}
	if c.Quorum.FreshnessWindow <= 0 {
		c.Quorum.FreshnessWindow = DefaultFreshnessWindow
	}
	if c.Quorum.MinViablePeers <= 0 {
		c.Quorum.MinViablePeers = DefaultMinViablePeers
	}
	if c.Probe.Interval <= 0 {
		c.Probe.Interval = DefaultProbeInterval
	}
	if c.Probe.Timeout <= 0 {
		c.Probe.Timeout = DefaultProbeTimeout
	}
	if c.Probe.Retries <= 0 {
		c.Probe.Retries = DefaultProbeRetries
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration and returns a ConfigError on the first
// invalid value. Call ApplyDefaults first.
func (c *Config) Validate() error {
	if c.Quorum.RequiredUp <= 0 {
		return &ConfigError{Field: "quorum.required_up", Reason: "must be positive"}
	}

	seeds, err := c.SeedPeers()
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return &ConfigError{Field: "quorum.seed_peers", Reason: "at least one seed peer is required"}
	}
	if c.Quorum.RequiredUp > len(seeds) {
		return &ConfigError{
			Field:  "quorum.required_up",
			Reason: fmt.Sprintf("required %d exceeds seed peer count %d", c.Quorum.RequiredUp, len(seeds)),
		}
	}

	if c.Override.Enabled {
		if strings.TrimSpace(c.Override.Justification) == "" {
			return &ConfigError{Field: "override.justification", Reason: "must not be empty when override is enabled"}
		}
		if c.Override.TTL <= 0 {
			return &ConfigError{Field: "override.ttl", Reason: "must be positive when override is enabled"}
		}
	}

	if c.Probe.Enabled {
		for _, s := range seeds {
			if s.Addr == "" {
				return &ConfigError{
					Field:  "quorum.seed_peers",
					Reason: fmt.Sprintf("peer %q has no address but the probe is enabled (use id=host:port)", s.ID),
				}
			}
		}
	}

	return nil
}

// SeedPeers parses the configured seed peer entries. Each entry is either
// "id" or "id=host:port".
func (c *Config) SeedPeers() ([]SeedPeer, error) {
	peers := make([]SeedPeer, 0, len(c.Quorum.SeedPeers))
	seen := make(map[types.PeerID]bool)

	for _, entry := range c.Quorum.SeedPeers {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var peer SeedPeer
		if id, addr, ok := strings.Cut(entry, "="); ok {
			id = strings.TrimSpace(id)
			addr = strings.TrimSpace(addr)
			if id == "" || addr == "" {
				return nil, &ConfigError{
					Field:  "quorum.seed_peers",
					Reason: fmt.Sprintf("invalid entry %q (expected id=host:port)", entry),
				}
			}
			peer = SeedPeer{ID: types.PeerID(id), Addr: addr}
		} else {
			peer = SeedPeer{ID: types.PeerID(entry)}
		}

		if seen[peer.ID] {
			return nil, &ConfigError{
				Field:  "quorum.seed_peers",
				Reason: fmt.Sprintf("duplicate peer %q", peer.ID),
			}
		}
		seen[peer.ID] = true
		peers = append(peers, peer)
	}

	return peers, nil
}

// Policy builds the quorum policy consumed by the convergence gate
func (c *Config) Policy() (types.QuorumPolicy, error) {
	seeds, err := c.SeedPeers()
	if err != nil {
		return types.QuorumPolicy{}, err
	}

	ids := make([]types.PeerID, 0, len(seeds))
	for _, s := range seeds {
		ids = append(ids, s.ID)
	}

	return types.QuorumPolicy{
		RequiredUp:      c.Quorum.RequiredUp,
		SeedPeers:       ids,
		FreshnessWindow: c.Quorum.FreshnessWindow,
		MinViablePeers:  c.Quorum.MinViablePeers,
	}, nil
}
