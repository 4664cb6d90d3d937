/*
Package config loads and validates Holdfast's YAML configuration.

Configuration is static: it is read once at process start, defaults are
applied, and every value is validated fail-fast. An invalid value surfaces
as a ConfigError naming the offending field; nothing silently defaults to a
safety-relevant behavior. In particular, the readiness override can only be
armed from this file, never implicitly, and arming requires both a
justification and a positive TTL.

# Configuration File

	node_id: node-1
	data_dir: /var/lib/holdfast
	http_addr: ":7070"
	grpc_addr: ":7071"
	reconcile_interval: 1s

	quorum:
	  required_up: 2
	  seed_peers:
	    - peer-1=10.0.0.1:7070
	    - peer-2=10.0.0.2:7070
	    - peer-3=10.0.0.3:7070
	  freshness_window: 10s
	  min_viable_peers: 1

	override:
	  enabled: true
	  justification: "dev-mode: single node bring-up"
	  ttl: 60s

	probe:
	  enabled: true
	  interval: 2s
	  timeout: 1s
	  retries: 3

	log:
	  level: info
	  json: true

Seed peers are written as "id" or "id=host:port". Addresses are mandatory
only when the built-in prober is enabled, since it has to dial them.

# Validation Rules

  - quorum.required_up must be positive and at most the seed peer count
  - at least one seed peer, no duplicates
  - override.justification must be non-empty when enabled
  - override.ttl must be positive when enabled
  - probe requires every seed peer to carry an address

# Usage

	cfg, err := config.Load("/etc/holdfast/holdfast.yaml")
	if err != nil {
		// typed: errors.As(err, &configErr) for field detail
		log.Fatal(err.Error())
	}
	policy, _ := cfg.Policy()

# See Also

  - pkg/convergence: consumes the QuorumPolicy built here
  - pkg/override: armed from the override block at startup
*/
package config
