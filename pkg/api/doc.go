/*
Package api is the node's front door: the HTTP surface operators and load
balancers talk to, plus a gRPC health mirror for mesh-style probes.

The API never decides anything about readiness. It reads the gate, the
view, and the override, and it feeds observations into the view; the
reconciliation loop remains the single writer of the serving signal.

# Architecture

	load balancer ──► GET /readyz ──────┐
	operators ──────► GET /v1/status ───┤
	Prometheus ─────► GET /metrics ─────┼──► Server (gorilla/mux)
	transports ─────► POST /v1/peers/updates ─┘       │
	                                          reads   │  writes
	                                      ┌───────────┴───────────┐
	                                      ▼                       ▼
	                        gate / view / override / store   View.Ingest

	mesh probes ──► grpc.health.v1.Health ──► GRPCServer ──(mirrors)── gate

# HTTP Routes

	GET  /healthz            liveness, always 200 while the process runs
	GET  /readyz             the serving gate: 200 open, 503 closed
	GET  /metrics            Prometheus exposition
	GET  /v1/status          full node status for `holdfast status`
	GET  /v1/peers           current membership view
	POST /v1/peers/updates   ingest one membership observation
	GET  /v1/audit?limit=N   newest-first audit trail

/readyz is the load-balancer contract. A closed gate answers 503 with the
reason in the body, so a probe failure is distinguishable from a dead
process (which fails /healthz too).

POST /v1/peers/updates answers 200 with applied=false for stale or
regressive updates. Discarding is normal gossip behavior, not a client
error; 400 is reserved for payloads the server cannot parse and updates
without a peer id.

# gRPC Health

GRPCServer registers the standard grpc.health.v1.Health service and
mirrors the gate into its serving status once per second. Clients use the
stock grpc_health_v1 checker; no custom protocol is involved. Polling the
gate instead of subscribing to events keeps the mirror immune to dropped
broker messages; the gate read is a single atomic load.

# Usage

Serving both surfaces:

	srv := api.NewServer(view, ov, g, loop, store, api.Config{
		NodeID:  cfg.NodeID,
		Version: version,
		Policy:  policy,
	})
	go func() {
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	grpcSrv := api.NewGRPCServer(g)
	go grpcSrv.Start(cfg.GRPCAddr)

Feeding an observation from an external transport:

	curl -X POST localhost:7070/v1/peers/updates -d '{
		"id": "peer-2",
		"state": "up",
		"incarnation": 42,
		"timestamp": "2026-08-29T10:00:00Z"
	}'

Graceful shutdown:

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(ctx)
	grpcSrv.Stop()

# Monitoring

Every request increments holdfast_http_requests_total labeled by route
template and status code, so a rising 503 count on /readyz is visible
without log scraping. The /metrics route itself is instrumented too.

# Troubleshooting

/readyz stuck at 503 with reason "not_ready": the loop has not converged
and no override is armed. Check GET /v1/status; its verdict carries the
human-readable reason ("2 of 3 required seed peers up", "1 seed peers
still joining") and the fresh-up counts.

POST /v1/peers/updates always answers applied=false: the incarnation is
not advancing past the stored value, or the update regresses a Removed
peer. GET /v1/peers shows the stored incarnations to compare against.

gRPC health lags the gate by up to a second: that is the mirror interval,
not a defect; HTTP /readyz reads the gate directly when tighter bounds
matter.

# Integration Points

  - pkg/gate: /readyz and the gRPC health status read the signal
  - pkg/membership: /v1/peers reads, /v1/peers/updates writes
  - pkg/convergence: /v1/status evaluates the verdict on demand
  - pkg/storage: /v1/audit reads the persisted trail
  - pkg/metrics: request counters and the /metrics handler
  - pkg/client: the CLI client consumes exactly these routes

# See Also

  - pkg/reconciler for how the serving signal is produced
  - pkg/client for the Go consumer of this surface
*/
package api
