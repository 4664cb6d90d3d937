/*
Package events provides pub/sub distribution of readiness and membership
events.

The Broker decouples event producers (the reconciliation loop, the
membership view) from consumers (the gRPC health mirror, embedders that
want to react to gate changes). Producers publish without blocking;
subscribers each get a buffered channel, and a subscriber that falls behind
is skipped rather than allowed to stall the broker.

# Event Types

Peer lifecycle:
  - peer.up, peer.unreachable, peer.down

Readiness control:
  - override.armed, override.expired
  - serving.opened, serving.closed
  - state.transition: every loop transition, carrying old state, new
    state, and the triggering verdict in metadata
  - quorum.lost: catastrophic membership loss while serving converged

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for ev := range sub {
			fmt.Println(ev.Type, ev.Message)
		}
	}()

	broker.Publish(events.New(events.EventServingOpened, "gate opened", nil))

# Delivery Guarantees

Delivery is best-effort per subscriber: the broker never blocks on a full
subscriber buffer. Consumers that need a complete record use the persisted
audit trail in pkg/storage instead.
*/
package events
