package probe

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdfast-io/holdfast/pkg/events"
	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/membership"
	"github.com/holdfast-io/holdfast/pkg/metrics"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// Target is a peer the prober heartbeats
type Target struct {
	ID   types.PeerID
	Addr string
}

// Config controls probing behavior
type Config struct {
	// Interval is the time between probe rounds
	Interval time.Duration

	// Timeout is the per-connection dial timeout
	Timeout time.Duration

	// Retries is the number of consecutive failures before a peer is
	// reported Unreachable
	Retries int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval: 2 * time.Second,
		Timeout:  1 * time.Second,
		Retries:  3,
	}
}

// peerStatus tracks consecutive probe outcomes for one target
type peerStatus struct {
	consecutiveFailures int
	reported            types.PeerState
	incarnation         uint64
}

// Prober is a minimal built-in transport: it dials seed peers on an
// interval and feeds Up/Unreachable observations into the membership
// view. Real gossip substrates replace it by calling View.Ingest directly.
//
// The prober is the local observer, so it owns the incarnation counter for
// the peers it watches: every observation bumps the counter, which keeps
// last-seen timestamps fresh while preserving the view's monotonicity
// rule.
type Prober struct {
	view    *membership.View
	broker  *events.Broker
	targets []Target
	config  Config

	mu       sync.Mutex
	statuses map[types.PeerID]*peerStatus

	logger   zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewProber creates a prober for the given targets. The broker may be nil.
//
// Counters resume from the view's current incarnations, so a peer restored
// from disk does not outrank the fresh observations made after a restart.
func NewProber(view *membership.View, broker *events.Broker, targets []Target, config Config) *Prober {
	snap := view.Snapshot()
	statuses := make(map[types.PeerID]*peerStatus, len(targets))
	for _, t := range targets {
		status := &peerStatus{reported: types.PeerStateJoining}
		if info, ok := snap.Peer(t.ID); ok {
			status.reported = info.State
			status.incarnation = info.Incarnation
		}
		statuses[t.ID] = status
	}
	return &Prober{
		view:     view,
		broker:   broker,
		targets:  targets,
		config:   config,
		statuses: statuses,
		logger:   log.WithComponent("probe"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the probe loop
func (p *Prober) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop stops the prober and waits for in-flight probes to finish
func (p *Prober) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *Prober) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Probe immediately on start
	p.probeAll()

	for {
		select {
		case <-ticker.C:
			p.probeAll()
		case <-p.stopCh:
			return
		}
	}
}

// probeAll probes every target concurrently and waits for the round to
// complete
func (p *Prober) probeAll() {
	var wg sync.WaitGroup
	for _, target := range p.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			p.probe(t)
		}(target)
	}
	wg.Wait()
}

func (p *Prober) probe(target Target) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: p.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.Addr)
	if err == nil {
		conn.Close()
		metrics.ProbesTotal.WithLabelValues("success").Inc()
		p.observe(target, true)
		return
	}

	metrics.ProbesTotal.WithLabelValues("failure").Inc()
	p.logger.Debug().
		Str("peer_id", target.ID.String()).
		Str("addr", target.Addr).
		Err(err).
		Msg("peer probe failed")
	p.observe(target, false)
}

// observe folds one probe outcome into the peer's status and reports the
// assessed state to the membership view
func (p *Prober) observe(target Target, success bool) {
	p.mu.Lock()
	status := p.statuses[target.ID]

	if success {
		status.consecutiveFailures = 0
	} else {
		status.consecutiveFailures++
	}

	assessed := status.reported
	switch {
	case success:
		assessed = types.PeerStateUp
	case status.consecutiveFailures >= p.config.Retries:
		assessed = types.PeerStateUnreachable
	}

	changed := assessed != status.reported
	status.reported = assessed
	status.incarnation++
	incarnation := status.incarnation
	p.mu.Unlock()

	// A failed probe below the retry threshold refreshes nothing: the
	// peer's previous state simply goes stale on its own
	if !success && assessed != types.PeerStateUnreachable {
		return
	}

	p.view.Ingest(types.MembershipUpdate{
		ID:          target.ID,
		Addr:        target.Addr,
		State:       assessed,
		Incarnation: incarnation,
		Timestamp:   time.Now(),
	})

	if changed && p.broker != nil {
		eventType := events.EventPeerUp
		if assessed == types.PeerStateUnreachable {
			eventType = events.EventPeerUnreachable
		}
		p.broker.Publish(events.New(eventType, "peer "+target.ID.String()+" is "+string(assessed), map[string]string{
			"peer_id": target.ID.String(),
			"addr":    target.Addr,
		}))
	}

	if changed {
		p.logger.Info().
			Str("peer_id", target.ID.String()).
			Str("state", string(assessed)).
			Msg("peer state changed")
	}
}
