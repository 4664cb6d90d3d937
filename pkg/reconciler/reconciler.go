package reconciler

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holdfast-io/holdfast/pkg/convergence"
	"github.com/holdfast-io/holdfast/pkg/events"
	"github.com/holdfast-io/holdfast/pkg/gate"
	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/membership"
	"github.com/holdfast-io/holdfast/pkg/metrics"
	"github.com/holdfast-io/holdfast/pkg/override"
	"github.com/holdfast-io/holdfast/pkg/storage"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// State is the reconciliation loop state
type State string

const (
	StateWaitingForConvergence State = "waiting_for_convergence"
	StateServingForced         State = "serving_forced"
	StateServingConverged      State = "serving_converged"
	StateStopped               State = "stopped"
)

// Config controls the reconciliation loop
type Config struct {
	// Interval between reconciliation cycles (default: 1s)
	Interval time.Duration

	// Policy is the convergence policy evaluated each cycle
	Policy types.QuorumPolicy

	// MaxQuorumRecoveries bounds how many catastrophic quorum losses the
	// loop will try to recover from before stopping for good (default: 3)
	MaxQuorumRecoveries int
}

// Loop is the only stateful, long-running component of Holdfast. Each
// tick it snapshots the membership view, evaluates convergence, applies
// the override policy, and atomically publishes the resulting serving
// signal. It is the single writer of the serving gate.
type Loop struct {
	view     *membership.View
	override *override.Override // nil when no override is configured
	gate     *gate.Gate
	broker   *events.Broker // nil disables event publication
	store    storage.Store  // nil disables persistence
	config   Config
	logger   zerolog.Logger

	mu           sync.Mutex
	state        State
	quorumLosses int
	holdUntil    time.Time // recovery pacing after quorum loss

	recoveryWait *backoff.ExponentialBackOff
	nowFn        func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoop creates a reconciliation loop. The override may be nil; the
// broker and store may be nil to disable events and persistence.
func NewLoop(view *membership.View, ov *override.Override, g *gate.Gate, broker *events.Broker, store storage.Store, config Config) *Loop {
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.MaxQuorumRecoveries <= 0 {
		config.MaxQuorumRecoveries = 3
	}

	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = 2 * config.Interval
	wait.MaxInterval = 30 * time.Second
	wait.MaxElapsedTime = 0 // the recovery count is the bound, not time
	wait.Reset()

	return &Loop{
		view:         view,
		override:     ov,
		gate:         g,
		broker:       broker,
		store:        store,
		config:       config,
		logger:       log.WithComponent("reconciler"),
		state:        StateWaitingForConvergence,
		recoveryWait: wait,
		nowFn:        time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop stops the loop. The in-flight cycle finishes first; the loop then
// transitions to Stopped, closes the serving gate, and returns.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	l.wg.Wait()
}

// State returns the current loop state
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// run is the main reconciliation loop. Cycles run synchronously in this
// goroutine, so observing stopCh between ticks guarantees no cycle is cut
// short.
func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	// Reconcile immediately on start
	l.reconcile()

	for {
		select {
		case <-ticker.C:
			l.reconcile()
		case <-l.stopCh:
			l.shutdown()
			return
		}
	}
}

// reconcile performs one reconciliation cycle
func (l *Loop) reconcile() {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconcileDuration)
		metrics.ReconcileCyclesTotal.Inc()
	}()

	now := l.nowFn()
	snap := l.view.Snapshot()
	l.updatePeerMetrics(snap)
	l.persistPeers(snap)

	verdict := convergence.Evaluate(snap, l.config.Policy, now)

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateWaitingForConvergence:
		l.reconcileWaiting(verdict, now)
	case StateServingForced:
		l.reconcileForced(verdict, now)
	case StateServingConverged:
		l.reconcileConverged(snap, verdict, now)
	case StateStopped:
		// Terminal; only a process restart leaves this state
	}
}

func (l *Loop) reconcileWaiting(verdict types.Verdict, now time.Time) {
	if verdict.Converged() {
		// An armed-but-unnecessary override must not change the reported
		// reason: convergence always wins
		l.override.Retire(now)
		l.quorumLosses = 0
		l.recoveryWait.Reset()
		l.holdUntil = time.Time{}
		l.transition(StateServingConverged, verdict, now, types.ServingSignal{
			Open:      true,
			Reason:    types.ServingReasonNormalConvergence,
			ChangedAt: now,
		})
		return
	}

	// Recovery pacing after a quorum loss
	if !l.holdUntil.IsZero() && now.Before(l.holdUntil) {
		return
	}

	if l.override.IsActive(now) {
		decision := l.override.Decision()
		l.logger.Warn().
			Str("verdict", string(verdict.Kind)).
			Str("justification", decision.Justification).
			Time("expires_at", decision.ExpiresAt).
			Msg("serving forced open before convergence")
		l.audit(types.AuditOverrideArmed, "serving forced open before convergence", map[string]string{
			"justification": decision.Justification,
			"verdict":       string(verdict.Kind),
		}, now)
		l.transition(StateServingForced, verdict, now, types.ServingSignal{
			Open:      true,
			Reason:    types.ServingReasonForcedOverride,
			ChangedAt: now,
		})
	}
}

func (l *Loop) reconcileForced(verdict types.Verdict, now time.Time) {
	if verdict.Converged() {
		// Demotion of the override is silent for callers; the reason
		// simply becomes NormalConvergence
		l.override.Retire(now)
		l.transition(StateServingConverged, verdict, now, types.ServingSignal{
			Open:      true,
			Reason:    types.ServingReasonNormalConvergence,
			ChangedAt: now,
		})
		return
	}

	if !l.override.IsActive(now) {
		// Fail-safe: the grace period elapsed without convergence
		l.override.Revoke(now)
		l.audit(types.AuditOverrideExpired, "override expired without convergence", map[string]string{
			"verdict": string(verdict.Kind),
		}, now)
		if l.broker != nil {
			l.broker.Publish(events.New(events.EventOverrideExpired, "override expired without convergence", map[string]string{
				"verdict": string(verdict.Kind),
			}))
		}
		l.transition(StateWaitingForConvergence, verdict, now, types.ServingSignal{
			Open:      false,
			Reason:    types.ServingReasonNotReady,
			ChangedAt: now,
		})
	}
}

func (l *Loop) reconcileConverged(snap types.MembershipSnapshot, verdict types.Verdict, now time.Time) {
	if !convergence.BelowViableFloor(snap, l.config.Policy, now) {
		return
	}

	l.quorumLosses++
	l.logger.Error().
		Int("quorum_losses", l.quorumLosses).
		Int("max_recoveries", l.config.MaxQuorumRecoveries).
		Int("fresh_up", snap.CountFreshUp(now, l.config.Policy.FreshnessWindow)).
		Int("min_viable", l.config.Policy.MinViablePeers).
		Msg("catastrophic membership loss while serving converged")
	l.audit(types.AuditQuorumLost, "membership dropped below minimum viable peer count", map[string]string{
		"verdict": string(verdict.Kind),
	}, now)
	if l.broker != nil {
		l.broker.Publish(events.New(events.EventQuorumLost, "membership dropped below minimum viable peer count", nil))
	}

	if l.quorumLosses > l.config.MaxQuorumRecoveries {
		l.logger.Error().Msg("quorum recovery attempts exhausted, stopping; operator intervention required")
		l.transition(StateStopped, verdict, now, types.ServingSignal{
			Open:      false,
			Reason:    types.ServingReasonNotReady,
			ChangedAt: now,
		})
		return
	}

	l.holdUntil = now.Add(l.recoveryWait.NextBackOff())
	l.transition(StateWaitingForConvergence, verdict, now, types.ServingSignal{
		Open:      false,
		Reason:    types.ServingReasonNotReady,
		ChangedAt: now,
	})
}

// transition atomically updates the serving signal and records the state
// change. Callers hold l.mu.
func (l *Loop) transition(to State, verdict types.Verdict, now time.Time, signal types.ServingSignal) {
	from := l.state
	if from == to {
		return
	}
	l.state = to

	wasOpen := l.gate.IsOpen()
	l.gate.Set(signal)

	l.logger.Info().
		Str("from", string(from)).
		Str("to", string(to)).
		Str("verdict", string(verdict.Kind)).
		Str("reason", string(signal.Reason)).
		Bool("open", signal.Open).
		Msg("reconciler state transition")
	metrics.StateTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()

	meta := map[string]string{
		"from":    string(from),
		"to":      string(to),
		"verdict": string(verdict.Kind),
		"reason":  string(signal.Reason),
	}
	l.audit(types.AuditTransition, "reconciler state transition", meta, now)

	if l.broker != nil {
		l.broker.Publish(events.New(events.EventStateTransition, "reconciler state transition", meta))
		if signal.Open && !wasOpen {
			l.broker.Publish(events.New(events.EventServingOpened, "serving gate opened", map[string]string{
				"reason": string(signal.Reason),
			}))
		}
		if !signal.Open && wasOpen {
			l.broker.Publish(events.New(events.EventServingClosed, "serving gate closed", map[string]string{
				"reason": string(signal.Reason),
			}))
		}
	}
}

// shutdown runs after the last full cycle on graceful stop
func (l *Loop) shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	l.transition(StateStopped, types.Verdict{Kind: types.VerdictPending, Reason: "shutting down"}, now, types.ServingSignal{
		Open:      false,
		Reason:    types.ServingReasonNotReady,
		ChangedAt: now,
	})
	l.logger.Info().Msg("reconciler stopped")
}

func (l *Loop) updatePeerMetrics(snap types.MembershipSnapshot) {
	counts := map[types.PeerState]int{
		types.PeerStateJoining:     0,
		types.PeerStateUp:          0,
		types.PeerStateUnreachable: 0,
		types.PeerStateDown:        0,
		types.PeerStateRemoved:     0,
	}
	for _, p := range snap.Peers {
		counts[p.State]++
	}
	for state, count := range counts {
		metrics.PeersTotal.WithLabelValues(string(state)).Set(float64(count))
	}
}

func (l *Loop) persistPeers(snap types.MembershipSnapshot) {
	if l.store == nil {
		return
	}
	for _, p := range snap.Peers {
		peer := p
		if err := l.store.SavePeer(&peer); err != nil {
			l.logger.Error().Err(err).Str("peer_id", p.ID.String()).Msg("failed to persist peer record")
			return
		}
	}
}

func (l *Loop) audit(kind, message string, fields map[string]string, now time.Time) {
	if l.store == nil {
		return
	}
	err := l.store.AppendAudit(&types.AuditRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		Timestamp: now,
		Message:   message,
		Fields:    fields,
	})
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to append audit record")
	}
}
