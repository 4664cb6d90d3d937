package override

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holdfast-io/holdfast/pkg/config"
	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/metrics"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// Override encapsulates the explicit, operator-controlled decision to
// bypass the convergence gate. It is created only from configuration at
// process start; nothing arms one implicitly.
type Override struct {
	mu       sync.Mutex
	decision types.OverrideDecision
	logger   zerolog.Logger
}

// Arm creates an armed override. It fails with a ConfigError if the
// justification is empty or the ttl is not positive: forced readiness is a
// safety-relevant deviation and must be documented.
//
// Every arm emits a warning-level structured log. That is mandatory, not
// optional.
func Arm(justification string, ttl time.Duration, now time.Time) (*Override, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, &config.ConfigError{Field: "override.justification", Reason: "must not be empty"}
	}
	if ttl <= 0 {
		return nil, &config.ConfigError{Field: "override.ttl", Reason: "must be positive"}
	}

	o := &Override{
		decision: types.OverrideDecision{
			ID:            uuid.New().String(),
			Armed:         true,
			ArmedAt:       now,
			ExpiresAt:     now.Add(ttl),
			Justification: justification,
		},
		logger: log.WithComponent("override"),
	}

	o.logger.Warn().
		Str("override_id", o.decision.ID).
		Str("justification", justification).
		Dur("ttl", ttl).
		Time("expires_at", o.decision.ExpiresAt).
		Msg("readiness override armed: node may serve before convergence")

	metrics.OverrideActive.Set(1)
	return o, nil
}

// IsActive reports whether the override is armed and unexpired. A nil
// override is never active.
func (o *Override) IsActive(now time.Time) bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.decision.Armed && now.Before(o.decision.ExpiresAt)
}

// Decision returns a read-only copy of the current decision
func (o *Override) Decision() types.OverrideDecision {
	if o == nil {
		return types.OverrideDecision{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.decision
}

// Revoke disarms the override after its TTL elapsed without convergence.
// This is the designed fail-safe, logged as a warning.
func (o *Override) Revoke(now time.Time) {
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.decision.Armed {
		return
	}
	o.decision.Armed = false

	o.logger.Warn().
		Str("override_id", o.decision.ID).
		Time("armed_at", o.decision.ArmedAt).
		Msg("readiness override expired without convergence, revoking forced serving")

	metrics.OverrideActive.Set(0)
	metrics.OverrideExpirations.Inc()
}

// Retire disarms the override because real convergence was reached. The
// forced state is no longer needed; this is logged at info level.
func (o *Override) Retire(now time.Time) {
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.decision.Armed {
		return
	}
	o.decision.Armed = false

	o.logger.Info().
		Str("override_id", o.decision.ID).
		Dur("forced_for", now.Sub(o.decision.ArmedAt)).
		Msg("convergence reached, readiness override no longer needed")

	metrics.OverrideActive.Set(0)
}
