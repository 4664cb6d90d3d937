package gate

import (
	"sync/atomic"
	"time"

	"github.com/holdfast-io/holdfast/pkg/metrics"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// Gate is the single read point the request-handling front door consults
// before accepting work. Reads are lock-free and safe from any number of
// concurrent request paths.
//
// Only the reconciliation loop writes the gate. Request-handling code must
// never call Set.
type Gate struct {
	signal atomic.Pointer[types.ServingSignal]
}

// New creates a closed gate
func New() *Gate {
	g := &Gate{}
	g.Set(types.ServingSignal{
		Open:   false,
		Reason: types.ServingReasonNotReady,
	})
	return g
}

// IsOpen reports whether the node is currently accepting work
func (g *Gate) IsOpen() bool {
	return g.signal.Load().Open
}

// Signal returns the latest serving signal
func (g *Gate) Signal() types.ServingSignal {
	return *g.signal.Load()
}

// Set atomically replaces the serving signal. Called only by the
// reconciliation loop.
func (g *Gate) Set(signal types.ServingSignal) {
	if signal.ChangedAt.IsZero() {
		signal.ChangedAt = time.Now()
	}
	g.signal.Store(&signal)

	if signal.Open {
		metrics.ServingOpen.Set(1)
	} else {
		metrics.ServingOpen.Set(0)
	}
	for _, reason := range []types.ServingReason{
		types.ServingReasonNormalConvergence,
		types.ServingReasonForcedOverride,
		types.ServingReasonNotReady,
	} {
		v := 0.0
		if reason == signal.Reason {
			v = 1.0
		}
		metrics.ServingReason.WithLabelValues(string(reason)).Set(v)
	}
}
