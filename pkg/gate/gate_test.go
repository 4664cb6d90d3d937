package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/holdfast-io/holdfast/pkg/types"
)

// TestNewGateIsClosed tests the initial state
func TestNewGateIsClosed(t *testing.T) {
	g := New()

	assert.False(t, g.IsOpen())
	assert.Equal(t, types.ServingReasonNotReady, g.Signal().Reason)
	assert.False(t, g.Signal().ChangedAt.IsZero())
}

// TestSet tests signal replacement
func TestSet(t *testing.T) {
	g := New()
	changed := time.Now()

	g.Set(types.ServingSignal{
		Open:      true,
		Reason:    types.ServingReasonForcedOverride,
		ChangedAt: changed,
	})

	assert.True(t, g.IsOpen())
	sig := g.Signal()
	assert.Equal(t, types.ServingReasonForcedOverride, sig.Reason)
	assert.Equal(t, changed, sig.ChangedAt)

	g.Set(types.ServingSignal{Open: false, Reason: types.ServingReasonNotReady})
	assert.False(t, g.IsOpen())
}

// TestConcurrentReads tests lock-free reads under a concurrent writer
func TestConcurrentReads(t *testing.T) {
	g := New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			g.Set(types.ServingSignal{
				Open:   i%2 == 0,
				Reason: types.ServingReasonNormalConvergence,
			})
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 16; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				// A read must always observe a consistent signal
				sig := g.Signal()
				if sig.Open {
					assert.Equal(t, types.ServingReasonNormalConvergence, sig.Reason)
				}
				g.IsOpen()
			}
		}()
	}

	wg.Wait()
	<-done
}
