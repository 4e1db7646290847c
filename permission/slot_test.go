package permission

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingSlot_ArmOnce(t *testing.T) {
	var s pendingSlot

	assert.True(t, s.arm(1, func(bool) {}))
	assert.False(t, s.arm(1, func(bool) {}), "second arm must be refused")
	assert.True(t, s.armed())
}

func TestPendingSlot_ResolveIfMatch(t *testing.T) {
	var s pendingSlot
	var got []bool
	s.arm(7, func(g bool) { got = append(got, g) })

	assert.False(t, s.resolveIfMatch(8, true), "wrong code")
	assert.True(t, s.resolveIfMatch(7, true))
	assert.False(t, s.resolveIfMatch(7, false), "slot already cleared")

	assert.Equal(t, []bool{true}, got)
	assert.False(t, s.armed())
}

func TestPendingSlot_ResolverCanRearm(t *testing.T) {
	var s pendingSlot
	s.arm(1, func(bool) {
		// runs outside the lock, so re-arming from inside must not deadlock
		s.arm(1, func(bool) {})
	})

	assert.True(t, s.resolveIfMatch(1, true))
	assert.True(t, s.armed())
}

func TestPendingSlot_Abandon(t *testing.T) {
	var s pendingSlot
	called := false
	s.arm(1, func(bool) { called = true })

	assert.True(t, s.abandon())
	assert.False(t, s.abandon())
	assert.False(t, s.resolveIfMatch(1, true))
	assert.False(t, called)
}

func TestPendingSlot_ConcurrentResolveExactlyOnce(t *testing.T) {
	for range 50 {
		var s pendingSlot
		var calls atomic.Int32
		s.arm(3, func(bool) { calls.Add(1) })

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.resolveIfMatch(3, true)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	}
}
