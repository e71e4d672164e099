package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelayExponentialWithCap(t *testing.T) {
	t.Parallel()

	p := Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, p.Delay(1, 0))
	assert.Equal(t, 2*time.Second, p.Delay(2, 0))
	assert.Equal(t, 4*time.Second, p.Delay(3, 0))
	assert.Equal(t, 5*time.Second, p.Delay(4, 0))
	assert.Equal(t, 5*time.Second, p.Delay(30, 0))
}

func TestPolicyDelayFixed(t *testing.T) {
	t.Parallel()

	p := Policy{BaseDelay: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, p.Delay(1, 0))
	assert.Equal(t, 500*time.Millisecond, p.Delay(7, 0))
}

func TestPolicyDelayHonoursHint(t *testing.T) {
	t.Parallel()

	p := Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2}
	assert.Equal(t, 12*time.Second, p.Delay(1, 12*time.Second))
	assert.Equal(t, 30*time.Second, p.Delay(1, 90*time.Second))
}

func TestBudgetStopsAtMaxRetries(t *testing.T) {
	t.Parallel()

	b := NewBudget(Policy{MaxRetries: 3, BaseDelay: time.Second})

	for i := 0; i < 3; i++ {
		d, ok := b.Next(0)
		require.True(t, ok, "retry %d should be granted", i+1)
		assert.Equal(t, time.Second, d)
	}

	_, ok := b.Next(0)
	assert.False(t, ok)
	assert.Equal(t, 3, b.Retries())
}

func TestBudgetStopsAtMaxElapsed(t *testing.T) {
	t.Parallel()

	b := NewBudget(Policy{MaxRetries: 10, BaseDelay: 4 * time.Second, MaxElapsed: 10 * time.Second})

	_, ok := b.Next(0)
	require.True(t, ok)
	_, ok = b.Next(0)
	require.True(t, ok)
	_, ok = b.Next(0)
	assert.False(t, ok, "third wait would exceed the elapsed cap")
}

func TestTimerSleeperCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := TimerSleeper{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
