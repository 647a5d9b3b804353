package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledWhenRateNotPositive(t *testing.T) {
	l := New(0, 5)
	assert.Nil(t, l)

	// A nil limiter never blocks.
	require.NoError(t, l.Wait(context.Background()))
	assert.True(t, l.Allow())
	l.Backoff(time.Second)
}

func TestAllow_ConsumesBurst(t *testing.T) {
	l := New(0.001, 2)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestBackoff_BlocksAllow(t *testing.T) {
	l := New(100, 10)
	l.Backoff(time.Hour)

	assert.False(t, l.Allow())
}

func TestWait_RespectsContextDuringBackoff(t *testing.T) {
	l := New(100, 10)
	l.Backoff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWait_PassesWithinBurst(t *testing.T) {
	l := New(1, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
}
