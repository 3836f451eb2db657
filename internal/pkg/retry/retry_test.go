package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{Retries: 3, ZeroDelay: true}, func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	var notified []int
	p := Policy{
		Retries:   3,
		ZeroDelay: true,
		OnRetry:   func(n int, _ error) { notified = append(notified, n) },
	}
	err := Do(context.Background(), p, func() error {
		attempts++
		if attempts < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{Retries: 3, ZeroDelay: true}, func() error {
		attempts++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	// retries=3 means at most 4 total attempts
	assert.Equal(t, 4, attempts)
}

func TestDo_ZeroRetries_SingleAttempt(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{ZeroDelay: true}, func() error {
		attempts++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, attempts)
}

func TestDo_PredicateVetoesRetry(t *testing.T) {
	attempts := 0
	p := Policy{
		Retries:   5,
		ZeroDelay: true,
		Retryable: func(err error) bool { return !errors.Is(err, errBoom) },
	}
	err := Do(context.Background(), p, func() error {
		attempts++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Policy{Retries: 1, BaseDelay: time.Hour}, func() error {
		return errBoom
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_DelaySchedule(t *testing.T) {
	p := Policy{Retries: 3, BaseDelay: time.Second}
	assert.Equal(t, time.Second, p.delay(0))
	assert.Equal(t, 2*time.Second, p.delay(1))
	assert.Equal(t, 4*time.Second, p.delay(2))

	var total time.Duration
	for i := 0; i < p.Retries; i++ {
		total += p.delay(i)
	}
	assert.Equal(t, 7*time.Second, total)
}

func TestCall_ReturnsValue(t *testing.T) {
	attempts := 0
	got, err := Call(context.Background(), Policy{Retries: 2, ZeroDelay: true}, func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", errBoom
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, attempts)
}

func TestCall_PropagatesLastError(t *testing.T) {
	got, err := Call(context.Background(), Policy{Retries: 1, ZeroDelay: true}, func() (int, error) {
		return 0, errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, got)
}
