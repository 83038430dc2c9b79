package circuit_breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errService = errors.New("service error")

func ok() error   { return nil }
func fail() error { return errService }

func newTestBreaker(cfg Config) (*breaker, *time.Time) {
	b := New(cfg).(*breaker)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func Test_breaker_Call(t *testing.T) {
	t.Parallel()
	cfg := Config{Window: 10, Threshold: 0.3, Cooldown: 2 * time.Second, Probes: 3}

	t.Run("stays closed under threshold", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBreaker(cfg)
		for i := 0; i < 80; i++ {
			require.NoError(t, b.Call(ok))
		}
		require.ErrorIs(t, b.Call(fail), errService)
		require.ErrorIs(t, b.Call(fail), errService)
		require.Equal(t, Closed, b.State())
	})

	t.Run("opens, probes and closes", func(t *testing.T) {
		t.Parallel()
		b, clock := newTestBreaker(cfg)
		for i := 0; i < 3; i++ {
			require.ErrorIs(t, b.Call(fail), errService)
		}
		require.Equal(t, Open, b.State())

		called := false
		err := b.Call(func() error { called = true; return nil })
		require.ErrorIs(t, err, ErrOpen)
		require.False(t, called)

		*clock = clock.Add(3 * time.Second)
		for i := 0; i < 2; i++ {
			require.NoError(t, b.Call(ok))
			require.Equal(t, HalfOpen, b.State())
		}
		require.NoError(t, b.Call(ok))
		require.Equal(t, Closed, b.State())
	})

	t.Run("half-open failure reopens", func(t *testing.T) {
		t.Parallel()
		b, clock := newTestBreaker(cfg)
		for i := 0; i < 3; i++ {
			_ = b.Call(fail)
		}
		*clock = clock.Add(3 * time.Second)
		require.NoError(t, b.Call(ok))
		require.ErrorIs(t, b.Call(fail), errService)
		require.Equal(t, Open, b.State())
		require.ErrorIs(t, b.Call(ok), ErrOpen)
	})

	t.Run("ignored errors do not count", func(t *testing.T) {
		t.Parallel()
		ignoring := cfg
		ignoring.Ignore = func(err error) bool { return errors.Is(err, context.Canceled) }
		b, _ := newTestBreaker(ignoring)
		for i := 0; i < 10; i++ {
			require.ErrorIs(t, b.Call(func() error { return context.Canceled }), context.Canceled)
		}
		require.Equal(t, Closed, b.State())
	})

	t.Run("old failures leave the window", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBreaker(Config{Window: 4, Threshold: 0.5, Cooldown: time.Second, Probes: 1})
		_ = b.Call(fail)
		for i := 0; i < 4; i++ {
			require.NoError(t, b.Call(ok))
		}
		_ = b.Call(fail)
		require.Equal(t, Closed, b.State())
		require.Equal(t, 1, b.fails)
	})
}
