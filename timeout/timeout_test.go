package timeout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cascadefuture/cascade"
	"github.com/cascadefuture/cascade/pool"
)

func TestWatchCancelsSlowStage(t *testing.T) {
	p := pool.New(1)
	defer p.Shutdown()

	s := cascade.Submit(p, func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			return 1, nil
		}
	})

	Watch(s, 50*time.Millisecond)

	_, err := s.Get()
	require.Error(t, err)
	require.True(t, s.IsCancelled())
}

func TestWatchDoesNotTouchAFastStage(t *testing.T) {
	p := pool.New(1)
	defer p.Shutdown()

	s := cascade.Submit(p, func(ctx context.Context) (int, error) {
		return 9, nil
	})

	stop := Watch(s, 200*time.Millisecond)
	defer stop()

	v, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, 9, v)
	require.False(t, s.IsCancelled())
}
