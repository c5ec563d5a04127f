package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/profile-crawler/internal/repository"
)

func TestLockIsExclusive(t *testing.T) {
	lock := NewLock()
	ctx := context.Background()

	release, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	held, _ := lock.Held(ctx)
	require.True(t, held)

	_, err = lock.TryAcquire(ctx)
	require.ErrorIs(t, err, repository.ErrLockHeld)

	release()
	release() // second call is a no-op
	held, _ = lock.Held(ctx)
	require.False(t, held)

	release, err = lock.TryAcquire(ctx)
	require.NoError(t, err)
	release()
}

func TestLockSingleWinnerUnderContention(t *testing.T) {
	lock := NewLock()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	releases := make(chan func(), 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if release, err := lock.TryAcquire(ctx); err == nil {
				winners.Add(1)
				releases <- release
			}
		}()
	}
	close(start)
	wg.Wait()
	close(releases)

	require.EqualValues(t, 1, winners.Load())
	for release := range releases {
		release()
	}
}
