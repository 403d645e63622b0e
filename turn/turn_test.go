package turn_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sat8bit/chorus/turn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireRejectsWhileHeld(t *testing.T) {
	m := turn.NewMutexManager()

	require.NoError(t, m.TryAcquire())
	assert.True(t, m.InFlight())
	require.ErrorIs(t, m.TryAcquire(), turn.ErrBusy)

	m.Release()
	assert.False(t, m.InFlight())
	require.NoError(t, m.TryAcquire())
	m.Release()
}

func TestReleaseWithoutAcquireIsNoop(t *testing.T) {
	m := turn.NewMutexManager()
	m.Release()
	require.NoError(t, m.TryAcquire())
}

func TestAcquireHonoursContext(t *testing.T) {
	m := turn.NewMutexManager()
	require.NoError(t, m.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireWaitsForRelease(t *testing.T) {
	m := turn.NewMutexManager()
	require.NoError(t, m.Acquire(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, m.Acquire(context.Background()))
	}()

	time.Sleep(10 * time.Millisecond)
	m.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after Release")
	}
}

func TestOnlyOneConcurrentTryAcquireWins(t *testing.T) {
	m := turn.NewMutexManager()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.TryAcquire() == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestEpoch(t *testing.T) {
	var e turn.Epoch
	first := e.Next()
	assert.True(t, e.IsCurrent(first))

	second := e.Next()
	assert.False(t, e.IsCurrent(first))
	assert.True(t, e.IsCurrent(second))
	assert.Equal(t, second, e.Current())
}
