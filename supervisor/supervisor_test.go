package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelsAfterMaxTurns(t *testing.T) {
	b := bus.NewMemoryBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := supervisor.NewSupervisor(2, b, cancel)
	sup.Start()

	require.NoError(t, b.Broadcast(message.Scene("1", "", "rain")))
	require.NoError(t, b.Broadcast(message.TurnEnd("1")))
	require.NoError(t, b.Broadcast(message.Scene("2", "", "more rain")))
	require.NoError(t, b.Broadcast(message.TurnEnd("2")))

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("supervisor did not cancel")
	}
	<-sup.Done()
	assert.Equal(t, 2, sup.GetCurrentTurn())
	assert.Equal(t, 2, sup.GetMaxTurns())
}

func TestUnlimitedRunsUntilBusCloses(t *testing.T) {
	b := bus.NewMemoryBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := supervisor.NewSupervisor(0, b, cancel)
	sup.Start()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Broadcast(message.TurnEnd("x")))
	}
	b.Close()
	<-sup.Done()

	assert.NoError(t, ctx.Err())
	assert.Equal(t, 3, sup.GetCurrentTurn())
}
