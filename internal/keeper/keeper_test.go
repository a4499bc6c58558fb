package keeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/config"
	"github.com/hxuan190/compound-engine/internal/domain"
)

type fakeCompounder struct {
	calls  atomic.Int32
	caller atomic.Value
	block  chan struct{}
	err    error
}

func (f *fakeCompounder) CompoundAll(_ context.Context, caller string) ([]*domain.CompoundResult, error) {
	f.calls.Add(1)
	f.caller.Store(caller)
	if f.block != nil {
		<-f.block
	}
	return []*domain.CompoundResult{{Asset: "lp"}}, f.err
}

func (f *fakeCompounder) Controller() string {
	return "controller"
}

func TestRunOnceUsesController(t *testing.T) {
	c := &fakeCompounder{}
	k := New(&config.KeeperConfig{}, c)
	k.RunOnce()
	require.Equal(t, int32(1), c.calls.Load())
	require.Equal(t, "controller", c.caller.Load())

	c.err = errors.New("lcd down")
	k.RunOnce()
	require.Equal(t, int32(2), c.calls.Load())
}

func TestRunOnceSkipsOverlappingRuns(t *testing.T) {
	c := &fakeCompounder{block: make(chan struct{})}
	k := New(&config.KeeperConfig{}, c)

	done := make(chan struct{})
	go func() {
		k.RunOnce()
		close(done)
	}()
	require.Eventually(t, func() bool { return c.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	k.RunOnce()
	require.Equal(t, int32(1), c.calls.Load())

	close(c.block)
	<-done
}

func TestStartSchedulesRuns(t *testing.T) {
	c := &fakeCompounder{}
	k := New(&config.KeeperConfig{Enabled: true, Schedule: "@every 1s", RunOnStart: true}, c)
	require.NoError(t, k.Start())
	require.Eventually(t, func() bool { return c.calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, k.Stop())
}

func TestDisabledKeeperDoesNothing(t *testing.T) {
	c := &fakeCompounder{}
	k := New(&config.KeeperConfig{Enabled: false, Schedule: "bogus"}, c)
	require.NoError(t, k.Start())
	require.NoError(t, k.Stop())
	require.Zero(t, c.calls.Load())
}
