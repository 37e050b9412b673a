package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(64, zap.NewNop()).Start()
	t.Cleanup(l.Close)
	return l
}

func TestDoRunsInOrder(t *testing.T) {
	l := newTestLoop(t)
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	var snapshot []int
	require.NoError(t, l.Do(context.Background(), func() { snapshot = append(snapshot, got...) }))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l := newTestLoop(t)
	l.Post(func() { panic("boom") })
	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestAfterFuncFires(t *testing.T) {
	l := newTestLoop(t)
	fired := make(chan struct{})
	require.NoError(t, l.Do(context.Background(), func() {
		l.AfterFunc(5*time.Millisecond, func() { close(fired) })
	}))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestStoppedTimerNeverRunsEvenIfQueued(t *testing.T) {
	l := newTestLoop(t)
	ran := false
	require.NoError(t, l.Do(context.Background(), func() {
		tm := l.AfterFunc(time.Millisecond, func() { ran = true })
		// block the loop long enough for the timer to fire and queue its callback
		time.Sleep(30 * time.Millisecond)
		assert.True(t, tm.Pending())
		assert.True(t, tm.Stop())
		assert.False(t, tm.Stop())
	}))
	require.NoError(t, l.Do(context.Background(), func() {}))
	var result bool
	require.NoError(t, l.Do(context.Background(), func() { result = ran }))
	assert.False(t, result)
}

func TestClosedLoopRejectsWork(t *testing.T) {
	l := New(1, zap.NewNop()).Start()
	l.Close()
	<-l.Done()
	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrClosed)
}

func TestDoSkipsTaskWhenContextEndsWhileQueued(t *testing.T) {
	l := newTestLoop(t)
	release := make(chan struct{})
	require.True(t, l.Post(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ran := false
	err := l.Do(ctx, func() { ran = true })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	var result bool
	require.NoError(t, l.Do(context.Background(), func() { result = ran }))
	assert.False(t, result)
}

func TestDoWaitsForStartedTask(t *testing.T) {
	l := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	err := l.Do(ctx, func() {
		cancel()
		time.Sleep(10 * time.Millisecond)
		ran = true
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
