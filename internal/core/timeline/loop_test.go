package timeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func newTestLoop() (*Loop, *ManualClock) {
	clock := NewManualClock(start)
	return NewLoop(clock, nil), clock
}

func TestAdvanceRunsTasksInDueOrder(t *testing.T) {
	loop, _ := newTestLoop()
	var got []string

	loop.After("b", 2*time.Second, func(time.Time) { got = append(got, "b") })
	loop.After("a", time.Second, func(time.Time) { got = append(got, "a") })
	loop.After("c", 5*time.Second, func(time.Time) { got = append(got, "c") })

	require.NoError(t, loop.Advance(3*time.Second))
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, loop.Advance(2*time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSameDueTimeRunsFIFO(t *testing.T) {
	loop, _ := newTestLoop()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.After("k", time.Second, func(time.Time) { got = append(got, i) })
	}

	require.NoError(t, loop.Advance(time.Second))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestTaskSeesItsDueTime(t *testing.T) {
	loop, _ := newTestLoop()
	var seen time.Time
	loop.After("k", 90*time.Second, func(now time.Time) { seen = now })

	require.NoError(t, loop.Advance(10*time.Minute))
	assert.Equal(t, start.Add(90*time.Second), seen)
	assert.Equal(t, start.Add(10*time.Minute), loop.Now())
}

func TestEveryRepeats(t *testing.T) {
	loop, _ := newTestLoop()
	ticks := 0
	loop.Every("tick", time.Minute, func(time.Time) { ticks++ })

	require.NoError(t, loop.Advance(5*time.Minute))
	assert.Equal(t, 5, ticks)
	assert.Equal(t, 1, loop.Pending("tick"))
}

func TestCancelDropsKeyedTasks(t *testing.T) {
	loop, _ := newTestLoop()
	ran := false
	loop.After("upload/1", time.Second, func(time.Time) { ran = true })
	loop.After("upload/1", 3*time.Second, func(time.Time) { ran = true })

	assert.Equal(t, 2, loop.Cancel("upload/1"))
	require.NoError(t, loop.Advance(time.Minute))
	assert.False(t, ran)
	assert.Zero(t, loop.Pending("upload/1"))
}

func TestCancelPrefix(t *testing.T) {
	loop, _ := newTestLoop()
	ran := map[string]bool{}
	for _, key := range []string{"ws1/chat", "ws1/reminders", "ws2/chat"} {
		key := key
		loop.After(key, time.Second, func(time.Time) { ran[key] = true })
	}

	assert.Equal(t, 2, loop.CancelPrefix("ws1/"))
	require.NoError(t, loop.Advance(time.Second))
	assert.Equal(t, map[string]bool{"ws2/chat": true}, ran)
}

func TestTaskCanScheduleFollowUp(t *testing.T) {
	loop, _ := newTestLoop()
	var got []string
	loop.After("first", time.Second, func(time.Time) {
		got = append(got, "first")
		loop.After("second", time.Second, func(time.Time) { got = append(got, "second") })
	})

	require.NoError(t, loop.Advance(3*time.Second))
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPanickingTaskDoesNotStopLoop(t *testing.T) {
	loop, _ := newTestLoop()
	ran := false
	loop.After("bad", time.Second, func(time.Time) { panic("boom") })
	loop.After("good", 2*time.Second, func(time.Time) { ran = true })

	require.NoError(t, loop.Advance(2*time.Second))
	assert.True(t, ran)
}

func TestAdvanceRequiresManualClock(t *testing.T) {
	loop := NewLoop(SystemClock{}, nil)
	assert.ErrorIs(t, loop.Advance(time.Second), ErrClockNotSettable)
}

func TestRunFiresInRealTime(t *testing.T) {
	loop := NewLoop(SystemClock{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	loop.After("k", 10*time.Millisecond, func(time.Time) { wg.Done() })

	go func() { _ = loop.Run(ctx) }()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}
}

// holdLoop blocks the loop inside Do until release is closed, then runs then.
func holdLoop(loop *Loop, then func()) (release chan struct{}, done chan struct{}) {
	entered := make(chan struct{})
	release = make(chan struct{})
	done = make(chan struct{})
	go func() {
		defer close(done)
		loop.Do(func() {
			close(entered)
			<-release
			then()
		})
	}()
	<-entered
	return release, done
}

func TestCancelSkipsTaskWaitingToRun(t *testing.T) {
	for _, tc := range []struct {
		name   string
		cancel func(*Loop) int
	}{
		{"by key", func(l *Loop) int { return l.Cancel("upload/1") }},
		{"by prefix", func(l *Loop) int { return l.CancelPrefix("upload/") }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			loop, clock := newTestLoop()
			ran := false
			loop.After("upload/1", time.Second, func(time.Time) { ran = true })
			clock.Set(start.Add(time.Second))

			var cancelled int
			release, held := holdLoop(loop, func() { cancelled = tc.cancel(loop) })

			ranCount := make(chan int)
			go func() { ranCount <- loop.RunDue(clock.Now()) }()
			require.Eventually(t, func() bool { return loop.Pending("upload/1") == 0 }, time.Second, time.Millisecond)

			close(release)
			<-held
			assert.Equal(t, 1, <-ranCount)
			assert.Equal(t, 1, cancelled)
			assert.False(t, ran)
		})
	}
}
