package timeline

import (
	"container/heap"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrClockNotSettable = errors.New("timeline: clock cannot be advanced manually")

// Task runs on the loop with the loop's current time.
type Task func(now time.Time)

type task struct {
	key    string
	due    time.Time
	seq    uint64
	period time.Duration
	fn     Task
	index  int

	cancelled bool // set when cancelled after being popped, before running
}

// Loop is a single cooperative timeline. Scheduled tasks and work submitted
// through Do all run one at a time under the same lock, so state owned by
// loop callbacks never needs its own synchronization.
//
// Tasks are ordered by due time, then by submission order.
type Loop struct {
	clock Clock
	log   *logrus.Entry

	mu       sync.Mutex // guards queue, byKey, inflight, seq
	queue    taskQueue
	byKey    map[string][]*task
	inflight map[*task]struct{} // popped, waiting for exec
	seq      uint64
	wake     chan struct{}

	exec sync.Mutex
}

func NewLoop(clock Clock, log *logrus.Entry) *Loop {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loop{
		clock: clock,
		log:   log,
		byKey:    make(map[string][]*task),
		inflight: make(map[*task]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// After schedules fn once, delay from now.
func (l *Loop) After(key string, delay time.Duration, fn Task) {
	l.At(key, l.clock.Now().Add(delay), fn)
}

// At schedules fn once at t.
func (l *Loop) At(key string, t time.Time, fn Task) {
	l.push(&task{key: key, due: t, fn: fn})
}

// Every schedules fn repeatedly, the first run one period from now.
func (l *Loop) Every(key string, period time.Duration, fn Task) {
	if period <= 0 {
		l.log.WithField("key", key).Warn("ignoring periodic task with non-positive period")
		return
	}
	l.push(&task{key: key, due: l.clock.Now().Add(period), period: period, fn: fn})
}

func (l *Loop) push(t *task) {
	l.mu.Lock()
	l.seq++
	t.seq = l.seq
	heap.Push(&l.queue, t)
	l.byKey[t.key] = append(l.byKey[t.key], t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Cancel drops every task scheduled under key and reports how many. A task
// already taken off the queue but not yet running is skipped as well.
func (l *Loop) Cancel(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelLocked(key)
}

// CancelPrefix drops every task whose key starts with prefix.
func (l *Loop) CancelPrefix(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key := range l.byKey {
		if strings.HasPrefix(key, prefix) {
			n += l.cancelLocked(key)
		}
	}
	for t := range l.inflight {
		if strings.HasPrefix(t.key, prefix) && !t.cancelled {
			t.cancelled = true
			n++
		}
	}
	return n
}

func (l *Loop) cancelLocked(key string) int {
	tasks := l.byKey[key]
	for _, t := range tasks {
		if t.index >= 0 {
			heap.Remove(&l.queue, t.index)
		}
	}
	delete(l.byKey, key)

	n := len(tasks)
	for t := range l.inflight {
		if t.key == key && !t.cancelled {
			t.cancelled = true
			n++
		}
	}
	return n
}

// Pending reports how many tasks are scheduled under key.
func (l *Loop) Pending(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey[key])
}

// Do runs fn on the timeline, waiting for any callback in progress.
func (l *Loop) Do(fn func()) {
	l.exec.Lock()
	defer l.exec.Unlock()
	fn()
}

// RunDue runs every task due at or before now and returns how many ran.
func (l *Loop) RunDue(now time.Time) int {
	ran := 0
	for {
		t := l.popDue(now)
		if t == nil {
			return ran
		}
		l.run(t)
		ran++
	}
}

func (l *Loop) popDue(now time.Time) *task {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 || l.queue[0].due.After(now) {
		return nil
	}
	t := heap.Pop(&l.queue).(*task)
	l.forgetLocked(t)
	l.inflight[t] = struct{}{}

	if t.period > 0 {
		next := &task{key: t.key, due: t.due.Add(t.period), period: t.period, fn: t.fn}
		l.seq++
		next.seq = l.seq
		heap.Push(&l.queue, next)
		l.byKey[next.key] = append(l.byKey[next.key], next)
	}
	return t
}

func (l *Loop) forgetLocked(t *task) {
	tasks := l.byKey[t.key]
	for i, other := range tasks {
		if other == t {
			tasks = append(tasks[:i], tasks[i+1:]...)
			break
		}
	}
	if len(tasks) == 0 {
		delete(l.byKey, t.key)
	} else {
		l.byKey[t.key] = tasks
	}
}

func (l *Loop) run(t *task) {
	l.exec.Lock()
	defer l.exec.Unlock()

	l.mu.Lock()
	delete(l.inflight, t)
	cancelled := t.cancelled
	l.mu.Unlock()
	if cancelled {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("key", t.key).Errorf("task panicked: %v", r)
		}
	}()
	t.fn(l.clock.Now())
}

func (l *Loop) nextDue() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return time.Time{}, false
	}
	return l.queue[0].due, true
}

// Advance moves a ManualClock forward by d, running each due task at its
// own due time. It is the deterministic driver used by tests.
func (l *Loop) Advance(d time.Duration) error {
	clock, ok := l.clock.(*ManualClock)
	if !ok {
		return ErrClockNotSettable
	}
	target := clock.Now().Add(d)
	for {
		due, ok := l.nextDue()
		if !ok || due.After(target) {
			break
		}
		if due.After(clock.Now()) {
			clock.Set(due)
		}
		l.RunDue(clock.Now())
	}
	clock.Set(target)
	return nil
}

// Run drives the loop in real time until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("timeline started")
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		l.RunDue(l.clock.Now())

		wait := time.Hour
		if due, ok := l.nextDue(); ok {
			wait = due.Sub(l.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			l.log.Info("timeline stopping")
			return nil
		case <-l.wake:
		case <-timer.C:
		}
	}
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
