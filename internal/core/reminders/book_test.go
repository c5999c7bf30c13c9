package reminders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

var morning = time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)

type statusCounter map[models.NotificationStatus]int

func (c statusCounter) NotificationStatus(s models.NotificationStatus) { c[s]++ }

func newBook(t *testing.T) (*Book, *timeline.Loop, statusCounter) {
	t.Helper()
	loop := timeline.NewLoop(timeline.NewManualClock(morning), nil)
	counter := statusCounter{}
	b := NewBook(loop, Config{Key: "reminders/test", Tick: time.Minute, Snooze: 15 * time.Minute, Observer: counter})
	b.Start()
	return b, loop, counter
}

func addMetformine(t *testing.T, b *Book, now time.Time) models.Reminder {
	t.Helper()
	r, err := b.Add(NewReminder{MedicationName: "Metformine 500mg", Dosage: "1 comprimé", Time: "08:00"}, now)
	require.NoError(t, err)
	return r
}

func TestNextDue(t *testing.T) {
	tests := []struct {
		name string
		time string
		now  time.Time
		want time.Time
	}{
		{"later today", "08:00", morning, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)},
		{"already passed", "06:30", morning, time.Date(2024, 1, 16, 6, 30, 0, 0, time.UTC)},
		{"exactly now rolls over", "07:00", morning, time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)},
		{"month boundary", "08:00", time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDue(tt.time, tt.now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestNextDueKeepsLocation(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	now := time.Date(2024, 1, 15, 7, 30, 0, 0, loc)
	got, err := NextDue("20:00", now)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 20, got.Hour())
}

func TestAddValidatesInput(t *testing.T) {
	b, _, _ := newBook(t)

	_, err := b.Add(NewReminder{MedicationName: "  ", Time: "08:00"}, morning)
	assert.True(t, errors.Is(err, ErrInvalidReminder))

	for _, bad := range []string{"", "8h", "25:00", "08:61"} {
		_, err = b.Add(NewReminder{MedicationName: "Vitamine C", Time: bad}, morning)
		assert.True(t, errors.Is(err, ErrInvalidReminder), bad)
	}
	assert.Empty(t, b.List())
}

func TestDueReminderNotifiesOnce(t *testing.T) {
	b, loop, counter := newBook(t)
	r := addMetformine(t, b, morning)

	require.NoError(t, loop.Advance(65*time.Minute)) // 08:05
	pending := b.Notifications(models.NotificationPending)
	require.Len(t, pending, 1)
	assert.Equal(t, r.ID, pending[0].ReminderID)
	assert.Equal(t, "Metformine 500mg", pending[0].MedicationName)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), pending[0].CreatedAt)
	assert.Equal(t, 1, counter[models.NotificationPending])

	b.Tick(loop.Now())
	assert.Len(t, b.Notifications(""), 1)
}

func TestInactiveReminderIsSkipped(t *testing.T) {
	b, loop, _ := newBook(t)
	r := addMetformine(t, b, morning)

	toggled, err := b.Toggle(r.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	require.NoError(t, loop.Advance(2*time.Hour))
	assert.Empty(t, b.Notifications(""))

	_, err = b.Toggle(r.ID)
	require.NoError(t, err)
	require.NoError(t, loop.Advance(time.Minute))
	assert.Len(t, b.Notifications(models.NotificationPending), 1, "overdue reminder fires once re-enabled")
}

func TestMarkTakenMovesToTomorrow(t *testing.T) {
	b, loop, _ := newBook(t)
	addMetformine(t, b, morning)
	require.NoError(t, loop.Advance(65*time.Minute))
	n := b.Notifications(models.NotificationPending)[0]

	r, err := b.MarkTaken(n.ID, loop.Now())
	require.NoError(t, err)
	require.NotNil(t, r.LastTaken)
	assert.Equal(t, loop.Now(), *r.LastTaken)
	assert.Equal(t, time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC), r.NextDue)
	assert.Len(t, b.Notifications(models.NotificationTaken), 1)

	_, err = b.MarkTaken(n.ID, loop.Now())
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = b.MarkTaken("missing", loop.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, loop.Advance(6*time.Hour))
	assert.Empty(t, b.Notifications(models.NotificationPending))
}

func TestSnoozeRepeatsAfterDelay(t *testing.T) {
	b, loop, _ := newBook(t)
	addMetformine(t, b, morning)
	require.NoError(t, loop.Advance(time.Hour)) // 08:00
	n := b.Notifications(models.NotificationPending)[0]

	r, err := b.Snooze(n.ID, loop.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 15, 0, 0, time.UTC), r.NextDue)

	require.NoError(t, loop.Advance(14*time.Minute))
	assert.Empty(t, b.Notifications(models.NotificationPending))

	require.NoError(t, loop.Advance(time.Minute))
	pending := b.Notifications(models.NotificationPending)
	require.Len(t, pending, 1)
	assert.NotEqual(t, n.ID, pending[0].ID)
	assert.Len(t, b.Notifications(models.NotificationSnoozed), 1)

	require.NoError(t, loop.Advance(10*time.Minute))
	assert.Len(t, b.Notifications(models.NotificationPending), 1)
}

func TestRemoveDropsPendingAndTimers(t *testing.T) {
	b, loop, _ := newBook(t)
	r := addMetformine(t, b, morning)
	require.NoError(t, loop.Advance(time.Hour))
	n := b.Notifications(models.NotificationPending)[0]
	_, err := b.Snooze(n.ID, loop.Now())
	require.NoError(t, err)

	require.NoError(t, b.Remove(r.ID))
	assert.ErrorIs(t, b.Remove(r.ID), ErrNotFound)
	assert.Equal(t, 0, loop.Pending("reminders/test/snooze/"+r.ID))

	require.NoError(t, loop.Advance(time.Hour))
	assert.Empty(t, b.Notifications(models.NotificationPending))
	assert.Empty(t, b.List())
}

func TestListOrdersByNextDue(t *testing.T) {
	b, _, _ := newBook(t)
	b.Seed(morning)
	_, err := b.Add(NewReminder{MedicationName: "Vitamine C", Time: "12:00"}, morning)
	require.NoError(t, err)

	list := b.List()
	require.Len(t, list, 3)
	assert.Equal(t, "Metformine 500mg", list[0].MedicationName)
	assert.Equal(t, "Vitamine C", list[1].MedicationName)
	assert.Equal(t, "Lisinopril 10mg", list[2].MedicationName)
	for _, r := range list {
		assert.True(t, r.Active)
	}
}

func TestCloseStopsTick(t *testing.T) {
	b, loop, _ := newBook(t)
	addMetformine(t, b, morning)
	b.Close()

	require.NoError(t, loop.Advance(2*time.Hour))
	assert.Empty(t, b.Notifications(""))
}
