package reminders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

var (
	ErrNotFound        = errors.New("reminder not found")
	ErrNotPending      = errors.New("notification is not pending")
	ErrInvalidReminder = errors.New("invalid reminder")
)

// NewReminder is the user input for a reminder.
type NewReminder struct {
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	Time           string `json:"time"`
	Frequency      string `json:"frequency"`
	Instructions   string `json:"instructions"`
}

// Observer is told when a notification changes status.
type Observer interface {
	NotificationStatus(status models.NotificationStatus)
}

type nopObserver struct{}

func (nopObserver) NotificationStatus(models.NotificationStatus) {}

type Config struct {
	Key      string        // timeline key prefix for this book
	Tick     time.Duration // scheduler period
	Snooze   time.Duration // postpone delay
	Observer Observer
	Log      *logrus.Entry
}

// Book holds one visitor's reminders and their notifications. All methods
// must run on the loop.
type Book struct {
	loop *timeline.Loop
	cfg  Config

	reminders     []*models.Reminder
	notifications []*models.ReminderNotification
}

func NewBook(loop *timeline.Loop, cfg Config) *Book {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	if cfg.Snooze <= 0 {
		cfg.Snooze = 15 * time.Minute
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Key == "" {
		cfg.Key = "reminders/" + uuid.NewString()
	}
	return &Book{loop: loop, cfg: cfg}
}

func (b *Book) tickKey() string {
	return b.cfg.Key + "/tick"
}

func (b *Book) snoozeKey(reminderID string) string {
	return b.cfg.Key + "/snooze/" + reminderID
}

// Start registers the periodic scheduler tick.
func (b *Book) Start() {
	if b.loop.Pending(b.tickKey()) > 0 {
		return
	}
	b.loop.Every(b.tickKey(), b.cfg.Tick, b.Tick)
}

// Close stops the tick and every snooze timer.
func (b *Book) Close() {
	b.loop.CancelPrefix(b.cfg.Key + "/")
}

// Add creates an active reminder due at its next occurrence after now.
func (b *Book) Add(in NewReminder, now time.Time) (models.Reminder, error) {
	name := strings.TrimSpace(in.MedicationName)
	if name == "" {
		return models.Reminder{}, fmt.Errorf("%w: medication name is required", ErrInvalidReminder)
	}
	next, err := NextDue(in.Time, now)
	if err != nil {
		return models.Reminder{}, err
	}

	r := &models.Reminder{
		ID:             uuid.NewString(),
		MedicationName: name,
		Dosage:         strings.TrimSpace(in.Dosage),
		Time:           in.Time,
		Frequency:      strings.TrimSpace(in.Frequency),
		Active:         true,
		NextDue:        next,
		Instructions:   strings.TrimSpace(in.Instructions),
	}
	b.reminders = append(b.reminders, r)
	b.cfg.Log.WithFields(logrus.Fields{"reminder": r.ID, "next_due": next}).Debug("reminder added")
	return *r, nil
}

// Seed adds the sample reminders shown to new visitors.
func (b *Book) Seed(now time.Time) {
	samples := []NewReminder{
		{MedicationName: "Metformine 500mg", Dosage: "1 comprimé", Time: "08:00", Frequency: "Matin et soir", Instructions: "À prendre avec un repas"},
		{MedicationName: "Lisinopril 10mg", Dosage: "1 comprimé", Time: "20:00", Frequency: "Une fois par jour", Instructions: "À prendre le soir"},
	}
	for _, s := range samples {
		if _, err := b.Add(s, now); err != nil {
			b.cfg.Log.WithError(err).Warn("sample reminder rejected")
		}
	}
}

func (b *Book) find(id string) (*models.Reminder, int) {
	for i, r := range b.reminders {
		if r.ID == id {
			return r, i
		}
	}
	return nil, -1
}

func (b *Book) findNotification(id string) *models.ReminderNotification {
	for _, n := range b.notifications {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Toggle flips a reminder between active and inactive.
func (b *Book) Toggle(id string) (models.Reminder, error) {
	r, _ := b.find(id)
	if r == nil {
		return models.Reminder{}, ErrNotFound
	}
	r.Active = !r.Active
	return *r, nil
}

// Remove deletes a reminder, its pending notifications and its snooze timer.
func (b *Book) Remove(id string) error {
	_, i := b.find(id)
	if i < 0 {
		return ErrNotFound
	}
	b.reminders = append(b.reminders[:i], b.reminders[i+1:]...)
	b.loop.Cancel(b.snoozeKey(id))

	kept := b.notifications[:0]
	for _, n := range b.notifications {
		if n.ReminderID == id && n.Status == models.NotificationPending {
			continue
		}
		kept = append(kept, n)
	}
	b.notifications = kept
	return nil
}

// List returns all reminders ordered by next due time.
func (b *Book) List() []models.Reminder {
	out := make([]models.Reminder, 0, len(b.reminders))
	for _, r := range b.reminders {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextDue.Before(out[j].NextDue) })
	return out
}

// Notifications returns notifications in creation order, optionally only
// those with the given status.
func (b *Book) Notifications(status models.NotificationStatus) []models.ReminderNotification {
	var out []models.ReminderNotification
	for _, n := range b.notifications {
		if status == "" || n.Status == status {
			out = append(out, *n)
		}
	}
	return out
}

func (b *Book) hasPending(reminderID string) bool {
	for _, n := range b.notifications {
		if n.ReminderID == reminderID && n.Status == models.NotificationPending {
			return true
		}
	}
	return false
}

func (b *Book) notify(r *models.Reminder, now time.Time) models.ReminderNotification {
	n := &models.ReminderNotification{
		ID:             uuid.NewString(),
		ReminderID:     r.ID,
		MedicationName: r.MedicationName,
		Dosage:         r.Dosage,
		Time:           r.Time,
		Instructions:   r.Instructions,
		CreatedAt:      now,
		Status:         models.NotificationPending,
	}
	b.notifications = append(b.notifications, n)
	b.cfg.Observer.NotificationStatus(n.Status)
	b.cfg.Log.WithFields(logrus.Fields{"reminder": r.ID, "notification": n.ID}).Info("medication due")
	return *n
}

// Tick creates a pending notification for every active reminder that is due
// and has none pending yet. Running it again without state change is a no-op.
func (b *Book) Tick(now time.Time) {
	for _, r := range b.reminders {
		if !r.Active || r.NextDue.After(now) {
			continue
		}
		if b.hasPending(r.ID) {
			continue
		}
		b.notify(r, now)
	}
}

// MarkTaken acknowledges a pending notification and moves the reminder to
// its next occurrence.
func (b *Book) MarkTaken(notificationID string, now time.Time) (models.Reminder, error) {
	n := b.findNotification(notificationID)
	if n == nil {
		return models.Reminder{}, ErrNotFound
	}
	if n.Status != models.NotificationPending {
		return models.Reminder{}, ErrNotPending
	}
	n.Status = models.NotificationTaken
	b.cfg.Observer.NotificationStatus(n.Status)

	r, _ := b.find(n.ReminderID)
	if r == nil {
		return models.Reminder{}, ErrNotFound
	}
	next, err := NextDue(r.Time, now)
	if err != nil {
		return models.Reminder{}, err
	}
	taken := now
	r.LastTaken = &taken
	r.NextDue = next
	b.loop.Cancel(b.snoozeKey(r.ID))
	return *r, nil
}

// Snooze postpones a pending notification. After the snooze delay a new
// pending notification is created for the same reminder, unless one is
// already pending by then.
func (b *Book) Snooze(notificationID string, now time.Time) (models.Reminder, error) {
	n := b.findNotification(notificationID)
	if n == nil {
		return models.Reminder{}, ErrNotFound
	}
	if n.Status != models.NotificationPending {
		return models.Reminder{}, ErrNotPending
	}
	n.Status = models.NotificationSnoozed
	b.cfg.Observer.NotificationStatus(n.Status)

	r, _ := b.find(n.ReminderID)
	if r == nil {
		return models.Reminder{}, ErrNotFound
	}
	r.NextDue = now.Add(b.cfg.Snooze)

	reminderID := r.ID
	b.loop.Cancel(b.snoozeKey(reminderID))
	b.loop.After(b.snoozeKey(reminderID), b.cfg.Snooze, func(at time.Time) {
		r, _ := b.find(reminderID)
		if r == nil || b.hasPending(reminderID) {
			return
		}
		b.notify(r, at)
	})
	return *r, nil
}
