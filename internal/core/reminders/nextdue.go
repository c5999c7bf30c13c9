package reminders

import (
	"fmt"
	"time"
)

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidReminder, s)
	}
	return t.Hour(), t.Minute(), nil
}

// NextDue returns the next occurrence of timeOfDay strictly after now, in
// now's location: today if still ahead, otherwise tomorrow.
//
// Only one occurrence per day is computed; a frequency such as "twice a day"
// does not add firings.
func NextDue(timeOfDay string, now time.Time) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate, nil
}
