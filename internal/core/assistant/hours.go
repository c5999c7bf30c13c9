package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/pharmaciedusoleil/portal/internal/models"
)

// DefaultHours are the pharmacy's posted hours.
var DefaultHours = models.OpeningHours{
	Weekdays: models.Window{Open: 7, Close: 20},
	Sunday:   models.Window{Open: 8, Close: 18},
}

// WindowFor returns the opening window that applies on t's weekday.
func WindowFor(h models.OpeningHours, t time.Time) models.Window {
	if t.Weekday() == time.Sunday {
		return h.Sunday
	}
	return h.Weekdays
}

// IsOpen reports whether t's hour falls inside today's window, both ends
// inclusive on the hour.
func IsOpen(h models.OpeningHours, t time.Time) bool {
	w := WindowFor(h, t)
	hour := t.Hour()
	return hour >= w.Open && hour <= w.Close
}

func formatWindow(w models.Window) string {
	return fmt.Sprintf("%dh00 - %dh00", w.Open, w.Close)
}

// HoursText lists the weekly schedule.
func HoursText(h models.OpeningHours) string {
	var b strings.Builder
	b.WriteString("Nos horaires d'ouverture sont :\n")
	b.WriteString("• Lundi à Samedi : " + formatWindow(h.Weekdays) + "\n")
	b.WriteString("• Dimanche : " + formatWindow(h.Sunday))
	return b.String()
}
