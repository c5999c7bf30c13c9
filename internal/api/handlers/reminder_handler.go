package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmaciedusoleil/portal/internal/core/reminders"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
	"github.com/pharmaciedusoleil/portal/internal/services"
)

type ReminderHandler struct {
	loop       *timeline.Loop
	workspaces *services.WorkspaceService
}

func NewReminderHandler(loop *timeline.Loop, workspaces *services.WorkspaceService) *ReminderHandler {
	return &ReminderHandler{loop: loop, workspaces: workspaces}
}

// withBook runs fn against the caller's reminder book on the loop.
func (h *ReminderHandler) withBook(w http.ResponseWriter, r *http.Request, fn func(b *reminders.Book) (any, error)) (any, bool) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	var out any
	h.loop.Do(func() {
		out, err = fn(ws.Reminders)
	})
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return out, true
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	if out, ok := h.withBook(w, r, func(b *reminders.Book) (any, error) {
		return b.List(), nil
	}); ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reminders.NewReminder
	if !decodeJSON(w, r, &req) {
		return
	}
	if out, ok := h.withBook(w, r, func(b *reminders.Book) (any, error) {
		return b.Add(req, h.loop.Now())
	}); ok {
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *ReminderHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if out, ok := h.withBook(w, r, func(b *reminders.Book) (any, error) {
		return b.Toggle(id)
	}); ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.withBook(w, r, func(b *reminders.Book) (any, error) {
		return nil, b.Remove(id)
	}); ok {
		w.WriteHeader(http.StatusNoContent)
	}
}

var notificationStatuses = map[string]models.NotificationStatus{
	"":        "",
	"pending": models.NotificationPending,
	"taken":   models.NotificationTaken,
	"missed":  models.NotificationMissed,
	"snoozed": models.NotificationSnoozed,
}

func (h *ReminderHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	status, known := notificationStatuses[r.URL.Query().Get("status")]
	if !known {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if out, ok := h.withBook(w, r, func(b *reminders.Book) (any, error) {
		n := b.Notifications(status)
		if n == nil {
			n = []models.ReminderNotification{}
		}
		return n, nil
	}); ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *ReminderHandler) MarkTaken(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*reminders.Book).MarkTaken)
}

func (h *ReminderHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*reminders.Book).Snooze)
}

func (h *ReminderHandler) act(w http.ResponseWriter, r *http.Request, action func(*reminders.Book, string, time.Time) (models.Reminder, error)) {
	id := chi.URLParam(r, "id")
	if out, ok := h.withBook(w, r, func(b *reminders.Book) (any, error) {
		return action(b, id, h.loop.Now())
	}); ok {
		writeJSON(w, http.StatusOK, out)
	}
}
