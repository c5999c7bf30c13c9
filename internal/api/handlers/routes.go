package handlers

import (
	"github.com/go-chi/chi/v5"
)

// API groups the handlers mounted under /api.
type API struct {
	Chat          *ChatHandler
	Reminders     *ReminderHandler
	Prescriptions *PrescriptionHandler
	Site          *SiteHandler
}

// Routes registers every endpoint on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Get("/", a.Chat.GetConversation)
		r.Post("/messages", a.Chat.SendMessage)
		r.Post("/context", a.Chat.UpdateContext)
	})

	r.Route("/reminders", func(r chi.Router) {
		r.Get("/", a.Reminders.List)
		r.Post("/", a.Reminders.Create)
		r.Post("/{id}/toggle", a.Reminders.Toggle)
		r.Delete("/{id}", a.Reminders.Delete)
		r.Get("/notifications", a.Reminders.Notifications)
		r.Post("/notifications/{id}/taken", a.Reminders.MarkTaken)
		r.Post("/notifications/{id}/snooze", a.Reminders.Snooze)
	})

	r.Route("/prescriptions", func(r chi.Router) {
		r.Get("/", a.Prescriptions.List)
		r.Post("/", a.Prescriptions.Upload)
		r.Delete("/{id}", a.Prescriptions.Delete)
		r.Post("/{id}/order", a.Prescriptions.Order)
		r.Get("/{id}/file", a.Prescriptions.File)
	})

	r.Get("/site", a.Site.Info)
	r.Get("/site/pages/{slug}", a.Site.Page)
	r.Get("/products", a.Site.Products)
	r.Post("/products/{id}/request", a.Site.RequestProduct)
	r.Post("/contact", a.Site.Contact)
	r.Get("/account/dashboard", a.Site.Dashboard)
}
