package handlers

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pharmaciedusoleil/portal/internal/core/assistant"
	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
	"github.com/pharmaciedusoleil/portal/internal/services"
)

// SiteHandler serves pharmacy details, pages, the product catalog and the
// contact form.
type SiteHandler struct {
	loop       *timeline.Loop
	catalog    *services.CatalogService
	dashboard  *services.DashboardService
	workspaces *services.WorkspaceService
	links      contact.Links
}

func NewSiteHandler(loop *timeline.Loop, catalog *services.CatalogService, dashboard *services.DashboardService, workspaces *services.WorkspaceService, links contact.Links) *SiteHandler {
	return &SiteHandler{loop: loop, catalog: catalog, dashboard: dashboard, workspaces: workspaces, links: links}
}

type SiteInfo struct {
	Pharmacy   models.PharmacyInfo `json:"pharmacy"`
	HoursText  string              `json:"hours_text"`
	OpenNow    bool                `json:"open_now"`
	Categories []models.Category   `json:"categories"`
	DialURL    string              `json:"dial_url"`
	WhatsApp   string              `json:"whatsapp_url"`
}

func (h *SiteHandler) Info(w http.ResponseWriter, r *http.Request) {
	info := h.catalog.Pharmacy()
	writeJSON(w, http.StatusOK, SiteInfo{
		Pharmacy:   info,
		HoursText:  assistant.HoursText(info.Hours),
		OpenNow:    assistant.IsOpen(info.Hours, h.loop.Now()),
		Categories: h.catalog.Categories(),
		DialURL:    h.links.Dial(),
		WhatsApp:   h.links.WhatsApp(""),
	})
}

func (h *SiteHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Page(chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Products searches the catalog; a non-empty query is remembered as one of
// the visitor's recent searches.
func (h *SiteHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	if strings.TrimSpace(q) != "" {
		if ws, err := workspace(h.workspaces, r); err == nil {
			h.loop.Do(func() { ws.Session.RecordSearch(q) })
		}
	}
	writeJSON(w, http.StatusOK, h.catalog.Search(q, category))
}

func (h *SiteHandler) RequestProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	link, err := h.catalog.RequestLink(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

// Contact turns the contact form into a prefilled WhatsApp message.
func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var form contact.ContactForm
	if !decodeJSON(w, r, &form) {
		return
	}
	var missing []string
	for field, value := range map[string]string{"name": form.Name, "phone": form.Phone, "subject": form.Subject, "message": form.Message} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		writeError(w, http.StatusUnprocessableEntity, "missing fields: "+strings.Join(missing, ", "))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": h.links.WhatsApp(contact.ContactFormMessage(form))})
}

func (h *SiteHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.View(r.URL.Query().Get("tab"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
