// Package content holds the portal's static site data: pharmacy details,
// informational pages, the product catalog and the sample account dashboard.
package content

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pharmaciedusoleil/portal/internal/models"
)

//go:embed site.yaml
var siteYAML []byte

type Loyalty struct {
	Level        string `yaml:"level" json:"level"`
	NextLevel    string `yaml:"next_level" json:"next_level"`
	PointsToNext int    `yaml:"points_to_next" json:"points_to_next"`
}

type Dashboard struct {
	Tabs          []models.DashboardTab `yaml:"tabs"`
	Profile       models.UserProfile    `yaml:"profile"`
	HealthRecords []models.HealthRecord `yaml:"health_records"`
	Medications   []models.Medication   `yaml:"medications"`
	Orders        []models.Order        `yaml:"orders"`
	Loyalty       Loyalty               `yaml:"loyalty"`
}

type Site struct {
	Pharmacy   models.PharmacyInfo `yaml:"pharmacy"`
	Categories []models.Category   `yaml:"categories"`
	Products   []models.Product    `yaml:"products"`
	Pages      []models.Page       `yaml:"pages"`
	Dashboard  Dashboard           `yaml:"dashboard"`
}

// Load parses the embedded site content.
func Load() (*Site, error) {
	return Parse(siteYAML)
}

// Parse decodes site content and checks it is usable.
func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("parse site content: %w", err)
	}
	if err := site.validate(); err != nil {
		return nil, fmt.Errorf("invalid site content: %w", err)
	}
	return &site, nil
}

func (s *Site) validate() error {
	if s.Pharmacy.Name == "" {
		return errors.New("pharmacy name is required")
	}
	for _, w := range []models.Window{s.Pharmacy.Hours.Weekdays, s.Pharmacy.Hours.Sunday} {
		if w.Open < 0 || w.Close > 23 || w.Open > w.Close {
			return fmt.Errorf("bad opening window %d-%d", w.Open, w.Close)
		}
	}

	categories := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		categories[c.ID] = true
	}
	seen := make(map[int]bool, len(s.Products))
	for _, p := range s.Products {
		if seen[p.ID] {
			return fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = true
		if !categories[p.Category] {
			return fmt.Errorf("product %d has unknown category %q", p.ID, p.Category)
		}
	}

	slugs := make(map[string]bool, len(s.Pages))
	for _, p := range s.Pages {
		if p.Slug == "" || slugs[p.Slug] {
			return fmt.Errorf("missing or duplicate page slug %q", p.Slug)
		}
		slugs[p.Slug] = true
	}
	return nil
}

// Page returns the page with the given slug.
func (s *Site) Page(slug string) (models.Page, bool) {
	for _, p := range s.Pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return models.Page{}, false
}

// Contact overrides the embedded contact details with configured ones.
// Empty values keep the embedded defaults.
func (s *Site) Contact(phone, whatsapp, email, address string) {
	if phone != "" {
		s.Pharmacy.Phone = phone
	}
	if whatsapp != "" {
		s.Pharmacy.WhatsApp = whatsapp
	}
	if email != "" {
		s.Pharmacy.Email = email
	}
	if address != "" {
		s.Pharmacy.Address = address
	}
}
