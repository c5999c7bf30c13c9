package services

import (
	"errors"
	"strings"

	"github.com/pharmaciedusoleil/portal/internal/content"
	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrPageNotFound    = errors.New("page not found")
)

// AllCategories disables the category filter.
const AllCategories = "all"

type CatalogService struct {
	site  *content.Site
	links contact.Links
}

func NewCatalogService(site *content.Site, links contact.Links) *CatalogService {
	return &CatalogService{site: site, links: links}
}

func (s *CatalogService) Categories() []models.Category {
	return s.site.Categories
}

// Search matches query case-insensitively against product names and
// descriptions, then keeps the given category unless it is empty or "all".
func (s *CatalogService) Search(query, category string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Product{}
	for _, p := range s.site.Products {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *CatalogService) Product(id int) (models.Product, error) {
	for _, p := range s.site.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// RequestLink opens a WhatsApp conversation asking about a product in stock.
func (s *CatalogService) RequestLink(id int) (string, error) {
	p, err := s.Product(id)
	if err != nil {
		return "", err
	}
	if !p.InStock {
		return "", ErrOutOfStock
	}
	return s.links.WhatsApp(contact.ProductRequestMessage(p.Name)), nil
}

func (s *CatalogService) Page(slug string) (models.Page, error) {
	p, ok := s.site.Page(slug)
	if !ok {
		return models.Page{}, ErrPageNotFound
	}
	return p, nil
}

func (s *CatalogService) Pharmacy() models.PharmacyInfo {
	return s.site.Pharmacy
}
