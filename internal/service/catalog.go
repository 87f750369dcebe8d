package service

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
)

const UncategorizedLabel = "Uncategorized"

// quantityPrefix matches the "Cantidad: 1 unidad - " style marker that
// imported descriptions start with.
var quantityPrefix = regexp.MustCompile(`(?i)^\s*(cantidad|qty|quantity)\s*:\s*\d+\s*(?:(?:unidades|unidad|uds|ud|x)\b\.?)?\s*[-–|,.:]?\s*`)

type ProductView struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	Description    string
	ImageURL       string
	Category       string
	Price          float64
	OfferPrice     float64
	EffectivePrice float64
	IsOnOffer      bool
	IsActive       bool
	CreatedAt      time.Time
}

type ProductFilter struct {
	Query      string
	Min        *float64
	Max        *float64
	OffersOnly bool
	Category   string
}

// ParseFilter reads the storefront query string. Unparseable bounds are ignored.
func ParseFilter(q, min, max, offer, category string) ProductFilter {
	f := ProductFilter{
		Query:      strings.TrimSpace(q),
		OffersOnly: offer == "on" || offer == "1" || offer == "true",
		Category:   strings.TrimSpace(category),
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(min), 64); err == nil {
		f.Min = &v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(max), 64); err == nil {
		f.Max = &v
	}
	return f
}

func (f ProductFilter) IsZero() bool {
	return f.Query == "" && f.Min == nil && f.Max == nil && !f.OffersOnly && f.Category == ""
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Search search.Index
}

func (s *CatalogService) ListActiveProducts(ctx context.Context, f ProductFilter) ([]ProductView, error) {
	rows, err := s.Repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(rows))
	for i := range rows {
		views = append(views, NewProductView(&rows[i]))
	}
	return s.Filter(ctx, views, f), nil
}

// Filter returns the views matching f in their original order. views is not modified.
func (s *CatalogService) Filter(ctx context.Context, views []ProductView, f ProductFilter) []ProductView {
	if f.IsZero() {
		return views
	}

	matches := s.textMatcher(ctx, f.Query)
	out := make([]ProductView, 0, len(views))
	for _, v := range views {
		if f.Min != nil && v.EffectivePrice < *f.Min {
			continue
		}
		if f.Max != nil && v.EffectivePrice > *f.Max {
			continue
		}
		if f.OffersOnly && !v.IsOnOffer {
			continue
		}
		if f.Category != "" && v.Category != f.Category {
			continue
		}
		if !matches(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// textMatcher prefers the search index and falls back to substring matching
// when there is none or it fails.
func (s *CatalogService) textMatcher(ctx context.Context, q string) func(ProductView) bool {
	if q == "" {
		return func(ProductView) bool { return true }
	}

	fallback := func(v ProductView) bool { return search.Contains(q, v.Name, v.Description) }
	if s.Search == nil {
		return fallback
	}

	ids, err := s.Search.Search(ctx, q)
	if err != nil {
		logging.FromContext(ctx).With("svc", "catalog.search").
			Warn("search_index_failed", "reason", "falling back to substring match", "error", err)
		return fallback
	}
	hits := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		hits[id] = struct{}{}
	}
	return func(v ProductView) bool {
		_, ok := hits[v.ID]
		return ok
	}
}

func ListCategoriesDistinct(views []ProductView) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range views {
		if _, ok := seen[v.Category]; ok {
			continue
		}
		seen[v.Category] = struct{}{}
		out = append(out, v.Category)
	}
	sort.Strings(out)
	return out
}

func (s *CatalogService) ListAllProducts(ctx context.Context, offset, limit int) (int64, []ProductView, error) {
	total, rows, err := s.Repo.ListAllProducts(ctx, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	views := make([]ProductView, 0, len(rows))
	for i := range rows {
		views = append(views, NewProductView(&rows[i]))
	}
	return total, views, nil
}

func NewProductView(row *repo.ProductRow) ProductView {
	category := UncategorizedLabel
	if row.CategoryName != nil && *row.CategoryName != "" {
		category = *row.CategoryName
	}

	var offer float64
	if row.OfferPrice.Valid {
		offer = row.OfferPrice.Decimal.InexactFloat64()
	}

	return ProductView{
		ID:             row.ID,
		Name:           row.Name,
		Slug:           row.Slug,
		Description:    StripQuantityPrefix(row.Description),
		ImageURL:       row.ImageURL,
		Category:       category,
		Price:          row.Price.InexactFloat64(),
		OfferPrice:     offer,
		EffectivePrice: row.UnitPrice().InexactFloat64(),
		IsOnOffer:      row.IsOnOffer,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
	}
}

func StripQuantityPrefix(description string) string {
	return strings.TrimSpace(quantityPrefix.ReplaceAllString(description, ""))
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
