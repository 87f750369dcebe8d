package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
)

const featuredOnHome = 8

type StorefrontHTTP struct {
	*Pages
	Svc *service.CatalogService
}

type catalogPage struct {
	Products   []service.ProductView
	Offers     []service.ProductView
	Categories []string
	Filter     filterForm

	// Total counts every active product, before filtering.
	Total int
}

type filterForm struct {
	Q        string
	Min      string
	Max      string
	Offer    bool
	Category string
}

func (h *StorefrontHTTP) Index(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "storefront.index")

	all, err := h.Svc.ListActiveProducts(ctx, service.ProductFilter{})
	if err != nil {
		l.Error("list_products_error", "status", 500, "error", err)
		return err
	}

	page := catalogPage{Categories: service.ListCategoriesDistinct(all)}
	for _, p := range all {
		if p.IsOnOffer {
			page.Offers = append(page.Offers, p)
		}
	}
	page.Products = all
	if len(page.Products) > featuredOnHome {
		page.Products = page.Products[:featuredOnHome]
	}
	return h.render(c, http.StatusOK, "index", "Home", page)
}

func (h *StorefrontHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "storefront.products")

	form := filterForm{
		Q:        c.QueryParam("q"),
		Min:      c.QueryParam("min"),
		Max:      c.QueryParam("max"),
		Offer:    c.QueryParam("offer") == "on",
		Category: c.QueryParam("category"),
	}

	all, err := h.Svc.ListActiveProducts(ctx, service.ProductFilter{})
	if err != nil {
		l.Error("list_products_error", "status", 500, "error", err)
		return err
	}
	filter := service.ParseFilter(form.Q, form.Min, form.Max, c.QueryParam("offer"), form.Category)

	return h.render(c, http.StatusOK, "products", "Products", catalogPage{
		Products:   h.Svc.Filter(ctx, all, filter),
		Categories: service.ListCategoriesDistinct(all),
		Filter:     form,
		Total:      len(all),
	})
}
