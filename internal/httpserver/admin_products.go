package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type productListPage struct {
	Products []service.ProductView
	Page     util.Page
}

type productFormPage struct {
	ID    string
	Form  service.ProductForm
	Error string
}

func (p productFormPage) Editing() bool { return p.ID != "" }

func productFormFromRequest(c echo.Context) service.ProductForm {
	return service.ProductForm{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		OfferPrice:  c.FormValue("offer_price"),
		ImageURL:    c.FormValue("image_url"),
		Category:    c.FormValue("category"),
		IsOnOffer:   checked(c, "is_on_offer"),
		IsActive:    checked(c, "is_active"),
	}
}

func (h *AdminHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()

	page, size := pageParams(c)
	p, views, err := h.Svc.ListProducts(ctx, page, size)
	if err != nil {
		logging.FromContext(ctx).With("handler", "admin.products").
			Error("list_products_error", "status", 500, "error", err)
		return err
	}
	return h.render(c, http.StatusOK, "admin_products", "Products", productListPage{Products: views, Page: p})
}

func (h *AdminHTTP) NewProduct(c echo.Context) error {
	return h.render(c, http.StatusOK, "admin_product_form", "New product", productFormPage{
		Form: service.ProductForm{IsActive: true},
	})
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	form := productFormFromRequest(c)
	p, err := h.Svc.CreateProduct(ctx, form)
	if err != nil {
		if msg := service.Message(err); msg != "" {
			l.Warn("product_create_error", "status", 422, "reason", msg)
			return h.render(c, http.StatusUnprocessableEntity, "admin_product_form", "New product", productFormPage{Form: form, Error: msg})
		}
		return err
	}

	l.Info("product_created", "product_id", p.ID)
	return h.redirectFlash(c, "/admin/products", "Product \""+p.Name+"\" created.")
}

func (h *AdminHTTP) EditProduct(c echo.Context) error {
	ctx := c.Request().Context()

	row, err := h.Svc.GetProduct(ctx, c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		return h.notFound(c)
	}
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin_product_form", "Edit product", productFormPage{
		ID:   row.ID.String(),
		Form: service.ProductFormFrom(row),
	})
}

func (h *AdminHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_product")

	id := c.Param("id")
	form := productFormFromRequest(c)
	p, err := h.Svc.UpdateProduct(ctx, id, form)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return h.notFound(c)
	case err != nil:
		if msg := service.Message(err); msg != "" {
			l.Warn("product_update_error", "status", 422, "reason", msg, "product_id", id)
			return h.render(c, http.StatusUnprocessableEntity, "admin_product_form", "Edit product", productFormPage{ID: id, Form: form, Error: msg})
		}
		return err
	}

	l.Info("product_updated", "product_id", p.ID)
	return h.redirectFlash(c, "/admin/products", "Product \""+p.Name+"\" updated.")
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id := c.Param("id")
	err := h.Svc.DeleteProduct(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return h.notFound(c)
	}
	if err != nil {
		l.Error("product_delete_error", "status", 500, "product_id", id, "error", err)
		return err
	}

	l.Info("product_deleted", "product_id", id)
	return h.redirectFlash(c, "/admin/products", "Product deleted.")
}
