package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
)

type CheckoutHTTP struct {
	*Pages
	Cart    *service.CartService
	Orders  *service.OrderService
	Metrics *metrics.Metrics
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create")

	d := auth.Session(c)
	if !d.LoggedIn() {
		return c.Redirect(http.StatusSeeOther, auth.LoginURL("/cart"))
	}

	snap, err := h.Cart.Snapshot(ctx, d.Cart)
	if err != nil {
		l.Error("checkout_error", "status", 500, "reason", "cannot price cart", "error", err)
		return err
	}

	order, err := h.Orders.Checkout(ctx, d.UserID, snap)
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		return c.Redirect(http.StatusSeeOther, auth.LoginURL("/cart"))
	case errors.Is(err, service.ErrEmptyCart):
		return h.redirectFlash(c, "/cart", "Your cart is empty.")
	case err != nil:
		return err
	}

	d.Cart = nil
	if err := h.Sessions.Save(c, d); err != nil {
		l.Error("checkout_error", "status", 500, "reason", "order saved but session not cleared", "order_id", order.ID, "error", err)
		return err
	}
	h.Metrics.OrderCreated()
	return c.Redirect(http.StatusSeeOther, "/checkout/success?order="+order.ID.String())
}

func (h *CheckoutHTTP) Success(c echo.Context) error {
	ctx := c.Request().Context()

	d := auth.Session(c)
	if !d.LoggedIn() {
		return c.Redirect(http.StatusSeeOther, auth.LoginURL(c.Request().URL.RequestURI()))
	}

	order, err := h.Orders.GetOrder(ctx, d.UserID, c.QueryParam("order"))
	if errors.Is(err, service.ErrNotFound) {
		return h.notFound(c)
	}
	if err != nil {
		logging.FromContext(ctx).With("handler", "checkout.success").
			Error("get_order_error", "status", 500, "error", err)
		return err
	}
	return h.render(c, http.StatusOK, "checkout_success", "Thank you", order)
}
