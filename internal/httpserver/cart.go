package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartHTTP struct {
	*Pages
	Svc     *service.CartService
	Metrics *metrics.Metrics
}

type cartOp func(ctx context.Context, cart service.Cart, req transport.CartRequest) error

func (h *CartHTTP) View(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.view")

	snap, err := h.Svc.Snapshot(ctx, auth.Session(c).Cart)
	if err != nil {
		l.Error("cart_snapshot_error", "status", 500, "error", err)
		return err
	}
	return h.render(c, http.StatusOK, "cart", "Your cart", snap)
}

func (h *CartHTTP) Add(c echo.Context) error {
	return h.mutate(c, "add", func(ctx context.Context, cart service.Cart, req transport.CartRequest) error {
		return h.Svc.Add(ctx, cart, req.ProductID, string(req.Quantity))
	})
}

func (h *CartHTTP) Update(c echo.Context) error {
	return h.mutate(c, "update", func(_ context.Context, cart service.Cart, req transport.CartRequest) error {
		return h.Svc.Update(cart, req.ProductID, string(req.Quantity))
	})
}

func (h *CartHTTP) Remove(c echo.Context) error {
	return h.mutate(c, "remove", func(_ context.Context, cart service.Cart, req transport.CartRequest) error {
		return h.Svc.Remove(cart, req.ProductID)
	})
}

// mutate applies op to the session cart, persists the session and answers
// with JSON or a redirect to /cart depending on what the client asked for.
func (h *CartHTTP) mutate(c echo.Context, name string, op cartOp) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart."+name)
	asJSON := wantsJSON(c)

	fail := func(msg string) error {
		if asJSON {
			return c.JSON(http.StatusBadRequest, transport.Error(msg))
		}
		return h.redirectFlash(c, "/cart", msg)
	}

	var req transport.CartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_update_error", "status", 400, "reason", "invalid body", "error", err)
		return fail("invalid request body")
	}

	d := auth.Session(c)
	if err := op(ctx, service.Cart(d.EnsureCart()), req); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("cart_update_error", "status", 400, "reason", service.Message(err))
			return fail(service.Message(err))
		}
		l.Error("cart_update_error", "status", 500, "error", err)
		return err
	}
	if err := h.Sessions.Save(c, d); err != nil {
		l.Error("cart_update_error", "status", 500, "reason", "cannot save session", "error", err)
		return err
	}
	h.Metrics.CartMutation(name)

	if !asJSON {
		return c.Redirect(http.StatusSeeOther, "/cart")
	}
	snap, err := h.Svc.Snapshot(ctx, d.Cart)
	if err != nil {
		l.Error("cart_snapshot_error", "status", 500, "error", err)
		return err
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(snap))
}
