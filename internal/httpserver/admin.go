package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type AdminHTTP struct {
	*Pages
	Svc *service.AdminService
}

func (h *AdminHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	dash, err := h.Svc.Dashboard(ctx)
	if err != nil {
		logging.FromContext(ctx).With("handler", "admin.dashboard").
			Error("dashboard_error", "status", 500, "error", err)
		return err
	}
	return h.render(c, http.StatusOK, "admin_dashboard", "Admin", dash)
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return page, size
}
