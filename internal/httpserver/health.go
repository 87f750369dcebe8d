package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type HealthHTTP struct {
	DB *gorm.DB
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	if _, err := db.Ping(c.Request().Context(), h.DB); err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// Database reports the raw store error; it is the one place a store failure becomes a body.
func (h *HealthHTTP) Database(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := db.Ping(ctx, h.DB)
	if err != nil {
		logging.FromContext(ctx).With("handler", "health.db").
			Error("health_db_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.HealthResponse{
			Status:  transport.StatusError,
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, transport.HealthResponse{Status: transport.StatusOK, Result: result})
}
