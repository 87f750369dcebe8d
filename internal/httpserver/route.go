package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
)

type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Currency string
	Metrics  *metrics.Metrics

	Catalog *service.CatalogService
	Auth    *service.AuthService
	Access  *service.AccessService
	Cart    *service.CartService
	Orders  *service.OrderService
	Admin   *service.AdminService
}

func Register(e *echo.Echo, d *Deps) {
	pages := &Pages{Sessions: d.Sessions, Currency: d.Currency}

	health := &HealthHTTP{DB: d.DB}
	e.GET("/health/live", health.Live)
	e.GET("/health/ready", health.Ready)
	e.GET("/health/db", health.Database)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	storefront := &StorefrontHTTP{Pages: pages, Svc: d.Catalog}
	authH := &AuthHTTP{Pages: pages, Svc: d.Auth, Access: d.Access}
	cart := &CartHTTP{Pages: pages, Svc: d.Cart, Metrics: d.Metrics}
	checkout := &CheckoutHTTP{Pages: pages, Cart: d.Cart, Orders: d.Orders, Metrics: d.Metrics}
	admin := &AdminHTTP{Pages: pages, Svc: d.Admin}

	site := e.Group("", auth.LoadIdentity(d.Sessions))
	site.GET("/", storefront.Index)
	site.GET("/products", storefront.Products)

	site.GET("/login", authH.LoginForm)
	site.POST("/login", authH.Login)
	site.GET("/register", authH.RegisterForm)
	site.POST("/register", authH.Register)
	site.POST("/logout", authH.Logout)

	site.GET("/cart", cart.View)
	site.POST("/cart/add", cart.Add)
	site.POST("/cart/update", cart.Update)
	site.POST("/cart/remove", cart.Remove)

	site.POST("/checkout", checkout.Checkout)
	site.GET("/checkout/success", checkout.Success)

	ag := site.Group("/admin", auth.RequireAdmin(d.Sessions, d.Access, pages.forbidden))
	ag.GET("", admin.Dashboard)

	ag.GET("/products", admin.Products)
	ag.GET("/products/new", admin.NewProduct)
	ag.POST("/products/new", admin.CreateProduct)
	ag.GET("/products/:id/edit", admin.EditProduct)
	ag.POST("/products/:id/edit", admin.UpdateProduct)
	ag.POST("/products/:id/delete", admin.DeleteProduct)

	ag.GET("/users", admin.Users)
	ag.GET("/users/new", admin.NewUser)
	ag.POST("/users/new", admin.CreateUser)
	ag.GET("/users/:id/edit", admin.EditUser)
	ag.POST("/users/:id/edit", admin.UpdateUser)
	ag.POST("/users/:id/delete", admin.DeleteUser)

	e.HTTPErrorHandler = errorHandler(pages, e.DefaultHTTPErrorHandler)
}

// errorHandler answers unknown pages with the not-found view and leaves
// everything else to fallback.
func errorHandler(pages *Pages, fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusNotFound && !wantsJSON(c) {
			if rerr := pages.notFound(c); rerr == nil {
				return
			}
		}
		fallback(err, c)
	}
}
