package httpserver

import (
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
)

// Pages holds what every HTML handler needs to answer with a page.
type Pages struct {
	Sessions session.Store
	Currency string
}

func (p *Pages) render(c echo.Context, code int, page, title string, data any) error {
	d := auth.Session(c)
	flash := d.TakeFlash()
	if flash != "" {
		if err := p.Sessions.Save(c, d); err != nil {
			return err
		}
	}

	return c.Render(code, page, View{
		Title:     title,
		Identity:  auth.IdentityFrom(c),
		CartCount: service.Cart(d.Cart).Count(),
		CSRF:      csrf.Token(c),
		Flash:     flash,
		Currency:  p.Currency,
		Data:      data,
	})
}

func (p *Pages) notFound(c echo.Context) error {
	return p.render(c, http.StatusNotFound, "not_found", "Not found", nil)
}

func (p *Pages) forbidden(c echo.Context) error {
	return p.render(c, http.StatusForbidden, "forbidden", "Forbidden", nil)
}

// redirectFlash stores msg for the next page and redirects.
func (p *Pages) redirectFlash(c echo.Context, to, msg string) error {
	d := auth.Session(c)
	d.Flash = msg
	if err := p.Sessions.Save(c, d); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// wantsJSON picks the programmatic flow: a JSON body, an XHR, or an Accept
// header that lists JSON before HTML.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if ct, _, err := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType)); err == nil && ct == echo.MIMEApplicationJSON {
		return true
	}
	if strings.EqualFold(req.Header.Get(echo.HeaderXRequestedWith), "XMLHttpRequest") {
		return true
	}

	for _, part := range strings.Split(req.Header.Get(echo.HeaderAccept), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case echo.MIMEApplicationJSON:
			return true
		case echo.MIMETextHTML:
			return false
		}
	}
	return false
}

func checked(c echo.Context, field string) bool {
	switch strings.ToLower(c.FormValue(field)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
