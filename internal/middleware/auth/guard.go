package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectTo
	Forbidden
)

type Decision struct {
	Outcome  Outcome
	Location string
}

// Guard gates the admin area for an identity whose admin flag is resolved.
func Guard(id Identity, path string) Decision {
	if !id.Authenticated() {
		return Decision{Outcome: RedirectTo, Location: LoginURL(path)}
	}
	if !id.Admin() {
		return Decision{Outcome: Forbidden}
	}
	return Decision{Outcome: Allow}
}

func LoginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return "/"
}

type AdminResolver interface {
	ResolveIsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin resolves the admin flag when the session has none cached,
// writes it back, and applies Guard. A cached flag is trusted as is, so a
// revoked admin keeps access until the flag is resolved again at next login.
func RequireAdmin(store session.Store, resolver AdminResolver, forbidden echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("handler", "auth.require_admin")

			d := Session(c)
			if d.LoggedIn() && d.IsAdmin == nil {
				ok, err := resolver.ResolveIsAdmin(ctx, d.UserID)
				if err != nil {
					l.Error("admin_resolve_failed", "status", 500, "error", err)
					return err
				}
				d.SetAdmin(ok)
				if err := store.Save(c, d); err != nil {
					return err
				}
				SetSession(c, d)
			}

			switch dec := Guard(IdentityFrom(c), c.Request().URL.RequestURI()); dec.Outcome {
			case RedirectTo:
				l.Info("admin_denied", "status", 303, "reason", "not logged in")
				return c.Redirect(http.StatusSeeOther, dec.Location)
			case Forbidden:
				l.Warn("admin_denied", "status", 403, "reason", "not an admin", "user_id", d.UserID)
				if forbidden == nil {
					return echo.NewHTTPError(http.StatusForbidden, "forbidden")
				}
				return forbidden(c)
			}
			return next(c)
		}
	}
}
