package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
)

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// Identity is who the request acts for. IsAdmin is nil until resolved.
type Identity struct {
	UserID      string
	DisplayName string
	IsAdmin     *bool
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

func (i Identity) Admin() bool { return i.IsAdmin != nil && *i.IsAdmin }

// LoadIdentity reads the session once per request and exposes it through
// Session and IdentityFrom.
func LoadIdentity(store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := store.Load(c)
			if err != nil {
				logging.FromContext(c.Request().Context()).
					Error("session_load_failed", "status", 500, "error", err)
				return err
			}
			SetSession(c, d)
			return next(c)
		}
	}
}

// SetSession replaces the request's session and the identity derived from it.
func SetSession(c echo.Context, d *session.Data) {
	c.Set(sessionKey, d)
	c.Set(identityKey, Identity{
		UserID:      d.UserID,
		DisplayName: d.DisplayName,
		IsAdmin:     d.IsAdmin,
	})
}

func Session(c echo.Context) *session.Data {
	if d, ok := c.Get(sessionKey).(*session.Data); ok {
		return d
	}
	d := &session.Data{}
	SetSession(c, d)
	return d
}

func IdentityFrom(c echo.Context) Identity {
	id, _ := c.Get(identityKey).(Identity)
	return id
}
