// Package session keeps per-visitor state behind a single client-held token.
package session

import (
	"github.com/labstack/echo/v4"
)

const CookieName = "storefront_session"

// Data is everything a visitor's session holds. IsAdmin is nil until the
// admin flag has been resolved for the logged-in user.
type Data struct {
	UserID      string         `json:"user_id,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	IsAdmin     *bool          `json:"is_admin,omitempty"`
	Cart        map[string]int `json:"cart,omitempty"`
	Flash       string         `json:"flash,omitempty"`

	id    string
	renew bool
}

func (d *Data) LoggedIn() bool { return d.UserID != "" }

// Login replaces the identity and asks the store for a fresh session id.
// The cart survives.
func (d *Data) Login(userID, displayName string, isAdmin *bool) {
	d.UserID = userID
	d.DisplayName = displayName
	d.IsAdmin = isAdmin
	d.renew = true
}

func (d *Data) SetAdmin(v bool) { d.IsAdmin = &v }

func (d *Data) EnsureCart() map[string]int {
	if d.Cart == nil {
		d.Cart = map[string]int{}
	}
	return d.Cart
}

// TakeFlash returns the pending flash message and clears it.
func (d *Data) TakeFlash() string {
	msg := d.Flash
	d.Flash = ""
	return msg
}

type Store interface {
	// Load never returns a nil Data. A missing, tampered or expired token
	// yields an empty session; only backend failures are errors.
	Load(c echo.Context) (*Data, error)
	Save(c echo.Context, d *Data) error
	Clear(c echo.Context) error
}
