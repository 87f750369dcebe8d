package session

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	keyUserID      = "user_id"
	keyDisplayName = "display_name"
	keyIsAdmin     = "is_admin"
	keyCart        = "cart"
	keyFlash       = "flash"
)

func init() {
	gob.Register(map[string]int{})
}

// CookieStore keeps the whole session in a signed cookie.
type CookieStore struct {
	store *sessions.CookieStore
	name  string
}

func NewCookieStore(secret []byte, maxAge time.Duration, secure bool) *CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))
	return &CookieStore{store: store, name: CookieName}
}

func (s *CookieStore) Load(c echo.Context) (*Data, error) {
	sess, err := s.store.Get(c.Request(), s.name)
	if err != nil {
		return &Data{}, nil
	}

	d := &Data{}
	d.UserID, _ = sess.Values[keyUserID].(string)
	d.DisplayName, _ = sess.Values[keyDisplayName].(string)
	d.Flash, _ = sess.Values[keyFlash].(string)
	if v, ok := sess.Values[keyIsAdmin].(bool); ok {
		d.IsAdmin = &v
	}
	if cart, ok := sess.Values[keyCart].(map[string]int); ok {
		d.Cart = cart
	}
	return d, nil
}

func (s *CookieStore) Save(c echo.Context, d *Data) error {
	sess, _ := s.store.New(c.Request(), s.name)
	sess.Values = map[any]any{}
	if d.UserID != "" {
		sess.Values[keyUserID] = d.UserID
		sess.Values[keyDisplayName] = d.DisplayName
	}
	if d.IsAdmin != nil {
		sess.Values[keyIsAdmin] = *d.IsAdmin
	}
	if len(d.Cart) > 0 {
		sess.Values[keyCart] = d.Cart
	}
	if d.Flash != "" {
		sess.Values[keyFlash] = d.Flash
	}
	d.renew = false
	return sess.Save(c.Request(), c.Response())
}

func (s *CookieStore) Clear(c echo.Context) error {
	sess, _ := s.store.New(c.Request(), s.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
