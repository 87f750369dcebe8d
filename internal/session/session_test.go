package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-session-secret")

// roundTrip runs fn against a request carrying cookies and returns the
// cookies the response set.
func roundTrip(t *testing.T, cookies []*http.Cookie, fn func(c echo.Context)) []*http.Cookie {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	fn(e.NewContext(req, rec))
	return rec.Result().Cookies()
}

func lastCookie(cookies []*http.Cookie) []*http.Cookie {
	if len(cookies) == 0 {
		return nil
	}
	return cookies[len(cookies)-1:]
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()

	var jar []*http.Cookie
	jar = lastCookie(roundTrip(t, nil, func(c echo.Context) {
		d, err := store.Load(c)
		require.NoError(t, err)
		assert.False(t, d.LoggedIn())

		d.EnsureCart()["p1"] = 2
		d.Login("u1", "Ana", nil)
		d.Flash = "welcome"
		require.NoError(t, store.Save(c, d))
	}))
	require.Len(t, jar, 1)
	assert.True(t, jar[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, jar[0].SameSite)

	jar = lastCookie(roundTrip(t, jar, func(c echo.Context) {
		d, err := store.Load(c)
		require.NoError(t, err)
		assert.Equal(t, "u1", d.UserID)
		assert.Equal(t, "Ana", d.DisplayName)
		assert.Nil(t, d.IsAdmin)
		assert.Equal(t, map[string]int{"p1": 2}, d.Cart)
		assert.Equal(t, "welcome", d.TakeFlash())

		d.SetAdmin(true)
		require.NoError(t, store.Save(c, d))
	}))

	jar = lastCookie(roundTrip(t, jar, func(c echo.Context) {
		d, err := store.Load(c)
		require.NoError(t, err)
		require.NotNil(t, d.IsAdmin)
		assert.True(t, *d.IsAdmin)
		assert.Empty(t, d.Flash)

		require.NoError(t, store.Clear(c))
	}))
	require.Len(t, jar, 1)
	assert.True(t, jar[0].MaxAge < 0)

	roundTrip(t, nil, func(c echo.Context) {
		d, err := store.Load(c)
		require.NoError(t, err)
		assert.False(t, d.LoggedIn())
		assert.Empty(t, d.Cart)
	})
}

func TestCookieStore_RoundTrip(t *testing.T) {
	exerciseStore(t, NewCookieStore(testSecret, time.Hour, false))
}

func TestCookieStore_TamperedCookie(t *testing.T) {
	store := NewCookieStore(testSecret, time.Hour, false)
	other := NewCookieStore([]byte("another-secret"), time.Hour, false)

	jar := roundTrip(t, nil, func(c echo.Context) {
		require.NoError(t, other.Save(c, &Data{UserID: "intruder"}))
	})

	roundTrip(t, jar, func(c echo.Context) {
		d, err := store.Load(c)
		require.NoError(t, err)
		assert.False(t, d.LoggedIn())
	})
}

func TestRedisStore_RejectsForgedTokens(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisStore(rdb, testSecret, time.Hour, false)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: "x"}).
		SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString(testSecret)
	require.NoError(t, err)

	for _, value := range []string{"", "garbage", forged, expired} {
		jar := []*http.Cookie{{Name: CookieName, Value: value}}
		roundTrip(t, jar, func(c echo.Context) {
			d, err := store.Load(c)
			require.NoError(t, err)
			assert.False(t, d.LoggedIn())
		})
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR is required for redis tests")
	}

	rdb, err := NewRedisClient(context.Background(), addr, os.Getenv("STOREFRONT_TEST_REDIS_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseStore(t, NewRedisStore(rdb, testSecret, time.Minute, false))
}
