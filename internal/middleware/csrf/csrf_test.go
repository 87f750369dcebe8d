package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SkipPrefixes: []string{"/health"}}))
	e.GET("/form", func(c echo.Context) error { return c.String(http.StatusOK, Token(c)) })
	e.POST("/form", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.POST("/health/db", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return e
}

func TestGetIssuesToken(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.Equal(t, cookies[0].Value, rec.Body.String())
	assert.Equal(t, cookies[0].Value, rec.Header().Get("X-CSRF-Token"))
}

func TestPostChecks(t *testing.T) {
	e := newServer()
	const token = "known-token"

	post := func(origin, field string) int {
		form := url.Values{"csrf_token": {field}}
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, post("http://example.com", token))
	assert.Equal(t, http.StatusForbidden, post("http://example.com", "wrong"))
	assert.Equal(t, http.StatusForbidden, post("http://evil.test", token))
	assert.Equal(t, http.StatusForbidden, post("", token))
}

func TestHeaderToken(t *testing.T) {
	e := newServer()

	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-CSRF-Token", "abc")
	req.Header.Set("Origin", "http://example.com")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSkipPrefixes(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health/db", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
