package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type testApp struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gdb := dbtest.New(t)
	r := &repo.GormRepo{DB: gdb}
	pub := events.NopPublisher{}
	m := metrics.New()

	renderer, err := NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	e.Use(m.Middleware())

	Register(e, &Deps{
		DB:       gdb,
		Sessions: session.NewCookieStore([]byte("test-secret-test-secret-test-sec"), time.Hour, false),
		Currency: "EUR",
		Metrics:  m,
		Catalog:  &service.CatalogService{Repo: r},
		Auth:     &service.AuthService{Repo: r, Events: pub},
		Access:   &service.AccessService{Repo: r},
		Cart:     &service.CartService{Repo: r},
		Orders:   &service.OrderService{Repo: r, Events: pub, Currency: "EUR"},
		Admin:    &service.AdminService{Repo: r, Events: pub},
	})
	return &testApp{e: e, repo: r}
}

func (a *testApp) seedProduct(t *testing.T, name, price string) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Slug:     service.Slugify(name),
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	require.NoError(t, a.repo.CreateProduct(context.Background(), p, "Kitchen"))
	return p
}

func (a *testApp) seedUser(t *testing.T, email, password string, admin bool) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Email: email, PasswordHash: pw, FullName: "Test User", IsActive: true}
	require.NoError(t, a.repo.CreateUser(context.Background(), u, admin))
	return u
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.app.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return c.do(req)
}

func (c *client) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return c.do(req)
}

func (c *client) login(email, password string) {
	c.t.Helper()
	rec := c.postForm("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) transport.CartResponse {
	t.Helper()
	var resp transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	rec := c.get("/health/db")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","result":1}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, c.get("/health/live").Code)
	assert.Equal(t, http.StatusOK, c.get("/health/ready").Code)
}

func TestHealth_DatabaseDown(t *testing.T) {
	gdb := dbtest.New(t)
	require.NoError(t, db.Close(gdb))

	e := echo.New()
	h := &HealthHTTP{DB: gdb}
	e.GET("/health/db", h.Database)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body transport.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, transport.StatusError, body.Status)
	assert.NotEmpty(t, body.Message)
}

func TestStorefrontPages(t *testing.T) {
	app := newTestApp(t)
	app.seedProduct(t, "Blue Mug", "4.50")
	app.seedProduct(t, "Tea Pot", "19.90")
	c := app.client(t)

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Blue Mug")

	rec = c.get("/products?q=pot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tea Pot")
	assert.NotContains(t, rec.Body.String(), "Blue Mug")
	assert.Contains(t, rec.Body.String(), "Showing 1 of 2 products")

	rec = c.get("/products?max=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Blue Mug")
	assert.NotContains(t, rec.Body.String(), "Tea Pot")

	rec = c.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestCart_JSONFlow(t *testing.T) {
	app := newTestApp(t)
	mug := app.seedProduct(t, "Blue Mug", "4.50")
	c := app.client(t)

	rec := c.postJSON("/cart/add", `{"product_id":"`+mug.ID.String()+`","quantity":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeCart(t, rec)
	assert.Equal(t, transport.StatusOK, resp.Status)
	assert.Equal(t, 2, resp.CartCount)
	assert.Equal(t, "9.00", resp.Subtotal.String())
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "4.50", resp.Items[0].UnitPrice.String())

	rec = c.postJSON("/cart/add", `{"product_id":"`+mug.ID.String()+`","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeCart(t, rec).CartCount)

	rec = c.postJSON("/cart/update", `{"product_id":"`+mug.ID.String()+`","quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeCart(t, rec)
	assert.Zero(t, resp.CartCount)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.Subtotal.String())
}

func TestCart_JSONErrors(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed body", "/cart/add", `{"product_id":`},
		{"missing product", "/cart/add", `{"quantity":1}`},
		{"unknown product", "/cart/add", `{"product_id":"6f1c1c9e-8a53-4c39-9a55-0ad1f1d0d0aa"}`},
		{"bad quantity", "/cart/update", `{"product_id":"6f1c1c9e-8a53-4c39-9a55-0ad1f1d0d0aa","quantity":"many"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.postJSON(tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body transport.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, transport.StatusError, body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCart_FormFlow(t *testing.T) {
	app := newTestApp(t)
	mug := app.seedProduct(t, "Blue Mug", "4.50")
	c := app.client(t)

	rec := c.postForm("/cart/add", url.Values{"product_id": {mug.ID.String()}, "quantity": {"abc"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get(echo.HeaderLocation))

	rec = c.get("/cart")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Blue Mug")
	assert.Contains(t, body, "4.50")

	rec = c.postForm("/cart/add", url.Values{"product_id": {"nope"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = c.get("/cart")
	assert.Contains(t, rec.Body.String(), "invalid product_id")

	// the flash is shown once
	rec = c.get("/cart")
	assert.NotContains(t, rec.Body.String(), "invalid product_id")
}

func TestCheckout_RequiresLogin(t *testing.T) {
	app := newTestApp(t)
	mug := app.seedProduct(t, "Blue Mug", "4.50")
	c := app.client(t)

	c.postForm("/cart/add", url.Values{"product_id": {mug.ID.String()}})

	rec := c.postForm("/checkout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fcart", rec.Header().Get(echo.HeaderLocation))

	n, err := app.repo.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCheckout_EmptyCart(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "buyer@shop.co", "secret1", false)
	c := app.client(t)
	c.login("buyer@shop.co", "secret1")

	rec := c.postForm("/checkout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, c.get("/cart").Body.String(), "Your cart is empty.")
}

func TestCheckout_PlacesOrderAndFreezesPrices(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	mug := app.seedProduct(t, "Blue Mug", "4.50")
	app.seedUser(t, "buyer@shop.co", "secret1", false)
	c := app.client(t)

	c.postForm("/cart/add", url.Values{"product_id": {mug.ID.String()}, "quantity": {"2"}})
	c.login("buyer@shop.co", "secret1")

	rec := c.postForm("/checkout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get(echo.HeaderLocation)
	require.True(t, strings.HasPrefix(loc, "/checkout/success?order="), loc)

	mug.Price = decimal.RequireFromString("99.00")
	require.NoError(t, app.repo.UpdateProduct(ctx, mug, "Kitchen"))

	rec = c.get(loc)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Blue Mug")
	assert.Contains(t, body, "9.00")
	assert.NotContains(t, body, "99.00")

	assert.Contains(t, c.get("/cart").Body.String(), "Your cart is empty.", "cart is emptied after checkout")

	other := app.client(t)
	app.seedUser(t, "other@shop.co", "secret1", false)
	other.login("other@shop.co", "secret1")
	assert.Equal(t, http.StatusNotFound, other.get(loc).Code)
}

func TestLogin_SameMessageForUnknownEmailAndWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "buyer@shop.co", "secret1", false)
	c := app.client(t)

	unknown := c.postForm("/login", url.Values{"email": {"ghost@shop.co"}, "password": {"secret1"}})
	wrong := c.postForm("/login", url.Values{"email": {"buyer@shop.co"}, "password": {"nope123"}})

	require.Equal(t, http.StatusUnprocessableEntity, unknown.Code)
	require.Equal(t, http.StatusUnprocessableEntity, wrong.Code)
	assert.Contains(t, unknown.Body.String(), "invalid email or password")
	assert.Contains(t, wrong.Body.String(), "invalid email or password")
}

func TestLogin_RedirectsToSafeNext(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "buyer@shop.co", "secret1", false)

	tests := []struct {
		next string
		want string
	}{
		{"/cart", "/cart"},
		{"//evil.example", "/"},
		{"https://evil.example", "/"},
		{"", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			c := app.client(t)
			rec := c.postForm("/login", url.Values{"email": {"buyer@shop.co"}, "password": {"secret1"}, "next": {tt.next}})
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestRegister(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	rec := c.postForm("/register", url.Values{
		"email": {"New@Shop.co"}, "password": {"secret1"},
		"first_name": {"Ada"}, "last_name": {"Lovelace"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	body := c.get("/").Body.String()
	assert.Contains(t, body, "Welcome, Ada Lovelace!")
	assert.Contains(t, body, "Hi, Ada Lovelace")

	other := app.client(t)
	rec = other.postForm("/register", url.Values{
		"email": {"new@shop.co"}, "password": {"secret1"},
		"first_name": {"Ada"}, "last_name": {"Again"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already exists")
	assert.Contains(t, rec.Body.String(), `value="Again"`)
}

func TestLogout_ClearsCartAndIdentity(t *testing.T) {
	app := newTestApp(t)
	mug := app.seedProduct(t, "Blue Mug", "4.50")
	app.seedUser(t, "buyer@shop.co", "secret1", false)
	c := app.client(t)

	c.login("buyer@shop.co", "secret1")
	c.postForm("/cart/add", url.Values{"product_id": {mug.ID.String()}})

	rec := c.postForm("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := c.get("/").Body.String()
	assert.NotContains(t, body, "Hi, Test User")
	assert.Contains(t, body, `<span id="cart-count">0</span>`)
}

func TestAdmin_Guard(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "admin@shop.co", "secret1", true)
	app.seedUser(t, "buyer@shop.co", "secret1", false)

	anon := app.client(t)
	rec := anon.get("/admin/products?page=2")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/admin/products?page=2"), rec.Header().Get(echo.HeaderLocation))

	buyer := app.client(t)
	buyer.login("buyer@shop.co", "secret1")
	rec = buyer.get("/admin")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forbidden")

	admin := app.client(t)
	admin.login("admin@shop.co", "secret1")
	rec = admin.get("/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recent orders")
}

func TestAdmin_CachedFlagIsTrustedUntilNextLogin(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	u := app.seedUser(t, "admin@shop.co", "secret1", true)

	c := app.client(t)
	c.login("admin@shop.co", "secret1")
	require.Equal(t, http.StatusOK, c.get("/admin").Code)

	require.NoError(t, app.repo.SetAdmin(ctx, u.ID, false))
	assert.Equal(t, http.StatusOK, c.get("/admin").Code)

	c.postForm("/logout", nil)
	c.login("admin@shop.co", "secret1")
	assert.Equal(t, http.StatusForbidden, c.get("/admin").Code)
}

func TestAdmin_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seedUser(t, "admin@shop.co", "secret1", true)
	c := app.client(t)
	c.login("admin@shop.co", "secret1")

	rec := c.postForm("/admin/products/new", url.Values{"name": {"Lamp"}, "price": {"abc"}, "is_active": {"on"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "price must be a number")
	assert.Contains(t, rec.Body.String(), `value="Lamp"`)

	rec = c.postForm("/admin/products/new", url.Values{
		"name": {"Lamp"}, "price": {"12,5"}, "category": {"Home"}, "is_active": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, rows, err := app.repo.ListAllProducts(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	lamp := rows[0]
	assert.Equal(t, "12.50", lamp.Price.StringFixed(2))
	require.NotNil(t, lamp.CategoryName)
	assert.Equal(t, "Home", *lamp.CategoryName)

	rec = c.get("/admin/products")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lamp")

	id := lamp.ID.String()
	rec = c.postForm("/admin/products/"+id+"/edit", url.Values{"name": {"Desk Lamp"}, "price": {"15"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	row, err := app.repo.GetProduct(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", row.Name)
	assert.False(t, row.IsActive)

	assert.Equal(t, http.StatusNotFound, c.get("/admin/products/not-a-uuid/edit").Code)

	rec = c.postForm("/admin/products/"+id+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusNotFound, c.postForm("/admin/products/"+id+"/delete", nil).Code)
}

func TestAdmin_UserCRUD(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seedUser(t, "admin@shop.co", "secret1", true)
	c := app.client(t)
	c.login("admin@shop.co", "secret1")

	rec := c.postForm("/admin/users/new", url.Values{"email": {"admin@shop.co"}, "password": {"secret1"}, "full_name": {"Admin"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already exists")

	rec = c.postForm("/admin/users/new", url.Values{
		"email": {"staff@shop.co"}, "password": {"secret1"}, "full_name": {"Staff"}, "is_active": {"on"}, "is_admin": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.postForm("/admin/users/new", url.Values{"email": {"nameless@shop.co"}, "password": {"secret1"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "full name is required")

	staff, err := app.repo.FindUserByEmail(ctx, "staff@shop.co")
	require.NoError(t, err)
	isAdmin, err := app.repo.IsAdmin(ctx, staff.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	rec = c.postForm("/admin/users/"+staff.ID.String()+"/edit", url.Values{"email": {"staff@shop.co"}, "is_active": {"on"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	isAdmin, err = app.repo.IsAdmin(ctx, staff.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	rec = c.postForm("/admin/users/"+staff.ID.String()+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = app.repo.GetUser(ctx, staff.ID)
	assert.Error(t, err)
}

func TestAdmin_DeleteUserWithOrders(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seedUser(t, "admin@shop.co", "secret1", true)
	buyer := app.seedUser(t, "buyer@shop.co", "secret1", false)
	require.NoError(t, app.repo.CreateOrder(ctx, &models.Order{
		UserID:   buyer.ID,
		Status:   models.OrderStatusNew,
		Currency: "EUR",
		Items:    []models.OrderItem{{ProductName: "Mug", Quantity: 1}},
	}))

	c := app.client(t)
	c.login("admin@shop.co", "secret1")

	rec := c.postForm("/admin/users/"+buyer.ID.String()+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, c.get("/admin/users").Body.String(), "user has orders and cannot be deleted")

	_, err := app.repo.GetUser(ctx, buyer.ID)
	assert.NoError(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	mug := app.seedProduct(t, "Blue Mug", "4.50")
	c := app.client(t)

	c.postJSON("/cart/add", `{"product_id":"`+mug.ID.String()+`"}`)

	rec := c.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_cart_mutations_total{op="add"} 1`)
	assert.Contains(t, string(body), `path="/cart/add"`)
}
