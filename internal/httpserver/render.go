package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// View is what every page template receives.
type View struct {
	Title     string
	Identity  auth.Identity
	CartCount int
	CSRF      string
	Flash     string
	Currency  string
	Data      any
}

// Renderer executes one template set per page, each sharing layout.html.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

type productCard struct {
	Product  service.ProductView
	CSRF     string
	Currency string
}

type pagerLinks struct {
	Base string
	Page util.Page
}

var funcs = template.FuncMap{
	"money": money,
	"card": func(v View, p service.ProductView) productCard {
		return productCard{Product: p, CSRF: v.CSRF, Currency: v.Currency}
	},
	"pager": func(base string, p util.Page) pagerLinks {
		return pagerLinks{Base: base, Page: p}
	},
	"short": func(s fmt.Stringer) string {
		v := s.String()
		if len(v) > 8 {
			return v[:8]
		}
		return v
	},
}

func money(v any) string {
	switch m := v.(type) {
	case decimal.Decimal:
		return m.StringFixed(2)
	case decimal.NullDecimal:
		if !m.Valid {
			return ""
		}
		return m.Decimal.StringFixed(2)
	case float64:
		return decimal.NewFromFloat(m).StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}
