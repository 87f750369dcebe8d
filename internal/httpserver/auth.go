package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
)

type AuthHTTP struct {
	*Pages
	Svc    *service.AuthService
	Access *service.AccessService
}

type loginPage struct {
	Email string
	Next  string
	Error string
}

type registerPage struct {
	Email     string
	FirstName string
	LastName  string
	Error     string
}

func (h *AuthHTTP) LoginForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "login", "Log in", loginPage{Next: c.QueryParam("next")})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	form := loginPage{Email: c.FormValue("email"), Next: c.FormValue("next")}
	user, err := h.Svc.Login(ctx, form.Email, c.FormValue("password"))
	if err != nil {
		if msg := service.Message(err); msg != "" {
			form.Error = msg
			return h.render(c, http.StatusUnprocessableEntity, "login", "Log in", form)
		}
		l.Error("login_error", "status", 500, "error", err)
		return err
	}

	isAdmin, err := h.Access.ResolveIsAdmin(ctx, user.ID.String())
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot resolve admin flag", "error", err)
		return err
	}

	d := auth.Session(c)
	d.Login(user.ID.String(), user.DisplayName(), &isAdmin)
	if err := h.Sessions.Save(c, d); err != nil {
		return err
	}
	auth.SetSession(c, d)

	l.Info("login_success", "user_id", user.ID, "is_admin", isAdmin)
	return c.Redirect(http.StatusSeeOther, auth.SafeNext(form.Next))
}

func (h *AuthHTTP) RegisterForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "register", "Create account", registerPage{})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	in := service.RegisterInput{
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
	}
	user, err := h.Svc.Register(ctx, in)
	if err != nil {
		if msg := service.Message(err); msg != "" {
			return h.render(c, http.StatusUnprocessableEntity, "register", "Create account", registerPage{
				Email:     in.Email,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Error:     msg,
			})
		}
		l.Error("register_error", "status", 500, "error", err)
		return err
	}

	notAdmin := false
	d := auth.Session(c)
	d.Login(user.ID.String(), user.DisplayName(), &notAdmin)
	d.Flash = "Welcome, " + user.DisplayName() + "!"
	if err := h.Sessions.Save(c, d); err != nil {
		return err
	}

	l.Info("register_success", "user_id", user.ID)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	if err := h.Sessions.Clear(c); err != nil {
		return err
	}
	auth.SetSession(c, &session.Data{})
	return c.Redirect(http.StatusSeeOther, "/")
}
