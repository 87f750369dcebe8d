package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type userListPage struct {
	Users []repo.UserRow
	Page  util.Page
}

type userFormPage struct {
	ID    string
	Form  service.UserForm
	Error string
}

func (p userFormPage) Editing() bool { return p.ID != "" }

func userFormFromRequest(c echo.Context) service.UserForm {
	return service.UserForm{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		FullName: c.FormValue("full_name"),
		IsActive: checked(c, "is_active"),
		IsAdmin:  checked(c, "is_admin"),
	}
}

func (h *AdminHTTP) Users(c echo.Context) error {
	ctx := c.Request().Context()

	page, size := pageParams(c)
	p, users, err := h.Svc.ListUsers(ctx, page, size)
	if err != nil {
		logging.FromContext(ctx).With("handler", "admin.users").
			Error("list_users_error", "status", 500, "error", err)
		return err
	}
	return h.render(c, http.StatusOK, "admin_users", "Users", userListPage{Users: users, Page: p})
}

func (h *AdminHTTP) NewUser(c echo.Context) error {
	return h.render(c, http.StatusOK, "admin_user_form", "New user", userFormPage{
		Form: service.UserForm{IsActive: true},
	})
}

func (h *AdminHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_user")

	form := userFormFromRequest(c)
	u, err := h.Svc.CreateUser(ctx, form)
	if err != nil {
		if msg := service.Message(err); msg != "" {
			l.Warn("user_create_error", "status", 422, "reason", msg)
			form.Password = ""
			return h.render(c, http.StatusUnprocessableEntity, "admin_user_form", "New user", userFormPage{Form: form, Error: msg})
		}
		return err
	}

	l.Info("user_created", "user_id", u.ID, "is_admin", form.IsAdmin)
	return h.redirectFlash(c, "/admin/users", "User "+u.Email+" created.")
}

func (h *AdminHTTP) EditUser(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := h.Svc.GetUser(ctx, c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		return h.notFound(c)
	}
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin_user_form", "Edit user", userFormPage{
		ID:   u.ID.String(),
		Form: service.UserFormFrom(u),
	})
}

func (h *AdminHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_user")

	id := c.Param("id")
	form := userFormFromRequest(c)
	u, err := h.Svc.UpdateUser(ctx, id, form)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return h.notFound(c)
	case err != nil:
		if msg := service.Message(err); msg != "" {
			l.Warn("user_update_error", "status", 422, "reason", msg, "user_id", id)
			form.Password = ""
			return h.render(c, http.StatusUnprocessableEntity, "admin_user_form", "Edit user", userFormPage{ID: id, Form: form, Error: msg})
		}
		return err
	}

	l.Info("user_updated", "user_id", u.ID, "is_admin", form.IsAdmin)
	return h.redirectFlash(c, "/admin/users", "User "+u.Email+" updated.")
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id := c.Param("id")
	err := h.Svc.DeleteUser(ctx, id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return h.notFound(c)
	case errors.Is(err, service.ErrConflict):
		l.Warn("user_delete_error", "status", 409, "reason", service.Message(err), "user_id", id)
		return h.redirectFlash(c, "/admin/users", service.Message(err))
	case err != nil:
		l.Error("user_delete_error", "status", 500, "user_id", id, "error", err)
		return err
	}

	l.Info("user_deleted", "user_id", id)
	return h.redirectFlash(c, "/admin/users", "User deleted.")
}
