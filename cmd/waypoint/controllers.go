package main

import (
	"errors"
	"html"
	"net/http"

	"github.com/dmitrymomot/waypoint"
	"github.com/dmitrymomot/waypoint/pkg/identity"
)

const loginForm = `<!doctype html>
<title>Sign in</title>
<form method="post" action="/login">
<input name="email" type="email" placeholder="Email">
<input name="password" type="password" placeholder="Password">
<button>Sign in</button>
</form>`

type homeController struct{}

func (homeController) Actions() map[string]waypoint.HandlerFunc {
	return map[string]waypoint.HandlerFunc{
		"index": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			var flash waypoint.Envelope
			if _, err := r.TakeFlash(&flash); err != nil {
				r.Logger().WarnContext(r.Context(), "discarding flash", "error", err)
			}
			body := "Welcome"
			switch {
			case flash.Error != nil:
				body = flash.Error.Message
			case flash.Message != "":
				body = flash.Message
			}
			return waypoint.HTML(http.StatusOK, "<!doctype html><p>"+html.EscapeString(body)+"</p>"), nil
		},
	}
}

type authController struct{}

func (authController) Actions() map[string]waypoint.HandlerFunc {
	return map[string]waypoint.HandlerFunc{
		"form": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			if r.Auth().IsAuthenticated() {
				return waypoint.Redirect("/dashboard"), nil
			}
			return waypoint.HTML(http.StatusOK, loginForm), nil
		},
		"login": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			email, plain := r.HTTP().FormValue("email"), r.HTTP().FormValue("password")
			if email == "" || plain == "" {
				return waypoint.Fail(r, http.StatusUnprocessableEntity, "Email and password are required", nil)
			}

			ident, err := r.Auth().Attempt(email, plain)
			if err != nil {
				return nil, err
			}
			if ident == nil {
				return waypoint.Fail(r, http.StatusUnauthorized, "Invalid credentials", nil)
			}
			return waypoint.SuccessTo(r, ident, "Signed in", "/dashboard")
		},
		"logout": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			if err := r.Auth().Logout(); err != nil {
				return nil, err
			}
			return waypoint.Redirect(r.HomePath()), nil
		},
	}
}

type dashboardController struct{}

func (dashboardController) Actions() map[string]waypoint.HandlerFunc {
	return map[string]waypoint.HandlerFunc{
		"index": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			ident, err := r.Auth().Identity()
			if err != nil {
				return nil, err
			}
			return waypoint.HTML(http.StatusOK, "<!doctype html><p>Hello, "+html.EscapeString(ident.Name)+"</p>"), nil
		},
	}
}

type adminController struct {
	users identity.Store
}

func (c adminController) Actions() map[string]waypoint.HandlerFunc {
	return map[string]waypoint.HandlerFunc{
		"index": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			return waypoint.HTML(http.StatusOK, "<!doctype html><p>Administration</p>"), nil
		},
		"show": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			id := waypoint.Param[int64](r, "id")
			if id <= 0 {
				return nil, waypoint.ErrBadRequest("Invalid user id")
			}

			user, err := c.users.FindActiveByID(r.Context(), id)
			if errors.Is(err, identity.ErrNotFound) {
				return nil, waypoint.ErrNotFound("User not found")
			}
			if err != nil {
				return nil, err
			}
			return waypoint.JSONSuccess(http.StatusOK, user, ""), nil
		},
	}
}

type apiController struct{}

func (apiController) Actions() map[string]waypoint.HandlerFunc {
	return map[string]waypoint.HandlerFunc{
		"me": func(r *waypoint.Request, _ ...string) (*waypoint.Response, error) {
			ident, err := r.Auth().Identity()
			if err != nil {
				return nil, err
			}
			role, err := r.Auth().Role()
			if err != nil {
				return nil, err
			}

			data := map[string]any{"user": ident}
			if role != nil {
				data["role"] = role.Name
			}
			return waypoint.JSONSuccess(http.StatusOK, data, ""), nil
		},
	}
}
