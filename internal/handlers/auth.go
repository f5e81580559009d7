package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ErnestWetherell/microcanvas-m1/internal/forms"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

const oauthStateCookie = "oauth_state"

func (h *Handler) loginPage(c echo.Context, status int, form forms.LoginForm, errs forms.Errors) error {
	return c.Render(status, "login", page(echo.Map{
		"Form":         form,
		"Errors":       errs,
		"GiteaEnabled": h.app.Gitea != nil,
	}))
}

func (h *Handler) LoginForm(c echo.Context) error {
	if err := h.ensureSeed(c); err != nil {
		return err
	}
	if middleware.CurrentUser(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.loginPage(c, http.StatusOK, forms.LoginForm{}, forms.Errors{})
}

// Login signs the user in by email alone. Unknown emails become students.
func (h *Handler) Login(c echo.Context) error {
	if err := h.ensureSeed(c); err != nil {
		return err
	}

	var form forms.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	email, errs := form.Clean()
	if errs.Any() {
		return h.loginPage(c, http.StatusUnprocessableEntity, form, errs)
	}

	u, created, err := h.app.Store.FindOrCreateUser(c.Request().Context(), email, models.RoleStudent)
	if err != nil {
		return err
	}
	if created {
		h.app.Log.WithField("email", u.Email).Info("user created on login")
	}
	return h.signIn(c, u)
}

func (h *Handler) signIn(c echo.Context, u *models.User) error {
	if err := h.app.Sessions.Issue(c, u); err != nil {
		return err
	}
	return redirect(c, "/", fmt.Sprintf("Logged in as %s (%s).", u.Email, u.Role))
}

func (h *Handler) Logout(c echo.Context) error {
	h.app.Sessions.Clear(c)
	return redirect(c, "/auth/login", "Logged out.")
}

func (h *Handler) GiteaLogin(c echo.Context) error {
	if h.app.Gitea == nil {
		return echo.ErrNotFound
	}
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/gitea",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.app.Config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.app.Gitea.AuthCodeURL(state))
}

// GiteaCallback finishes the OAuth flow and signs in the account with the
// Gitea user's email.
func (h *Handler) GiteaCallback(c echo.Context) error {
	if h.app.Gitea == nil {
		return echo.ErrNotFound
	}

	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return echo.NewHTTPError(http.StatusBadRequest, "The sign-in request expired. Please try again.")
	}
	c.SetCookie(&http.Cookie{Name: oauthStateCookie, Path: "/auth/gitea", MaxAge: -1})

	ctx := c.Request().Context()
	profile, err := h.app.Gitea.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		h.app.Log.WithError(err).Warn("gitea sign-in failed")
		return echo.NewHTTPError(http.StatusBadRequest, "Gitea sign-in failed.")
	}

	if err := h.ensureSeed(c); err != nil {
		return err
	}
	u, _, err := h.app.Store.FindOrCreateUser(ctx, profile.Email, models.RoleStudent)
	if err != nil {
		return err
	}
	h.app.Log.WithFields(logrus.Fields{
		"email": u.Email,
		"gitea": profile.UserName,
	}).Info("signed in with gitea")
	return h.signIn(c, u)
}
