package handlers

import (
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ErnestWetherell/microcanvas-m1/internal/app"
	"github.com/ErnestWetherell/microcanvas-m1/internal/authz"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
)

// ErrorHandler turns handler errors into the error pages.
func ErrorHandler(a *app.App) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var message string

		var denied *authz.Denied
		var herr *echo.HTTPError
		switch {
		case errors.As(err, &denied):
			code = http.StatusForbidden
			message = denied.Reason
		case errors.Is(err, store.ErrNotFound):
			code = http.StatusNotFound
		case errors.Is(err, models.ErrInvalidStatus):
			code = http.StatusBadRequest
			message = "That is not a valid task status."
		case errors.As(err, &herr):
			code = herr.Code
			if m, ok := herr.Message.(string); ok && code < http.StatusInternalServerError {
				message = m
			}
		}

		if code >= http.StatusInternalServerError {
			fields := logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
			}
			if u := middleware.CurrentUser(c); u != nil {
				fields["user_id"] = u.ID
			}
			a.Log.WithFields(fields).WithError(err).Error("request failed")

			hub := sentry.CurrentHub().Clone()
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetRequest(c.Request())
				if u := middleware.CurrentUser(c); u != nil {
					scope.SetUser(sentry.User{ID: strconv.FormatUint(uint64(u.ID), 10), Email: u.Email})
				}
				hub.CaptureException(err)
			})
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		data := echo.Map{"Message": message}
		if rerr := c.Render(code, errorTemplate(code), data); rerr != nil {
			a.Log.WithError(rerr).Error("render error page")
			_ = c.String(code, http.StatusText(code))
		}
	}
}

func errorTemplate(code int) string {
	switch {
	case code == http.StatusForbidden:
		return "error_403"
	case code == http.StatusNotFound, code == http.StatusMethodNotAllowed:
		return "error_404"
	case code >= http.StatusInternalServerError:
		return "error_500"
	default:
		return "error_400"
	}
}
