package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ErnestWetherell/microcanvas-m1/internal/app"
	"github.com/ErnestWetherell/microcanvas-m1/internal/forms"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/seed"
)

// Handler serves every page of the application.
type Handler struct {
	app *app.App
}

func New(a *app.App) *Handler {
	return &Handler{app: a}
}

// paramID reads a numeric path parameter. Anything that is not a positive
// integer is treated as a page that does not exist.
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}

// redirect finishes a form submission: the flash is shown on the next page.
func redirect(c echo.Context, to, flash string) error {
	if flash != "" {
		middleware.SetFlash(c, flash)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

func page(data echo.Map) echo.Map {
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	return data
}

// ensureSeed loads the demo dataset on first use when enabled.
func (h *Handler) ensureSeed(c echo.Context) error {
	if !h.app.Config.SeedDemoData {
		return nil
	}
	seeded, err := seed.Ensure(c.Request().Context(), h.app.Store)
	if err != nil {
		return err
	}
	if seeded {
		h.app.Log.Info("demo data seeded")
	}
	return nil
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
