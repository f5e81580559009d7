// Package server assembles the echo instance: middleware, renderer, error
// pages and the route table.
package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ErnestWetherell/microcanvas-m1/internal/app"
	"github.com/ErnestWetherell/microcanvas-m1/internal/handlers"
	mw "github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/views"
)

func New(a *app.App) (*echo.Echo, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handlers.ErrorHandler(a)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := a.Log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(a.Sessions.LoadSession(func(c echo.Context, id uint) (*models.User, error) {
		return a.Store.UserByID(c.Request().Context(), id)
	}))

	h := handlers.New(a)
	auth := mw.RequireUser

	e.GET("/healthz", h.Healthz)

	e.GET("/auth/login", h.LoginForm)
	e.POST("/auth/login", h.Login)
	e.GET("/auth/logout", h.Logout, auth)
	e.GET("/auth/gitea", h.GiteaLogin)
	e.GET("/auth/gitea/callback", h.GiteaCallback)

	e.GET("/", h.Index, auth)
	e.GET("/analytics", h.Analytics, auth)

	e.GET("/courses", h.Courses, auth)
	e.GET("/courses/:id", h.Course, auth)
	e.POST("/courses/:id/delete", h.DeleteCourse, auth)
	e.POST("/courses/:id/members", h.AddCourseMember, auth)
	e.POST("/courses/:id/teams", h.CreateTeam, auth)
	e.GET("/courses/:id/tasks/new", h.NewTask, auth)
	e.POST("/courses/:id/tasks/new", h.CreateTask, auth)

	e.GET("/tasks/:id", h.Task, auth)
	e.POST("/tasks/:id/status", h.UpdateStatus, auth)
	e.POST("/tasks/:id/comments", h.PostComment, auth)
	e.GET("/tasks/:id/grade", h.GradeForm, auth)
	e.POST("/tasks/:id/grade", h.SaveGrade, auth)
	e.POST("/tasks/:id/delete", h.DeleteTask, auth)

	e.GET("/teams/:id", h.Team, auth)
	e.POST("/teams/:id/members", h.AddTeamMember, auth)
	e.POST("/teams/:id/delete", h.DeleteTeam, auth)

	return e, nil
}
