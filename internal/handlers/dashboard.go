package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ErnestWetherell/microcanvas-m1/internal/authz"
	"github.com/ErnestWetherell/microcanvas-m1/internal/kanban"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

const upcomingLimit = 5

// Index is the dashboard: the user's courses and what is due next.
func (h *Handler) Index(c echo.Context) error {
	if err := h.ensureSeed(c); err != nil {
		return err
	}
	ctx := c.Request().Context()
	u := middleware.CurrentUser(c)

	courses, err := h.app.Store.CoursesForUser(ctx, u.ID)
	if err != nil {
		return err
	}
	upcoming, err := h.app.Store.UpcomingTasks(ctx, u.ID, upcomingLimit)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index", page(echo.Map{
		"Courses":  courses,
		"Upcoming": upcoming,
	}))
}

func (h *Handler) Courses(c echo.Context) error {
	if err := h.ensureSeed(c); err != nil {
		return err
	}
	courses, err := h.app.Store.ListCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "courses", page(echo.Map{"Courses": courses}))
}

type analyticsRow struct {
	Course  models.Course
	Summary kanban.Summary
}

func (h *Handler) Analytics(c echo.Context) error {
	if err := authz.Check(middleware.CurrentUser(c), authz.ViewAnalytics); err != nil {
		return err
	}
	ctx := c.Request().Context()

	courses, err := h.app.Store.ListCourses(ctx)
	if err != nil {
		return err
	}
	rows := make([]analyticsRow, 0, len(courses))
	for _, course := range courses {
		tasks, err := h.app.Store.TasksForCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		rows = append(rows, analyticsRow{Course: course, Summary: kanban.Summarize(tasks)})
	}
	return c.Render(http.StatusOK, "analytics", page(echo.Map{"Rows": rows}))
}
