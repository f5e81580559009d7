package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/authz"
	"github.com/ErnestWetherell/microcanvas-m1/internal/forms"
	"github.com/ErnestWetherell/microcanvas-m1/internal/kanban"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
)

func coursePath(id uint) string { return fmt.Sprintf("/courses/%d", id) }

func (h *Handler) loadCourse(c echo.Context) (*models.Course, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.app.Store.CourseByID(c.Request().Context(), id)
}

// coursePage renders the board page. extra overrides the empty forms when a
// submission on the page failed validation.
func (h *Handler) coursePage(c echo.Context, status int, course *models.Course, extra echo.Map) error {
	ctx := c.Request().Context()

	tasks, err := h.app.Store.TasksForCourse(ctx, course.ID)
	if err != nil {
		return err
	}
	teams, err := h.app.Store.TeamsForCourse(ctx, course.ID)
	if err != nil {
		return err
	}
	members, err := h.app.Store.CourseMembers(ctx, course.ID)
	if err != nil {
		return err
	}

	data := echo.Map{
		"Course":     course,
		"Columns":    kanban.Build(tasks),
		"Teams":      teams,
		"Members":    members,
		"TeamForm":   forms.TeamForm{},
		"MemberForm": forms.CourseMemberForm{},
	}
	for k, v := range extra {
		data[k] = v
	}
	return c.Render(status, "course", page(data))
}

func (h *Handler) Course(c echo.Context) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	return h.coursePage(c, http.StatusOK, course, nil)
}

func (h *Handler) DeleteCourse(c echo.Context) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.DeleteCourse); err != nil {
		return err
	}
	if err := h.app.Store.DeleteCourse(c.Request().Context(), course.ID); err != nil {
		return err
	}
	return redirect(c, "/courses", fmt.Sprintf("Course %s deleted.", course.Code))
}

// AddCourseMember enrolls a user by email, creating the account when needed.
// Re-adding an existing member changes their course role.
func (h *Handler) AddCourseMember(c echo.Context) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.ManageCourseMembers); err != nil {
		return err
	}

	var form forms.CourseMemberForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	email, role, errs := form.Clean()
	if errs.Any() {
		return h.coursePage(c, http.StatusUnprocessableEntity, course, echo.Map{"MemberForm": form, "Errors": errs})
	}

	ctx := c.Request().Context()
	u, _, err := h.app.Store.FindOrCreateUser(ctx, email, role)
	if err != nil {
		return err
	}
	if _, err := h.app.Store.SetCourseMember(ctx, course.ID, u.ID, role); err != nil {
		return err
	}
	return redirect(c, coursePath(course.ID), fmt.Sprintf("%s is now a %s in %s.", u.Email, role.Label(), course.Code))
}

func (h *Handler) CreateTeam(c echo.Context) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.CreateTeam); err != nil {
		return err
	}

	var form forms.TeamForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	name, errs := form.Clean()
	if errs.Any() {
		return h.coursePage(c, http.StatusUnprocessableEntity, course, echo.Map{"TeamForm": form, "Errors": errs})
	}

	team := &models.Team{CourseID: course.ID, Name: name}
	if err := h.app.Store.CreateTeam(c.Request().Context(), team); err != nil {
		return err
	}
	return redirect(c, teamPath(team.ID), "Team created.")
}

func (h *Handler) taskFormPage(c echo.Context, status int, course *models.Course, form forms.TaskForm, errs forms.Errors) error {
	teams, err := h.app.Store.TeamsForCourse(c.Request().Context(), course.ID)
	if err != nil {
		return err
	}
	return c.Render(status, "task_form", page(echo.Map{
		"Course": course,
		"Teams":  teams,
		"Form":   form,
		"Errors": errs,
	}))
}

func (h *Handler) NewTask(c echo.Context) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.CreateTask); err != nil {
		return err
	}
	form := forms.TaskForm{Points: fmt.Sprint(models.DefaultPoints)}
	return h.taskFormPage(c, http.StatusOK, course, form, forms.Errors{})
}

func (h *Handler) CreateTask(c echo.Context) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.CreateTask); err != nil {
		return err
	}

	var form forms.TaskForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	in, errs := form.Clean()
	ctx := c.Request().Context()
	if !errs.Any() && in.TeamID != nil {
		team, err := h.app.Store.TeamByID(ctx, *in.TeamID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			errs.Add("team_id", "Choose a team from this course.")
		case err != nil:
			return err
		case team.CourseID != course.ID:
			errs.Add("team_id", "Choose a team from this course.")
		}
	}
	if errs.Any() {
		return h.taskFormPage(c, http.StatusUnprocessableEntity, course, form, errs)
	}

	task := &models.Task{
		CourseID:    course.ID,
		TeamID:      in.TeamID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Points:      in.Points,
		Status:      models.StatusTodo,
	}
	if err := h.app.Store.CreateTask(ctx, task); err != nil {
		return err
	}
	return redirect(c, coursePath(course.ID), "Task created.")
}
