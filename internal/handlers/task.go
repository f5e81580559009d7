package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ErnestWetherell/microcanvas-m1/internal/authz"
	"github.com/ErnestWetherell/microcanvas-m1/internal/forms"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/services"
)

func taskPath(id uint) string { return fmt.Sprintf("/tasks/%d", id) }

func (h *Handler) loadTask(c echo.Context) (*models.Task, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.app.Store.TaskByID(c.Request().Context(), id)
}

func (h *Handler) taskPage(c echo.Context, status int, task *models.Task, form forms.CommentForm, errs forms.Errors) error {
	comments, err := h.app.Store.CommentsForTask(c.Request().Context(), task.ID)
	if err != nil {
		return err
	}
	return c.Render(status, "task", page(echo.Map{
		"Task":        task,
		"Comments":    comments,
		"CommentForm": form,
		"Errors":      errs,
	}))
}

func (h *Handler) Task(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	return h.taskPage(c, http.StatusOK, task, forms.CommentForm{}, forms.Errors{})
}

// UpdateStatus moves a task to another board column. Any signed-in user may
// move any task.
func (h *Handler) UpdateStatus(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.UpdateStatus); err != nil {
		return err
	}

	status, err := models.ParseStatus(c.FormValue("status"))
	if err != nil {
		return err
	}
	if err := h.app.Store.UpdateTaskStatus(c.Request().Context(), task.ID, status); err != nil {
		return err
	}
	return redirect(c, coursePath(task.CourseID), "Task status updated.")
}

func (h *Handler) PostComment(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	u := middleware.CurrentUser(c)
	if err := authz.Check(u, authz.PostComment); err != nil {
		return err
	}

	var form forms.CommentForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	body, errs := form.Clean()
	if errs.Any() {
		return h.taskPage(c, http.StatusUnprocessableEntity, task, form, errs)
	}

	if _, err := h.app.Store.AddComment(c.Request().Context(), task.ID, u.ID, body); err != nil {
		return err
	}
	return redirect(c, taskPath(task.ID), "Feedback posted.")
}

func (h *Handler) gradePage(c echo.Context, status int, task *models.Task, form forms.GradeForm, errs forms.Errors) error {
	return c.Render(status, "grade_form", page(echo.Map{
		"Task":   task,
		"Form":   form,
		"Errors": errs,
	}))
}

func (h *Handler) GradeForm(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.GradeTask); err != nil {
		return err
	}
	var form forms.GradeForm
	if task.Score != nil {
		form.Score = strconv.Itoa(*task.Score)
	}
	return h.gradePage(c, http.StatusOK, task, form, forms.Errors{})
}

// SaveGrade stores the score. A blank score clears the grade.
func (h *Handler) SaveGrade(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	u := middleware.CurrentUser(c)
	if err := authz.Check(u, authz.GradeTask); err != nil {
		return err
	}

	var form forms.GradeForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	score, errs := form.Clean()
	if errs.Any() {
		return h.gradePage(c, http.StatusUnprocessableEntity, task, form, errs)
	}

	ctx := c.Request().Context()
	if err := h.app.Store.SetTaskScore(ctx, task.ID, score); err != nil {
		return err
	}
	task.Score = score
	h.exportGrade(c, task, u)
	return redirect(c, coursePath(task.CourseID), "Grade saved.")
}

// exportGrade copies the grade to the external gradebook. Failures are
// logged; the grade is already saved.
func (h *Handler) exportGrade(c echo.Context, task *models.Task, grader *models.User) {
	if h.app.Grades == nil {
		return
	}
	row := services.GradeRow{
		Task:     task.Title,
		Score:    task.Score,
		Points:   task.Points,
		GradedBy: grader.Email,
		GradedAt: time.Now(),
	}
	if task.Course != nil {
		row.Course = task.Course.Code
	}
	if task.Team != nil {
		row.Team = task.Team.Name
	}
	line, err := h.app.Grades.AppendGrade(c.Request().Context(), row)
	if err != nil {
		h.app.Log.WithError(err).WithField("task_id", task.ID).Warn("gradebook export failed")
		return
	}
	h.app.Log.WithField("task_id", task.ID).WithField("row", line).Debug("grade exported")
}

func (h *Handler) DeleteTask(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.DeleteTask); err != nil {
		return err
	}
	if err := h.app.Store.DeleteTask(c.Request().Context(), task.ID); err != nil {
		return err
	}
	return redirect(c, coursePath(task.CourseID), "Task deleted.")
}
