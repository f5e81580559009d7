package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ErnestWetherell/microcanvas-m1/internal/authz"
	"github.com/ErnestWetherell/microcanvas-m1/internal/forms"
	"github.com/ErnestWetherell/microcanvas-m1/internal/kanban"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/roster"
)

func teamPath(id uint) string { return fmt.Sprintf("/teams/%d", id) }

func (h *Handler) loadTeam(c echo.Context) (*models.Team, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.app.Store.TeamByID(c.Request().Context(), id)
}

// candidates lists the course's students who are not on the team yet.
func (h *Handler) candidates(c echo.Context, team *models.Team, members []models.TeamMembership) (roster.Candidates, error) {
	courseMembers, err := h.app.Store.CourseMembers(c.Request().Context(), team.CourseID)
	if err != nil {
		return nil, err
	}
	return roster.Eligible(courseMembers, members), nil
}

func (h *Handler) teamPage(c echo.Context, status int, team *models.Team, errs forms.Errors) error {
	ctx := c.Request().Context()

	members, err := h.app.Store.TeamMembers(ctx, team.ID)
	if err != nil {
		return err
	}
	tasks, err := h.app.Store.TasksForTeam(ctx, team.ID)
	if err != nil {
		return err
	}
	eligible, err := h.candidates(c, team, members)
	if err != nil {
		return err
	}
	return c.Render(status, "team", page(echo.Map{
		"Team":       team,
		"Members":    members,
		"Columns":    kanban.Build(tasks),
		"Candidates": eligible,
		"Errors":     errs,
	}))
}

func (h *Handler) Team(c echo.Context) error {
	team, err := h.loadTeam(c)
	if err != nil {
		return err
	}
	return h.teamPage(c, http.StatusOK, team, forms.Errors{})
}

// AddTeamMember puts a student of the team's course on the team. The
// eligible set is computed again here, not trusted from the page.
func (h *Handler) AddTeamMember(c echo.Context) error {
	team, err := h.loadTeam(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.AddTeamMember); err != nil {
		return err
	}

	var form forms.MemberForm
	if err := c.Bind(&form); err != nil {
		return echo.ErrBadRequest
	}
	userID, errs := form.Clean()
	if errs.Any() {
		return h.teamPage(c, http.StatusUnprocessableEntity, team, errs)
	}

	ctx := c.Request().Context()
	members, err := h.app.Store.TeamMembers(ctx, team.ID)
	if err != nil {
		return err
	}
	eligible, err := h.candidates(c, team, members)
	if err != nil {
		return err
	}
	if !eligible.Contains(userID) {
		errs.Add("user_id", "Choose a student from this course who is not on the team.")
		return h.teamPage(c, http.StatusUnprocessableEntity, team, errs)
	}

	if _, err := h.app.Store.AddTeamMember(ctx, team.ID, userID); err != nil {
		return err
	}
	return redirect(c, teamPath(team.ID), "Team member added.")
}

func (h *Handler) DeleteTeam(c echo.Context) error {
	team, err := h.loadTeam(c)
	if err != nil {
		return err
	}
	if err := authz.Check(middleware.CurrentUser(c), authz.DeleteTeam); err != nil {
		return err
	}
	if err := h.app.Store.DeleteTeam(c.Request().Context(), team.ID); err != nil {
		return err
	}
	return redirect(c, coursePath(team.CourseID), fmt.Sprintf("Team %s deleted.", team.Name))
}
