// Package seed loads the demo dataset into an empty database.
package seed

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
)

type demoUser struct {
	email string
	role  models.Role
}

var demoUsers = []demoUser{
	{"prof@example.com", models.RoleInstructor},
	{"ta@example.com", models.RoleTA},
	{"student@example.com", models.RoleStudent},
	{"student2@example.com", models.RoleStudent},
	{"student3@example.com", models.RoleStudent},
}

// Ensure creates the demo dataset when no course exists yet and reports
// whether it did. Two first requests racing each other can both seed.
func Ensure(ctx context.Context, st *store.Store) (bool, error) {
	n, err := st.CountCourses(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	err = st.WithTx(ctx, func(tx *store.Store) error {
		users := make(map[string]*models.User, len(demoUsers))
		for _, du := range demoUsers {
			u, _, err := tx.FindOrCreateUser(ctx, du.email, du.role)
			if err != nil {
				return err
			}
			users[du.email] = u
		}

		cmpe := &models.Course{Code: "CMPE 131", Title: "Software Engineering"}
		ise := &models.Course{Code: "ISE 140", Title: "Production & Ops Mgmt"}
		for _, c := range []*models.Course{cmpe, ise} {
			if err := tx.CreateCourse(ctx, c); err != nil {
				return err
			}
		}

		enroll := []struct {
			course *models.Course
			email  string
			role   models.Role
		}{
			{cmpe, "prof@example.com", models.RoleInstructor},
			{ise, "prof@example.com", models.RoleInstructor},
			{cmpe, "ta@example.com", models.RoleTA},
			{cmpe, "student@example.com", models.RoleStudent},
			{ise, "student@example.com", models.RoleStudent},
			{cmpe, "student2@example.com", models.RoleStudent},
			{cmpe, "student3@example.com", models.RoleStudent},
		}
		for _, e := range enroll {
			if _, err := tx.SetCourseMember(ctx, e.course.ID, users[e.email].ID, e.role); err != nil {
				return err
			}
		}

		alpha := &models.Team{CourseID: cmpe.ID, Name: "Team Alpha"}
		beta := &models.Team{CourseID: cmpe.ID, Name: "Team Beta"}
		for _, t := range []*models.Team{alpha, beta} {
			if err := tx.CreateTeam(ctx, t); err != nil {
				return err
			}
		}
		if _, err := tx.AddTeamMember(ctx, alpha.ID, users["student@example.com"].ID); err != nil {
			return err
		}
		if _, err := tx.AddTeamMember(ctx, beta.ID, users["student2@example.com"].ID); err != nil {
			return err
		}

		tasks := []*models.Task{
			{
				CourseID:    cmpe.ID,
				Title:       "Project proposal",
				Description: "Submit 1-page project idea.",
				Status:      models.StatusTodo,
				Points:      50,
			},
			{
				CourseID:    cmpe.ID,
				TeamID:      &alpha.ID,
				Title:       "Unit test suite",
				Description: "Add tests for your routes.",
				Status:      models.StatusInProgress,
				Points:      100,
			},
			{
				CourseID:    ise.ID,
				Title:       "HW 3 – Forecasting",
				Description: "Solve forecasting problems 1–5.",
				Status:      models.StatusTodo,
				Points:      75,
			},
		}
		for _, t := range tasks {
			if err := tx.CreateTask(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "seed demo data")
	}
	return true, nil
}
