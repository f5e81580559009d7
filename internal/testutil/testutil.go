// Package testutil sets up throwaway databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/ErnestWetherell/microcanvas-m1/internal/database"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
)

// OpenDB returns a migrated SQLite database living in the test's temp dir.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"), true)
	if err != nil {
		t.Fatalf("database.Connect(): %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(db); err != nil {
			t.Errorf("database.Close(): %v", err)
		}
	})
	return db
}

func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(OpenDB(t))
}

func CreateUser(t *testing.T, st *store.Store, email string, role models.Role) *models.User {
	t.Helper()
	u, _, err := st.FindOrCreateUser(context.Background(), email, role)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func CreateCourse(t *testing.T, st *store.Store, code, title string) *models.Course {
	t.Helper()
	c := &models.Course{Code: code, Title: title}
	if err := st.CreateCourse(context.Background(), c); err != nil {
		t.Fatalf("CreateCourse(%s): %v", code, err)
	}
	return c
}

func Enroll(t *testing.T, st *store.Store, course *models.Course, u *models.User, role models.Role) {
	t.Helper()
	if _, err := st.SetCourseMember(context.Background(), course.ID, u.ID, role); err != nil {
		t.Fatalf("Enroll(%s): %v", u.Email, err)
	}
}

func CreateTeam(t *testing.T, st *store.Store, course *models.Course, name string) *models.Team {
	t.Helper()
	team := &models.Team{CourseID: course.ID, Name: name}
	if err := st.CreateTeam(context.Background(), team); err != nil {
		t.Fatalf("CreateTeam(%s): %v", name, err)
	}
	return team
}

func CreateTask(t *testing.T, st *store.Store, task *models.Task) *models.Task {
	t.Helper()
	if err := st.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask(%s): %v", task.Title, err)
	}
	return task
}
