package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErnestWetherell/microcanvas-m1/config"
	"github.com/ErnestWetherell/microcanvas-m1/internal/app"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
	"github.com/ErnestWetherell/microcanvas-m1/internal/seed"
	"github.com/ErnestWetherell/microcanvas-m1/internal/server"
	"github.com/ErnestWetherell/microcanvas-m1/internal/services"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
	"github.com/ErnestWetherell/microcanvas-m1/internal/testutil"
)

type fakeGradebook struct {
	mu   sync.Mutex
	rows []services.GradeRow
}

func (f *fakeGradebook) AppendGrade(_ context.Context, row services.GradeRow) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, row)
	return len(f.rows) + 1, nil
}

func (f *fakeGradebook) Rows() []services.GradeRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.GradeRow(nil), f.rows...)
}

type env struct {
	t      *testing.T
	url    string
	store  *store.Store
	grades *fakeGradebook
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := testutil.OpenStore(t)

	cfg := &config.Config{
		Environment:   "test",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		SeedDemoData:  true,
		LogLevel:      "info",
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	a := app.New(cfg, st, log)
	grades := &fakeGradebook{}
	a.Grades = grades

	e, err := server.New(a)
	require.NoError(t, err)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &env{t: t, url: srv.URL, store: st, grades: grades}
}

// seed loads the demo data without going through a request.
func (e *env) seed() {
	_, err := seed.Ensure(context.Background(), e.store)
	require.NoError(e.t, err)
}

// browser returns a client that keeps cookies and follows redirects.
func (e *env) browser() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &http.Client{Jar: jar}
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

type response struct {
	status   int
	body     string
	location string
}

func read(t *testing.T, resp *http.Response, err error) response {
	t.Helper()
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: string(body), location: resp.Header.Get("Location")}
}

func (e *env) get(c *http.Client, path string) response {
	resp, err := c.Get(e.url + path)
	return read(e.t, resp, err)
}

func (e *env) post(c *http.Client, path string, form url.Values) response {
	resp, err := c.PostForm(e.url+path, form)
	return read(e.t, resp, err)
}

func (e *env) login(email string) *http.Client {
	c := e.browser()
	r := e.post(c, "/auth/login", url.Values{"email": {email}})
	require.Equal(e.t, http.StatusOK, r.status)
	return c
}

func (e *env) course(code string) models.Course {
	courses, err := e.store.ListCourses(context.Background())
	require.NoError(e.t, err)
	for _, c := range courses {
		if c.Code == code {
			return c
		}
	}
	e.t.Fatalf("course %s not found", code)
	return models.Course{}
}

func (e *env) task(title string) *models.Task {
	var task models.Task
	require.NoError(e.t, e.store.DB().Where("title = ?", title).First(&task).Error)
	return &task
}

func (e *env) team(name string) *models.Team {
	var team models.Team
	require.NoError(e.t, e.store.DB().Where("name = ?", name).First(&team).Error)
	return &team
}

func (e *env) user(email string) *models.User {
	u, err := e.store.UserByEmail(context.Background(), email)
	require.NoError(e.t, err)
	return u
}

func TestLoginCreatesNewUser(t *testing.T) {
	e := newEnv(t)
	c := e.browser()

	r := e.post(c, "/auth/login", url.Values{"email": {"NewStudent@example.com"}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Logged in as newstudent@example.com (student).")

	u := e.user("newstudent@example.com")
	assert.Equal(t, models.RoleStudent, u.Role)
}

func TestLoginRejectsInvalidEmail(t *testing.T) {
	e := newEnv(t)
	r := e.post(e.browser(), "/auth/login", url.Values{"email": {"nope"}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Contains(t, r.body, "email must be a valid email address")
}

func TestLoginPageSeedsAndRedirectsSignedInUsers(t *testing.T) {
	e := newEnv(t)
	r := e.get(e.browser(), "/auth/login")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Log in")
	assert.NotContains(t, r.body, "Sign in with Gitea")

	n, err := e.store.CountCourses(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	c := e.login("student@example.com")
	r = e.get(c, "/auth/login")
	assert.Contains(t, r.body, "Dashboard")
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")

	r := e.get(c, "/auth/logout")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Logged out.")

	resp, err := c.Get(e.url + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/auth/login", resp.Request.URL.Path)
}

func TestPagesRequireAuth(t *testing.T) {
	e := newEnv(t)
	e.seed()
	for _, path := range []string{"/", "/courses", "/analytics", "/courses/1", "/tasks/1", "/teams/1"} {
		r := e.get(noRedirect(), path)
		assert.Equal(t, http.StatusFound, r.status, path)
		assert.Equal(t, "/auth/login", r.location, path)
	}
}

func TestDashboardListsCoursesAndUpcomingTasks(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")

	r := e.get(c, "/")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "CMPE 131")
	assert.Contains(t, r.body, "ISE 140")
	assert.Contains(t, r.body, "Project proposal")
	assert.Contains(t, r.body, "HW 3 – Forecasting")
}

func TestCoursesListsAllCourses(t *testing.T) {
	e := newEnv(t)
	c := e.login("outsider@example.com")

	r := e.get(c, "/courses")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Software Engineering")
	assert.Contains(t, r.body, "Production &amp; Ops Mgmt")
}

func TestCourseBoardRendersColumns(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	course := e.course("CMPE 131")

	r := e.get(c, fmt.Sprintf("/courses/%d", course.ID))
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Task board")
	assert.Contains(t, r.body, "To do")
	assert.Contains(t, r.body, "In progress")
	assert.Contains(t, r.body, "Done")
	assert.Contains(t, r.body, "Team")
	assert.NotContains(t, r.body, "New task")
}

func TestMissingAndMalformedIDsAre404(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	for _, path := range []string{"/totally-missing", "/courses/999", "/courses/abc", "/tasks/0", "/teams/-1"} {
		r := e.get(c, path)
		assert.Equal(t, http.StatusNotFound, r.status, path)
		assert.Contains(t, r.body, "Page not found", path)
	}
}

func TestInstructorCanCreateTask(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	course := e.course("CMPE 131")
	alpha := e.team("Team Alpha")
	before, err := e.store.CountTasks(context.Background(), course.ID)
	require.NoError(t, err)

	r := e.get(c, fmt.Sprintf("/courses/%d/tasks/new", course.ID))
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, `value="100"`)

	r = e.post(c, fmt.Sprintf("/courses/%d/tasks/new", course.ID), url.Values{
		"title":       {"Prototype review"},
		"description": {"Discuss MVP status"},
		"points":      {"75"},
		"due_date":    {"2026-05-01"},
		"team_id":     {fmt.Sprint(alpha.ID)},
	})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Task created.")

	after, err := e.store.CountTasks(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	task := e.task("Prototype review")
	assert.Equal(t, 75, task.Points)
	assert.Equal(t, models.StatusTodo, task.Status)
	require.NotNil(t, task.TeamID)
	assert.Equal(t, alpha.ID, *task.TeamID)
	require.NotNil(t, task.DueDate)
}

func TestCreateTaskDefaultsAndValidation(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	course := e.course("CMPE 131")
	path := fmt.Sprintf("/courses/%d/tasks/new", course.ID)

	r := e.post(c, path, url.Values{"title": {"Retro"}, "points": {""}, "team_id": {"0"}})
	assert.Contains(t, r.body, "Task created.")
	retro := e.task("Retro")
	assert.Equal(t, models.DefaultPoints, retro.Points)
	assert.Nil(t, retro.TeamID)

	before, err := e.store.CountTasks(context.Background(), course.ID)
	require.NoError(t, err)

	r = e.post(c, path, url.Values{"title": {""}, "points": {"5000"}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Contains(t, r.body, "This field is required.")

	other := e.course("ISE 140")
	otherTeam := &models.Team{CourseID: other.ID, Name: "Elsewhere"}
	require.NoError(t, e.store.CreateTeam(context.Background(), otherTeam))
	r = e.post(c, path, url.Values{"title": {"Wrong team"}, "team_id": {fmt.Sprint(otherTeam.ID)}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Contains(t, r.body, "Choose a team from this course.")

	after, err := e.store.CountTasks(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStudentCannotAccessInstructorPages(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	course := e.course("CMPE 131")
	task := e.task("Project proposal")

	r := e.get(c, fmt.Sprintf("/courses/%d/tasks/new", course.ID))
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Contains(t, r.body, "Access denied")
	assert.Contains(t, r.body, "Only instructors can create tasks.")

	r = e.get(c, fmt.Sprintf("/tasks/%d/grade", task.ID))
	assert.Equal(t, http.StatusForbidden, r.status)

	r = e.post(c, fmt.Sprintf("/courses/%d/teams", course.ID), url.Values{"name": {"Rogue"}})
	assert.Equal(t, http.StatusForbidden, r.status)

	r = e.post(c, fmt.Sprintf("/courses/%d/delete", course.ID), nil)
	assert.Equal(t, http.StatusForbidden, r.status)
	e.course("CMPE 131")
}

func TestStudentUpdatesTaskStatus(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	task := e.task("Project proposal")

	r := e.post(c, fmt.Sprintf("/tasks/%d/status", task.ID), url.Values{"status": {"done"}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Task status updated.")
	assert.Equal(t, models.StatusDone, e.task("Project proposal").Status)
}

func TestInstructorMovesTaskBetweenColumns(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	task := e.task("Unit test suite")
	require.Equal(t, models.StatusInProgress, task.Status)

	r := e.post(c, fmt.Sprintf("/tasks/%d/status", task.ID), url.Values{"status": {"todo"}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, models.StatusTodo, e.task("Unit test suite").Status)
}

func TestBadStatusReturns400(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	task := e.task("Project proposal")

	for _, status := range []string{"not-valid", "", "DONE"} {
		r := e.post(c, fmt.Sprintf("/tasks/%d/status", task.ID), url.Values{"status": {status}})
		assert.Equal(t, http.StatusBadRequest, r.status, status)
		assert.Contains(t, r.body, "We couldn't process that", status)
	}
	assert.Equal(t, models.StatusTodo, e.task("Project proposal").Status)
}

func TestTACanLeaveFeedback(t *testing.T) {
	e := newEnv(t)
	c := e.login("ta@example.com")
	task := e.task("Project proposal")

	r := e.post(c, fmt.Sprintf("/tasks/%d/comments", task.ID), url.Values{"body": {"  Reviewed!  "}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Feedback posted.")
	assert.Contains(t, r.body, "Reviewed!")

	comments, err := e.store.CommentsForTask(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Reviewed!", comments[0].Body)
	assert.Equal(t, models.RoleTA, comments[0].Author.Role)

	r = e.post(c, fmt.Sprintf("/tasks/%d/comments", task.ID), url.Values{"body": {"   "}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	n, err := e.store.CountComments(context.Background(), task.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStudentCannotLeaveFeedback(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	task := e.task("Project proposal")

	r := e.post(c, fmt.Sprintf("/tasks/%d/comments", task.ID), url.Values{"body": {"I should not do this"}})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Contains(t, r.body, "Access denied")

	n, err := e.store.CountComments(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGrading(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	task := e.task("Project proposal")
	path := fmt.Sprintf("/tasks/%d/grade", task.ID)

	r := e.get(c, path)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Not graded")

	r = e.post(c, path, url.Values{"score": {"0"}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Grade saved.")
	assert.Contains(t, r.body, "0/50")
	graded := e.task("Project proposal")
	require.NotNil(t, graded.Score)
	assert.Equal(t, 0, *graded.Score)

	r = e.post(c, path, url.Values{"score": {"1001"}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.NotNil(t, e.task("Project proposal").Score)

	r = e.post(c, path, url.Values{"score": {""}})
	assert.Contains(t, r.body, "Grade saved.")
	assert.Nil(t, e.task("Project proposal").Score)

	rows := e.grades.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "CMPE 131", rows[0].Course)
	assert.Equal(t, "prof@example.com", rows[0].GradedBy)
	assert.Nil(t, rows[1].Score)
}

func TestTeamPageRendersMembersAndTasks(t *testing.T) {
	e := newEnv(t)
	c := e.login("student@example.com")
	alpha := e.team("Team Alpha")

	r := e.get(c, fmt.Sprintf("/teams/%d", alpha.ID))
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Members")
	assert.Contains(t, r.body, "Team tasks")
	assert.Contains(t, r.body, "student@example.com")
	assert.Contains(t, r.body, "Unit test suite")
}

func TestTeamMembershipEligibility(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	alpha := e.team("Team Alpha")
	path := fmt.Sprintf("/teams/%d/members", alpha.ID)

	r := e.get(c, fmt.Sprintf("/teams/%d", alpha.ID))
	assert.Contains(t, r.body, "student2@example.com")
	assert.Contains(t, r.body, "student3@example.com")
	assert.NotContains(t, r.body, `>prof@example.com</option>`)

	for _, email := range []string{"student@example.com", "prof@example.com", "ta@example.com"} {
		r = e.post(c, path, url.Values{"user_id": {fmt.Sprint(e.user(email).ID)}})
		assert.Equal(t, http.StatusUnprocessableEntity, r.status, email)
	}

	r = e.post(c, path, url.Values{"user_id": {fmt.Sprint(e.user("student3@example.com").ID)}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Team member added.")

	members, err := e.store.TeamMembers(context.Background(), alpha.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	r = e.post(c, path, url.Values{"user_id": {fmt.Sprint(e.user("student3@example.com").ID)}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
}

func TestEnrollingMakesStudentEligible(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	course := e.course("CMPE 131")
	beta := e.team("Team Beta")

	r := e.post(c, fmt.Sprintf("/courses/%d/members", course.ID), url.Values{
		"email": {"Late@Example.com"},
		"role":  {"student"},
	})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "late@example.com is now a Student in CMPE 131.")

	r = e.get(c, fmt.Sprintf("/teams/%d", beta.ID))
	assert.Contains(t, r.body, "late@example.com")

	r = e.post(c, fmt.Sprintf("/courses/%d/members", course.ID), url.Values{"email": {"x"}, "role": {"owner"}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
}

func TestCreateTeam(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	course := e.course("CMPE 131")

	r := e.post(c, fmt.Sprintf("/courses/%d/teams", course.ID), url.Values{"name": {"Team Gamma"}})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Team created.")
	assert.Contains(t, r.body, "Team Gamma")

	r = e.post(c, fmt.Sprintf("/courses/%d/teams", course.ID), url.Values{"name": {" "}})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Contains(t, r.body, "Task board")
}

func TestAnalytics(t *testing.T) {
	e := newEnv(t)

	prof := e.login("prof@example.com")
	r := e.get(prof, "/analytics")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Course analytics")
	assert.Contains(t, r.body, "CMPE 131")

	student := e.login("student@example.com")
	r = e.get(student, "/analytics")
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Contains(t, r.body, "Only instructors can view analytics.")
}

func TestDeletes(t *testing.T) {
	e := newEnv(t)
	c := e.login("prof@example.com")
	ctx := context.Background()

	alpha := e.team("Team Alpha")
	r := e.post(c, fmt.Sprintf("/teams/%d/delete", alpha.ID), nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Team Team Alpha deleted.")
	assert.Nil(t, e.task("Unit test suite").TeamID)

	task := e.task("Project proposal")
	r = e.post(c, fmt.Sprintf("/tasks/%d/delete", task.ID), nil)
	assert.Contains(t, r.body, "Task deleted.")
	_, err := e.store.TaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	course := e.course("ISE 140")
	r = e.post(c, fmt.Sprintf("/courses/%d/delete", course.ID), nil)
	assert.Contains(t, r.body, "Course ISE 140 deleted.")
	n, err := e.store.CountCourses(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

// The walk-through a student and a TA take on a fresh install.
func TestStudentAndTAScenario(t *testing.T) {
	e := newEnv(t)

	student := e.login("student@example.com")
	r := e.get(student, "/")
	assert.Contains(t, r.body, "CMPE 131")

	task := e.task("Project proposal")
	r = e.post(student, fmt.Sprintf("/tasks/%d/status", task.ID), url.Values{"status": {"in_progress"}})
	assert.Contains(t, r.body, "Task status updated.")

	ta := e.login("ta@example.com")
	r = e.post(ta, fmt.Sprintf("/tasks/%d/comments", task.ID), url.Values{"body": {"Looks good"}})
	assert.Contains(t, r.body, "Feedback posted.")

	r = e.get(student, fmt.Sprintf("/tasks/%d", task.ID))
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Looks good")
	assert.Contains(t, r.body, "In progress")
	assert.Contains(t, r.body, "<p>Submit 1-page project idea.</p>")
}

func TestHealthzAndGiteaDisabled(t *testing.T) {
	e := newEnv(t)
	r := e.get(http.DefaultClient, "/healthz")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ok", r.body)

	r = e.get(noRedirect(), "/auth/gitea")
	assert.Equal(t, http.StatusNotFound, r.status)
}
