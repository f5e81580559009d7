package models

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleTA         Role = "ta"
)

var ErrInvalidRole = errors.New("invalid role")

// roleTraits is the single place that maps a role to what it is.
var roleTraits = map[Role]struct {
	label      string
	instructor bool
	reviewer   bool
}{
	RoleStudent:    {label: "Student"},
	RoleInstructor: {label: "Instructor", instructor: true, reviewer: true},
	RoleTA:         {label: "TA", reviewer: true},
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleTraits[r]; !ok {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleTraits[r]
	return ok
}

func (r Role) Label() string {
	if t, ok := roleTraits[r]; ok {
		return t.label
	}
	return string(r)
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

var ErrInvalidStatus = errors.New("invalid task status")

// Statuses lists every task status in display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

var statusLabels = map[TaskStatus]string{
	StatusTodo:       "To do",
	StatusInProgress: "In progress",
	StatusDone:       "Done",
}

func ParseStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if _, ok := statusLabels[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s TaskStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

const DefaultPoints = 100

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Role  Role   `gorm:"size:20;not null;default:student" json:"role"`
}

func (u User) IsInstructor() bool { return roleTraits[u.Role].instructor }

func (u User) IsTA() bool { return u.Role == RoleTA }

func (u User) IsStudent() bool { return u.Role == RoleStudent }

// CanReviewTasks reports whether the user may leave feedback on tasks.
func (u User) CanReviewTasks() bool { return roleTraits[u.Role].reviewer }

type Course struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code  string `gorm:"size:20;not null" json:"code"`
	Title string `gorm:"size:120;not null" json:"title"`
}

type CourseMembership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint    `gorm:"not null;uniqueIndex:idx_course_membership_user" json:"user_id"`
	User     *User   `json:"user,omitempty"`
	CourseID uint    `gorm:"not null;uniqueIndex:idx_course_membership_user;index" json:"course_id"`
	Course   *Course `json:"course,omitempty"`
	Role     Role    `gorm:"size:20;not null;default:student" json:"role"`
}

type Team struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CourseID uint    `gorm:"not null;index" json:"course_id"`
	Course   *Course `json:"course,omitempty"`
	Name     string  `gorm:"size:80;not null" json:"name"`
}

type TeamMembership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint  `gorm:"not null;uniqueIndex:idx_team_membership_user" json:"user_id"`
	User   *User `json:"user,omitempty"`
	TeamID uint  `gorm:"not null;uniqueIndex:idx_team_membership_user;index" json:"team_id"`
	Team   *Team `json:"team,omitempty"`
}

// Task doubles as an assignment: it carries points and a single optional
// score. A nil Score means "not graded"; zero is a real grade.
type Task struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CourseID uint    `gorm:"not null;index" json:"course_id"`
	Course   *Course `json:"course,omitempty"`
	TeamID   *uint   `gorm:"index" json:"team_id"`
	Team     *Team   `json:"team,omitempty"`

	Title       string     `gorm:"size:140;not null" json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      TaskStatus `gorm:"size:20;not null;default:todo" json:"status"`
	Points      int        `gorm:"not null;default:100" json:"points"`
	Score       *int       `json:"score"`
}

func (t Task) Graded() bool { return t.Score != nil }

type TaskComment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	TaskID   uint   `gorm:"not null;index" json:"task_id"`
	Task     *Task  `json:"task,omitempty"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   *User  `json:"author,omitempty"`
	Body     string `gorm:"not null" json:"body"`
}
