// Package authz decides which roles may perform which actions.
package authz

import (
	"errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

type Action int

const (
	CreateTask Action = iota
	GradeTask
	CreateTeam
	AddTeamMember
	PostComment
	UpdateStatus
	ViewAnalytics
	ManageCourseMembers
	DeleteCourse
	DeleteTeam
	DeleteTask
)

var ErrPermissionDenied = errors.New("access denied")

// Denied is returned by Check. It matches ErrPermissionDenied.
type Denied struct {
	Action Action
	Reason string
}

func (d *Denied) Error() string { return "access denied: " + d.Reason }

func (d *Denied) Is(target error) bool { return target == ErrPermissionDenied }

var reasons = map[Action]string{
	CreateTask:          "Only instructors can create tasks.",
	GradeTask:           "Only instructors can enter grades.",
	CreateTeam:          "Only instructors can create teams.",
	AddTeamMember:       "Only instructors can manage team members.",
	PostComment:         "Only instructors and TAs can leave feedback.",
	UpdateStatus:        "Sign in to update tasks.",
	ViewAnalytics:       "Only instructors can view analytics.",
	ManageCourseMembers: "Only instructors can manage course members.",
	DeleteCourse:        "Only instructors can delete courses.",
	DeleteTeam:          "Only instructors can delete teams.",
	DeleteTask:          "Only instructors can delete tasks.",
}

func actions(a ...Action) map[Action]bool {
	m := make(map[Action]bool, len(a))
	for _, act := range a {
		m[act] = true
	}
	return m
}

// capabilities is keyed by role. Moving cards is open to every signed-in user.
var capabilities = map[models.Role]map[Action]bool{
	models.RoleInstructor: actions(
		CreateTask, GradeTask, CreateTeam, AddTeamMember, PostComment, UpdateStatus,
		ViewAnalytics, ManageCourseMembers, DeleteCourse, DeleteTeam, DeleteTask,
	),
	models.RoleTA:      actions(PostComment, UpdateStatus),
	models.RoleStudent: actions(UpdateStatus),
}

func Allowed(u *models.User, a Action) bool {
	if u == nil {
		return false
	}
	return capabilities[u.Role][a]
}

func Check(u *models.User, a Action) error {
	if Allowed(u, a) {
		return nil
	}
	return &Denied{Action: a, Reason: reasons[a]}
}
