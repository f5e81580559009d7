// Package roster computes which course members can still join a team.
package roster

import "github.com/ErnestWetherell/microcanvas-m1/internal/models"

type Candidate struct {
	UserID uint
	Email  string
}

type Candidates []Candidate

// Empty reports the "no eligible users" state.
func (c Candidates) Empty() bool { return len(c) == 0 }

func (c Candidates) Contains(userID uint) bool {
	for _, cand := range c {
		if cand.UserID == userID {
			return true
		}
	}
	return false
}

// Eligible returns the student members of the course that hold no membership
// on the team, in the order they appear in courseMembers. The memberships are
// expected to have User loaded; those without one are skipped.
func Eligible(courseMembers []models.CourseMembership, teamMembers []models.TeamMembership) Candidates {
	onTeam := make(map[uint]bool, len(teamMembers))
	for _, tm := range teamMembers {
		onTeam[tm.UserID] = true
	}

	out := Candidates{}
	seen := make(map[uint]bool, len(courseMembers))
	for _, cm := range courseMembers {
		if cm.Role != models.RoleStudent || cm.User == nil {
			continue
		}
		if onTeam[cm.UserID] || seen[cm.UserID] {
			continue
		}
		seen[cm.UserID] = true
		out = append(out, Candidate{UserID: cm.UserID, Email: cm.User.Email})
	}
	return out
}
