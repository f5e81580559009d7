package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

func (s *Store) CreateTeam(ctx context.Context, t *models.Team) error {
	return errors.Wrap(s.conn(ctx).Create(t).Error, "create team")
}

// TeamByID loads the team with its course.
func (s *Store) TeamByID(ctx context.Context, id uint) (*models.Team, error) {
	var t models.Team
	if err := s.conn(ctx).Preload("Course").First(&t, id).Error; err != nil {
		return nil, notFound(err, "team %d", id)
	}
	return &t, nil
}

func (s *Store) TeamsForCourse(ctx context.Context, courseID uint) ([]models.Team, error) {
	var teams []models.Team
	err := s.conn(ctx).Where("course_id = ?", courseID).Order("name ASC, id ASC").Find(&teams).Error
	return teams, errors.Wrap(err, "list course teams")
}

func (s *Store) TeamMembers(ctx context.Context, teamID uint) ([]models.TeamMembership, error) {
	var members []models.TeamMembership
	err := s.conn(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("id ASC").
		Find(&members).Error
	return members, errors.Wrap(err, "list team members")
}

// AddTeamMember records the membership, failing with ErrDuplicate when the
// user is already on the team.
func (s *Store) AddTeamMember(ctx context.Context, teamID, userID uint) (*models.TeamMembership, error) {
	var n int64
	err := s.conn(ctx).Model(&models.TeamMembership{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&n).Error
	if err != nil {
		return nil, errors.Wrap(err, "check team membership")
	}
	if n > 0 {
		return nil, errors.Wrapf(ErrDuplicate, "user %d on team %d", userID, teamID)
	}

	m := &models.TeamMembership{TeamID: teamID, UserID: userID}
	if err := s.conn(ctx).Create(m).Error; err != nil {
		return nil, errors.Wrap(err, "create team membership")
	}
	return m, nil
}

// DeleteTeam removes the team and its memberships. Its tasks stay in the
// course with no team.
func (s *Store) DeleteTeam(ctx context.Context, id uint) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.TeamByID(ctx, id); err != nil {
			return err
		}
		db := tx.conn(ctx)
		if err := db.Model(&models.Task{}).Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
			return errors.Wrap(err, "detach team tasks")
		}
		if err := db.Where("team_id = ?", id).Delete(&models.TeamMembership{}).Error; err != nil {
			return errors.Wrap(err, "delete team memberships")
		}
		return errors.Wrap(db.Delete(&models.Team{}, id).Error, "delete team")
	})
}
