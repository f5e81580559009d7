package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

func (s *Store) CountCourses(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Course{}).Count(&n).Error
	return n, errors.Wrap(err, "count courses")
}

func (s *Store) CreateCourse(ctx context.Context, c *models.Course) error {
	return errors.Wrap(s.conn(ctx).Create(c).Error, "create course")
}

func (s *Store) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.conn(ctx).Order("code ASC, id ASC").Find(&courses).Error
	return courses, errors.Wrap(err, "list courses")
}

func (s *Store) CourseByID(ctx context.Context, id uint) (*models.Course, error) {
	var c models.Course
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "course %d", id)
	}
	return &c, nil
}

// CoursesForUser lists the courses the user holds a membership in.
func (s *Store) CoursesForUser(ctx context.Context, userID uint) ([]models.Course, error) {
	var courses []models.Course
	err := s.conn(ctx).
		Joins("JOIN course_memberships ON course_memberships.course_id = courses.id").
		Where("course_memberships.user_id = ?", userID).
		Order("courses.code ASC, courses.id ASC").
		Find(&courses).Error
	return courses, errors.Wrap(err, "list member courses")
}

// CourseMembers returns the course's memberships with User loaded, in the
// order they were created.
func (s *Store) CourseMembers(ctx context.Context, courseID uint) ([]models.CourseMembership, error) {
	var members []models.CourseMembership
	err := s.conn(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&members).Error
	return members, errors.Wrap(err, "list course members")
}

func (s *Store) CourseMembership(ctx context.Context, courseID, userID uint) (*models.CourseMembership, error) {
	var m models.CourseMembership
	err := s.conn(ctx).Where("course_id = ? AND user_id = ?", courseID, userID).First(&m).Error
	if err != nil {
		return nil, notFound(err, "membership of user %d in course %d", userID, courseID)
	}
	return &m, nil
}

// SetCourseMember creates the (user, course) membership or updates its role;
// there is never more than one membership per pair.
func (s *Store) SetCourseMember(ctx context.Context, courseID, userID uint, role models.Role) (*models.CourseMembership, error) {
	if !role.Valid() {
		return nil, models.ErrInvalidRole
	}

	m, err := s.CourseMembership(ctx, courseID, userID)
	switch {
	case err == nil:
		if m.Role != role {
			m.Role = role
			if err := s.conn(ctx).Model(m).Update("role", role).Error; err != nil {
				return nil, errors.Wrap(err, "update course membership")
			}
		}
		return m, nil
	case errors.Is(err, ErrNotFound):
		m = &models.CourseMembership{CourseID: courseID, UserID: userID, Role: role}
		if err := s.conn(ctx).Create(m).Error; err != nil {
			return nil, errors.Wrap(err, "create course membership")
		}
		return m, nil
	default:
		return nil, err
	}
}

// DeleteCourse removes the course and everything it owns.
func (s *Store) DeleteCourse(ctx context.Context, id uint) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.CourseByID(ctx, id); err != nil {
			return err
		}
		db := tx.conn(ctx)

		taskIDs := db.Model(&models.Task{}).Select("id").Where("course_id = ?", id)
		if err := db.Where("task_id IN (?)", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
			return errors.Wrap(err, "delete course comments")
		}
		if err := db.Where("course_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return errors.Wrap(err, "delete course tasks")
		}

		teamIDs := db.Model(&models.Team{}).Select("id").Where("course_id = ?", id)
		if err := db.Where("team_id IN (?)", teamIDs).Delete(&models.TeamMembership{}).Error; err != nil {
			return errors.Wrap(err, "delete course team memberships")
		}
		if err := db.Where("course_id = ?", id).Delete(&models.Team{}).Error; err != nil {
			return errors.Wrap(err, "delete course teams")
		}
		if err := db.Where("course_id = ?", id).Delete(&models.CourseMembership{}).Error; err != nil {
			return errors.Wrap(err, "delete course memberships")
		}
		return errors.Wrap(db.Delete(&models.Course{}, id).Error, "delete course")
	})
}
