package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user %d", id)
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err, "user %q", email)
	}
	return &u, nil
}

// FindOrCreateUser returns the user with the given email, creating it with
// role when it does not exist yet. An existing user keeps its role.
func (s *Store) FindOrCreateUser(ctx context.Context, email string, role models.Role) (*models.User, bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, false, errors.New("email is required")
	}
	if !role.Valid() {
		return nil, false, models.ErrInvalidRole
	}

	existing, err := s.UserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	u := models.User{Email: email, Role: role}
	if err := s.conn(ctx).Create(&u).Error; err != nil {
		return nil, false, errors.Wrapf(err, "create user %q", email)
	}
	return &u, true, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Count(&n).Error
	return n, errors.Wrap(err, "count users")
}

// DeleteUser removes the user together with their comments and memberships.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.UserByID(ctx, id); err != nil {
			return err
		}
		db := tx.conn(ctx)
		if err := db.Where("author_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return errors.Wrap(err, "delete user comments")
		}
		if err := db.Where("user_id = ?", id).Delete(&models.CourseMembership{}).Error; err != nil {
			return errors.Wrap(err, "delete user course memberships")
		}
		if err := db.Where("user_id = ?", id).Delete(&models.TeamMembership{}).Error; err != nil {
			return errors.Wrap(err, "delete user team memberships")
		}
		return errors.Wrap(db.Delete(&models.User{}, id).Error, "delete user")
	})
}
